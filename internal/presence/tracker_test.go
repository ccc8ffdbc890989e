package presence

import (
	"slices"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRegisterAndForget(t *testing.T) {
	tr := NewTracker()

	tr.Register("c1", "u1", "alice")
	tr.RecordJoin("c1", "room-1")
	tr.RecordJoin("c1", "room-2")

	if tr.Count() != 1 {
		t.Fatalf("count = %d, want 1", tr.Count())
	}
	if !tr.InRoom("c1", "room-1") {
		t.Fatal("c1 must be in room-1")
	}

	userID, username, rooms, ok := tr.Forget("c1")
	if !ok {
		t.Fatal("forget must succeed for registered conn")
	}
	if userID != "u1" || username != "alice" {
		t.Fatalf("identity mismatch: %s/%s", userID, username)
	}
	slices.Sort(rooms)
	if !slices.Equal(rooms, []string{"room-1", "room-2"}) {
		t.Fatalf("rooms = %v", rooms)
	}
	if tr.Count() != 0 {
		t.Fatalf("count after forget = %d, want 0", tr.Count())
	}
}

func TestForget_UnknownConnIsNoop(t *testing.T) {
	tr := NewTracker()
	if _, _, _, ok := tr.Forget("ghost"); ok {
		t.Fatal("forget of unknown conn must report ok=false")
	}
}

func TestRegister_SameConnKeepsRooms(t *testing.T) {
	tr := NewTracker()
	tr.Register("c1", "u1", "alice")
	tr.RecordJoin("c1", "room-1")

	// повторная регистрация обновляет identity, комнаты не трогает
	tr.Register("c1", "u1", "alice_renamed")

	_, username, _ := tr.IdentityOf("c1")
	if username != "alice_renamed" {
		t.Fatalf("username = %q", username)
	}
	if !tr.InRoom("c1", "room-1") {
		t.Fatal("rooms must survive re-register")
	}
}

func TestConnsOf_MultipleTabs(t *testing.T) {
	tr := NewTracker()
	tr.Register("c1", "u1", "alice")
	tr.Register("c2", "u1", "alice")
	tr.Register("c3", "u2", "bob")

	conns := tr.ConnsOf("u1")
	slices.Sort(conns)
	if !slices.Equal(conns, []string{"c1", "c2"}) {
		t.Fatalf("conns = %v", conns)
	}
}

func TestCheckSlowMode_WaitIsCeilOfRemaining(t *testing.T) {
	tr := NewTracker()
	const delay = 10

	if wait, allowed := tr.CheckSlowMode("r1", "u1", delay, t0); !allowed || wait != 0 {
		t.Fatalf("first message must pass, got wait=%d allowed=%v", wait, allowed)
	}

	// через половину интервала: отказ с wait = ceil(оставшегося)
	wait, allowed := tr.CheckSlowMode("r1", "u1", delay, t0.Add(5*time.Second))
	if allowed {
		t.Fatal("message within delay must be rejected")
	}
	if wait != 5 {
		t.Fatalf("wait = %d, want 5", wait)
	}

	// дробный остаток округляется вверх
	wait, _ = tr.CheckSlowMode("r1", "u1", delay, t0.Add(5500*time.Millisecond))
	if wait != 5 {
		t.Fatalf("wait = %d, want ceil(4.5)=5", wait)
	}

	// отказ не сдвигает cooldown: после полного интервала проходит
	if _, allowed := tr.CheckSlowMode("r1", "u1", delay, t0.Add(10*time.Second)); !allowed {
		t.Fatal("message after full delay must pass")
	}
}

func TestCheckSlowMode_PerRoomPerUser(t *testing.T) {
	tr := NewTracker()

	_, _ = tr.CheckSlowMode("r1", "u1", 10, t0)

	if _, allowed := tr.CheckSlowMode("r2", "u1", 10, t0); !allowed {
		t.Fatal("cooldown must be scoped per room")
	}
	if _, allowed := tr.CheckSlowMode("r1", "u2", 10, t0); !allowed {
		t.Fatal("cooldown must be scoped per user")
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	tr.Register("c1", "u1", "alice")
	_, _ = tr.CheckSlowMode("r1", "u1", 10, t0)

	tr.Reset()

	if tr.Count() != 0 {
		t.Fatal("reset must drop all conns")
	}
	if _, allowed := tr.CheckSlowMode("r1", "u1", 10, t0); !allowed {
		t.Fatal("reset must drop cooldowns")
	}
}
