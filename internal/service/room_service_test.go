package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
)

var (
	svcNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixed  = func() time.Time { return svcNow }
)

func seedUser(users *fakeUserRepo, id, username string) {
	users.add(domain.User{
		ID:       id,
		Email:    username + "@example.com",
		Username: username,
		Role:     domain.RoleUser,
		IsActive: true,
	})
}

func newRoomFixture(t *testing.T) (*RoomService, *fakeRoomRepo, *fakeUserRepo, *fakeEvents) {
	t.Helper()
	rooms := newFakeRoomRepo()
	users := newFakeUserRepo()
	svc := NewRoomService(rooms, users, fixed)
	ev := &fakeEvents{}
	svc.SetEvents(ev)

	seedUser(users, "creator-1", "alice")
	seedUser(users, "mod-1", "bob")
	seedUser(users, "member-1", "carol")
	seedUser(users, "outsider-1", "dave")
	return svc, rooms, users, ev
}

func mustCreateRoom(t *testing.T, svc *RoomService, roomType domain.RoomType) *domain.Room {
	t.Helper()
	room, err := svc.Create(context.Background(), "creator-1", "general", "", roomType)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return room
}

func TestAttemptJoin_AddsMember(t *testing.T) {
	svc, rooms, _, _ := newRoomFixture(t)
	room := mustCreateRoom(t, svc, domain.RoomPublic)

	got, isMod, err := svc.AttemptJoin(context.Background(), "member-1", room.ID)
	if err != nil {
		t.Fatalf("AttemptJoin: %v", err)
	}
	if isMod {
		t.Fatal("plain member must not be moderator")
	}
	if !got.IsMember("member-1") {
		t.Fatal("join must add member")
	}

	stored, _ := rooms.Get(context.Background(), room.ID)
	if !stored.IsMember("member-1") {
		t.Fatal("membership must be persisted")
	}
}

func TestAttemptJoin_CreatorIsModerator(t *testing.T) {
	svc, _, _, _ := newRoomFixture(t)
	room := mustCreateRoom(t, svc, domain.RoomPublic)

	_, isMod, err := svc.AttemptJoin(context.Background(), "creator-1", room.ID)
	if err != nil {
		t.Fatalf("AttemptJoin: %v", err)
	}
	if !isMod {
		t.Fatal("creator must join as moderator")
	}
}

func TestAttemptJoin_BannedAlwaysRejected(t *testing.T) {
	svc, rooms, _, _ := newRoomFixture(t)
	room := mustCreateRoom(t, svc, domain.RoomPublic)

	if _, _, err := svc.AttemptJoin(context.Background(), "member-1", room.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Ban(context.Background(), "creator-1", room.ID, "member-1", "spam"); err != nil {
		t.Fatalf("ban: %v", err)
	}

	// бан отсекает до любых проверок членства
	if _, _, err := svc.AttemptJoin(context.Background(), "member-1", room.ID); !errors.Is(err, domain.ErrBanned) {
		t.Fatalf("got %v, want ErrBanned", err)
	}

	// даже если членство каким-то образом вернулось, бан важнее
	_, _ = rooms.Update(context.Background(), room.ID, func(r *domain.Room) error {
		r.Members = append(r.Members, "member-1")
		return nil
	})
	if _, _, err := svc.AttemptJoin(context.Background(), "member-1", room.ID); !errors.Is(err, domain.ErrBanned) {
		t.Fatalf("got %v, want ErrBanned for banned member", err)
	}
}

func TestAttemptJoin_MembersOnly(t *testing.T) {
	svc, rooms, _, _ := newRoomFixture(t)
	room := mustCreateRoom(t, svc, domain.RoomPublic)

	mo := true
	_, _ = rooms.Update(context.Background(), room.ID, func(r *domain.Room) error {
		r.ApplySettings(domain.SettingsPatch{MembersOnly: &mo})
		return nil
	})

	if _, _, err := svc.AttemptJoin(context.Background(), "outsider-1", room.ID); !errors.Is(err, domain.ErrMembersOnly) {
		t.Fatalf("got %v, want ErrMembersOnly", err)
	}
	// существующий член проходит
	if _, _, err := svc.AttemptJoin(context.Background(), "creator-1", room.ID); err != nil {
		t.Fatalf("member join: %v", err)
	}
}

func TestAttemptJoin_PrivateRoom(t *testing.T) {
	svc, _, _, _ := newRoomFixture(t)
	room := mustCreateRoom(t, svc, domain.RoomPrivate)

	if _, _, err := svc.AttemptJoin(context.Background(), "outsider-1", room.ID); !errors.Is(err, domain.ErrPrivateRoom) {
		t.Fatalf("got %v, want ErrPrivateRoom", err)
	}
}

func TestAttemptJoin_UnknownRoom(t *testing.T) {
	svc, _, _, _ := newRoomFixture(t)
	if _, _, err := svc.AttemptJoin(context.Background(), "member-1", "missing"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("got %v, want ErrRoomNotFound", err)
	}
}

func TestBan_PrivilegedTargetsRejected(t *testing.T) {
	svc, _, _, _ := newRoomFixture(t)
	room := mustCreateRoom(t, svc, domain.RoomPublic)

	_, _, _ = svc.AttemptJoin(context.Background(), "mod-1", room.ID)
	if _, err := svc.AddModerator(context.Background(), "creator-1", room.ID, "mod-1"); err != nil {
		t.Fatalf("AddModerator: %v", err)
	}

	// создателя не забанить даже создателю
	if err := svc.Ban(context.Background(), "creator-1", room.ID, "creator-1", ""); !errors.Is(err, domain.ErrPrivilegedBan) {
		t.Fatalf("ban creator: got %v, want ErrPrivilegedBan", err)
	}
	// модератора не забанить
	if err := svc.Ban(context.Background(), "creator-1", room.ID, "mod-1", ""); !errors.Is(err, domain.ErrPrivilegedBan) {
		t.Fatalf("ban moderator: got %v, want ErrPrivilegedBan", err)
	}
	// не-модератор банить не может
	if err := svc.Ban(context.Background(), "member-1", room.ID, "outsider-1", ""); !errors.Is(err, domain.ErrNotModerator) {
		t.Fatalf("ban by member: got %v, want ErrNotModerator", err)
	}
}

func TestBan_EmitsForceLeave(t *testing.T) {
	svc, rooms, _, ev := newRoomFixture(t)
	room := mustCreateRoom(t, svc, domain.RoomPublic)
	_, _, _ = svc.AttemptJoin(context.Background(), "member-1", room.ID)

	if err := svc.Ban(context.Background(), "creator-1", room.ID, "member-1", "spam"); err != nil {
		t.Fatalf("ban: %v", err)
	}

	if !slices.Contains(ev.kicked, "member-1/"+room.ID) {
		t.Fatalf("force leave missing: %v", ev.kicked)
	}
	if !slices.Contains(ev.updates, room.ID+"/user_banned") {
		t.Fatalf("user_banned event missing: %v", ev.updates)
	}

	stored, _ := rooms.Get(context.Background(), room.ID)
	if stored.IsMember("member-1") {
		t.Fatal("ban must remove membership")
	}
	if !stored.IsBanned("member-1") {
		t.Fatal("ban record missing")
	}
}

func TestUnban_RequiresModerator(t *testing.T) {
	svc, rooms, _, _ := newRoomFixture(t)
	room := mustCreateRoom(t, svc, domain.RoomPublic)
	_, _, _ = svc.AttemptJoin(context.Background(), "member-1", room.ID)
	_ = svc.Ban(context.Background(), "creator-1", room.ID, "member-1", "")

	if err := svc.Unban(context.Background(), "outsider-1", room.ID, "member-1"); !errors.Is(err, domain.ErrNotModerator) {
		t.Fatalf("got %v, want ErrNotModerator", err)
	}
	if err := svc.Unban(context.Background(), "creator-1", room.ID, "member-1"); err != nil {
		t.Fatalf("unban: %v", err)
	}

	stored, _ := rooms.Get(context.Background(), room.ID)
	if stored.IsBanned("member-1") {
		t.Fatal("unban must remove ban record")
	}
	if stored.IsMember("member-1") {
		t.Fatal("unban must not restore membership")
	}
}

func TestModerators_CreatorOnly(t *testing.T) {
	svc, _, _, ev := newRoomFixture(t)
	room := mustCreateRoom(t, svc, domain.RoomPublic)
	_, _, _ = svc.AttemptJoin(context.Background(), "mod-1", room.ID)

	if _, err := svc.AddModerator(context.Background(), "mod-1", room.ID, "member-1"); !errors.Is(err, domain.ErrNotCreator) {
		t.Fatalf("got %v, want ErrNotCreator", err)
	}

	if _, err := svc.AddModerator(context.Background(), "creator-1", room.ID, "mod-1"); err != nil {
		t.Fatalf("AddModerator: %v", err)
	}
	if !slices.Contains(ev.updates, room.ID+"/moderator_added") {
		t.Fatalf("moderator_added missing: %v", ev.updates)
	}

	// создателя снять нельзя
	if _, err := svc.RemoveModerator(context.Background(), "creator-1", room.ID, "creator-1"); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("got %v, want ErrNotAuthorized", err)
	}

	room2, err := svc.RemoveModerator(context.Background(), "creator-1", room.ID, "mod-1")
	if err != nil {
		t.Fatalf("RemoveModerator: %v", err)
	}
	if room2.IsModerator("mod-1") {
		t.Fatal("mod-1 must be demoted")
	}
}

func TestUpdateSettings(t *testing.T) {
	svc, _, _, ev := newRoomFixture(t)
	room := mustCreateRoom(t, svc, domain.RoomPublic)

	enabled := true
	delay := 30
	patch := domain.SettingsPatch{SlowMode: &domain.SlowModePatch{Enabled: &enabled, DelaySeconds: &delay}}

	if _, err := svc.UpdateSettings(context.Background(), "member-1", room.ID, patch); !errors.Is(err, domain.ErrNotModerator) {
		t.Fatalf("got %v, want ErrNotModerator", err)
	}

	updated, err := svc.UpdateSettings(context.Background(), "creator-1", room.ID, patch)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if !updated.Settings.SlowMode.Enabled || updated.Settings.SlowMode.DelaySeconds != 30 {
		t.Fatalf("settings not applied: %+v", updated.Settings.SlowMode)
	}
	if !updated.Settings.AutoModeration.Enabled {
		t.Fatal("untouched auto moderation must survive")
	}
	if !slices.Contains(ev.updates, room.ID+"/settings_updated") {
		t.Fatalf("settings_updated missing: %v", ev.updates)
	}

	bad := 0
	if _, err := svc.UpdateSettings(context.Background(), "creator-1", room.ID,
		domain.SettingsPatch{SlowMode: &domain.SlowModePatch{DelaySeconds: &bad}}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestListVisible_HidesForeignPrivate(t *testing.T) {
	svc, _, _, _ := newRoomFixture(t)
	mustCreateRoom(t, svc, domain.RoomPublic)
	private, err := svc.Create(context.Background(), "creator-1", "secret club", "", domain.RoomPrivate)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	visible, err := svc.ListVisible(context.Background(), "outsider-1")
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	for _, r := range visible {
		if r.ID == private.ID {
			t.Fatal("outsider must not see foreign private room")
		}
	}

	visible, _ = svc.ListVisible(context.Background(), "creator-1")
	found := false
	for _, r := range visible {
		if r.ID == private.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("member must see own private room")
	}
}
