package jobs

import (
	"context"
	"time"

	"github.com/pollhub/poll-service/internal/service"

	"github.com/go-co-op/gocron"
)

// StartScheduler запускает фоновые задачи. Останавливать через возвращённый scheduler.
func StartScheduler(polls *service.PollService) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)

	_, _ = s.Every(1).Minute().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		polls.CloseExpired(ctx)
	})

	s.StartAsync()
	return s
}
