package services

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"toto-stream/models"

	"github.com/go-co-op/gocron/v2"
)

// StartMaintenanceScheduler runs the periodic housekeeping jobs:
//   - sync each match's live watching count from active accrual sessions
//   - prune chat history past the retention margin
//   - auto-end matches that have been live past the configured ceiling
//
// Returns the scheduler so main can shut it down with the rest of the app.
func StartMaintenanceScheduler(matches *MatchService, chat *ChatService, accrual *AccrualService) gocron.Scheduler {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(30*time.Second),
		gocron.NewTask(func() {
			ctx := context.Background()
			active := accrual.ActiveByMatch()
			ms, err := matches.List(ctx)
			if err != nil {
				log.Printf("[Scheduler] watching sync skipped: %v", err)
				return
			}
			for _, m := range ms {
				if m.Status != models.MatchLive {
					continue
				}
				if want := active[m.ID]; want != m.Watching {
					matches.SetWatching(ctx, m.ID, want)
				}
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			chat.Prune(context.Background())
		}),
	)

	maxLiveHours := 12
	if v := os.Getenv("MAX_LIVE_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxLiveHours = n
		}
	}

	// Every minute: end matches left live past the ceiling
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			ctx := context.Background()
			cutoff := time.Now().Add(-time.Duration(maxLiveHours) * time.Hour)
			ms, err := matches.List(ctx)
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, m := range ms {
				if m.Status != models.MatchLive || m.CreatedAt.After(cutoff) {
					continue
				}
				ended := models.MatchEnded
				if _, err := matches.Update(ctx, m.ID, models.MatchPatch{Status: &ended}); err != nil {
					log.Printf("[Scheduler] Failed to end stale match %s: %v", m.ID, err)
				} else {
					log.Printf("✅ Auto-ended stale match: %s", m.Title)
				}
			}
		}),
	)

	return sched
}
