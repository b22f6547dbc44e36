// services/scheduler.go
package services

import (
	"log"
	"time"

	"minigame-arcade/models"

	"github.com/go-co-op/gocron/v2"
)

// PublishDueGames flips every scheduled game whose publish_at has passed to
// published and returns how many it published.
func (s *CatalogService) PublishDueGames(now time.Time) (int, error) {
	var games []models.Game
	err := s.DB.Where("status = ? AND publish_at <= ?", models.GameStatusScheduled, now).
		Find(&games).Error
	if err != nil {
		return 0, err
	}

	published := 0
	for _, g := range games {
		g.Status = models.GameStatusPublished
		g.PublishAt = nil
		if err := s.DB.Save(&g).Error; err != nil {
			log.Printf("[Scheduler] Failed to publish game %s: %v", g.ID, err)
			continue
		}
		published++
		log.Printf("✅ Auto-published game: %s", g.Name)
	}
	return published, nil
}

// StartPublishScheduler runs PublishDueGames every interval until the
// returned scheduler is shut down.
func (s *CatalogService) StartPublishScheduler(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := s.PublishDueGames(time.Now()); err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
