package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"thumbforge/internal/config"
	"thumbforge/internal/service"
)

// Scheduler runs the daily retention sweep over long-expired
// time-limited thumbnails.
type Scheduler struct {
	cron   *cron.Cron
	images *service.ImageService
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewScheduler(images *service.ImageService, cfg *config.AppConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		images: images,
		cfg:    cfg,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Jobs.RetentionEnabled {
		s.log.Info().Msg("retention sweep disabled")
		return nil
	}

	if _, err := s.cron.AddFunc("@daily", s.sweep); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := s.images.SweepExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("retention sweep failed")
		return
	}
	s.log.Info().Int("removed", removed).Msg("retention sweep finished")
}
