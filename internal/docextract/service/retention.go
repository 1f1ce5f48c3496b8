package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/docintake/docintake-backend/pkg/config"
	"github.com/docintake/docintake-backend/pkg/logger"
)

// RawTextPurger clears retained recognition text
type RawTextPurger interface {
	PurgeRawText(ctx context.Context, before time.Time) (int64, error)
}

// RetentionJob periodically drops raw recognition text once it is older
// than the configured TTL. Extracted fields are kept.
type RetentionJob struct {
	repo     RawTextPurger
	ttl      time.Duration
	schedule string
	cron     *cron.Cron
	logger   *logger.Logger
	now      func() time.Time
}

// NewRetentionJob creates a new retention job
func NewRetentionJob(repo RawTextPurger, cfg config.RetentionConfig, log *logger.Logger) *RetentionJob {
	return &RetentionJob{
		repo:     repo,
		ttl:      cfg.RawTextTTL,
		schedule: cfg.Schedule,
		cron:     cron.New(),
		logger:   log.WithComponent("retention"),
		now:      time.Now,
	}
}

// Start registers the purge on the cron schedule and starts the scheduler
func (j *RetentionJob) Start() error {
	if j.ttl <= 0 {
		return fmt.Errorf("raw text ttl must be positive, got %s", j.ttl)
	}

	_, err := j.cron.AddFunc(j.schedule, func() {
		_, _ = j.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	j.cron.Start()
	j.logger.Info().
		Str("schedule", j.schedule).
		Dur("raw_text_ttl", j.ttl).
		Msg("retention job started")
	return nil
}

// Stop stops the scheduler and waits for a running purge to finish
func (j *RetentionJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info().Msg("retention job stopped")
}

// RunOnce purges raw text older than the TTL
func (j *RetentionJob) RunOnce(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.ttl)

	n, err := j.repo.PurgeRawText(ctx, cutoff)
	if err != nil {
		j.logger.Error().Err(err).Time("cutoff", cutoff).Msg("raw text purge failed")
		return 0, err
	}

	j.logger.Info().Int64("purged", n).Time("cutoff", cutoff).Msg("raw text purged")
	return n, nil
}
