package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/pkg/logger"
)

const (
	defaultOutboxRetention   = 30 * 24 * time.Hour
	defaultOutboxMinAttempts = 10
)

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

// OutboxRetentionJobParams configures pruning of settlement events that no
// longer need to stay in the outbox.
type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	Outbox      outboxPruner
	Retention   time.Duration
	MinAttempts int
	Now         func() time.Time
}

// OutboxRetentionJob deletes delivered events, and events parked after
// MinAttempts failures, once they are older than Retention. Parked events
// already have a DLQ row so nothing is lost.
type OutboxRetentionJob struct {
	logg        *logger.Logger
	outbox      outboxPruner
	retention   time.Duration
	minAttempts int
	now         func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (*OutboxRetentionJob, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox repository required")
	}
	job := &OutboxRetentionJob{
		logg:        params.Logger,
		outbox:      params.Outbox,
		retention:   params.Retention,
		minAttempts: params.MinAttempts,
		now:         params.Now,
	}
	if job.retention <= 0 {
		job.retention = defaultOutboxRetention
	}
	if job.minAttempts <= 0 {
		job.minAttempts = defaultOutboxMinAttempts
	}
	if job.now == nil {
		job.now = time.Now
	}
	return job, nil
}

func (j *OutboxRetentionJob) Name() string { return "outbox-retention" }

func (j *OutboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.outbox.DeletePublishedBefore(ctx, nil, cutoff, j.minAttempts)
	if err != nil {
		return fmt.Errorf("prune outbox before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"min_attempts": j.minAttempts,
		"rows_deleted": deleted,
	}), "outbox retention complete")
	return nil
}
