package tasks

import (
	"context"
	"fmt"

	"crono/internal/logger"
	"crono/internal/metrics"
	"crono/internal/models"
	"crono/internal/repository"

	"github.com/robfig/cron/v3"
)

// Violation describes one queue whose spots are not 1..n or whose counter
// disagrees with the highest spot.
type Violation struct {
	QueueID          uint
	EventID          uint
	LastAssignedSpot int
	Stats            repository.SpotStats
}

func (v Violation) String() string {
	return fmt.Sprintf("queue %d (event %d): last_assigned_spot=%d turns=%d distinct=%d min=%d max=%d unset=%d",
		v.QueueID, v.EventID, v.LastAssignedSpot,
		v.Stats.Count, v.Stats.Distinct, v.Stats.Min, v.Stats.Max, v.Stats.Unset)
}

// Auditor is a read-only sweep over every queue. It reports inconsistencies
// and never repairs them.
type Auditor struct {
	store   *repository.Store
	metrics *metrics.Metrics
	l       logger.Logger
}

func NewAuditor(store *repository.Store, m *metrics.Metrics, l logger.Logger) *Auditor {
	return &Auditor{store: store, metrics: m, l: l}
}

func (a *Auditor) Run(ctx context.Context) ([]Violation, error) {
	queues, err := a.store.ListQueues(ctx)
	if err != nil {
		a.l.Errorf(ctx, "tasks.Auditor.Run: %v", err)
		return nil, err
	}

	var out []Violation
	for _, q := range queues {
		stats, err := a.store.QueueSpotStats(ctx, q.ID)
		if err != nil {
			a.l.Errorf(ctx, "tasks.Auditor.Run: queue %d: %v", q.ID, err)
			return out, err
		}
		if consistent(q, stats) {
			continue
		}
		v := Violation{QueueID: q.ID, EventID: q.EventID, LastAssignedSpot: q.LastAssignedSpot, Stats: stats}
		a.l.Warnf(ctx, "Queue integrity violation: %s", v)
		out = append(out, v)
	}

	a.metrics.AddAuditViolations(len(out))
	a.l.Infow(ctx, "Queue audit finished", "queues", len(queues), "violations", len(out))
	return out, nil
}

func consistent(q models.Queue, s repository.SpotStats) bool {
	if s.Unset != 0 || s.Count != s.Distinct {
		return false
	}
	if s.Count == 0 {
		return q.LastAssignedSpot == 0
	}
	return s.Min == 1 && int64(s.Max) == s.Count && q.LastAssignedSpot == s.Max
}

// InitScheduler starts a cron scheduler running the audit on schedule, a
// six-field expression with seconds.
func InitScheduler(schedule string, a *Auditor, l logger.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(schedule, func() {
		_, _ = a.Run(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule queue audit: %w", err)
	}

	c.Start()
	l.Infow(context.Background(), "Cron scheduler started", "audit_schedule", schedule)
	return c, nil
}
