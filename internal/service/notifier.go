package service

import (
	"context"
	"errors"

	"crono/internal/models"
)

// Notifier receives queue updates after the turn transaction has committed.
type Notifier interface {
	NotifyQueueUpdate(ctx context.Context, upd models.QueueUpdate) error
}

// MultiNotifier hands every update to each notifier in order and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) NotifyQueueUpdate(ctx context.Context, upd models.QueueUpdate) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyQueueUpdate(ctx, upd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
