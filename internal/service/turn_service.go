package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crono/internal/config"
	"crono/internal/logger"
	"crono/internal/metrics"
	"crono/internal/models"
	"crono/internal/repository"

	"github.com/cenkalti/backoff/v4"
)

// TurnService owns the queue/turn engine: spot assignment on Join and dense
// renumbering on Remove. Every mutation runs as one transaction that locks
// the queue row first, so the queue counter and its turns change in lockstep.
type TurnService struct {
	store    *repository.Store
	notifier Notifier
	metrics  *metrics.Metrics
	retry    RetryPolicy
	timeout  time.Duration
	l        logger.Logger
}

func NewTurnService(
	store *repository.Store,
	notifier Notifier,
	m *metrics.Metrics,
	cfg config.TurnConfig,
	l logger.Logger,
) *TurnService {
	return &TurnService{
		store:    store,
		notifier: notifier,
		metrics:  m,
		retry: RetryPolicy{
			MaxAttempts: cfg.MaxJoinAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
		timeout: cfg.OperationTimeout,
		l:       l,
	}
}

func (s *TurnService) ResolveStudent(ctx context.Context, id uint) (*models.Student, error) {
	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrStudentNotFound)
	}
	return st, nil
}

func (s *TurnService) ResolveEvent(ctx context.Context, ref EventRef) (*models.Event, error) {
	var (
		ev  *models.Event
		err error
	)
	switch {
	case ref.ID != 0:
		ev, err = s.store.GetEventByID(ctx, ref.ID)
	case ref.Code != "":
		ev, err = s.store.GetEventByCode(ctx, ref.Code)
	default:
		return nil, ErrInvalidEventRef
	}
	if err != nil {
		return nil, notFoundAs(err, ErrEventNotFound)
	}
	return ev, nil
}

// Join gives the student the next spot in the event queue, creating the
// queue on first use.
func (s *TurnService) Join(ctx context.Context, in JoinInput) (*JoinOutput, error) {
	start := time.Now()
	out, err := s.join(ctx, in)
	s.observe("join", start, err)
	if err != nil {
		s.logFailure(ctx, "service.TurnService.Join", err)
		return nil, err
	}

	s.l.Infow(ctx, "Turn created",
		"turn_id", out.Turn.ID,
		"student_id", out.Student.ID,
		"event_id", out.Event.ID,
		"spot", *out.Turn.SpotNumber,
	)

	s.notify(ctx, models.QueueUpdate{
		EventID:          out.Event.ID,
		QueueID:          *out.Turn.QueueID,
		Type:             models.UpdateTypeTurnJoined,
		TurnID:           out.Turn.ID,
		StudentID:        out.Student.ID,
		Spot:             *out.Turn.SpotNumber,
		LastAssignedSpot: *out.Turn.SpotNumber,
	})

	return out, nil
}

func (s *TurnService) join(ctx context.Context, in JoinInput) (*JoinOutput, error) {
	st, err := s.ResolveStudent(ctx, in.StudentID)
	if err != nil {
		return nil, err
	}

	ev, err := s.ResolveEvent(ctx, in.Event)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetTurnByStudentEvent(ctx, st.ID, ev.ID); err == nil {
		return nil, ErrTurnAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var turn *models.Turn
	op := func() error {
		t, err := s.assignSpot(ctx, st.ID, ev.ID)
		if err == nil {
			turn = t
			return nil
		}
		if isRetryable(err) {
			s.l.Warnw(ctx, "Join transaction aborted, retrying",
				"student_id", st.ID,
				"event_id", ev.ID,
				"error", err,
			)
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(op, s.retry.backOff(ctx)); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrTurnAlreadyExists
		}
		return nil, err
	}

	return &JoinOutput{Turn: *turn, Student: *st, Event: *ev}, nil
}

// assignSpot bumps the queue counter and creates the turn holding the new
// value. Both writes commit together or not at all.
func (s *TurnService) assignSpot(ctx context.Context, studentID, eventID uint) (*models.Turn, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var turn models.Turn
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.EnsureQueue(ctx, eventID); err != nil {
			return fmt.Errorf("ensure queue: %w", err)
		}

		q, err := tx.LockQueueByEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("lock queue: %w", err)
		}

		spot, err := tx.NextSpot(ctx, q.ID)
		if err != nil {
			return fmt.Errorf("next spot: %w", err)
		}

		queueID := q.ID
		turn = models.Turn{
			StudentID:  studentID,
			EventID:    eventID,
			QueueID:    &queueID,
			SpotNumber: &spot,
		}
		return tx.CreateTurn(ctx, &turn)
	})
	if err != nil {
		return nil, err
	}
	return &turn, nil
}

// Remove deletes the referenced turn and closes the gap it leaves: every turn
// behind it moves up one spot and the queue counter is recomputed from the
// remaining turns.
func (s *TurnService) Remove(ctx context.Context, ref TurnRef, authz Authorizer) (*RemoveOutput, error) {
	return s.remove(ctx, "remove", ref, authz)
}

// Cancel is the self-service removal of a turn by id.
func (s *TurnService) Cancel(ctx context.Context, turnID uint, authz Authorizer) (*RemoveOutput, error) {
	return s.remove(ctx, "cancel", TurnByID(turnID), authz)
}

// Process removes the turn a student holds for an event once it has been served.
func (s *TurnService) Process(ctx context.Context, studentID, eventID uint, authz Authorizer) (*RemoveOutput, error) {
	return s.remove(ctx, "process", TurnByStudentEvent(studentID, eventID), authz)
}

func (s *TurnService) remove(ctx context.Context, operation string, ref TurnRef, authz Authorizer) (*RemoveOutput, error) {
	start := time.Now()
	out, err := s.removeWithRecheck(ctx, ref, authz)
	s.observe(operation, start, err)
	if err != nil {
		s.logFailure(ctx, "service.TurnService."+operation, err)
		return nil, err
	}

	s.l.Infow(ctx, "Turn removed",
		"operation", operation,
		"turn_id", out.TurnID,
		"event_id", out.EventID,
		"spot", out.RemovedSpot,
		"shifted", out.Shifted,
		"last_assigned_spot", out.LastAssignedSpot,
	)

	s.notify(ctx, models.QueueUpdate{
		EventID:          out.EventID,
		QueueID:          out.QueueID,
		Type:             models.UpdateTypeTurnRemoved,
		TurnID:           out.TurnID,
		StudentID:        out.StudentID,
		Spot:             out.RemovedSpot,
		LastAssignedSpot: out.LastAssignedSpot,
		Reason:           operation,
	})

	return out, nil
}

// removeWithRecheck never repeats a removal blindly: after an aborted
// attempt the turn is looked up again, and a turn that is gone by then is
// reported as not found instead of being removed twice.
func (s *TurnService) removeWithRecheck(ctx context.Context, ref TurnRef, authz Authorizer) (*RemoveOutput, error) {
	if !ref.valid() {
		return nil, ErrInvalidTurnRef
	}
	if authz == nil {
		return nil, ErrForbidden
	}

	var (
		out     *RemoveOutput
		attempt int
	)
	op := func() error {
		if attempt > 0 {
			if _, err := findTurn(ctx, s.store, ref); err != nil {
				return backoff.Permanent(err)
			}
		}
		attempt++

		res, err := s.removeOnce(ctx, ref, authz)
		if err == nil {
			out = res
			return nil
		}
		if isRetryable(err) {
			s.l.Warnw(ctx, "Remove transaction aborted, rechecking turn",
				"attempt", attempt,
				"error", err,
			)
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(op, s.retry.backOff(ctx)); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TurnService) removeOnce(ctx context.Context, ref TurnRef, authz Authorizer) (*RemoveOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out RemoveOutput
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		t, err := findTurn(ctx, tx, ref)
		if err != nil {
			return err
		}

		if !authz.CanRemove(t) {
			return ErrForbidden
		}

		if t.QueueID == nil || t.SpotNumber == nil {
			return ErrTurnIntegrity
		}

		q, err := tx.LockQueue(ctx, *t.QueueID)
		if err != nil {
			return notFoundAs(err, ErrTurnIntegrity)
		}

		// Re-read under the queue lock: a removal that committed while we
		// waited may have moved this turn up or deleted it.
		cur, err := tx.GetTurn(ctx, t.ID)
		if err != nil {
			return notFoundAs(err, ErrTurnNotFound)
		}
		if cur.QueueID == nil || cur.SpotNumber == nil || *cur.QueueID != q.ID {
			return ErrTurnIntegrity
		}
		spot := *cur.SpotNumber

		if err := tx.DeleteTurn(ctx, cur.ID); err != nil {
			return notFoundAs(err, ErrTurnNotFound)
		}

		shifted, err := tx.ShiftSpotsAfter(ctx, q.ID, spot)
		if err != nil {
			return fmt.Errorf("shift spots: %w", err)
		}

		last, err := tx.MaxSpot(ctx, q.ID)
		if err != nil {
			return fmt.Errorf("max spot: %w", err)
		}
		if err := tx.SetLastAssignedSpot(ctx, q.ID, last); err != nil {
			return fmt.Errorf("set last assigned spot: %w", err)
		}

		out = RemoveOutput{
			TurnID:           cur.ID,
			StudentID:        cur.StudentID,
			EventID:          cur.EventID,
			QueueID:          q.ID,
			RemovedSpot:      spot,
			LastAssignedSpot: last,
			Shifted:          shifted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findTurn(ctx context.Context, store *repository.Store, ref TurnRef) (*models.Turn, error) {
	var (
		t   *models.Turn
		err error
	)
	if ref.TurnID != 0 {
		t, err = store.GetTurn(ctx, ref.TurnID)
	} else {
		t, err = store.GetTurnByStudentEvent(ctx, ref.StudentID, ref.EventID)
	}
	if err != nil {
		return nil, notFoundAs(err, ErrTurnNotFound)
	}
	return t, nil
}

func (s *TurnService) ListTurnsForStudent(ctx context.Context, studentID uint) ([]models.Turn, error) {
	turns, err := s.store.ListTurnsByStudent(ctx, studentID)
	if err != nil {
		s.l.Errorf(ctx, "service.TurnService.ListTurnsForStudent: %v", err)
		return nil, err
	}
	return turns, nil
}

// QueueStatus is the operator view of an event queue. An event nobody has
// joined yet reports an empty queue.
func (s *TurnService) QueueStatus(ctx context.Context, ref EventRef) (*QueueStatusOutput, error) {
	ev, err := s.ResolveEvent(ctx, ref)
	if err != nil {
		return nil, err
	}

	out := &QueueStatusOutput{
		EventID:   ev.ID,
		EventName: ev.Name,
		Entries:   []QueueEntry{},
	}

	q, err := s.store.GetQueueByEvent(ctx, ev.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.QueueID = q.ID
	out.LastAssignedSpot = q.LastAssignedSpot

	turns, err := s.store.ListQueueTurns(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range turns {
		entry := QueueEntry{
			TurnID:    t.ID,
			StudentID: t.StudentID,
			FirstName: t.Student.FirstName,
			LastName:  t.Student.LastName,
			Career:    t.Student.Career,
			Semester:  t.Student.Semester,
		}
		if t.SpotNumber != nil {
			entry.SpotNumber = *t.SpotNumber
		}
		out.Entries = append(out.Entries, entry)
	}

	return out, nil
}

func (s *TurnService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *TurnService) notify(ctx context.Context, upd models.QueueUpdate) {
	if s.notifier == nil {
		return
	}
	upd.Timestamp = time.Now().UTC()
	if err := s.notifier.NotifyQueueUpdate(ctx, upd); err != nil {
		s.l.Warnw(ctx, "Failed to publish queue update",
			"event_id", upd.EventID,
			"type", upd.Type,
			"error", err,
		)
	}
}

func (s *TurnService) observe(operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = Kind(err).String()
	}
	s.metrics.ObserveOperation(operation, result, time.Since(start))
}

func (s *TurnService) logFailure(ctx context.Context, where string, err error) {
	if Kind(err) == KindInternal {
		s.l.Errorf(ctx, "%s: %v", where, err)
		return
	}
	s.l.Debugf(ctx, "%s: %v", where, err)
}
