package service

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"crono/internal/config"
	"crono/internal/logger"
	"crono/internal/metrics"
	"crono/internal/models"
	"crono/internal/repository"
	"crono/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type recordingNotifier struct {
	mu      sync.Mutex
	updates []models.QueueUpdate
	err     error
}

func (r *recordingNotifier) NotifyQueueUpdate(_ context.Context, upd models.QueueUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, upd)
	return r.err
}

func (r *recordingNotifier) all() []models.QueueUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.QueueUpdate(nil), r.updates...)
}

type fixture struct {
	db       *gorm.DB
	svc      *TurnService
	notifier *recordingNotifier
}

func setupService(t *testing.T) *fixture {
	t.Helper()

	db, err := storage.ConnectTestingDatabase(filepath.Join(t.TempDir(), "crono.db"))
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = storage.CloseDatabase(db) })

	return newFixture(db)
}

func newFixture(db *gorm.DB) *fixture {
	n := &recordingNotifier{}
	svc := NewTurnService(
		repository.NewStore(db),
		n,
		metrics.New(),
		config.TurnConfig{
			MaxJoinAttempts:  3,
			RetryBaseDelay:   time.Millisecond,
			OperationTimeout: 10 * time.Second,
		},
		logger.InitializeTestZapLogger(),
	)

	return &fixture{db: db, svc: svc, notifier: n}
}

func (f *fixture) student(t *testing.T, id uint) models.Student {
	t.Helper()
	st := models.Student{ID: id, FirstName: "Ana", LastName: "Lopez", Career: "ISC", Semester: 5}
	require.NoError(t, f.db.Create(&st).Error)
	return st
}

func (f *fixture) event(t *testing.T, name string, code string) models.Event {
	t.Helper()
	ev := models.Event{Name: name, Location: "Auditorio"}
	if code != "" {
		ev.Code = &code
	}
	require.NoError(t, f.db.Create(&ev).Error)
	return ev
}

func (f *fixture) join(t *testing.T, studentID, eventID uint) *JoinOutput {
	t.Helper()
	out, err := f.svc.Join(context.Background(), JoinInput{StudentID: studentID, Event: EventRef{ID: eventID}})
	require.NoError(t, err)
	return out
}

// spots returns studentID -> spot for the event queue.
func (f *fixture) spots(t *testing.T, eventID uint) map[uint]int {
	t.Helper()
	var turns []models.Turn
	require.NoError(t, f.db.Where("event_id = ?", eventID).Find(&turns).Error)
	out := make(map[uint]int, len(turns))
	for _, tr := range turns {
		require.NotNil(t, tr.SpotNumber)
		out[tr.StudentID] = *tr.SpotNumber
	}
	return out
}

func (f *fixture) lastAssigned(t *testing.T, eventID uint) int {
	t.Helper()
	var q models.Queue
	require.NoError(t, f.db.Where("event_id = ?", eventID).First(&q).Error)
	return q.LastAssignedSpot
}

// assertDense checks that the queue holds exactly spots 1..n and the counter is n.
func (f *fixture) assertDense(t *testing.T, eventID uint) {
	t.Helper()
	spots := f.spots(t, eventID)
	got := make([]int, 0, len(spots))
	for _, s := range spots {
		got = append(got, s)
	}
	sort.Ints(got)
	for i, s := range got {
		assert.Equal(t, i+1, s, "spots must be contiguous from 1")
	}
	assert.Equal(t, len(got), f.lastAssigned(t, eventID), "counter must match the highest spot")
}

func TestJoinAssignsSequentialSpots(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	for id := uint(1); id <= 3; id++ {
		f.student(t, id)
	}

	for id := uint(1); id <= 3; id++ {
		out := f.join(t, id, ev.ID)
		require.NotNil(t, out.Turn.SpotNumber)
		assert.Equal(t, int(id), *out.Turn.SpotNumber)
		assert.Equal(t, id, out.Student.ID)
		assert.Equal(t, ev.ID, out.Event.ID)
	}

	assert.Equal(t, map[uint]int{1: 1, 2: 2, 3: 3}, f.spots(t, ev.ID))
	assert.Equal(t, 3, f.lastAssigned(t, ev.ID))

	var queues int64
	require.NoError(t, f.db.Model(&models.Queue{}).Where("event_id = ?", ev.ID).Count(&queues).Error)
	assert.Equal(t, int64(1), queues, "first join must create exactly one queue")

	updates := f.notifier.all()
	require.Len(t, updates, 3)
	assert.Equal(t, models.UpdateTypeTurnJoined, updates[2].Type)
	assert.Equal(t, 3, updates[2].Spot)
}

func TestJoinByEventCode(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "FER-01")
	f.student(t, 10)

	out, err := f.svc.Join(context.Background(), JoinInput{StudentID: 10, Event: EventRef{Code: "FER-01"}})
	require.NoError(t, err)
	assert.Equal(t, ev.ID, out.Event.ID)
	assert.Equal(t, 1, *out.Turn.SpotNumber)
}

func TestJoinRejectsDuplicate(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	f.student(t, 1)
	f.join(t, 1, ev.ID)

	_, err := f.svc.Join(context.Background(), JoinInput{StudentID: 1, Event: EventRef{ID: ev.ID}})
	assert.ErrorIs(t, err, ErrTurnAlreadyExists)
	assert.Equal(t, KindConflict, Kind(err))
	assert.Equal(t, 1, f.lastAssigned(t, ev.ID), "a rejected join must not consume a spot")
}

func TestJoinNotFound(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	f.student(t, 1)

	_, err := f.svc.Join(context.Background(), JoinInput{StudentID: 99, Event: EventRef{ID: ev.ID}})
	assert.ErrorIs(t, err, ErrStudentNotFound)

	_, err = f.svc.Join(context.Background(), JoinInput{StudentID: 1, Event: EventRef{ID: 42}})
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = f.svc.Join(context.Background(), JoinInput{StudentID: 1, Event: EventRef{Code: "NOPE"}})
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = f.svc.Join(context.Background(), JoinInput{StudentID: 1})
	assert.ErrorIs(t, err, ErrInvalidEventRef)
	assert.Equal(t, KindInvalid, Kind(err))

	var turns int64
	require.NoError(t, f.db.Model(&models.Turn{}).Count(&turns).Error)
	assert.Zero(t, turns)
}

func TestConcurrentJoinsGetDistinctSpots(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	const n = 25
	for id := uint(1); id <= n; id++ {
		f.student(t, id)
	}

	var g errgroup.Group
	for id := uint(1); id <= n; id++ {
		id := id
		g.Go(func() error {
			_, err := f.svc.Join(context.Background(), JoinInput{StudentID: id, Event: EventRef{ID: ev.ID}})
			return err
		})
	}
	require.NoError(t, g.Wait())

	spots := f.spots(t, ev.ID)
	require.Len(t, spots, n)
	f.assertDense(t, ev.ID)
}

func TestConcurrentDuplicateJoinsSameStudent(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	f.student(t, 7)

	const n = 8
	errs := make([]error, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, errs[i] = f.svc.Join(context.Background(), JoinInput{StudentID: 7, Event: EventRef{ID: ev.ID}})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrTurnAlreadyExists)
	}
	assert.Equal(t, 1, ok, "exactly one join must win")
	assert.Equal(t, map[uint]int{7: 1}, f.spots(t, ev.ID))
	assert.Equal(t, 1, f.lastAssigned(t, ev.ID))
}

func TestCancelMiddleRenumbers(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	var turns []*JoinOutput
	for id := uint(1); id <= 4; id++ {
		f.student(t, id)
		turns = append(turns, f.join(t, id, ev.ID))
	}

	out, err := f.svc.Cancel(context.Background(), turns[1].Turn.ID, AllowAll)
	require.NoError(t, err)
	assert.Equal(t, 2, out.RemovedSpot)
	assert.Equal(t, int64(2), out.Shifted)
	assert.Equal(t, 3, out.LastAssignedSpot)

	assert.Equal(t, map[uint]int{1: 1, 3: 2, 4: 3}, f.spots(t, ev.ID))
	f.assertDense(t, ev.ID)

	// The next join continues after the recomputed counter.
	f.student(t, 5)
	next := f.join(t, 5, ev.ID)
	assert.Equal(t, 4, *next.Turn.SpotNumber)
	f.assertDense(t, ev.ID)
}

func TestProcessHeadAndLast(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	for id := uint(1); id <= 3; id++ {
		f.student(t, id)
		f.join(t, id, ev.ID)
	}

	out, err := f.svc.Process(context.Background(), 1, ev.ID, AllowAll)
	require.NoError(t, err)
	assert.Equal(t, 1, out.RemovedSpot)
	assert.Equal(t, map[uint]int{2: 1, 3: 2}, f.spots(t, ev.ID))
	assert.Equal(t, 2, f.lastAssigned(t, ev.ID))

	out, err = f.svc.Process(context.Background(), 3, ev.ID, AllowAll)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Shifted, "removing the tail moves nobody")
	assert.Equal(t, 1, out.LastAssignedSpot)

	_, err = f.svc.Process(context.Background(), 2, ev.ID, AllowAll)
	require.NoError(t, err)
	assert.Empty(t, f.spots(t, ev.ID))
	assert.Equal(t, 0, f.lastAssigned(t, ev.ID), "an empty queue counts zero")

	updates := f.notifier.all()
	last := updates[len(updates)-1]
	assert.Equal(t, models.UpdateTypeTurnRemoved, last.Type)
	assert.Equal(t, "process", last.Reason)
}

func TestRemoveTwiceIsNotFound(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	f.student(t, 1)
	f.student(t, 2)
	first := f.join(t, 1, ev.ID)
	f.join(t, 2, ev.ID)

	_, err := f.svc.Cancel(context.Background(), first.Turn.ID, AllowAll)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), first.Turn.ID, AllowAll)
	assert.ErrorIs(t, err, ErrTurnNotFound)
	assert.Equal(t, map[uint]int{2: 1}, f.spots(t, ev.ID), "a repeated removal must not shift again")
	assert.Equal(t, 1, f.lastAssigned(t, ev.ID))
}

func TestConcurrentRemovals(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	const n = 12
	ids := make([]uint, 0, n)
	for id := uint(1); id <= n; id++ {
		f.student(t, id)
		ids = append(ids, f.join(t, id, ev.ID).Turn.ID)
	}

	var g errgroup.Group
	for i := 0; i < n; i += 2 {
		turnID := ids[i]
		g.Go(func() error {
			_, err := f.svc.Cancel(context.Background(), turnID, AllowAll)
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, f.spots(t, ev.ID), n/2)
	f.assertDense(t, ev.ID)
}

func TestRemoveForbidden(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	f.student(t, 1)
	f.student(t, 2)
	turn := f.join(t, 1, ev.ID)

	onlyStudent2 := AuthorizerFunc(func(tr *models.Turn) bool { return tr.StudentID == 2 })
	_, err := f.svc.Cancel(context.Background(), turn.Turn.ID, onlyStudent2)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, KindForbidden, Kind(err))

	_, err = f.svc.Cancel(context.Background(), turn.Turn.ID, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Equal(t, map[uint]int{1: 1}, f.spots(t, ev.ID))
}

func TestRemoveTurnWithoutSpotIsIntegrityError(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	f.student(t, 1)

	broken := models.Turn{StudentID: 1, EventID: ev.ID}
	require.NoError(t, f.db.Omit(clause.Associations).Create(&broken).Error)

	_, err := f.svc.Cancel(context.Background(), broken.ID, AllowAll)
	assert.ErrorIs(t, err, ErrTurnIntegrity)
	assert.Equal(t, KindInternal, Kind(err))

	var count int64
	require.NoError(t, f.db.Model(&models.Turn{}).Where("id = ?", broken.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count, "the broken turn must be left untouched")
}

func TestRemoveInvalidRef(t *testing.T) {
	f := setupService(t)
	_, err := f.svc.Remove(context.Background(), TurnRef{StudentID: 1}, AllowAll)
	assert.ErrorIs(t, err, ErrInvalidTurnRef)
}

func TestNotifierFailureDoesNotFailJoin(t *testing.T) {
	f := setupService(t)
	f.notifier.err = errors.New("broker down")
	ev := f.event(t, "Feria", "")
	f.student(t, 1)

	out, err := f.svc.Join(context.Background(), JoinInput{StudentID: 1, Event: EventRef{ID: ev.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, *out.Turn.SpotNumber)
}

func TestListTurnsForStudent(t *testing.T) {
	f := setupService(t)
	a := f.event(t, "Feria", "")
	b := f.event(t, "Congreso", "")
	c := f.event(t, "Taller", "")
	f.student(t, 1)
	f.student(t, 2)

	later := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	sooner := later.Add(-48 * time.Hour)
	require.NoError(t, f.db.Model(&a).Update("starts_at", later).Error)
	require.NoError(t, f.db.Model(&b).Update("starts_at", sooner).Error)

	f.join(t, 1, c.ID)
	f.join(t, 2, a.ID)
	f.join(t, 1, a.ID)
	f.join(t, 1, b.ID)

	turns, err := f.svc.ListTurnsForStudent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "Congreso", turns[0].Event.Name, "earliest event first")
	assert.Equal(t, "Feria", turns[1].Event.Name)
	assert.Equal(t, 2, *turns[1].SpotNumber)
	assert.Equal(t, "Taller", turns[2].Event.Name, "events without a start come last")

	turns, err = f.svc.ListTurnsForStudent(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestQueueStatus(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "FER")
	empty := f.event(t, "Vacio", "")

	status, err := f.svc.QueueStatus(context.Background(), EventRef{ID: empty.ID})
	require.NoError(t, err)
	assert.Empty(t, status.Entries)
	assert.Zero(t, status.QueueID)

	for id := uint(1); id <= 3; id++ {
		f.student(t, id)
		f.join(t, id, ev.ID)
	}
	_, err = f.svc.Process(context.Background(), 1, ev.ID, AllowAll)
	require.NoError(t, err)

	status, err = f.svc.QueueStatus(context.Background(), EventRef{Code: "FER"})
	require.NoError(t, err)
	assert.Equal(t, "Feria", status.EventName)
	assert.Equal(t, 2, status.LastAssignedSpot)
	require.Len(t, status.Entries, 2)
	assert.Equal(t, uint(2), status.Entries[0].StudentID)
	assert.Equal(t, 1, status.Entries[0].SpotNumber)
	assert.Equal(t, "Ana", status.Entries[0].FirstName)
	assert.Equal(t, 2, status.Entries[1].SpotNumber)

	_, err = f.svc.QueueStatus(context.Background(), EventRef{ID: 404})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestConcurrentRemoveSameTurn(t *testing.T) {
	f := setupService(t)
	ev := f.event(t, "Feria", "")
	f.student(t, 1)
	f.student(t, 2)
	target := f.join(t, 1, ev.ID)
	f.join(t, 2, ev.ID)

	errs := make([]error, 2)
	var g errgroup.Group
	for i := range errs {
		i := i
		g.Go(func() error {
			_, errs[i] = f.svc.Cancel(context.Background(), target.Turn.ID, AllowAll)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok, notFound := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrTurnNotFound):
			notFound++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, notFound)
	assert.Equal(t, map[uint]int{2: 1}, f.spots(t, ev.ID), "the queue must shift exactly once")
	assert.Equal(t, 1, f.lastAssigned(t, ev.ID))
}
