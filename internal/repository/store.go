package repository

import (
	"context"
	"errors"
	"fmt"

	"crono/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the access layer over the queues and turns tables. A Store
// returned inside Transaction is bound to that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction runs fn in a single database transaction. Any error returned
// by fn, or a panic, rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) GetStudent(ctx context.Context, id uint) (*models.Student, error) {
	var st models.Student
	if err := s.db.WithContext(ctx).First(&st, id).Error; err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

func (s *Store) GetEventByID(ctx context.Context, id uint) (*models.Event, error) {
	var ev models.Event
	if err := s.db.WithContext(ctx).First(&ev, id).Error; err != nil {
		return nil, translate(err)
	}
	return &ev, nil
}

func (s *Store) GetEventByCode(ctx context.Context, code string) (*models.Event, error) {
	var ev models.Event
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&ev).Error; err != nil {
		return nil, translate(err)
	}
	return &ev, nil
}

func (s *Store) GetTurn(ctx context.Context, id uint) (*models.Turn, error) {
	var t models.Turn
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *Store) GetTurnByStudentEvent(ctx context.Context, studentID, eventID uint) (*models.Turn, error) {
	var t models.Turn
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND event_id = ?", studentID, eventID).
		First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// ListTurnsByStudent returns the student's turns with their events, ordered
// by event start. Events without a start time come last.
func (s *Store) ListTurnsByStudent(ctx context.Context, studentID uint) ([]models.Turn, error) {
	var turns []models.Turn
	if err := s.db.WithContext(ctx).
		Preload("Event").
		Joins("JOIN events ON events.id = turns.event_id").
		Where("turns.student_id = ?", studentID).
		Order("CASE WHEN events.starts_at IS NULL THEN 1 ELSE 0 END, events.starts_at ASC, turns.id ASC").
		Find(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}

func (s *Store) GetQueueByEvent(ctx context.Context, eventID uint) (*models.Queue, error) {
	var q models.Queue
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).First(&q).Error; err != nil {
		return nil, translate(err)
	}
	return &q, nil
}

func (s *Store) ListQueues(ctx context.Context) ([]models.Queue, error) {
	var queues []models.Queue
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&queues).Error; err != nil {
		return nil, err
	}
	return queues, nil
}

// ListQueueTurns returns the turns of a queue ordered by spot, with students.
func (s *Store) ListQueueTurns(ctx context.Context, queueID uint) ([]models.Turn, error) {
	var turns []models.Turn
	if err := s.db.WithContext(ctx).
		Preload("Student").
		Where("queue_id = ?", queueID).
		Order("spot_number ASC").
		Find(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}

// EnsureQueue inserts an empty queue for the event unless one already exists.
// Concurrent callers never create two queues for one event: the unique index
// on event_id turns the losing insert into a no-op.
func (s *Store) EnsureQueue(ctx context.Context, eventID uint) error {
	q := models.Queue{EventID: eventID}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(&q).Error
}

// LockQueueByEvent reads the event's queue row with SELECT ... FOR UPDATE.
// The lock is held until the surrounding transaction ends.
func (s *Store) LockQueueByEvent(ctx context.Context, eventID uint) (*models.Queue, error) {
	var q models.Queue
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ?", eventID).
		First(&q).Error; err != nil {
		return nil, translate(err)
	}
	return &q, nil
}

func (s *Store) LockQueue(ctx context.Context, queueID uint) (*models.Queue, error) {
	var q models.Queue
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&q, queueID).Error; err != nil {
		return nil, translate(err)
	}
	return &q, nil
}

// NextSpot increments the queue counter in place and returns the new value.
func (s *Store) NextSpot(ctx context.Context, queueID uint) (int, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Queue{}).
		Where("id = ?", queueID).
		Update("last_assigned_spot", gorm.Expr("last_assigned_spot + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}

	var spot int
	if err := s.db.WithContext(ctx).
		Model(&models.Queue{}).
		Where("id = ?", queueID).
		Select("last_assigned_spot").
		Row().Scan(&spot); err != nil {
		return 0, err
	}
	return spot, nil
}

func (s *Store) CreateTurn(ctx context.Context, t *models.Turn) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error; err != nil {
		return translate(err)
	}
	return nil
}

// DeleteTurn removes the turn. ErrNotFound means another transaction got to
// it first.
func (s *Store) DeleteTurn(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Turn{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ShiftSpotsAfter moves every turn behind spot one position forward.
func (s *Store) ShiftSpotsAfter(ctx context.Context, queueID uint, spot int) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Turn{}).
		Where("queue_id = ? AND spot_number > ?", queueID, spot).
		Update("spot_number", gorm.Expr("spot_number - ?", 1))
	return res.RowsAffected, res.Error
}

// MaxSpot returns the highest spot currently held in the queue, 0 if empty.
func (s *Store) MaxSpot(ctx context.Context, queueID uint) (int, error) {
	var maxSpot int
	row := s.db.WithContext(ctx).
		Model(&models.Turn{}).
		Where("queue_id = ?", queueID).
		Select("COALESCE(MAX(spot_number), 0)").
		Row()
	if err := row.Scan(&maxSpot); err != nil {
		return 0, err
	}
	return maxSpot, nil
}

func (s *Store) SetLastAssignedSpot(ctx context.Context, queueID uint, spot int) error {
	return s.db.WithContext(ctx).
		Model(&models.Queue{}).
		Where("id = ?", queueID).
		Update("last_assigned_spot", spot).Error
}

// SpotStats summarises the spot numbers held in one queue.
type SpotStats struct {
	Count    int64
	Distinct int64
	Min      int
	Max      int
	Unset    int64
}

func (s *Store) QueueSpotStats(ctx context.Context, queueID uint) (SpotStats, error) {
	var st SpotStats
	row := s.db.WithContext(ctx).
		Model(&models.Turn{}).
		Where("queue_id = ?", queueID).
		Select("COUNT(*), COUNT(DISTINCT spot_number), COALESCE(MIN(spot_number), 0), COALESCE(MAX(spot_number), 0), COUNT(*) - COUNT(spot_number)").
		Row()
	if err := row.Scan(&st.Count, &st.Distinct, &st.Min, &st.Max, &st.Unset); err != nil {
		return SpotStats{}, fmt.Errorf("failed to read spot stats: %w", err)
	}
	return st, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
