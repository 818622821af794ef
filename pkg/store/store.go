// Package store persists scheduling sessions so that a schedule can be
// swapped across requests and reset to the solved original.
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/arnavshah/roster-api-go/pkg/logger"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Session is a decoded scheduling session.
type Session struct {
	ID           string
	KeyID        uint
	Availability models.AvailabilityInput
	Original     models.Table
	Current      models.Table
	Seed         int64
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Modified reports whether the current schedule differs from the original.
// Tables that do not decode count as modified.
func (s *Session) Modified() bool {
	cur, err := models.FromTable(s.Current)
	if err != nil {
		return true
	}
	orig, err := models.FromTable(s.Original)
	if err != nil {
		return true
	}
	return !cur.Equal(orig)
}

// SwapOutcome is the result of a swap against a stored session.
type SwapOutcome struct {
	Session  *Session
	Result   scheduler.SwapResult
	Warnings []models.CapViolation
}

// SessionStore reads and writes scheduling sessions.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Swap(ctx context.Context, id, empA, empB, shift string) (*SwapOutcome, error)
	Reset(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// GormStore is a SessionStore backed by gorm.
type GormStore struct {
	db         *gorm.DB
	maxRetries int
	log        zerolog.Logger

	// beforeWrite runs between reading a session and writing a swap.
	beforeWrite func(id string)
}

// NewGormStore creates a store. maxRetries bounds how often a swap is
// retried after losing a race with another writer.
func NewGormStore(db *gorm.DB, maxRetries int) *GormStore {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &GormStore{
		db:         db,
		maxRetries: maxRetries,
		log:        logger.WithComponent("store"),
	}
}

// Create stores a new session. An empty ID is replaced by a random UUID.
func (s *GormStore) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}

	avail, err := json.Marshal(sess.Availability)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode availability")
	}
	original, err := json.Marshal(sess.Original)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode schedule")
	}
	current, err := json.Marshal(sess.Current)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode schedule")
	}

	row := database.ScheduleSession{
		ID:           sess.ID,
		KeyID:        sess.KeyID,
		Availability: string(avail),
		Original:     string(original),
		Current:      string(current),
		Seed:         sess.Seed,
		Version:      1,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errors.Wrap(err, errors.CodeDatabase, "failed to create session")
	}

	sess.Version = row.Version
	sess.CreatedAt = row.CreatedAt
	sess.UpdatedAt = row.UpdatedAt
	s.log.Info().Str("session_id", sess.ID).Int64("seed", sess.Seed).Msg("session created")
	return nil
}

// Get loads a session by ID.
func (s *GormStore) Get(ctx context.Context, id string) (*Session, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return decode(row)
}

func (s *GormStore) load(ctx context.Context, id string) (*database.ScheduleSession, error) {
	var row database.ScheduleSession
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("session", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabase, "failed to load session")
	}
	return &row, nil
}

// Swap applies scheduler.TrySwap to the session's current schedule using
// the stored availability. Writes are conditional on the version that was
// read; a lost race is retried up to maxRetries times and then reported as
// CONFLICT. A rejected swap writes nothing.
func (s *GormStore) Swap(ctx context.Context, id, empA, empB, shift string) (*SwapOutcome, error) {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		row, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		sess, err := decode(row)
		if err != nil {
			return nil, err
		}

		avail, err := models.FromTable(sess.Availability.Table)
		if err != nil {
			return nil, err
		}
		sched, err := models.FromTable(sess.Current)
		if err != nil {
			return nil, err
		}

		res, err := scheduler.TrySwap(sched, avail, empA, empB, shift)
		if err != nil {
			return nil, err
		}
		if !res.Accepted {
			return &SwapOutcome{Session: sess, Result: res}, nil
		}

		current, err := json.Marshal(sched.ToTable())
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode schedule")
		}

		if s.beforeWrite != nil {
			s.beforeWrite(id)
		}

		tx := s.db.WithContext(ctx).
			Model(&database.ScheduleSession{}).
			Where("id = ? AND version = ?", id, row.Version).
			Updates(map[string]interface{}{
				"current": string(current),
				"version": row.Version + 1,
			})
		if tx.Error != nil {
			return nil, errors.Wrap(tx.Error, errors.CodeDatabase, "failed to save swap")
		}
		if tx.RowsAffected == 1 {
			sess.Current = sched.ToTable()
			sess.Version = row.Version + 1
			return &SwapOutcome{
				Session:  sess,
				Result:   res,
				Warnings: scheduler.CapViolations(sched, sess.Availability.MaxHoursPerWeek),
			}, nil
		}

		s.log.Debug().Str("session_id", id).Int("attempt", attempt+1).Msg("swap lost a version race, retrying")
	}

	return nil, errors.New(errors.CodeConflict, "session was modified concurrently, try again").
		WithDetails(fmt.Sprintf("gave up after %d attempts", s.maxRetries+1)).
		WithField("session_id", id)
}

// Reset makes the original schedule current again.
func (s *GormStore) Reset(ctx context.Context, id string) (*Session, error) {
	tx := s.db.WithContext(ctx).
		Model(&database.ScheduleSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current": gorm.Expr("original"),
			"version": gorm.Expr("version + 1"),
		})
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, errors.CodeDatabase, "failed to reset session")
	}
	if tx.RowsAffected == 0 {
		return nil, errors.NotFound("session", id)
	}
	return s.Get(ctx, id)
}

// Delete removes a session.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx).Where("id = ?", id).Delete(&database.ScheduleSession{})
	if tx.Error != nil {
		return errors.Wrap(tx.Error, errors.CodeDatabase, "failed to delete session")
	}
	if tx.RowsAffected == 0 {
		return errors.NotFound("session", id)
	}
	return nil
}

func decode(row *database.ScheduleSession) (*Session, error) {
	sess := &Session{
		ID:        row.ID,
		KeyID:     row.KeyID,
		Seed:      row.Seed,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(row.Availability), &sess.Availability); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "corrupt session availability")
	}
	if err := json.Unmarshal([]byte(row.Original), &sess.Original); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "corrupt session schedule")
	}
	if err := json.Unmarshal([]byte(row.Current), &sess.Current); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "corrupt session schedule")
	}
	return sess, nil
}
