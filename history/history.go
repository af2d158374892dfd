package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// ErrNoStates is returned when no state has ever been recorded for an entity.
var ErrNoStates = errors.New("no recorded states")

// History stores a time series of recorded sensor states (sqlite). The
// dynamic planning strategy reads recent consumption from it.
type History struct {
	db *gorm.DB
}

// SensorState is one recorded observation of an external sensor.
type SensorState struct {
	ID         uint   `gorm:"primaryKey"`
	EntityID   string `gorm:"index"`
	State      string
	RecordedAt time.Time
}

func Open(path string) (*History, error) {

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	err = db.AutoMigrate(&SensorState{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &History{db: db}, nil
}

// Record appends an observation for the given entity.
func (h *History) Record(ctx context.Context, entityID, state string, at time.Time) error {
	result := h.db.WithContext(ctx).Create(&SensorState{
		EntityID:   entityID,
		State:      state,
		RecordedAt: at,
	})
	if result.Error != nil {
		return fmt.Errorf("record state for %q: %w", entityID, result.Error)
	}
	return nil
}

// LatestState returns the most recently recorded state for the entity.
func (h *History) LatestState(ctx context.Context, entityID string) (string, time.Time, error) {
	var record SensorState
	result := h.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("recorded_at desc").
		First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", time.Time{}, fmt.Errorf("%w for %q", ErrNoStates, entityID)
	}
	if result.Error != nil {
		return "", time.Time{}, fmt.Errorf("query latest state for %q: %w", entityID, result.Error)
	}
	return record.State, record.RecordedAt, nil
}

// StatesSince returns all observations for the entity recorded at or after
// the given time, oldest first.
func (h *History) StatesSince(ctx context.Context, entityID string, since time.Time) ([]SensorState, error) {
	var records []SensorState
	result := h.db.WithContext(ctx).
		Where("entity_id = ? AND recorded_at >= ?", entityID, since).
		Order("recorded_at asc").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("query states for %q: %w", entityID, result.Error)
	}
	return records, nil
}
