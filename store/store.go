package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists named JSON documents to the local file system (sqlite).
// The planner keeps three: the derived values (schedule and price cache),
// the configuration and the manual slot entries.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Document is one persisted JSON document.
type Document struct {
	Key     string `gorm:"primaryKey"`
	Content []byte
}

func Open(path string) (*Store, error) {

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Migrate the schema
	err = db.AutoMigrate(&Document{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{
		db:     db,
		logger: slog.Default().With("store", path),
	}, nil
}

// Load unmarshals the document with the given key into v. A key that has
// never been saved leaves v untouched and returns nil.
func (s *Store) Load(key string, v any) error {
	var document Document
	result := s.db.First(&document, "key = ?", key)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil
	}
	if result.Error != nil {
		return fmt.Errorf("load document %q: %w", key, result.Error)
	}
	if err := json.Unmarshal(document.Content, v); err != nil {
		return fmt.Errorf("decode document %q: %w", key, err)
	}
	return nil
}

// Save serializes v and upserts it under the given key. When the serialized
// content matches what is already stored the write is skipped, so frequent
// callers do not churn the database file.
func (s *Store) Save(key string, v any) error {
	content, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode document %q: %w", key, err)
	}

	var existing Document
	result := s.db.First(&existing, "key = ?", key)
	if result.Error == nil && bytes.Equal(existing.Content, content) {
		s.logger.Debug("document unchanged, skipping save", "key", key)
		return nil
	}

	result = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"content"}),
	}).Create(&Document{Key: key, Content: content})
	if result.Error != nil {
		return fmt.Errorf("save document %q: %w", key, result.Error)
	}
	return nil
}
