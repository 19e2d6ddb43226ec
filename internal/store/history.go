package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nguyentantai21042004/scribeflow/internal/job"
)

// HistoryEntry is one append-only record of a terminal transition. Entries
// are never mutated; Append trims the oldest past the configured cap.
type HistoryEntry struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	RecordingID string     `json:"recordingId"`
	Filename    string     `json:"filename"`
	Status      job.Status `json:"status"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (HistoryEntry) TableName() string { return "history_entries" }

type History interface {
	Append(ctx context.Context, entry HistoryEntry) error
	List(ctx context.Context, limit int) ([]HistoryEntry, error)
	Purge(ctx context.Context) error
	InitialMigration(ctx context.Context) error
}

type HistoryStore struct {
	db   *gorm.DB
	keep int
}

func NewHistoryStore(db *gorm.DB, keep int) History {
	return &HistoryStore{db: db, keep: keep}
}

func (s *HistoryStore) InitialMigration(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&HistoryEntry{})
}

func (s *HistoryStore) Append(ctx context.Context, entry HistoryEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		// Keep only the newest entries.
		return tx.Where(
			"id NOT IN (?)",
			tx.Session(&gorm.Session{NewDB: true}).
				Model(&HistoryEntry{}).
				Select("id").
				Order("id desc").
				Limit(s.keep),
		).Delete(&HistoryEntry{}).Error
	})
}

func (s *HistoryStore) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > s.keep {
		limit = s.keep
	}
	var entries []HistoryEntry
	if err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Purge drops all history. Explicit operator operation.
func (s *HistoryStore) Purge(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&HistoryEntry{}).Error
}
