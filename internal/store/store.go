package store

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the durable stores behind one handle.
type Store interface {
	Jobs() Jobs
	History() History
	InitialMigration(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db      *gorm.DB
	jobs    Jobs
	history History
}

func NewStore(db *gorm.DB, historyKeep int) Store {
	return &DataStore{
		db:      db,
		jobs:    NewJobStore(db),
		history: NewHistoryStore(db, historyKeep),
	}
}

func (s *DataStore) Jobs() Jobs       { return s.jobs }
func (s *DataStore) History() History { return s.history }

func (s *DataStore) InitialMigration(ctx context.Context) error {
	if err := s.jobs.InitialMigration(ctx); err != nil {
		return err
	}
	return s.history.InitialMigration(ctx)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
