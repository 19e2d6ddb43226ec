package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nguyentantai21042004/scribeflow/internal/job"
)

// Jobs is the durable status store: one record per recording id.
type Jobs interface {
	Get(ctx context.Context, id string) (*job.Job, error)
	List(ctx context.Context) ([]job.Job, error)
	ListByStatus(ctx context.Context, statuses ...job.Status) ([]job.Job, error)
	Create(ctx context.Context, j job.Job) (*job.Job, error)
	Update(ctx context.Context, j *job.Job) error
	InitialMigration(ctx context.Context) error
}

type JobStore struct {
	db *gorm.DB
}

func NewJobStore(db *gorm.DB) Jobs {
	return &JobStore{db: db}
}

func (s *JobStore) InitialMigration(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&job.Job{})
}

func (s *JobStore) Get(ctx context.Context, id string) (*job.Job, error) {
	var j job.Job
	if err := s.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (s *JobStore) List(ctx context.Context) ([]job.Job, error) {
	var jobs []job.Job
	if err := s.db.WithContext(ctx).Order("updated_at desc").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *JobStore) ListByStatus(ctx context.Context, statuses ...job.Status) ([]job.Job, error) {
	var jobs []job.Job
	if err := s.db.WithContext(ctx).Where("status IN ?", statuses).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *JobStore) Create(ctx context.Context, j job.Job) (*job.Job, error) {
	if err := s.db.WithContext(ctx).Create(&j).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &j, nil
}

func (s *JobStore) Update(ctx context.Context, j *job.Job) error {
	// Save persists every column so cleared failure fields are written too.
	return s.db.WithContext(ctx).Save(j).Error
}
