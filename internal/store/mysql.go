package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pvtools/casedup/internal/config"
	"github.com/pvtools/casedup/internal/core/model"
)

// MySQLStore implements Store on top of GORM/MySQL.
type MySQLStore struct {
	db *gorm.DB
}

// Connect opens the database, retrying for transient startup failures,
// and migrates the schema.
func Connect(cfg config.DatabaseConfig) (*MySQLStore, error) {
	var db *gorm.DB
	var err error

	for attempt := 1; attempt <= 5; attempt++ {
		db, err = gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if sqlDB, derr := db.DB(); derr == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.AutoMigrate(
		&model.Case{},
		&model.DuplicateCandidate{},
		&model.CaseMergeLink{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// NewWithDB wraps an existing GORM handle. Used by tests.
func NewWithDB(db *gorm.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) CaseByID(ctx context.Context, id string) (*model.Case, error) {
	var c model.Case
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MySQLStore) CreateCase(ctx context.Context, c *model.Case) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *MySQLStore) UpdateCase(ctx context.Context, c *model.Case) error {
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *MySQLStore) ActiveCases(ctx context.Context, excludeID string) ([]model.Case, error) {
	var cases []model.Case
	q := s.db.WithContext(ctx).Where("status = ?", model.CaseStatusActive)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Find(&cases).Error; err != nil {
		return nil, err
	}
	return cases, nil
}

func (s *MySQLStore) CandidateByID(ctx context.Context, id uint) (*model.DuplicateCandidate, error) {
	var c model.DuplicateCandidate
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MySQLStore) PendingCandidates(ctx context.Context) ([]model.DuplicateCandidate, error) {
	var candidates []model.DuplicateCandidate
	err := s.db.WithContext(ctx).
		Where("status = ?", model.CandidateStatusPending).
		Order("similarity_score DESC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (s *MySQLStore) CreateCandidate(ctx context.Context, c *model.DuplicateCandidate) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *MySQLStore) UpdateCandidate(ctx context.Context, c *model.DuplicateCandidate) error {
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *MySQLStore) CreateMergeLink(ctx context.Context, l *model.CaseMergeLink) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
