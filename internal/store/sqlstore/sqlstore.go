// Package sqlstore is the relational backend on top of gorm. It runs on
// SQLite or Postgres, geo filtering happens in process
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitwise74/rental-api/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

var _ store.Store = (*Store)(nil)

// Open connects through the given dialector and migrates the tables
func Open(dialector gorm.Dialector, timeout time.Duration) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database, %w", err)
	}

	err = db.AutoMigrate(&userRow{}, &itemRow{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return &Store{db: db, timeout: timeout}, nil
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) conn(parent context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, s.timeout)
	}
	return s.db.WithContext(ctx), cancel
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return &store.DuplicateError{Field: "email", Err: err}
	default:
		return err
	}
}

// likePattern escapes LIKE wildcards so the search term is matched literally
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(term)) + "%"
}
