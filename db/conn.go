// Package db opens the configured store backend
package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bitwise74/rental-api/internal/store"
	"bitwise74/rental-api/internal/store/memstore"
	"bitwise74/rental-api/internal/store/mongostore"
	"bitwise74/rental-api/internal/store/sqlstore"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var Drivers = []string{"mongo", "sqlite", "postgres", "memory"}

// Open returns the store selected by db.driver
func Open(ctx context.Context) (store.Store, error) {
	timeout := viper.GetDuration("db.timeout")

	switch driver := viper.GetString("db.driver"); driver {
	case "mongo":
		s, err := mongostore.Open(ctx, viper.GetString("db.uri"), viper.GetString("db.name"), timeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		dsn := viper.GetString("db.dsn")

		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if inDocker() {
			if _, err := os.Stat(dsn); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to %s", dsn)
			}
		}

		return openSQL(sqlite.Open(dsn), timeout)
	case "postgres":
		return openSQL(postgres.Open(viper.GetString("db.dsn")), timeout)
	case "memory":
		zap.L().Warn("Using the in-memory store, nothing will survive a restart")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

func openSQL(d gorm.Dialector, timeout time.Duration) (store.Store, error) {
	s, err := sqlstore.Open(d, timeout)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func inDocker() bool {
	_, err := os.Stat("/.dockerenv")
	return err == nil
}
