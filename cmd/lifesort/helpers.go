package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/config"
	"github.com/Veraticus/lifesort/internal/reminder"
	"github.com/Veraticus/lifesort/internal/storage"
	"github.com/spf13/viper"
)

// databaseTarget returns the configured driver and its path or DSN.
func databaseTarget() (driver, target string) {
	driver = strings.ToLower(viper.GetString("database.driver"))
	if driver == "postgres" || driver == "postgresql" {
		return driver, viper.GetString("database.dsn")
	}
	target = viper.GetString("database.path")
	if target == "" {
		target = config.DefaultDatabasePath()
	}
	return driver, config.ExpandPath(target)
}

// initStorage opens the configured record store and brings its schema up
// to date.
func initStorage(ctx context.Context) (*storage.Store, error) {
	driver, target := databaseTarget()
	if target == "" {
		return nil, common.NewUserError("database.dsn is required for the postgres driver", common.ErrMissingConfig)
	}

	store, err := storage.Open(ctx, driver, target)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initReminders connects the Redis reminder scheduler. It returns nil when
// redis.addr is not configured.
func initReminders(ctx context.Context) (*reminder.RedisScheduler, func(), error) {
	addr := viper.GetString("redis.addr")
	if addr == "" {
		return nil, func() {}, nil
	}

	scheduler, client, err := reminder.NewRedisScheduler(ctx, addr, viper.GetString("redis.key"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return scheduler, func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}, nil
}

// configError wraps a config validation failure of a section for the user.
func configError(section string, err error) error {
	return common.NewUserError(fmt.Sprintf("%s export is not configured (see the %s.* config keys)", section, section), err)
}
