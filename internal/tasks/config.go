// Package tasks syncs accepted todos into a Google Tasks list.
package tasks

import (
	"fmt"
	"time"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/googleauth"
)

// DefaultTaskList is the signed-in user's default list.
const DefaultTaskList = "@default"

// Config holds the configuration for the Google Tasks syncer.
type Config struct {
	googleauth.Credentials
	TaskList      string
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TaskList:      DefaultTaskList,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Credentials.Validate(); err != nil {
		return err
	}
	if c.TaskList == "" {
		return fmt.Errorf("%w: task list is required", common.ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", common.ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}
