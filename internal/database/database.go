package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is a single key-value pair.
type Entry struct {
	Key       string `gorm:"column:store_key;primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName overrides the default table name.
func (Entry) TableName() string {
	return "kv_entries"
}

// Client wraps the gorm.DB instance.
type Client struct {
	db *gorm.DB
}

// New opens the sqlite database at dbpath and performs migrations.
// Missing parent directories are created.
func New(dbpath string) (*Client, error) {
	if dir := filepath.Dir(dbpath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbpath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Client{db: db}, nil
}

// Get returns the value stored under key.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	var entry Entry
	if err := c.db.WithContext(ctx).Where("store_key = ?", key).Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		log.Error("failed to get entry", "key", key, "error", err)
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set inserts or replaces the value stored under key.
func (c *Client) Set(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		log.Error("failed to set entry", "key", key, "error", err)
		return err
	}
	return nil
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.db.WithContext(ctx).Where("store_key = ?", key).Delete(&Entry{}).Error; err != nil {
		log.Error("failed to delete entry", "key", key, "error", err)
		return err
	}
	return nil
}

// Close closes the underlying database connection.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
