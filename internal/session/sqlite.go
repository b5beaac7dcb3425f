package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-client/pkg/config"
	"github.com/angelmondragon/storefront-client/pkg/logger"
)

// sessionRecord is one key/value row in the local profile database.
type sessionRecord struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string
	UpdatedAt time.Time
}

func (sessionRecord) TableName() string {
	return "session_records"
}

// SQLiteStore persists session state in a local sqlite file, the CLI
// equivalent of a browser profile's durable storage.
type SQLiteStore struct {
	conn *gorm.DB
}

// NewSQLiteStore opens (creating if needed) the profile database.
func NewSQLiteStore(ctx context.Context, cfg config.SessionConfig, logg *logger.Logger) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("session path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	if err := conn.WithContext(ctx).AutoMigrate(&sessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrating session db: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "session store opened")
	}

	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	var record sessionRecord
	err := s.conn.WithContext(ctx).First(&record, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session key %s: %w", key, err)
	}
	return record.Value, nil
}

func (s *SQLiteStore) set(ctx context.Context, key, value string) error {
	record := sessionRecord{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.conn.WithContext(ctx).Save(&record).Error
	if err != nil {
		return fmt.Errorf("writing session key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) clear(ctx context.Context, key string) error {
	err := s.conn.WithContext(ctx).Delete(&sessionRecord{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("clearing session key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) ActiveOrderID(ctx context.Context) (string, error) {
	return s.get(ctx, keyActiveOrderID)
}

func (s *SQLiteStore) SetActiveOrderID(ctx context.Context, id string) error {
	return s.set(ctx, keyActiveOrderID, id)
}

func (s *SQLiteStore) ClearActiveOrderID(ctx context.Context) error {
	return s.clear(ctx, keyActiveOrderID)
}

func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	return s.get(ctx, keyAccessToken)
}

func (s *SQLiteStore) SetToken(ctx context.Context, token string) error {
	return s.set(ctx, keyAccessToken, token)
}

func (s *SQLiteStore) ClearToken(ctx context.Context) error {
	return s.clear(ctx, keyAccessToken)
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
