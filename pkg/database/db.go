package database

import (
	"fmt"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
	RevokedAt  *time.Time `gorm:"index" json:"revoked_at,omitempty"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	KeyID          uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date           string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount   int    `gorm:"default:0" json:"request_count"`
	TotalShifts    int    `gorm:"default:0" json:"total_shifts"`
	TotalEmployees int    `gorm:"default:0" json:"total_employees"`
	TotalSwaps     int    `gorm:"default:0" json:"total_swaps"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScheduleSession keeps the solved and current schedule of one scheduling
// session. Tables are stored as JSON text. Version is bumped on every write
// and guards concurrent swaps.
type ScheduleSession struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	KeyID        uint      `gorm:"index" json:"key_id"`
	Availability string    `gorm:"type:text;not null" json:"-"`
	Original     string    `gorm:"type:text;not null" json:"-"`
	Current      string    `gorm:"type:text;not null" json:"-"`
	Seed         int64     `json:"seed"`
	Version      int       `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// InitDB connects to Postgres when DatabaseURL is set and to SQLite at
// DataPath otherwise, then migrates the schema.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	if cfg.DatabaseURL != "" {
		gcfg.PrepareStmt = false
		logger.Info().Str("driver", "postgres").Msg("connecting database")
		return Open(postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseURL,
			PreferSimpleProtocol: true,
		}), gcfg)
	}

	logger.Info().Str("driver", "sqlite").Str("path", cfg.DataPath).Msg("connecting database")
	return Open(sqlite.Open(cfg.DataPath), gcfg)
}

// Open opens a database with the given dialector and migrates the schema.
func Open(dialector gorm.Dialector, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	}
	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &ScheduleSession{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}
