package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ammar0144/recordsapi/pkg/query"
)

// Manager owns the connection pool and runs built statements against it
type Manager struct {
	config *Config
	db     *gorm.DB
	logger *slog.Logger
}

// NewManager opens the connection pool described by config. SQL statements
// are logged through log at the level configured in config.Logging.
func NewManager(config *Config, log *slog.Logger) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	dsn, err := config.GetDSN()
	if err != nil {
		return nil, fmt.Errorf("failed to build DSN: %w", err)
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig(config, log))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	config.Pool.apply(sqlDB)

	return NewManagerWithDB(config, db, log), nil
}

// NewManagerWithDB wraps an already opened gorm handle
func NewManagerWithDB(config *Config, db *gorm.DB, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		config: config,
		db:     db,
		logger: log,
	}
}

func gormConfig(config *Config, log *slog.Logger) *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: config.ORM.SkipDefaultTransaction,
		PrepareStmt:            config.ORM.PrepareStmt,
		Logger: logger.NewSlogLogger(log.With("component", "db"), logger.Config{
			SlowThreshold:             config.Logging.SlowQueryThreshold,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      !config.Logging.LogQueryParameters,
			LogLevel:                  getLogLevel(config.Logging.Level),
		}),
	}
}

// DB returns the GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// SqlDB returns the underlying sql.DB instance
func (m *Manager) SqlDB() (*sql.DB, error) {
	return m.db.DB()
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Config returns the manager's configuration
func (m *Manager) Config() *Config {
	return m.config
}

// Ping tests the database connection
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns database connection statistics
func (m *Manager) Stats() (sql.DBStats, error) {
	sqlDB, err := m.db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

// withTimeout bounds ctx by the configured query timeout
func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config == nil || m.config.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.config.QueryTimeout)
}

// Select runs a built statement and scans every row into dest, which must be
// a pointer to a slice.
func (m *Manager) Select(ctx context.Context, f query.Fragment, dest any) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	if err := m.db.WithContext(ctx).Raw(f.SQL, f.Params...).Scan(dest).Error; err != nil {
		return fmt.Errorf("select failed: %w", err)
	}
	return nil
}

// Count runs a COUNT(*) statement and returns its single value
func (m *Manager) Count(ctx context.Context, f query.Fragment) (int64, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	var total int64
	if err := m.db.WithContext(ctx).Raw(f.SQL, f.Params...).Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return total, nil
}

func getLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "info", "debug":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Error
	}
}
