package db

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds the MySQL connection settings of the records database
type Config struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`

	Collation string `json:"collation" yaml:"collation"`
	TimeZone  string `json:"timezone" yaml:"timezone"` // IANA name; unknown zones fall back to UTC

	// QueryTimeout bounds every list, count and write statement. Zero disables it.
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout"`

	Pool    PoolConfig    `json:"pool" yaml:"pool"`
	ORM     ORMConfig     `json:"orm" yaml:"orm"`
	TLS     TLSConfig     `json:"tls" yaml:"tls"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// PoolConfig sizes the database/sql connection pool
type PoolConfig struct {
	MaxOpen     int           `json:"max_open" yaml:"max_open"`
	MaxIdle     int           `json:"max_idle" yaml:"max_idle"`
	MaxLifetime time.Duration `json:"max_lifetime" yaml:"max_lifetime"`
	MaxIdleTime time.Duration `json:"max_idle_time" yaml:"max_idle_time"`
}

func (p PoolConfig) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)
	db.SetConnMaxIdleTime(p.MaxIdleTime)
}

// ORMConfig is passed through to gorm
type ORMConfig struct {
	SkipDefaultTransaction bool `json:"skip_default_transaction" yaml:"skip_default_transaction"`
	PrepareStmt            bool `json:"prepare_stmt" yaml:"prepare_stmt"`
}

// TLSConfig enables TLS to the MySQL server. With Enabled and no CAFile the
// system roots are used.
type TLSConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	CAFile     string `json:"ca_file" yaml:"ca_file"`
	CertFile   string `json:"cert_file" yaml:"cert_file"`
	KeyFile    string `json:"key_file" yaml:"key_file"`
	ServerName string `json:"server_name" yaml:"server_name"`
	SkipVerify bool   `json:"skip_verify" yaml:"skip_verify"`
}

// LoggingConfig controls SQL statement logging
type LoggingConfig struct {
	Level              string        `json:"level" yaml:"level"` // silent, error, warn, info, debug
	SlowQueryThreshold time.Duration `json:"slow_query_threshold" yaml:"slow_query_threshold"`
	LogQueryParameters bool          `json:"log_query_parameters" yaml:"log_query_parameters"`
}

// DefaultConfig returns a configuration for a local MySQL server. Host,
// database and credentials still have to be filled in.
func DefaultConfig() *Config {
	return &Config{
		Host:         "localhost",
		Port:         3306,
		Collation:    "utf8mb4_unicode_ci",
		TimeZone:     "UTC",
		QueryTimeout: 30 * time.Second,
		Pool: PoolConfig{
			MaxOpen:     25,
			MaxIdle:     5,
			MaxLifetime: time.Hour,
			MaxIdleTime: 30 * time.Minute,
		},
		ORM: ORMConfig{PrepareStmt: true},
		Logging: LoggingConfig{
			Level:              "warn",
			SlowQueryThreshold: 200 * time.Millisecond,
		},
	}
}

// Validate checks if the database configuration is valid
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Username == "" {
		return fmt.Errorf("database username is required")
	}
	if c.Pool.MaxOpen < 1 {
		return fmt.Errorf("pool.max_open must be at least 1")
	}
	if c.Pool.MaxIdle > c.Pool.MaxOpen {
		return fmt.Errorf("pool.max_idle cannot be greater than pool.max_open")
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("query_timeout cannot be negative")
	}

	if c.TLS.Enabled && !c.TLS.SkipVerify {
		if err := c.validateTLSFiles(); err != nil {
			return fmt.Errorf("TLS configuration error: %w", err)
		}
	}

	return nil
}

func (c *Config) validateTLSFiles() error {
	if c.TLS.CAFile != "" {
		if _, err := os.Stat(c.TLS.CAFile); err != nil {
			return fmt.Errorf("CA file not accessible: %w", err)
		}
	}

	if c.TLS.CertFile != "" || c.TLS.KeyFile != "" {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return fmt.Errorf("both cert_file and key_file must be provided together")
		}
		if _, err := os.Stat(c.TLS.CertFile); err != nil {
			return fmt.Errorf("client certificate file not accessible: %w", err)
		}
		if _, err := os.Stat(c.TLS.KeyFile); err != nil {
			return fmt.Errorf("client key file not accessible: %w", err)
		}
	}

	return nil
}

// GetDSN builds the MySQL data source name with the driver's config builder.
// A custom TLS configuration is registered with the driver as a side effect.
func (c *Config) GetDSN() (string, error) {
	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database
	cfg.Collation = c.Collation
	cfg.Loc = parseLocation(c.TimeZone)
	cfg.ParseTime = true
	cfg.AllowNativePasswords = true

	if c.TLS.Enabled {
		name, err := c.registerTLS()
		if err != nil {
			return "", err
		}
		cfg.TLSConfig = name
	}

	return cfg.FormatDSN(), nil
}

func (c *Config) registerTLS() (string, error) {
	if c.TLS.SkipVerify {
		return "skip-verify", nil
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: c.TLS.ServerName,
	}

	if c.TLS.CAFile != "" {
		caCert, err := os.ReadFile(c.TLS.CAFile)
		if err != nil {
			return "", fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return "", fmt.Errorf("CA file %s contains no valid certificate", c.TLS.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	if c.TLS.CertFile != "" && c.TLS.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.TLS.CertFile, c.TLS.KeyFile)
		if err != nil {
			return "", fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	name := c.tlsConfigName()
	if err := mysql.RegisterTLSConfig(name, tlsConfig); err != nil {
		return "", fmt.Errorf("failed to register TLS config: %w", err)
	}
	return name, nil
}

// tlsConfigName derives a registration name from the certificate paths so
// that differently configured managers do not overwrite each other.
func (c *Config) tlsConfigName() string {
	h := sha256.New()
	h.Write([]byte(c.TLS.CAFile))
	h.Write([]byte(c.TLS.CertFile))
	h.Write([]byte(c.TLS.KeyFile))
	h.Write([]byte(c.TLS.ServerName))
	return "recordsapi_tls_" + hex.EncodeToString(h.Sum(nil))[:16]
}

func parseLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
