package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Database = "records"
	cfg.Username = "records"
	cfg.Password = "p@ss:word"
	return cfg
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing host", func(c *Config) { c.Host = "" }},
		{"port out of range", func(c *Config) { c.Port = 70000 }},
		{"missing database", func(c *Config) { c.Database = "" }},
		{"missing username", func(c *Config) { c.Username = "" }},
		{"no open conns", func(c *Config) { c.Pool.MaxOpen = 0 }},
		{"idle above open", func(c *Config) { c.Pool.MaxIdle = c.Pool.MaxOpen + 1 }},
		{"negative timeout", func(c *Config) { c.QueryTimeout = -time.Second }},
		{"cert without key", func(c *Config) {
			c.TLS.Enabled = true
			c.TLS.CertFile = "client.pem"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetDSNRoundTrips(t *testing.T) {
	cfg := validConfig()

	dsn, err := cfg.GetDSN()
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "records", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "localhost:3306", parsed.Addr)
	assert.Equal(t, "records", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.UTC, parsed.Loc)
	assert.Equal(t, "utf8mb4_unicode_ci", parsed.Collation)
}

func TestGetDSNSkipVerify(t *testing.T) {
	cfg := validConfig()
	cfg.TLS = TLSConfig{Enabled: true, SkipVerify: true}

	dsn, err := cfg.GetDSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "tls=skip-verify")
}

func TestGetDSNRejectsInvalidCA(t *testing.T) {
	ca := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(ca, []byte("not a certificate"), 0o600))

	cfg := validConfig()
	cfg.TLS = TLSConfig{Enabled: true, CAFile: ca}

	_, err := cfg.GetDSN()
	assert.Error(t, err)
}

func TestParseLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, parseLocation(""))
	assert.Equal(t, time.UTC, parseLocation("Not/AZone"))
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, getLogLevel("DEBUG"))
	assert.Equal(t, logger.Warn, getLogLevel("warn"))
	assert.Equal(t, logger.Silent, getLogLevel("silent"))
	assert.Equal(t, logger.Error, getLogLevel(""))
}
