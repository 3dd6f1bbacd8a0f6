package sqlkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPoolConfig_Valid(t *testing.T) {
	assert.NoError(t, ValidatePoolConfig(DefaultPoolConfig()))
}

func TestValidatePoolConfig(t *testing.T) {
	cases := []struct {
		name    string
		config  PoolConfig
		wantErr bool
	}{
		{"valid", PoolConfig{MaxOpen: 10, MaxIdle: 5, ConnMaxLifetime: time.Hour, ConnMaxIdleTime: time.Minute}, false},
		{"zero max open", PoolConfig{MaxOpen: 0, MaxIdle: 0}, true},
		{"negative max idle", PoolConfig{MaxOpen: 10, MaxIdle: -1}, true},
		{"idle exceeds open", PoolConfig{MaxOpen: 5, MaxIdle: 10}, true},
		{"negative lifetime", PoolConfig{MaxOpen: 10, MaxIdle: 5, ConnMaxLifetime: -time.Second}, true},
		{"negative idle time", PoolConfig{MaxOpen: 10, MaxIdle: 5, ConnMaxIdleTime: -time.Second}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePoolConfig(tc.config)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDSNFromConfig_PassthroughWins(t *testing.T) {
	dsn, err := dsnFromConfig(Config{
		DSN:  "user:pass@tcp(somewhere:3306)/db",
		Host: "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "user:pass@tcp(somewhere:3306)/db", dsn)
}

func TestDSNFromConfig_BuildsFromFields(t *testing.T) {
	dsn, err := dsnFromConfig(Config{
		Host:     "db.internal",
		Port:     3307,
		Username: "app",
		Password: "s3cret",
		Database: "orders",
	})
	require.NoError(t, err)
	assert.Equal(t, "app:s3cret@tcp(db.internal:3307)/orders", dsn)
}

func TestDSNFromConfig_ParamsInStableOrder(t *testing.T) {
	cfg := Config{
		Host:     "h",
		Port:     3306,
		Username: "u",
		Database: "d",
		Params: map[string]string{
			"parseTime": "true",
			"charset":   "utf8mb4",
			"loc":       "Local",
		},
	}
	want := "u@tcp(h:3306)/d?charset=utf8mb4&loc=Local&parseTime=true"
	for i := 0; i < 5; i++ {
		dsn, err := dsnFromConfig(cfg)
		require.NoError(t, err)
		assert.Equal(t, want, dsn)
	}
}

func TestDSNFromConfig_PasswordKeptRaw(t *testing.T) {
	dsn, err := dsnFromConfig(Config{
		Host:     "h",
		Username: "u",
		Password: "p@ss/w:rd",
		Database: "d",
	})
	require.NoError(t, err)
	assert.Equal(t, "u:p@ss/w:rd@tcp(h)/d", dsn)
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("SQLKIT_DRIVER", "sqlite")
	t.Setenv("SQLKIT_HOST", "envhost")
	t.Setenv("SQLKIT_PORT", "3310")
	t.Setenv("SQLKIT_USERNAME", "envuser")
	t.Setenv("SQLKIT_PASSWORD", "envpass")
	t.Setenv("SQLKIT_DATABASE", "envdb")
	t.Setenv("SQLKIT_PARAMS", "parseTime=true&loc=UTC")

	cfg := Config{Host: "original", Port: 3306}
	applyEnv(&cfg)

	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "envhost", cfg.Host)
	assert.Equal(t, 3310, cfg.Port)
	assert.Equal(t, "envuser", cfg.Username)
	assert.Equal(t, "envpass", cfg.Password)
	assert.Equal(t, "envdb", cfg.Database)
	assert.Equal(t, map[string]string{"parseTime": "true", "loc": "UTC"}, cfg.Params)
}

func TestApplyEnv_UnsetLeavesFields(t *testing.T) {
	cfg := Config{Host: "keep", Port: 3306, Username: "me"}
	applyEnv(&cfg)
	assert.Equal(t, "keep", cfg.Host)
	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, "me", cfg.Username)
}

func TestApplyEnv_DSNOverride(t *testing.T) {
	t.Setenv("SQLKIT_DSN", "root@tcp(127.0.0.1:3306)/envdb")
	cfg := Config{DSN: "original"}
	applyEnv(&cfg)
	assert.Equal(t, "root@tcp(127.0.0.1:3306)/envdb", cfg.DSN)
}

func TestApplyEnv_BadPortIgnored(t *testing.T) {
	t.Setenv("SQLKIT_PORT", "not-a-number")
	cfg := Config{Port: 3306}
	applyEnv(&cfg)
	assert.Equal(t, 3306, cfg.Port)
}
