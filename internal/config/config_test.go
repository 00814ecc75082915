package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Port:                     "8000",
		Env:                      "development",
		DBDriver:                 DriverPostgres,
		DBPassword:               "secure-password",
		DBSSLMode:                "require",
		DBSQLitePath:             "blog.sqlite3",
		DBConnMaxLifetimeMinutes: 5,
		TracingSamplerRatio:      1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Valid development config", func(c *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"SQLite without path", func(c *Config) { c.DBDriver = DriverSQLite; c.DBSQLitePath = "" }, true},
		{"SQLite with path", func(c *Config) { c.DBDriver = DriverSQLite }, false},
		{"Negative lifetime", func(c *Config) { c.DBConnMaxLifetimeMinutes = -1 }, true},
		{"Sampler above one", func(c *Config) { c.TracingSamplerRatio = 1.5 }, true},
		{"Production with default password", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }, true},
		{"Production with disabled SSL", func(c *Config) { c.Env = "prod"; c.DBSSLMode = "disable" }, true},
		{"Production with require SSL", func(c *Config) { c.Env = "production" }, false},
		{"Production on sqlite skips postgres checks", func(c *Config) {
			c.Env = "production"
			c.DBDriver = DriverSQLite
			c.DBSSLMode = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, DriverSQLite, c.DBDriver)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "/media/", c.MediaURL)
}
