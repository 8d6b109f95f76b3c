package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		Port:                "8473",
		StoreBackend:        StoreMemory,
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		DBPassword:          "secure-password",
		DBSSLMode:           "disable",
		RedisURL:            "localhost:6379",
		DefaultPostTTLHours: 24,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown store backend", func(c *Config) { c.StoreBackend = "cassandra" }, true},
		{"negative default ttl", func(c *Config) { c.DefaultPostTTLHours = -1 }, true},
		{"zero default ttl falls through", func(c *Config) { c.DefaultPostTTLHours = 0 }, false},
		{"postgres backend in development", func(c *Config) { c.StoreBackend = StorePostgres }, false},
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

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"production with default secret", func(c *Config) { c.JWTSecret = "your-secret-key-change-in-production" }, true},
		{"production with short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"production with memory backend", func(c *Config) { c.StoreBackend = StoreMemory }, true},
		{"production with default db password", func(c *Config) { c.DBPassword = "password" }, true},
		{"production fully configured", func(c *Config) {}, false},
		{"prod alias fully configured", func(c *Config) { c.Env = "prod" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = "production"
			c.StoreBackend = StorePostgres
			c.DBSSLMode = "require"
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
