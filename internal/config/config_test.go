package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
	assert.Equal(t, 75.0, cfg.Risk.Threshold)
	assert.Equal(t, "168h", cfg.Risk.SingleCooldown)
	assert.Equal(t, "0s", cfg.Risk.BulkCooldown)
	assert.Equal(t, "0 0 2 * * *", cfg.Scheduler.AtRiskSweep)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
jwt:
  secret: from-file
risk:
  threshold: 60
scheduler:
  enabled: true
`)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("RISK_SINGLE_COOLDOWN", "24h")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 60.0, cfg.Risk.Threshold)
	assert.Equal(t, "24h", cfg.Risk.SingleCooldown)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{"missing secret", "server:\n  port: \"8080\"\n", map[string]string{"JWT_SECRET": ""}},
		{"threshold above 100", "risk:\n  threshold: 120\n", map[string]string{"JWT_SECRET": "s"}},
		{"bad duration", "risk:\n  single_cooldown: soon\n", map[string]string{"JWT_SECRET": "s"}},
		{"negative cooldown", "", map[string]string{"JWT_SECRET": "s", "RISK_BULK_COOLDOWN": "-1h"}},
		{"bad env bool", "", map[string]string{"JWT_SECRET": "s", "SCHEDULER_ENABLED": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestGetPostgresConnectionString(t *testing.T) {
	cfg := &Config{}
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Host = "db"
	cfg.Database.Port = "5432"
	cfg.Database.DBName = "acadtrack"

	assert.Equal(t, "postgres://u:p@db:5432/acadtrack?sslmode=disable", cfg.GetPostgresConnectionString())
}
