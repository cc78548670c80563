package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(t *testing.T)
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name:     "default configuration with no env vars",
			setupEnv: func(t *testing.T) {},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Ingest.MaxUploadBytes)
				assert.Equal(t, DefaultSessionTTL, cfg.Ingest.SessionTTL)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "environment variables override defaults",
			setupEnv: func(t *testing.T) {
				t.Setenv("FISH_SERVER_PORT", "9090")
				t.Setenv("FISH_SERVER_READ_TIMEOUT", "5s")
				t.Setenv("FISH_SECURITY_ALLOWED_ORIGINS", "http://a.test,http://b.test")
				t.Setenv("FISH_LOGGING_LEVEL", "debug")
				t.Setenv("FISH_INGEST_MAX_UPLOAD_BYTES", "1024")
				t.Setenv("FISH_TELEMETRY_TRACE_EXPORTER", "stdout")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, int64(1024), cfg.Ingest.MaxUploadBytes)
				assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
				// untouched fields keep their defaults
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
			},
		},
		{
			name: "invalid port",
			setupEnv: func(t *testing.T) {
				t.Setenv("FISH_SERVER_PORT", "70000")
			},
			wantErr: true,
		},
		{
			name: "unknown trace exporter",
			setupEnv: func(t *testing.T) {
				t.Setenv("FISH_TELEMETRY_TRACE_EXPORTER", "jaeger")
			},
			wantErr: true,
		},
		{
			name: "malformed duration",
			setupEnv: func(t *testing.T) {
				t.Setenv("FISH_INGEST_SESSION_TTL", "soon")
			},
			wantErr: true,
		},
		{
			name: "unknown logging output falls back to console",
			setupEnv: func(t *testing.T) {
				t.Setenv("FISH_LOGGING_OUTPUT", "syslog")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "console", cfg.Logging.Output)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv(t)

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoad_YAMLFileBelowEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 7070
logging:
  level: warn
ingest:
  cache_entries: 8
  session_ttl: 30m
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	t.Setenv("FISH_CONFIG_FILE", path)
	t.Setenv("FISH_LOGGING_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "error", cfg.Logging.Level, "env wins over file")
	assert.Equal(t, 8, cfg.Ingest.CacheEntries)
	assert.Equal(t, 30*time.Minute, cfg.Ingest.SessionTTL)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "defaults survive a partial file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("FISH_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fish.env")
	require.NoError(t, os.WriteFile(path, []byte("FISH_SERVER_PORT=6060\nFISH_INGEST_MAX_SESSIONS=12\n"), 0644))

	t.Setenv("FISH_ENV_FILE", path)
	t.Setenv("FISH_INGEST_MAX_SESSIONS", "3")
	t.Cleanup(func() { os.Unsetenv("FISH_SERVER_PORT") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Ingest.MaxSessions, "process env wins over the env file")
}

func TestLoad_MissingEnvFile(t *testing.T) {
	t.Setenv("FISH_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	_, err := Load()
	assert.Error(t, err)
}

func TestDomainConstants(t *testing.T) {
	assert.Equal(t, "Januari", MonthNames[0])
	assert.Equal(t, "Desember", MonthNames[11])
	assert.ElementsMatch(t, []string{"-", "", " ", "nan"}, VolumeSentinels[:])
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), SentinelPeriod)

	for _, col := range RequiredColumns {
		labels, ok := ColumnLabels[col]
		require.True(t, ok, "labels for %s", col)
		assert.NotEmpty(t, labels)
	}
	assert.Equal(t, "Volume Produced (kg)", ColumnLabels[ColumnVolume][0])
}
