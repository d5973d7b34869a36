package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env or file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5000, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, int64(32<<20), cfg.Upload.MaxBytes)
				assert.Equal(t, "modern", cfg.Upload.DefaultTheme)
				assert.Equal(t, 30*time.Minute, cfg.Results.TTL)
				assert.Equal(t, 256, cfg.Results.Capacity)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"CASES_SERVER_PORT":          "9090",
				"CASES_UPLOAD_MAX_BYTES":     "1048576",
				"CASES_RESULTS_TTL":          "5m",
				"CASES_LOGGING_LEVEL":        "debug",
				"CASES_UPLOAD_DEFAULT_THEME": "classic",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, int64(1<<20), cfg.Upload.MaxBytes)
				assert.Equal(t, 5*time.Minute, cfg.Results.TTL)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "classic", cfg.Upload.DefaultTheme)
			},
		},
		{
			name: "file values apply where env is unset",
			file: "server:\n  port: 7000\nresults:\n  capacity: 10\n  ttl: 2m\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7000, cfg.Server.Port)
				assert.Equal(t, 10, cfg.Results.Capacity)
				assert.Equal(t, 2*time.Minute, cfg.Results.TTL)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout, "keys absent from the file keep defaults")
			},
		},
		{
			name: "env wins over file",
			env:  map[string]string{"CASES_SERVER_PORT": "6100"},
			file: "server:\n  port: 7000\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6100, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"CASES_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "unknown theme",
			env:     map[string]string{"CASES_UPLOAD_DEFAULT_THEME": "neon"},
			wantErr: "unknown default theme",
		},
		{
			name:    "negative upload limit",
			file:    "upload:\n  max_bytes: -1\n",
			wantErr: "upload max bytes must be positive",
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"CASES_RESULTS_TTL": "soon"},
			wantErr: "failed to load config from env",
		},
		{
			name:    "malformed file",
			file:    "server: [",
			wantErr: "failed to load config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "absent.yaml")
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			} else {
				require.NoError(t, os.WriteFile(path, nil, 0o644))
			}

			cfg, err := Load(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_NormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, ":5000", cfg.Addr())
}
