package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Backend.Kind = BackendLlamaCpp
	cfg.Backend.ServerURL = "http://localhost:8080"
	cfg.Classifier.DetectionThreshold = 0.7
	cfg.Batch.Dedup = true
	cfg.Batch.CSVPath = "/data/parcels.csv"

	path := filepath.Join(t.TempDir(), "nested", "config.json")
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadFromFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Backend.Kind = "triton" },
			wantErr: "backend.kind",
		},
		{
			name:    "empty model",
			mutate:  func(c *Config) { c.Backend.Model = "" },
			wantErr: "backend.model",
		},
		{
			name:    "empty server URL",
			mutate:  func(c *Config) { c.Backend.ServerURL = "" },
			wantErr: "backend.server_url",
		},
		{
			name:    "bad send format",
			mutate:  func(c *Config) { c.Backend.SendFormat = "bmp" },
			wantErr: "backend.send_format",
		},
		{
			name:    "negative max dim",
			mutate:  func(c *Config) { c.Backend.SendMaxDim = -1 },
			wantErr: "backend.send_max_dim",
		},
		{
			name:    "send quality too high",
			mutate:  func(c *Config) { c.Backend.SendQuality = 101 },
			wantErr: "backend.send_quality",
		},
		{
			name:    "detection threshold above 1",
			mutate:  func(c *Config) { c.Classifier.DetectionThreshold = 1.1 },
			wantErr: "classifier.detection_threshold",
		},
		{
			name:    "detection threshold below 0",
			mutate:  func(c *Config) { c.Classifier.DetectionThreshold = -0.1 },
			wantErr: "classifier.detection_threshold",
		},
		{
			name:    "fallback threshold above 1",
			mutate:  func(c *Config) { c.Classifier.FallbackThreshold = 2 },
			wantErr: "classifier.fallback_threshold",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Batch.Workers = 0 },
			wantErr: "batch.workers",
		},
		{
			name:    "negative dedup threshold",
			mutate:  func(c *Config) { c.Batch.DedupThreshold = -1 },
			wantErr: "batch.dedup_threshold",
		},
		{
			name:    "zero jpeg quality",
			mutate:  func(c *Config) { c.Batch.JPEGQuality = 0 },
			wantErr: "batch.jpeg_quality",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PHOTOPROC_BACKEND", "llamacpp")
	t.Setenv("PHOTOPROC_MODEL", "llava")
	t.Setenv("PHOTOPROC_SERVER_URL", "http://model-host:8080")
	t.Setenv("PHOTOPROC_DETECTION_THRESHOLD", "0.55")
	t.Setenv("PHOTOPROC_FALLBACK_THRESHOLD", "0.7")
	t.Setenv("PHOTOPROC_WORKERS", "8")
	t.Setenv("PHOTOPROC_DEDUP", "true")
	t.Setenv("PHOTOPROC_CSV", "/data/parcels.csv")
	t.Setenv("PHOTOPROC_LEDGER", "/data/audit.db")
	t.Setenv("PHOTOPROC_JPEG_QUALITY", "90")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	require.Equal(t, BackendLlamaCpp, cfg.Backend.Kind)
	require.Equal(t, "llava", cfg.Backend.Model)
	require.Equal(t, "http://model-host:8080", cfg.Backend.ServerURL)
	require.Equal(t, 0.55, cfg.Classifier.DetectionThreshold)
	require.Equal(t, 0.7, cfg.Classifier.FallbackThreshold)
	require.Equal(t, 8, cfg.Batch.Workers)
	require.True(t, cfg.Batch.Dedup)
	require.Equal(t, "/data/parcels.csv", cfg.Batch.CSVPath)
	require.Equal(t, "/data/audit.db", cfg.Batch.LedgerPath)
	require.Equal(t, 90, cfg.Batch.JPEGQuality)
}

func TestApplyEnvLeavesUnsetAlone(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	require.Equal(t, Default(), cfg)
}

func TestApplyEnvMalformed(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "threshold not a number", key: "PHOTOPROC_DETECTION_THRESHOLD", value: "lots"},
		{name: "fallback not a number", key: "PHOTOPROC_FALLBACK_THRESHOLD", value: "0,7"},
		{name: "workers not an int", key: "PHOTOPROC_WORKERS", value: "four"},
		{name: "dedup not a bool", key: "PHOTOPROC_DEDUP", value: "probably"},
		{name: "quality not an int", key: "PHOTOPROC_JPEG_QUALITY", value: "high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			require.Error(t, Default().ApplyEnv())
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()
	require.True(t, strings.HasSuffix(path, "config.json"))
	require.Contains(t, path, "mls-photo-processor")
}
