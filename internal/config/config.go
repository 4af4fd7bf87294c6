package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Supported vision backends.
const (
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
)

// Config holds the application configuration
type Config struct {
	Backend    BackendConfig    `json:"backend"`
	Classifier ClassifierConfig `json:"classifier"`
	Batch      BatchConfig      `json:"batch"`
}

// BackendConfig holds configuration for the vision model backend
type BackendConfig struct {
	Kind        string `json:"kind"`
	Model       string `json:"model"`
	ServerURL   string `json:"server_url"`
	SendFormat  string `json:"send_format"`
	SendMaxDim  int    `json:"send_max_dim"`
	SendQuality int    `json:"send_quality"`
}

// ClassifierConfig holds the classification thresholds
type ClassifierConfig struct {
	DetectionThreshold float64 `json:"detection_threshold"`
	FallbackThreshold  float64 `json:"fallback_threshold"`
}

// BatchConfig holds configuration for batch runs
type BatchConfig struct {
	Workers        int    `json:"workers"`
	Dedup          bool   `json:"dedup"`
	DedupThreshold int    `json:"dedup_threshold"`
	JPEGQuality    int    `json:"jpeg_quality"`
	CSVPath        string `json:"csv_path"`
	LedgerPath     string `json:"ledger_path"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Kind:        BackendOllama,
			Model:       "qwen2.5vl",
			ServerURL:   "http://localhost:11434",
			SendFormat:  "jpg",
			SendMaxDim:  1536,
			SendQuality: 85,
		},
		Classifier: ClassifierConfig{
			DetectionThreshold: 0.6,
			FallbackThreshold:  0.65,
		},
		Batch: BatchConfig{
			Workers:        4,
			Dedup:          false,
			DedupThreshold: 10,
			JPEGQuality:    95,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays PHOTOPROC_* environment variables onto the configuration.
// A .env file in the working directory is honored when present. Malformed
// numeric values are errors; startup should not continue on a half-read
// threshold.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	if v := os.Getenv("PHOTOPROC_BACKEND"); v != "" {
		c.Backend.Kind = v
	}
	if v := os.Getenv("PHOTOPROC_MODEL"); v != "" {
		c.Backend.Model = v
	}
	if v := os.Getenv("PHOTOPROC_SERVER_URL"); v != "" {
		c.Backend.ServerURL = v
	}
	if v := os.Getenv("PHOTOPROC_CSV"); v != "" {
		c.Batch.CSVPath = v
	}
	if v := os.Getenv("PHOTOPROC_LEDGER"); v != "" {
		c.Batch.LedgerPath = v
	}

	if v := os.Getenv("PHOTOPROC_DETECTION_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PHOTOPROC_DETECTION_THRESHOLD: %w", err)
		}
		c.Classifier.DetectionThreshold = f
	}
	if v := os.Getenv("PHOTOPROC_FALLBACK_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PHOTOPROC_FALLBACK_THRESHOLD: %w", err)
		}
		c.Classifier.FallbackThreshold = f
	}
	if v := os.Getenv("PHOTOPROC_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PHOTOPROC_WORKERS: %w", err)
		}
		c.Batch.Workers = n
	}
	if v := os.Getenv("PHOTOPROC_JPEG_QUALITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PHOTOPROC_JPEG_QUALITY: %w", err)
		}
		c.Batch.JPEGQuality = n
	}
	if v := os.Getenv("PHOTOPROC_DEDUP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PHOTOPROC_DEDUP: %w", err)
		}
		c.Batch.Dedup = b
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Backend.Kind != BackendOllama && c.Backend.Kind != BackendLlamaCpp {
		return fmt.Errorf("backend.kind must be %q or %q", BackendOllama, BackendLlamaCpp)
	}

	if c.Backend.Model == "" {
		return fmt.Errorf("backend.model cannot be empty")
	}

	if c.Backend.ServerURL == "" {
		return fmt.Errorf("backend.server_url cannot be empty")
	}

	switch c.Backend.SendFormat {
	case "jpg", "jpeg", "png":
	default:
		return fmt.Errorf("backend.send_format must be jpg, jpeg or png")
	}

	if c.Backend.SendMaxDim < 0 {
		return fmt.Errorf("backend.send_max_dim cannot be negative")
	}

	if c.Backend.SendQuality < 1 || c.Backend.SendQuality > 100 {
		return fmt.Errorf("backend.send_quality must be between 1 and 100")
	}

	if c.Classifier.DetectionThreshold < 0 || c.Classifier.DetectionThreshold > 1 {
		return fmt.Errorf("classifier.detection_threshold must be between 0 and 1")
	}

	if c.Classifier.FallbackThreshold < 0 || c.Classifier.FallbackThreshold > 1 {
		return fmt.Errorf("classifier.fallback_threshold must be between 0 and 1")
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive")
	}

	if c.Batch.DedupThreshold < 0 {
		return fmt.Errorf("batch.dedup_threshold cannot be negative")
	}

	if c.Batch.JPEGQuality < 1 || c.Batch.JPEGQuality > 100 {
		return fmt.Errorf("batch.jpeg_quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "mls-photo-processor", "config.json")
}
