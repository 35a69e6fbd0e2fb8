package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sentinelstack/sentinel-observer/internal/models"
)

// Config captures the settings required to boot the observer.
type Config struct {
	Prometheus  PrometheusConfig  `yaml:"prometheus"`
	Target      TargetConfig      `yaml:"target"`
	Thresholds  ThresholdsConfig  `yaml:"thresholds"`
	Models      ModelsConfig      `yaml:"models"`
	Loop        LoopConfig        `yaml:"loop"`
	Remediation RemediationConfig `yaml:"remediation"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// PrometheusConfig configures access to the metrics store.
type PrometheusConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// TargetConfig describes the monitored service.
type TargetConfig struct {
	Container     string        `yaml:"container"`
	LogTailLines  int           `yaml:"logTailLines"`
	HealthURL     string        `yaml:"healthURL"`
	HealthTimeout time.Duration `yaml:"healthTimeout"`
}

// ThresholdsConfig holds the breach policy. Loaded once at startup and
// never mutated afterwards.
type ThresholdsConfig struct {
	CPU     float64 `yaml:"cpu"`
	Latency float64 `yaml:"latency"`
}

// ModelsConfig configures the reasoning backend fallback chain.
type ModelsConfig struct {
	RemoteAPIKey  string             `yaml:"remoteAPIKey"`
	RemoteBaseURL string             `yaml:"remoteBaseURL"`
	LocalURL      string             `yaml:"localURL"`
	Timeout       time.Duration      `yaml:"timeout"`
	Chain         []models.ModelSpec `yaml:"chain"`
}

// LoopConfig controls observer cadence.
type LoopConfig struct {
	PollInterval     time.Duration `yaml:"pollInterval"`
	CooldownInterval time.Duration `yaml:"cooldownInterval"`
}

// RemediationConfig controls the corrective action gate.
type RemediationConfig struct {
	SettleInterval time.Duration `yaml:"settleInterval"`
}

// MetricsConfig controls the self-instrumentation listener.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SENTINEL_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if len(cfg.Models.Chain) == 0 {
		cfg.Models.Chain = defaultChain()
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Prometheus: PrometheusConfig{
			URL:     "http://localhost:9090",
			Timeout: 10 * time.Second,
		},
		Target: TargetConfig{
			Container:     "sentinel-target-api",
			LogTailLines:  20,
			HealthURL:     "http://localhost:8000/health",
			HealthTimeout: 10 * time.Second,
		},
		Thresholds: ThresholdsConfig{
			CPU:     0.5,
			Latency: 2.0,
		},
		Models: ModelsConfig{
			LocalURL: "http://localhost:1234/api/v1/chat",
			Timeout:  30 * time.Second,
			Chain:    defaultChain(),
		},
		Loop: LoopConfig{
			PollInterval:     30 * time.Second,
			CooldownInterval: 60 * time.Second,
		},
		Remediation: RemediationConfig{
			SettleInterval: 30 * time.Second,
		},
		Metrics: MetricsConfig{Address: ":2112"},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func defaultChain() []models.ModelSpec {
	return []models.ModelSpec{
		{Kind: models.BackendRemote, Name: "gpt-4o-mini"},
		{Kind: models.BackendLocal, Name: "mistralai/ministral-3-3b"},
		{Kind: models.BackendLocal, Name: "liquid/lfm2.5-1.2b"},
		{Kind: models.BackendLocal, Name: "qwen/qwen3-vl-4b"},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SENTINEL_PROMETHEUS_URL"); v != "" {
		cfg.Prometheus.URL = v
	}
	if v := os.Getenv("SENTINEL_TARGET_CONTAINER"); v != "" {
		cfg.Target.Container = v
	}
	if v := os.Getenv("SENTINEL_TARGET_HEALTH_URL"); v != "" {
		cfg.Target.HealthURL = v
	}
	if v := os.Getenv("SENTINEL_LOG_TAIL_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Target.LogTailLines = n
		}
	}
	if v := os.Getenv("SENTINEL_CPU_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Thresholds.CPU = f
		}
	}
	if v := os.Getenv("SENTINEL_LATENCY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Thresholds.Latency = f
		}
	}
	if v := os.Getenv("SENTINEL_REMOTE_API_KEY"); v != "" {
		cfg.Models.RemoteAPIKey = v
	}
	if v := os.Getenv("SENTINEL_REMOTE_BASE_URL"); v != "" {
		cfg.Models.RemoteBaseURL = v
	}
	if v := os.Getenv("SENTINEL_LOCAL_MODEL_URL"); v != "" {
		cfg.Models.LocalURL = v
	}
	if v := os.Getenv("SENTINEL_MODEL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Models.Timeout = d
		}
	}
	if v := os.Getenv("SENTINEL_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Loop.PollInterval = d
		}
	}
	if v := os.Getenv("SENTINEL_COOLDOWN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Loop.CooldownInterval = d
		}
	}
	if v := os.Getenv("SENTINEL_SETTLE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Remediation.SettleInterval = d
		}
	}
	if v := os.Getenv("SENTINEL_METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}
	if v := os.Getenv("SENTINEL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SENTINEL_LOG_FORMAT"); strings.EqualFold(v, "json") {
		cfg.Logging.JSON = true
	}
}
