package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config carries every tunable of the pipeline. Values resolve in
// order: defaults, then setting.yml, then VAULTLOOP_* environment
// variables. A .env file in the working directory is folded into the
// environment first.
type Config struct {
	VaultRoot     string `yaml:"vault_root"`
	LockDBPath    string `yaml:"lock_db_path"`
	LLMGateway    string `yaml:"llm_gateway"`
	MailGateway   string `yaml:"mail_gateway"`
	LedgerGateway string `yaml:"ledger_gateway"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`

	IntervalSec      int `yaml:"interval_sec"`
	MaxPlansPerTick  int `yaml:"max_plans_per_tick"`
	Concurrency      int `yaml:"concurrency"`
	ApprovalTTLHours int `yaml:"approval_ttl_hours"`

	LogLevel string `yaml:"log_level"`
}

// SettingFileName is the per-vault configuration file, looked up in
// the working directory
const SettingFileName = "setting.yml"

func defaultConfig() Config {
	return Config{
		VaultRoot:        "vault",
		LLMGateway:       "mock",
		MailGateway:      "mock",
		LedgerGateway:    "mock",
		IntervalSec:      60,
		MaxPlansPerTick:  10,
		Concurrency:      2,
		ApprovalTTLHours: 24,
		LogLevel:         "info",
	}
}

// Load resolves the effective configuration. A missing setting file
// is not an error; a malformed one is.
func Load(settingPath string) (*Config, error) {
	// Side effect only: a missing .env is the common case.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if settingPath == "" {
		settingPath = SettingFileName
	}
	data, err := os.ReadFile(settingPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", settingPath, err)
		}
	case os.IsNotExist(err):
		// fine, defaults plus env
	default:
		return nil, fmt.Errorf("read %s: %w", settingPath, err)
	}

	applyEnv(&cfg)

	if cfg.LockDBPath == "" {
		cfg.LockDBPath = filepath.Join(cfg.VaultRoot, ".vaultloop", "run.db")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("VAULTLOOP_VAULT_ROOT", &cfg.VaultRoot)
	setString("VAULTLOOP_LOCK_DB_PATH", &cfg.LockDBPath)
	setString("VAULTLOOP_LLM_GATEWAY", &cfg.LLMGateway)
	setString("VAULTLOOP_MAIL_GATEWAY", &cfg.MailGateway)
	setString("VAULTLOOP_LEDGER_GATEWAY", &cfg.LedgerGateway)
	setString("VAULTLOOP_LOG_LEVEL", &cfg.LogLevel)
	setInt("VAULTLOOP_INTERVAL_SEC", &cfg.IntervalSec)
	setInt("VAULTLOOP_MAX_PLANS_PER_TICK", &cfg.MaxPlansPerTick)
	setInt("VAULTLOOP_CONCURRENCY", &cfg.Concurrency)
	setInt("VAULTLOOP_APPROVAL_TTL_HOURS", &cfg.ApprovalTTLHours)

	// The provider's conventional variable wins over nothing, never
	// over an explicit setting.
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	setString("VAULTLOOP_OPENAI_API_KEY", &cfg.OpenAIAPIKey)
}

func (c *Config) validate() error {
	if c.VaultRoot == "" {
		return fmt.Errorf("vault_root must not be empty")
	}
	if c.LLMGateway == "openai" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("llm_gateway is openai but no API key is configured (set OPENAI_API_KEY)")
	}
	if c.IntervalSec <= 0 {
		return fmt.Errorf("interval_sec must be positive, got %d", c.IntervalSec)
	}
	if c.MaxPlansPerTick <= 0 {
		return fmt.Errorf("max_plans_per_tick must be positive, got %d", c.MaxPlansPerTick)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.ApprovalTTLHours <= 0 {
		return fmt.Errorf("approval_ttl_hours must be positive, got %d", c.ApprovalTTLHours)
	}
	return nil
}

// Interval returns the loop interval as a duration
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSec) * time.Second
}

// ApprovalTTL returns the request time-to-live as a duration
func (c *Config) ApprovalTTL() time.Duration {
	return time.Duration(c.ApprovalTTLHours) * time.Hour
}
