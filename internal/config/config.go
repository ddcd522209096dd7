package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "REVIEW_SCANNER_CONFIG"
	dataDirEnv        = "REVIEW_SCANNER_DATA_DIR"
	apiKeyEnv         = "REVIEW_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Storage       StorageConfig      `yaml:"storage"`
	Source        SourceConfig       `yaml:"source"`
	Ingest        IngestConfig       `yaml:"ingest"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Analytics     AnalyticsConfig    `yaml:"analytics"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig describes where durable state lives.
type StorageConfig struct {
	DataDir        string `yaml:"dataDir"`
	CollectionFile string `yaml:"collectionFile"`
	LedgerFile     string `yaml:"ledgerFile"`
}

// TablePath is the durable review table location.
func (s StorageConfig) TablePath() string {
	return filepath.Join(s.DataDir, "reviews.csv")
}

// LedgerPath resolves the run-ledger database location.
func (s StorageConfig) LedgerPath() string {
	if s.LedgerFile != "" {
		return s.LedgerFile
	}
	return filepath.Join(s.DataDir, "runs.db")
}

// SourceConfig selects and parameterizes the review source strategy.
type SourceConfig struct {
	Strategy string          `yaml:"strategy"`
	API      APISourceConfig `yaml:"api"`
	PageDir  string          `yaml:"pageDir"`
}

// APISourceConfig wires the HTTP review provider.
type APISourceConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	APIKey         string        `yaml:"apiKey"`
	Marketplace    string        `yaml:"marketplace"`
	Timeout        time.Duration `yaml:"-"`
	Retries        int           `yaml:"retries"`
	RetryBackoff   time.Duration `yaml:"-"`
	RetryBackoffUp time.Duration `yaml:"-"`
}

// UnmarshalYAML accepts durations in the usual "5s"/"2m" notation.
func (c *APISourceConfig) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		Endpoint        string `yaml:"endpoint"`
		APIKey          string `yaml:"apiKey"`
		Marketplace     string `yaml:"marketplace"`
		Timeout         string `yaml:"timeout"`
		Retries         int    `yaml:"retries"`
		RetryBackoff    string `yaml:"retryBackoff"`
		RetryBackoffMax string `yaml:"retryBackoffMax"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}

	c.Endpoint = aux.Endpoint
	c.APIKey = aux.APIKey
	c.Marketplace = aux.Marketplace
	c.Retries = aux.Retries

	var err error
	if c.Timeout, err = parseDuration(aux.Timeout, "source.api.timeout"); err != nil {
		return err
	}
	if c.RetryBackoff, err = parseDuration(aux.RetryBackoff, "source.api.retryBackoff"); err != nil {
		return err
	}
	if c.RetryBackoffUp, err = parseDuration(aux.RetryBackoffMax, "source.api.retryBackoffMax"); err != nil {
		return err
	}
	return nil
}

// IngestConfig bounds a collection run.
type IngestConfig struct {
	MaxRecordsPerEntity int `yaml:"maxRecordsPerEntity"`
}

// SchedulerConfig defines the daemon cadence.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"-"`
}

// UnmarshalYAML accepts the interval in the usual "15m" notation.
func (c *SchedulerConfig) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		Interval string `yaml:"interval"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	var err error
	c.Interval, err = parseDuration(aux.Interval, "scheduler.interval")
	return err
}

func parseDuration(raw, field string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", field, err)
	}
	return d, nil
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// AnalyticsConfig collects the statistical tunables. The extremeness and
// prior constants default to the historically used values; they are knobs,
// not established truths.
type AnalyticsConfig struct {
	PriorMean         float64 `yaml:"priorMean"`
	PriorStrength     float64 `yaml:"priorStrength"`
	FiveStarBaseline  float64 `yaml:"fiveStarBaseline"`
	VarianceCap       float64 `yaml:"varianceCap"`
	MinImpactWeeks    int     `yaml:"minImpactWeeks"`
	RecentShiftWindow int     `yaml:"recentShiftWindow"`
	OutcomeFile       string  `yaml:"outcomeFile"`
	OutDir            string  `yaml:"outDir"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Storage.DataDir = v
	}

	if v := os.Getenv(apiKeyEnv); v != "" {
		c.Source.API.APIKey = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Storage.DataDir != "" {
		base.Storage.DataDir = override.Storage.DataDir
	}
	if override.Storage.CollectionFile != "" {
		base.Storage.CollectionFile = override.Storage.CollectionFile
	}
	if override.Storage.LedgerFile != "" {
		base.Storage.LedgerFile = override.Storage.LedgerFile
	}

	if override.Source.Strategy != "" {
		base.Source.Strategy = override.Source.Strategy
	}
	if override.Source.PageDir != "" {
		base.Source.PageDir = override.Source.PageDir
	}
	if override.Source.API.Endpoint != "" {
		base.Source.API.Endpoint = override.Source.API.Endpoint
	}
	if override.Source.API.APIKey != "" {
		base.Source.API.APIKey = override.Source.API.APIKey
	}
	if override.Source.API.Marketplace != "" {
		base.Source.API.Marketplace = override.Source.API.Marketplace
	}
	if override.Source.API.Timeout > 0 {
		base.Source.API.Timeout = override.Source.API.Timeout
	}
	if override.Source.API.Retries > 0 {
		base.Source.API.Retries = override.Source.API.Retries
	}
	if override.Source.API.RetryBackoff > 0 {
		base.Source.API.RetryBackoff = override.Source.API.RetryBackoff
	}
	if override.Source.API.RetryBackoffUp > 0 {
		base.Source.API.RetryBackoffUp = override.Source.API.RetryBackoffUp
	}

	if override.Ingest.MaxRecordsPerEntity > 0 {
		base.Ingest.MaxRecordsPerEntity = override.Ingest.MaxRecordsPerEntity
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Analytics.PriorMean > 0 {
		base.Analytics.PriorMean = override.Analytics.PriorMean
	}
	if override.Analytics.PriorStrength > 0 {
		base.Analytics.PriorStrength = override.Analytics.PriorStrength
	}
	if override.Analytics.FiveStarBaseline > 0 {
		base.Analytics.FiveStarBaseline = override.Analytics.FiveStarBaseline
	}
	if override.Analytics.VarianceCap > 0 {
		base.Analytics.VarianceCap = override.Analytics.VarianceCap
	}
	if override.Analytics.MinImpactWeeks > 0 {
		base.Analytics.MinImpactWeeks = override.Analytics.MinImpactWeeks
	}
	if override.Analytics.RecentShiftWindow > 0 {
		base.Analytics.RecentShiftWindow = override.Analytics.RecentShiftWindow
	}
	if override.Analytics.OutcomeFile != "" {
		base.Analytics.OutcomeFile = override.Analytics.OutcomeFile
	}
	if override.Analytics.OutDir != "" {
		base.Analytics.OutDir = override.Analytics.OutDir
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Storage: StorageConfig{
			DataDir:        "DATA",
			CollectionFile: filepath.Join("DATA", "collection.csv"),
		},
		Source: SourceConfig{
			Strategy: "api",
			API: APISourceConfig{
				Endpoint:       "https://api.scrapingdog.com/amazon/reviews",
				Marketplace:    "com",
				Timeout:        20 * time.Second,
				Retries:        3,
				RetryBackoff:   2 * time.Second,
				RetryBackoffUp: 15 * time.Second,
			},
			PageDir: filepath.Join("DATA", "review_pages"),
		},
		Ingest:    IngestConfig{MaxRecordsPerEntity: 500},
		Scheduler: SchedulerConfig{Interval: 15 * time.Minute},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Analytics: AnalyticsConfig{
			PriorMean:         4.1,
			PriorStrength:     20,
			FiveStarBaseline:  0.6,
			VarianceCap:       0.5,
			MinImpactWeeks:    8,
			RecentShiftWindow: 4,
			OutDir:            filepath.Join("DATA", "analytics"),
		},
	}
}
