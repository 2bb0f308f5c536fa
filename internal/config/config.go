package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Challenge handling modes.
const (
	ModeAuto       = "auto"
	ModeAttended   = "attended"
	ModeUnattended = "unattended"
)

// Config is the root configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Browser   BrowserConfig   `yaml:"browser" mapstructure:"browser"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Challenge ChallengeConfig `yaml:"challenge" mapstructure:"challenge"`
	Profile   ProfileConfig   `yaml:"profile" mapstructure:"profile"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// BrowserConfig configures the shared Chrome session.
type BrowserConfig struct {
	Headless              bool   `yaml:"headless" mapstructure:"headless"`
	ExecPath              string `yaml:"exec_path" mapstructure:"exec_path"`
	UserAgent             string `yaml:"user_agent" mapstructure:"user_agent"`
	Width                 int    `yaml:"width" mapstructure:"width"`
	Height                int    `yaml:"height" mapstructure:"height"`
	Locale                string `yaml:"locale" mapstructure:"locale"`
	Timezone              string `yaml:"timezone" mapstructure:"timezone"`
	AcceptLanguage        string `yaml:"accept_language" mapstructure:"accept_language"`
	SlowMoMs              int    `yaml:"slow_mo_ms" mapstructure:"slow_mo_ms"`
	NavigationTimeoutSecs int    `yaml:"navigation_timeout_secs" mapstructure:"navigation_timeout_secs"`
}

// SearchConfig configures the search-engine lookup.
type SearchConfig struct {
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	Locality          string `yaml:"locality" mapstructure:"locality"`
	AreaCode          string `yaml:"area_code" mapstructure:"area_code"`
	PanelTimeoutSecs  int    `yaml:"panel_timeout_secs" mapstructure:"panel_timeout_secs"`
	SettleMinMs       int    `yaml:"settle_min_ms" mapstructure:"settle_min_ms"`
	SettleMaxMs       int    `yaml:"settle_max_ms" mapstructure:"settle_max_ms"`
	RetryAttempts     int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs    int    `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	RetryMaxBackoffMs int    `yaml:"retry_max_backoff_ms" mapstructure:"retry_max_backoff_ms"`
}

// ChallengeConfig configures anti-bot challenge handling.
type ChallengeConfig struct {
	// Mode is auto, attended or unattended. Auto waits for a human only
	// when the browser is visible.
	Mode                  string `yaml:"mode" mapstructure:"mode"`
	ResolutionTimeoutSecs int    `yaml:"resolution_timeout_secs" mapstructure:"resolution_timeout_secs"`
	PollIntervalMs        int    `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	ResolvedSelector      string `yaml:"resolved_selector" mapstructure:"resolved_selector"`
	SettleMs              int    `yaml:"settle_ms" mapstructure:"settle_ms"`
}

// Attended reports whether a challenge should wait for a human.
func (c ChallengeConfig) Attended(headless bool) bool {
	switch c.Mode {
	case ModeAttended:
		return true
	case ModeUnattended:
		return false
	default:
		return !headless
	}
}

type ProfileConfig struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	SettleMs    int  `yaml:"settle_ms" mapstructure:"settle_ms"`
	TimeoutSecs int  `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PipelineConfig configures the run loop.
type PipelineConfig struct {
	SourcePath  string `yaml:"source_path" mapstructure:"source_path"`
	Column      string `yaml:"column" mapstructure:"column"`
	PaceMinSecs int    `yaml:"pace_min_secs" mapstructure:"pace_min_secs"`
	PaceMaxSecs int    `yaml:"pace_max_secs" mapstructure:"pace_max_secs"`
}

type ExportConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// File, when set, receives a copy of every log line.
	File string `yaml:"file" mapstructure:"file"`
	// Quiet drops the stderr sink so a full-screen UI owns the terminal.
	Quiet bool `yaml:"-" mapstructure:"-"`
}

// Defaults returns a fully populated default configuration.
func Defaults() *Config {
	return &Config{
		Store: StoreConfig{Driver: "sqlite", DatabaseURL: "extractmogi.db", MaxConns: 4, MinConns: 1},
		Browser: BrowserConfig{
			UserAgent:             "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
			Width:                 1920,
			Height:                1080,
			Locale:                "pt-BR",
			Timezone:              "America/Sao_Paulo",
			AcceptLanguage:        "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
			SlowMoMs:              2000,
			NavigationTimeoutSecs: 30,
		},
		Search: SearchConfig{
			BaseURL:           "https://www.google.com",
			Locality:          "Mogi Mirim",
			AreaCode:          "19",
			PanelTimeoutSecs:  5,
			SettleMinMs:       1000,
			SettleMaxMs:       2000,
			RetryAttempts:     3,
			RetryBackoffMs:    1000,
			RetryMaxBackoffMs: 15000,
		},
		Challenge: ChallengeConfig{
			Mode:                  ModeAuto,
			ResolutionTimeoutSecs: 300,
			PollIntervalMs:        1000,
			ResolvedSelector:      "div#search",
			SettleMs:              2000,
		},
		Profile:  ProfileConfig{Enabled: true, SettleMs: 2000, TimeoutSecs: 60},
		Pipeline: PipelineConfig{SourcePath: "empresas.csv", Column: "Nome_Fantasia", PaceMinSecs: 3, PaceMaxSecs: 7},
		Export:   ExportConfig{Dir: "exports", Format: "csv"},
		Log:      LogConfig{Level: "info", Format: "console", File: "extractmogi.log"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.database_url", d.Store.DatabaseURL)
	v.SetDefault("store.max_conns", d.Store.MaxConns)
	v.SetDefault("store.min_conns", d.Store.MinConns)
	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.exec_path", d.Browser.ExecPath)
	v.SetDefault("browser.user_agent", d.Browser.UserAgent)
	v.SetDefault("browser.width", d.Browser.Width)
	v.SetDefault("browser.height", d.Browser.Height)
	v.SetDefault("browser.locale", d.Browser.Locale)
	v.SetDefault("browser.timezone", d.Browser.Timezone)
	v.SetDefault("browser.accept_language", d.Browser.AcceptLanguage)
	v.SetDefault("browser.slow_mo_ms", d.Browser.SlowMoMs)
	v.SetDefault("browser.navigation_timeout_secs", d.Browser.NavigationTimeoutSecs)
	v.SetDefault("search.base_url", d.Search.BaseURL)
	v.SetDefault("search.locality", d.Search.Locality)
	v.SetDefault("search.area_code", d.Search.AreaCode)
	v.SetDefault("search.panel_timeout_secs", d.Search.PanelTimeoutSecs)
	v.SetDefault("search.settle_min_ms", d.Search.SettleMinMs)
	v.SetDefault("search.settle_max_ms", d.Search.SettleMaxMs)
	v.SetDefault("search.retry_attempts", d.Search.RetryAttempts)
	v.SetDefault("search.retry_backoff_ms", d.Search.RetryBackoffMs)
	v.SetDefault("search.retry_max_backoff_ms", d.Search.RetryMaxBackoffMs)
	v.SetDefault("challenge.mode", d.Challenge.Mode)
	v.SetDefault("challenge.resolution_timeout_secs", d.Challenge.ResolutionTimeoutSecs)
	v.SetDefault("challenge.poll_interval_ms", d.Challenge.PollIntervalMs)
	v.SetDefault("challenge.resolved_selector", d.Challenge.ResolvedSelector)
	v.SetDefault("challenge.settle_ms", d.Challenge.SettleMs)
	v.SetDefault("profile.enabled", d.Profile.Enabled)
	v.SetDefault("profile.settle_ms", d.Profile.SettleMs)
	v.SetDefault("profile.timeout_secs", d.Profile.TimeoutSecs)
	v.SetDefault("pipeline.source_path", d.Pipeline.SourcePath)
	v.SetDefault("pipeline.column", d.Pipeline.Column)
	v.SetDefault("pipeline.pace_min_secs", d.Pipeline.PaceMinSecs)
	v.SetDefault("pipeline.pace_max_secs", d.Pipeline.PaceMaxSecs)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CONTACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. Mode is one of
// run, export or stats.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}

	switch mode {
	case "run":
		switch c.Challenge.Mode {
		case ModeAuto, ModeAttended, ModeUnattended:
		default:
			errs = append(errs, fmt.Sprintf("challenge.mode %q must be auto, attended or unattended", c.Challenge.Mode))
		}
		if c.Pipeline.PaceMinSecs < 0 || c.Pipeline.PaceMaxSecs < c.Pipeline.PaceMinSecs {
			errs = append(errs, "pipeline.pace_min_secs must be >= 0 and <= pipeline.pace_max_secs")
		}
		if c.Search.SettleMinMs < 0 || c.Search.SettleMaxMs < c.Search.SettleMinMs {
			errs = append(errs, "search.settle_min_ms must be >= 0 and <= search.settle_max_ms")
		}
		if c.Challenge.ResolutionTimeoutSecs <= 0 {
			errs = append(errs, "challenge.resolution_timeout_secs must be > 0")
		}
		if c.Search.BaseURL == "" {
			errs = append(errs, "search.base_url is required")
		}
	case "export":
		switch c.Export.Format {
		case "csv", "xlsx":
		default:
			errs = append(errs, fmt.Sprintf("export.format %q must be csv or xlsx", c.Export.Format))
		}
	case "stats":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	var outputs []string
	if !cfg.Quiet {
		outputs = append(outputs, "stderr")
	}
	if cfg.File != "" {
		outputs = append(outputs, cfg.File)
	}
	if len(outputs) == 0 {
		zap.ReplaceGlobals(zap.NewNop())
		return nil
	}
	zapCfg.OutputPaths = outputs

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
