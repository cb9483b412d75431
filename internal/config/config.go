// Package config loads tidycsv settings from defaults, an optional YAML file,
// a .env file, TIDYCSV_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/valpere/tidycsv/internal/advisor"
)

const (
	EnvPrefix  = "TIDYCSV"
	ConfigName = "tidycsv"

	DefaultMaxBodyBytes = 10 << 20
)

type Config struct {
	Advisor advisor.Config `mapstructure:"advisor"`
	Sample  SampleConfig   `mapstructure:"sample"`
	DB      DBConfig       `mapstructure:"db"`
	Log     LogConfig      `mapstructure:"log"`
	Server  ServerConfig   `mapstructure:"server"`
}

type SampleConfig struct {
	MaxLines int `mapstructure:"max_lines"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	MaxBodyBytes  int64  `mapstructure:"max_body_bytes"`
}

// SetDefaults registers every key so that environment variables can
// override keys that appear in no config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("advisor.provider", "ollama")
	v.SetDefault("advisor.model", "")
	v.SetDefault("advisor.base_url", "")
	v.SetDefault("advisor.api_key", "")
	v.SetDefault("advisor.timeout", 60*time.Second)
	v.SetDefault("sample.max_lines", 50)
	v.SetDefault("db.path", "./data/tidycsv.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_concurrent", 4)
	v.SetDefault("server.max_body_bytes", DefaultMaxBodyBytes)
}

// Load reads the configuration into v and unmarshals it. configFile may be
// empty, in which case tidycsv.yaml is looked up in the working directory and
// in $HOME/.config/tidycsv; a missing file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("advisor.api_key", EnvPrefix+"_ADVISOR_API_KEY", "OPENROUTER_API_KEY", "GEMINI_API_KEY")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Advisor.Provider) {
	case "ollama", "openrouter", "gemini":
	default:
		errs = append(errs, fmt.Errorf("advisor.provider: unknown provider %q", c.Advisor.Provider))
	}
	if c.Advisor.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("advisor.timeout must be positive"))
	}
	if c.Sample.MaxLines <= 0 {
		errs = append(errs, fmt.Errorf("sample.max_lines must be positive"))
	}
	if c.DB.Path == "" {
		errs = append(errs, fmt.Errorf("db.path must not be empty"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be console or json, got %q", c.Log.Format))
	}
	if c.Server.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("server.max_concurrent must be positive"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
