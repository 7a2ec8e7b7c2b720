package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Harmonize HarmonizeConfig `yaml:"harmonize" mapstructure:"harmonize"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates pipeline inputs and outputs on disk.
type PathsConfig struct {
	RawDir       string `yaml:"raw_dir" mapstructure:"raw_dir"`
	ReferenceDir string `yaml:"reference_dir" mapstructure:"reference_dir"`
	DB           string `yaml:"db" mapstructure:"db"`
	SiteJSON     string `yaml:"site_json" mapstructure:"site_json"`
	LegacyDir    string `yaml:"legacy_dir" mapstructure:"legacy_dir"`
}

// HarmonizeConfig tunes enrichment defaults.
type HarmonizeConfig struct {
	DefaultSourceName string `yaml:"default_source_name" mapstructure:"default_source_name"`
}

// ServerConfig configures the read API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VOICECAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("paths.raw_dir", "data/raw")
	v.SetDefault("paths.reference_dir", "data/reference")
	v.SetDefault("paths.db", "data/voices.db")
	v.SetDefault("paths.site_json", "data/static/voices-site.json")
	v.SetDefault("paths.legacy_dir", "temp/tts-data")
	v.SetDefault("harmonize.default_source_name", "py3-tts-wrapper")
	v.SetDefault("server.port", 8001)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
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

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Validate checks that the settings a command needs are present. Mode is the
// command name: "harmonize", "export" or "serve".
func (c *Config) Validate(mode string) error {
	var missing []string
	switch mode {
	case "harmonize":
		if c.Paths.RawDir == "" {
			missing = append(missing, "paths.raw_dir is required")
		}
		if c.Paths.DB == "" {
			missing = append(missing, "paths.db is required")
		}
	case "export":
		if c.Paths.DB == "" {
			missing = append(missing, "paths.db is required")
		}
		if c.Paths.SiteJSON == "" {
			missing = append(missing, "paths.site_json is required")
		}
	case "serve":
		if c.Paths.DB == "" {
			missing = append(missing, "paths.db is required")
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			missing = append(missing, "server.port must be between 1 and 65535")
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}
