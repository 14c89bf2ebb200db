package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dirserve/dirserve/credentials"
	dirservehttp "github.com/dirserve/dirserve/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for dirserve.
type Config struct {
	Server  ServerConfig               `mapstructure:"server"`
	Serve   ServeConfig                `mapstructure:"serve"`
	Archive ArchiveConfig              `mapstructure:"archive"`
	Upload  UploadConfig               `mapstructure:"upload"`
	Auth    credentials.AccountsConfig `mapstructure:"auth"`
	CORS    dirservehttp.CORSConfig    `mapstructure:"cors"`
	Log     LogConfig                  `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// ServeConfig holds served-tree configuration.
type ServeConfig struct {
	// Path is the directory to serve; the served root for the process
	// lifetime.
	Path string `mapstructure:"path" validate:"required"`
	// FollowSymlinks descends into symlinked directories (cycle-checked).
	FollowSymlinks bool `mapstructure:"follow_symlinks"`
	// IncludeHidden includes dotfiles in listings and archives.
	IncludeHidden bool `mapstructure:"include_hidden"`
}

// ArchiveConfig holds archive download configuration.
type ArchiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// UploadConfig holds upload configuration.
type UploadConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	Overwrite bool `mapstructure:"overwrite"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"path":            "serve.path",
	"port":            "server.port",
	"host":            "server.host",
	"follow-symlinks": "serve.follow_symlinks",
	"hidden":          "serve.include_hidden",
	"upload":          "upload.enabled",
	"auth":            "auth.accounts",
	"auth-file":       "auth.accounts_file",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)

	v.SetDefault("serve.path", ".")
	v.SetDefault("serve.follow_symlinks", false)
	v.SetDefault("serve.include_hidden", false)

	v.SetDefault("archive.enabled", true)

	v.SetDefault("upload.enabled", false)
	v.SetDefault("upload.overwrite", false)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("DIRSERVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
