/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads implindex settings from an optional YAML file, a .env
// file and IMPLINDEX_* environment variables, in increasing precedence.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/suparena/implindex/errors"
)

const (
	// EnvPrefix prefixes every environment override, e.g. IMPLINDEX_AWS_TABLE.
	EnvPrefix = "IMPLINDEX"

	fileName = "implindex"
	fileType = "yaml"
)

// Output formats understood by the render command.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Config is the full configuration.
type Config struct {
	Fragments FragmentsConfig `mapstructure:"fragments"`
	Output    OutputConfig    `mapstructure:"output"`
	Log       LogConfig       `mapstructure:"log"`
	AWS       AWSConfig       `mapstructure:"aws"`
}

// FragmentsConfig locates the generated fragment tree.
type FragmentsConfig struct {
	Dir      string        `mapstructure:"dir"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AWSConfig selects the archive table. Empty keys use the default AWS
// credential chain.
type AWSConfig struct {
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Table     string `mapstructure:"table"`
}

// New returns a viper instance with defaults and environment binding set up.
// Callers may bind command line flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("fragments.dir", "implementors")
	v.SetDefault("fragments.watch", false)
	v.SetDefault("fragments.debounce", 200*time.Millisecond)
	v.SetDefault("output.format", FormatText)
	v.SetDefault("log.level", "info")
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.access_key", "")
	v.SetDefault("aws.secret_key", "")
	v.SetDefault("aws.table", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env (if present) and the config file, then decodes v. With an
// empty path, implindex.yaml in the working directory is used when it exists;
// an explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType(fileType)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Fragments.Dir == "" {
		return errors.NewValidationError("fragments.dir", "must not be empty")
	}
	if c.Fragments.Debounce < 0 {
		return errors.NewValidationError("fragments.debounce", "must not be negative")
	}
	switch c.Output.Format {
	case FormatText, FormatYAML:
	default:
		return errors.NewValidationError("output.format", fmt.Sprintf("unknown format %q (want text or yaml)", c.Output.Format))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidationError("log.level", err.Error())
	}
	return nil
}

// ValidateArchive checks the settings the archive commands need in addition.
func (c *Config) ValidateArchive() error {
	if c.AWS.Region == "" {
		return errors.NewValidationError("aws.region", "must be set to use the archive")
	}
	if c.AWS.Table == "" {
		return errors.NewValidationError("aws.table", "must be set to use the archive")
	}
	if (c.AWS.AccessKey == "") != (c.AWS.SecretKey == "") {
		return errors.NewValidationError("aws.secret_key", "access key and secret key must be set together")
	}
	return nil
}

// LogLevel returns the parsed log level, info when it does not parse.
func (c *Config) LogLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
