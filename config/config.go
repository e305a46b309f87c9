// Package config loads the frame bridge configuration from a YAML file and
// VSBRIDGE_* environment variables.
//
// Precedence, lowest first: Default, the file given to Load, the
// environment. Validate is applied last.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalid indicates a configuration value outside its allowed range.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete frame bridge configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Bridge BridgeConfig `yaml:"bridge"`
	Server ServerConfig `yaml:"server"`
	Dump   DumpConfig   `yaml:"dump"`
}

// LogConfig controls logrus.
type LogConfig struct {
	Level  string `yaml:"level" env:"VSBRIDGE_LOG_LEVEL"`
	Format string `yaml:"format" env:"VSBRIDGE_LOG_FORMAT"` // text or json
}

// BridgeConfig holds the defaults applied to every opened source.
type BridgeConfig struct {
	TextEncoding  string `yaml:"text_encoding" env:"VSBRIDGE_TEXT_ENCODING"`
	NativeFormats bool   `yaml:"native_formats" env:"VSBRIDGE_NATIVE_FORMATS"`
	Stacked       bool   `yaml:"stacked" env:"VSBRIDGE_STACKED"`
	OutputIndex   int    `yaml:"output_index" env:"VSBRIDGE_OUTPUT_INDEX"`
}

// ServerConfig configures the HTTP frame server.
type ServerConfig struct {
	Listen string `yaml:"listen" env:"VSBRIDGE_LISTEN"`
}

// DumpConfig configures frame dumps.
type DumpConfig struct {
	Level int `yaml:"level" env:"VSBRIDGE_DUMP_LEVEL"` // zstd level, 0 for the library default
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Bridge: BridgeConfig{
			TextEncoding: "utf-8",
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8765",
		},
		Dump: DumpConfig{
			Level: 3,
		},
	}
}

// Load returns Default overlaid with the YAML file at path, when path is
// not empty, and then with the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"path":     path,
		"listen":   cfg.Server.Listen,
		"native":   cfg.Bridge.NativeFormats,
	}).Debug("Configuration loaded")

	return cfg, nil
}

func loadStructFromEnv(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field); err != nil {
				return err
			}
			continue
		}

		name := fieldType.Tag.Get("env")
		if name == "" {
			continue
		}
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, name, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format)
	}
	if c.Bridge.OutputIndex < 0 {
		return fmt.Errorf("%w: output index %d", ErrInvalid, c.Bridge.OutputIndex)
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalid)
	}
	if c.Dump.Level < 0 || c.Dump.Level > 22 {
		return fmt.Errorf("%w: dump level %d", ErrInvalid, c.Dump.Level)
	}
	return nil
}

// ApplyLogging configures the standard logrus logger.
func (c *Config) ApplyLogging() error {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	logrus.SetLevel(level)

	if strings.EqualFold(c.Log.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
