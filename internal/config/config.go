// Package config loads service settings from flags, environment, an optional
// config file and .env, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ApplicationName names the config file and its search directories.
const ApplicationName = "calculator"

// EnvPrefix prefixes every environment override, e.g. CALC_HTTP_ADDR.
const EnvPrefix = "CALC"

type Config struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	RPCAddr         string        `mapstructure:"rpc_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ServiceName     string        `mapstructure:"service_name"`
	LogLevel        string        `mapstructure:"log_level"`
	Telemetry       Telemetry     `mapstructure:"telemetry"`
}

// Telemetry toggles the OTLP exporters.
type Telemetry struct {
	Traces  bool `mapstructure:"traces"`
	Metrics bool `mapstructure:"metrics"`
	Logs    bool `mapstructure:"logs"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("rpc_addr", "")
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("service_name", "calculator-service")
	v.SetDefault("log_level", "info")
	v.SetDefault("telemetry.traces", true)
	v.SetDefault("telemetry.metrics", true)
	v.SetDefault("telemetry.logs", false)
}

// flagKeys maps each command-line flag to the config key it overrides.
var flagKeys = map[string]string{
	"http-addr":        "http_addr",
	"rpc-addr":         "rpc_addr",
	"shutdown-timeout": "shutdown_timeout",
	"log-level":        "log_level",
}

// Flags returns the flag set understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet(ApplicationName, pflag.ContinueOnError)
	fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.String("http-addr", ":8080", "HTTP listen address")
	fs.String("rpc-addr", "", "net/rpc listen address; empty disables the RPC server")
	fs.Duration("shutdown-timeout", 5*time.Second, "graceful shutdown timeout")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	return fs
}

// Load resolves the configuration. fs may be nil; only flags the user set
// override other sources.
func Load(fs *pflag.FlagSet) (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("service_name", EnvPrefix+"_SERVICE_NAME", "OTEL_SERVICE_NAME"); err != nil {
		return Config{}, fmt.Errorf("bind service_name: %w", err)
	}

	configFile := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag --%s: %w", name, err)
			}
		}
	}

	if err := readConfigFile(v, configFile); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readConfigFile reads an explicit file, or searches the standard paths.
// A missing file in the standard paths is not an error.
func readConfigFile(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", file, err)
		}
		return nil
	}

	v.SetConfigName(ApplicationName)
	v.AddConfigPath(fmt.Sprintf("/etc/%s", ApplicationName))
	v.AddConfigPath(fmt.Sprintf("$HOME/%s", ApplicationName))
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// loadDotEnv loads environment variables from .env when present.
// Existing process environment variables are not overridden.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil {
		return nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load .env: %w", err)
}

func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http_addr must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if c.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}
