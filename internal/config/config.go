// Package config provides functionality for managing configuration options
// for the KeyNest binaries using command-line flags, an optional JSON config
// file and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// VaultPath is the absolute path of the vault file.
	VaultPath string `json:"vault_path"`

	// Addr is the loopback address the API daemon listens on (ip:port).
	Addr string `json:"address"`

	// Token is the bearer token required by the API daemon. Empty disables
	// the check.
	Token string `json:"token"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// AutoLock locks the daemon's session after this much inactivity.
	// Zero disables auto-lock.
	AutoLock Duration `json:"auto_lock"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Duration is a time.Duration that reads "5m"-style strings from JSON.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer: %w", err)
	}
	*d = Duration(n)
	return nil
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	register(flag.CommandLine, options)
}

func register(fs *flag.FlagSet, o *Options) {
	fs.StringVar(&o.VaultPath, "v", DefaultVaultPath(), "path to the vault file")
	fs.StringVar(&o.Addr, "a", "127.0.0.1:7420", "run API on ip:port")
	fs.StringVar(&o.Token, "t", "", "bearer token required by the API")
	fs.StringVar(&o.LogLevel, "l", "info", "log level")
	fs.DurationVar((*time.Duration)(&o.AutoLock), "autolock", 5*time.Minute, "lock the vault after this much inactivity (0 disables)")
	fs.StringVar(&o.Config, "config", "", "path to config file")
	fs.StringVar(&o.Config, "c", "", "path to config file (shorthand)")
}

// DefaultVaultPath returns vault.bin inside the per-user config directory,
// or in the working directory when that can not be determined.
func DefaultVaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vault.bin"
	}
	return filepath.Join(dir, "keynest", "vault.bin")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. Values from the config file override flags, and
// environment variables override both. It returns a pointer to the Options
// struct containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()
	if err := resolve(options, os.Getenv); err != nil {
		log.Fatalf("config: %v", err)
	}
	return options
}

// resolve applies the config file and environment on top of parsed flags.
func resolve(o *Options, getenv func(string) string) error {
	if configPath := getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}

	if o.Config != "" {
		if _, err := os.Stat(o.Config); err == nil {
			data, err := os.ReadFile(o.Config)
			if err != nil {
				return fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, o); err != nil {
				return fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if v := getenv("VAULT_PATH"); v != "" {
		o.VaultPath = v
	}
	if v := getenv("SERVER_ADDRESS"); v != "" {
		o.Addr = v
	}
	if v := getenv("API_TOKEN"); v != "" {
		o.Token = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}
	if v := getenv("AUTOLOCK"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AUTOLOCK: %w", err)
		}
		o.AutoLock = Duration(d)
	}

	abs, err := filepath.Abs(o.VaultPath)
	if err != nil {
		return fmt.Errorf("resolve vault path: %w", err)
	}
	o.VaultPath = abs
	return nil
}
