package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
	"github.com/penwyp/go-ssgg-monitor/internal/data/client"
	"github.com/penwyp/go-ssgg-monitor/internal/data/export"
)

const (
	configName = ".go-ssgg-monitor"
	envPrefix  = "SSGG"

	defaultLogFile     = "~/.go-ssgg-monitor/logs/app.log"
	defaultCacheDir    = "~/.go-ssgg-monitor/cache"
	defaultSessionFile = "~/.go-ssgg-monitor/session.json"
)

// settings is the merged result of defaults, config file, environment and
// flags.
type settings struct {
	Dashboard   dashboard.Config
	Influx      export.InfluxConfig
	LogFile     string
	LogFormat   string
	SessionFile string
	Debug       bool
	Reset       bool
}

// configureViper sets the search path, environment binding and defaults.
// An explicit file replaces the search path.
func configureViper(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("base-url", client.DefaultBaseURL)
	v.SetDefault("token", client.DefaultToken)
	v.SetDefault("request-timeout", client.DefaultTimeout)
	v.SetDefault("max-concurrent", client.DefaultMaxConcurrent)
	v.SetDefault("sensor", "m2")
	v.SetDefault("initial-days", 7)
	v.SetDefault("data-start", dashboard.DataStart)
	v.SetDefault("debounce", 300*time.Millisecond)
	v.SetDefault("timezone", "Local")
	v.SetDefault("output", "table")
	v.SetDefault("cache-backend", "file")
	v.SetDefault("cache-dir", defaultCacheDir)
	v.SetDefault("cache-dsn", "")
	v.SetDefault("cache-ttl", 12*time.Hour)
	v.SetDefault("log-file", defaultLogFile)
	v.SetDefault("log-format", "text")
	v.SetDefault("session-file", defaultSessionFile)
	v.SetDefault("influx-url", "")
	v.SetDefault("influx-token", "")
	v.SetDefault("influx-org", "")
	v.SetDefault("influx-bucket", "")
}

// readConfig loads the config file. A missing file in the search path is
// fine; defaults, environment and flags still apply.
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// loadSettings reads the config file and builds validated settings.
func loadSettings(v *viper.Viper) (*settings, error) {
	if err := readConfig(v); err != nil {
		return nil, err
	}

	s := &settings{
		Dashboard: dashboard.Config{
			BaseURL:        v.GetString("base-url"),
			Token:          v.GetString("token"),
			RequestTimeout: v.GetDuration("request-timeout"),
			MaxConcurrent:  v.GetInt("max-concurrent"),
			Sensor:         v.GetString("sensor"),
			DataStart:      v.GetInt64("data-start"),
			InitialDays:    v.GetInt("initial-days"),
			Debounce:       v.GetDuration("debounce"),
			Timezone:       v.GetString("timezone"),
			Output:         v.GetString("output"),
			CacheBackend:   v.GetString("cache-backend"),
			CacheDir:       v.GetString("cache-dir"),
			CacheDSN:       v.GetString("cache-dsn"),
			CacheTTL:       v.GetDuration("cache-ttl"),
		},
		Influx: export.InfluxConfig{
			URL:    v.GetString("influx-url"),
			Token:  v.GetString("influx-token"),
			Org:    v.GetString("influx-org"),
			Bucket: v.GetString("influx-bucket"),
		},
		LogFile:     v.GetString("log-file"),
		LogFormat:   v.GetString("log-format"),
		SessionFile: v.GetString("session-file"),
		Debug:       v.GetBool("debug"),
		Reset:       v.GetBool("reset"),
	}
	if err := s.Dashboard.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dashboard config: %w", err)
	}
	if s.Dashboard.InitialDays < 1 {
		return nil, fmt.Errorf("initial-days must be at least 1, got %d", s.Dashboard.InitialDays)
	}
	if s.Dashboard.Timezone == "auto" {
		s.Dashboard.Timezone = "Local"
	}
	s.Dashboard.CacheDir = expandPath(s.Dashboard.CacheDir)
	s.LogFile = expandPath(s.LogFile)
	s.SessionFile = expandPath(s.SessionFile)
	return s, nil
}
