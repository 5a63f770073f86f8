package dashboard

import (
	"time"

	"github.com/penwyp/go-ssgg-monitor/internal/data/client"
)

// DataStart is the first millisecond with water readings (2025-04-09 UTC).
const DataStart int64 = 1744156800000

// Config contains configuration shared by every dashboard.
type Config struct {
	// Remote API
	BaseURL        string
	Token          string
	RequestTimeout time.Duration
	MaxConcurrent  int

	// Water
	Sensor      string
	DataStart   int64
	InitialDays int

	// Rendering
	Debounce time.Duration
	Timezone string
	Output   string

	// Snapshot store
	CacheBackend string
	CacheDir     string
	CacheDSN     string
	CacheTTL     time.Duration

	// AvailableMonths lists, per year, the downtime months the portal serves.
	AvailableMonths map[int][]string
}

// DefaultAvailableMonths is the downtime calendar published by the portal.
func DefaultAvailableMonths() map[int][]string {
	return map[int][]string{
		2024: {"Dic"},
		2025: {"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct"},
	}
}

// Validate fills unset fields with their defaults.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = client.DefaultBaseURL
	}
	if c.Token == "" {
		c.Token = client.DefaultToken
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = client.DefaultTimeout
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = client.DefaultMaxConcurrent
	}
	if c.Sensor == "" {
		c.Sensor = "m2"
	}
	if c.DataStart == 0 {
		c.DataStart = DataStart
	}
	if c.InitialDays == 0 {
		c.InitialDays = 7
	}
	if c.Debounce == 0 {
		c.Debounce = 300 * time.Millisecond
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.Output == "" {
		c.Output = "table"
	}
	if c.CacheBackend == "" {
		c.CacheBackend = "file"
	}
	if c.CacheDir == "" {
		c.CacheDir = "~/.go-ssgg-monitor/cache"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 12 * time.Hour
	}
	if len(c.AvailableMonths) == 0 {
		c.AvailableMonths = DefaultAvailableMonths()
	}
	return nil
}

// ClientConfig derives the API client configuration.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:       c.BaseURL,
		Token:         c.Token,
		Timeout:       c.RequestTimeout,
		MaxConcurrent: c.MaxConcurrent,
	}
}
