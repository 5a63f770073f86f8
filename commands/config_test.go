package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-ssgg-monitor/internal/data/client"
)

func TestLoadSettingsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	v := viper.New()
	configureViper(v, "")
	s, err := loadSettings(v)
	require.NoError(t, err)

	assert.Equal(t, client.DefaultBaseURL, s.Dashboard.BaseURL)
	assert.Equal(t, client.DefaultToken, s.Dashboard.Token)
	assert.Equal(t, 10*time.Second, s.Dashboard.RequestTimeout)
	assert.Equal(t, 6, s.Dashboard.MaxConcurrent)
	assert.Equal(t, 300*time.Millisecond, s.Dashboard.Debounce)
	assert.Equal(t, 7, s.Dashboard.InitialDays)
	assert.Equal(t, int64(1744156800000), s.Dashboard.DataStart)
	assert.Equal(t, "m2", s.Dashboard.Sensor)
	assert.Equal(t, "Local", s.Dashboard.Timezone)
	assert.Equal(t, "file", s.Dashboard.CacheBackend)
	assert.Equal(t, 12*time.Hour, s.Dashboard.CacheTTL)
	assert.Equal(t, "table", s.Dashboard.Output)
	assert.Equal(t, filepath.Join(home, ".go-ssgg-monitor", "cache"), s.Dashboard.CacheDir)
	assert.Equal(t, filepath.Join(home, ".go-ssgg-monitor", "session.json"), s.SessionFile)
}

func TestLoadSettingsFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	file := filepath.Join(t.TempDir(), "ssgg.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
base-url: http://portal.local/api
cache-ttl: 1h
initial-days: 3
sensor: m1
influx-url: http://influx:8086
influx-org: ssgg
influx-bucket: water
`), 0644))
	t.Setenv("SSGG_SENSOR", "m9")
	t.Setenv("SSGG_CACHE_BACKEND", "sqlite")

	v := viper.New()
	configureViper(v, file)
	s, err := loadSettings(v)
	require.NoError(t, err)

	assert.Equal(t, "http://portal.local/api", s.Dashboard.BaseURL)
	assert.Equal(t, time.Hour, s.Dashboard.CacheTTL)
	assert.Equal(t, 3, s.Dashboard.InitialDays)
	assert.Equal(t, "m9", s.Dashboard.Sensor, "environment wins over the file")
	assert.Equal(t, "sqlite", s.Dashboard.CacheBackend)
	assert.Equal(t, "http://influx:8086", s.Influx.URL)
	assert.Equal(t, "ssgg", s.Influx.Org)
	assert.Equal(t, "water", s.Influx.Bucket)
}

func TestLoadSettingsErrors(t *testing.T) {
	t.Run("explicit file missing", func(t *testing.T) {
		v := viper.New()
		configureViper(v, filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := loadSettings(v)
		assert.Error(t, err)
	})

	t.Run("invalid initial days", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("SSGG_INITIAL_DAYS", "-2")
		v := viper.New()
		configureViper(v, "")
		_, err := loadSettings(v)
		assert.ErrorContains(t, err, "initial-days")
	})
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"3", 3, false},
		{"03", 3, false},
		{"Mar", 3, false},
		{"mar", 3, false},
		{"Diciembre", 12, false},
		{"13", 0, true},
		{"0", 0, true},
		{"March", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMonth(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	short, err := monthShort("9")
	require.NoError(t, err)
	assert.Equal(t, "Sep", short)
	full, err := monthFullName("mar")
	require.NoError(t, err)
	assert.Equal(t, "Marzo", full)
	num, err := monthNumber("Ago")
	require.NoError(t, err)
	assert.Equal(t, "8", num)
}

func TestSelectionSkipsEmpty(t *testing.T) {
	assert.Equal(t, map[string]string{"year": "2025", "day": "4"},
		selection("year", "2025", "month", "", "day", "4"))
}
