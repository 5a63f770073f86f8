package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
)

func TestTopCommandFlags(t *testing.T) {
	tests := []struct {
		flag         string
		defaultValue string
	}{
		{"selection-file", ""},
		{"refresh-interval", "5m0s"},
		{"persist-interval", "1m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := topCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, flag)
			assert.Equal(t, tt.defaultValue, flag.DefValue)
		})
	}
}

func TestRunTopValidation(t *testing.T) {
	setupCLI(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		errMsg  string
	}{
		{
			name:   "refresh interval too short",
			args:   []string{"top", "--refresh-interval", "100ms"},
			errMsg: "refresh-interval must be at least 1s",
		},
		{
			name:   "persist interval too short",
			args:   []string{"top", "--persist-interval", "0s"},
			errMsg: "persist-interval must be at least 1s",
		},
		{
			name:    "requires a session",
			args:    []string{"top"},
			wantErr: model.ErrNoSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.EqualError(t, err, tt.errMsg)
			}
		})
	}
}
