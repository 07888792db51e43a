package contract

import (
	"os"
	"strings"
	"testing"

	"github.com/huangsam/fragmeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetColorLabel(t *testing.T) {
	tests := []struct {
		name  string
		level schema.RiskLevel
	}{
		{"low", schema.LowRisk},
		{"moderate", schema.ModerateRisk},
		{"high", schema.HighRisk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetColorLabel(tt.level)
			// Should contain the plain label
			assert.Contains(t, result, string(tt.level))
		})
	}
}

func TestGetDBFilePaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	cachePath := GetCacheDBFilePath()
	assert.Contains(t, cachePath, ".fragmeter_cache.db")
	assert.True(t, strings.HasPrefix(cachePath, homeDir), "path %s should start with home dir %s", cachePath, homeDir)

	historyPath := GetHistoryDBFilePath()
	assert.Contains(t, historyPath, ".fragmeter_history.db")
	assert.NotEqual(t, cachePath, historyPath)
}

func TestNormalizeUserID(t *testing.T) {
	tests := []struct {
		input       string
		expected    string
		expectError bool
	}{
		{"alice", "alice", false},
		{"  bob@example.com ", "bob@example.com", false},
		{"", "", true},
		{"../etc/passwd", "", true},
		{`team\alice`, "", true},
		{"..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeUserID(tt.input)
			if tt.expectError {
				assert.True(t, IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "Factor...", TruncateText("Factors: 2 meetings.", 9))
	assert.Equal(t, "abc", TruncateText("abc", 2))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("sometimes")
	assert.Error(t, err)
}
