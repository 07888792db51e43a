package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/fragmeter/schema"
)

// Color variables for console output.
var (
	HighColor     = color.New(color.FgRed, color.Bold) // HighColor represents standard danger.
	ModerateColor = color.New(color.FgYellow)          // ModerateColor represents standard caution, not bold.
	LowColor      = color.New(color.FgCyan)            // LowColor represents informational / low-priority signal.
	AnomalyColor  = color.New(color.FgMagenta, color.Bold)
)

// GetColorLabel returns a colored risk label for console output (table).
func GetColorLabel(level schema.RiskLevel) string {
	text := string(level)

	switch level {
	case schema.HighRisk:
		return HighColor.Sprint(text)
	case schema.ModerateRisk:
		return ModerateColor.Sprint(text)
	default: // "Low"
		return LowColor.Sprint(text)
	}
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for activity caching.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".fragmeter_cache.db"
	}
	return filepath.Join(homeDir, ".fragmeter_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for score history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".fragmeter_history.db"
	}
	return filepath.Join(homeDir, ".fragmeter_history.db")
}

// NormalizeUserID trims a user identifier and rejects values that cannot name a data file.
func NormalizeUserID(userID string) (string, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return "", NewInvalidInputf("user id is required")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", NewInvalidInputf("user id %q contains path separators", userID)
	}
	return id, nil
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 to leave room for the "..." suffix and at least one character of content.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
