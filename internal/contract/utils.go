package contract

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/binforecast/schema"
)

// Risk label constants.
const (
	HighValue     = "High"     // High overflow risk
	ModerateValue = "Moderate" // Moderate overflow risk
	SafeValue     = "Safe"     // Safe
)

// Color variables for console output.
var (
	HighColor     = color.New(color.FgRed, color.Bold) // HighColor represents standard danger.
	ModerateColor = color.New(color.FgYellow)          // ModerateColor represents standard caution, not bold.
	SafeColor     = color.New(color.FgGreen)           // SafeColor represents the all-clear.
	EventColor    = color.New(color.FgCyan)            // EventColor highlights event names.
)

// GetPlainLabel returns a plain text label for an overflow risk level.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(risk schema.RiskLevel) string {
	switch risk {
	case schema.HighRisk:
		return HighValue
	case schema.ModerateRisk:
		return ModerateValue
	default:
		return SafeValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(risk schema.RiskLevel) string {
	text := GetPlainLabel(risk)

	switch text {
	case HighValue:
		return HighColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	default:
		return SafeColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ParseEndpoints splits a comma-separated list of base URLs, trimming trailing slashes.
// Every entry must be an absolute http or https URL.
func ParseEndpoints(s string) ([]string, error) {
	var endpoints []string
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part == "" {
			continue
		}
		u, err := url.Parse(part)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("invalid endpoint %q (expected http(s)://host[:port])", part)
		}
		endpoints = append(endpoints, part)
	}
	return endpoints, nil
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

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".binforecast_cache.db"
	}
	return filepath.Join(homeDir, ".binforecast_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for forecast history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".binforecast_history.db"
	}
	return filepath.Join(homeDir, ".binforecast_history.db")
}

// TruncateName truncates a district name to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and one character.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
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
