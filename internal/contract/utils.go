package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/barrace/schema"
)

// Transition label constants.
const (
	LeaderValue = "Leader" // Rank 0 emphasis
	SwapValue   = "Swap"   // Rank change emphasis
	EnterValue  = "New"    // First appearance
	StableValue = ""       // Nothing to emphasize
)

// Color variables for console output.
var (
	LeaderColor = color.New(color.FgYellow, color.Bold) // LeaderColor marks the persistent leader emphasis.
	SwapColor   = color.New(color.FgMagenta, color.Bold) // SwapColor marks the highlighted border of a swap.
	EnterColor  = color.New(color.FgGreen)               // EnterColor marks a new entry.
	ExitColor   = color.New(color.FgRed)                 // ExitColor marks released entities.
	MutedColor  = color.New(color.FgHiBlack)             // MutedColor is used for secondary text.
)

// GetPlainLabel returns a plain text label for the emphasis of an entry.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(e schema.RankedEntry) string {
	switch {
	case e.Leader:
		return LeaderValue
	case e.Swap:
		return SwapValue
	case e.Transition == schema.EnterTransition:
		return EnterValue
	default:
		return StableValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(e schema.RankedEntry) string {
	text := GetPlainLabel(e)

	switch text {
	case LeaderValue:
		return LeaderColor.Sprint(text)
	case SwapValue:
		return SwapColor.Sprint(text)
	case EnterValue:
		return EnterColor.Sprint(text)
	default:
		return text
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
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

// LogInfo logs a progress line to stderr, with an emoji prefix when enabled.
func LogInfo(cfg *Config, emoji, msg string) {
	if cfg != nil && cfg.UseEmojis && emoji != "" {
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", emoji, msg)
		return
	}
	_, _ = fmt.Fprintln(os.Stderr, msg)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the chunk cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".barrace_cache.db"
	}
	return filepath.Join(homeDir, ".barrace_cache.db")
}

// GetRunDBFilePath returns the path to the SQLite DB file for render run history.
func GetRunDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".barrace_runs.db"
	}
	return filepath.Join(homeDir, ".barrace_runs.db")
}

// TruncateLabel truncates an entity label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
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
