package outwriter

import (
	"os"

	"github.com/huangsam/barrace/internal/contract"
	"golang.org/x/term"
)

// getTerminalWidth returns the configured width override or the detected terminal width.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// getMaxLabelWidth calculates the maximum width for entity labels in table output.
func getMaxLabelWidth(cfg *contract.Config) int {
	available := getTerminalWidth(cfg)/4 - 4
	return max(8, min(30, available))
}

// getMaxBarWidth calculates how many cells the bar of the leader occupies.
func getMaxBarWidth(cfg *contract.Config) int {
	// Rank + Label + Value + Move + Emphasis with borders/padding
	baseWidth := getMaxLabelWidth(cfg) + 55
	return max(10, min(60, getTerminalWidth(cfg)-baseWidth))
}
