package outwriter

import (
	"os"

	"github.com/huangsam/binforecast/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableNameWidth calculates the maximum width for district names in table output
// based on terminal width and table configuration.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Volume + Risk + Prob + Util + Tier with borders/padding
	baseWidth := 60

	if cfg.Detail {
		baseWidth += 40 // Conf + Events + Multiplier
	}

	// Reserve space for table borders, separators, and padding
	baseWidth += 12

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 40 {
		return 40
	}
	return available
}
