package outwriter

import (
	"os"

	"github.com/huangsam/fragmeter/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableSummaryWidth calculates the maximum width of the summary column in table
// output based on terminal width and the columns that precede it.
func GetMaxTableSummaryWidth(cfg *contract.Config, fixedWidth int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve generous space for table borders, separators, and padding
	available := termWidth - fixedWidth - 20
	if available < 20 {
		return 20
	}
	if available > 90 {
		return 90
	}
	return available
}
