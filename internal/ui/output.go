package ui

import (
	"fmt"

	"github.com/whatson-app/whatson-cli/internal/model"
)

// RunErrorCount and RunWarningCount track errors/warnings during a run.
var RunErrorCount int
var RunWarningCount int

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Printf("%s%s%s %s%s\n", ColorGreen, SymbolCheck, ColorReset, msg, ColorReset)
}

// PrintError prints an error message and increments the error counter.
func PrintError(msg string) {
	RunErrorCount++
	fmt.Printf("%s%s%s %s%s\n", ColorRed, SymbolCross, ColorReset, msg, ColorReset)
}

// PrintInfo prints an info message.
func PrintInfo(msg string) {
	fmt.Printf("%s%s%s %s%s\n", ColorBlue, SymbolInfo, ColorReset, msg, ColorReset)
}

// PrintWarning prints a warning message and increments the warning counter.
func PrintWarning(msg string) {
	RunWarningCount++
	fmt.Printf("%s%s%s %s%s\n", ColorYellow, SymbolWarning, ColorReset, msg, ColorReset)
}

// PrintTown prints the resolved town line.
func PrintTown(msg string) {
	fmt.Printf("%s%s%s %s%s\n", ColorCyan, SymbolPin, ColorReset, msg, ColorReset)
}

// DescribeTownSource returns a human-readable label for how a town was chosen.
func DescribeTownSource(town model.TownContext) string {
	switch town.Source {
	case model.SourceArgument:
		return "from --town"
	case model.SourcePreference:
		return "your home town"
	case model.SourceDetected:
		return "detected from your location"
	case model.SourceFallback:
		return "default"
	default:
		return town.Source
	}
}
