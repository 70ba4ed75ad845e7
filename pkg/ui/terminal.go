package ui

import (
	"fmt"
	"io"
	"os"
)

// Banner is printed at the top of interactive commands
const Banner = `
    ┌────────────────────────────────────────┐
    │  n i n l i l   ·   tumblr photo archive │
    └────────────────────────────────────────┘
`

// Out is where the Print helpers write; ErrOut receives PrintError
var (
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if NoColor {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// NoColor disables ANSI colors, e.g. when output is not a terminal
var NoColor bool

// PrintBanner prints the banner
func PrintBanner() {
	fmt.Fprint(Out, Cyan(Banner))
}

// PrintError prints an error message in red
func PrintError(msg string, err error) {
	if err != nil {
		fmt.Fprintln(ErrOut, Red(msg+": "+err.Error()))
		return
	}
	fmt.Fprintln(ErrOut, Red(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Out, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	fmt.Fprintf(Out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string) {
	fmt.Fprintln(Out, Yellow(msg))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Out, Magenta(msg))
}
