// Package colors provides terminal color support for mygit output.
package colors

import (
	"os"
	"strings"
)

// ANSI color codes
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	brightRed    = "\033[91m"
	brightGreen  = "\033[92m"
	brightYellow = "\033[93m"
	brightBlue   = "\033[94m"
	brightCyan   = "\033[96m"
	gray         = "\033[90m"
)

var colorEnabled = shouldUseColor()

// shouldUseColor honours NO_COLOR and FORCE_COLOR, then requires a
// non-dumb terminal on stdout.
func shouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	term := strings.ToLower(os.Getenv("TERM"))
	if term == "dumb" || term == "" {
		return false
	}

	if fileInfo, err := os.Stdout.Stat(); err == nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return true
}

// SetColorEnabled allows manual control of color output
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

// IsColorEnabled returns whether colors are currently enabled
func IsColorEnabled() bool {
	return colorEnabled
}

func colorize(text, color string) string {
	if !colorEnabled {
		return text
	}
	return color + text + reset
}

func Red(text string) string    { return colorize(text, brightRed) }
func Green(text string) string  { return colorize(text, brightGreen) }
func Yellow(text string) string { return colorize(text, brightYellow) }
func Blue(text string) string   { return colorize(text, brightBlue) }
func Cyan(text string) string   { return colorize(text, brightCyan) }
func Gray(text string) string   { return colorize(text, gray) }
func Bold(text string) string   { return colorize(text, bold) }
func Dim(text string) string    { return colorize(text, dim) }

// FileStatus renders a status line for path, e.g. "  new file:   a.txt".
func FileStatus(status, path string) string {
	label := status + ":"
	line := "  " + label + strings.Repeat(" ", max(1, 12-len(label))) + path
	switch status {
	case "new file":
		return Green(line)
	case "modified":
		return Blue(line)
	case "deleted":
		return Red(line)
	case "conflicted", "both modified":
		return Bold(Red(line))
	default:
		return line
	}
}

// Diff colors a unified diff line by line.
func Diff(patch string) string {
	if !colorEnabled || patch == "" {
		return patch
	}

	var b strings.Builder
	for _, line := range strings.SplitAfter(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(Bold(strings.TrimSuffix(line, "\n")))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(Cyan(strings.TrimSuffix(line, "\n")))
		case strings.HasPrefix(line, "+"):
			b.WriteString(Green(strings.TrimSuffix(line, "\n")))
		case strings.HasPrefix(line, "-"):
			b.WriteString(Red(strings.TrimSuffix(line, "\n")))
		default:
			b.WriteString(strings.TrimSuffix(line, "\n"))
		}
		if strings.HasSuffix(line, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func SectionHeader(text string) string { return Bold(text) }
func ErrorText(text string) string     { return Red(text) }
func SuccessText(text string) string   { return Green(text) }
func InfoText(text string) string      { return Cyan(text) }
func WarningText(text string) string   { return Yellow(text) }
