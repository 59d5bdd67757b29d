// Package output provides CLI output formatting utilities.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer handles formatted output to the terminal.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a new printer. Colors are suppressed when the
// config disables them, when NO_COLOR is set, or on dumb terminals.
func NewPrinter(configColors bool) *Printer {
	return NewPrinterTo(os.Stdout, os.Stderr, configColors)
}

// NewPrinterTo creates a printer bound to explicit writers.
func NewPrinterTo(out, errW io.Writer, configColors bool) *Printer {
	return &Printer{
		out:       out,
		err:       errW,
		useColors: resolveColors(configColors),
	}
}

func resolveColors(configColors bool) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return configColors
}

// Info prints an informational message.
func (p *Printer) Info(format string, args ...any) {
	if p.useColors {
		color.New(color.FgCyan).Fprintf(p.out, format+"\n", args...)
	} else {
		fmt.Fprintf(p.out, format+"\n", args...)
	}
}

// Success prints a success message.
func (p *Printer) Success(format string, args ...any) {
	if p.useColors {
		color.New(color.FgGreen).Fprintf(p.out, "✓ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
	}
}

// Warning prints a warning message.
func (p *Printer) Warning(format string, args ...any) {
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
	}
}

// Error prints an error message.
func (p *Printer) Error(format string, args ...any) {
	if p.useColors {
		color.New(color.FgRed).Fprintf(p.err, "✗ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
	}
}

// Print prints a plain message.
func (p *Printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Bold returns text in bold.
func (p *Printer) Bold(text string) string {
	if p.useColors {
		return color.New(color.Bold).Sprint(text)
	}
	return text
}
