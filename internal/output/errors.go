package output

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitUsageError = 2
	ExitAuthError  = 3
	ExitForbidden  = 4
	ExitNetwork    = 5
)

// CLIError is a user-facing error with an exit code and an optional
// suggestion for how to recover.
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	ExitCode   int
}

func (e *CLIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Summary, e.Detail)
	}
	return e.Summary
}

// NewCLIError creates a CLIError with the given exit code.
func NewCLIError(summary, detail, suggestion string, exitCode int) *CLIError {
	return &CLIError{
		Summary:    summary,
		Detail:     detail,
		Suggestion: suggestion,
		ExitCode:   exitCode,
	}
}

// FormatError writes an error to stderr in a consistent style.
func FormatError(err error, useColors bool) {
	cliErr, ok := err.(*CLIError)
	if !ok {
		cliErr = &CLIError{Summary: err.Error(), ExitCode: ExitGeneral}
	}

	if useColors {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %s\n", cliErr.Summary)
		if cliErr.Detail != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", cliErr.Detail)
		}
		if cliErr.Suggestion != "" {
			color.New(color.FgYellow).Fprintf(os.Stderr, "\n%s\n", cliErr.Suggestion)
		}
	} else {
		fmt.Fprintf(os.Stderr, "[ERROR] %s\n", cliErr.Summary)
		if cliErr.Detail != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", cliErr.Detail)
		}
		if cliErr.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "\n%s\n", cliErr.Suggestion)
		}
	}
}

// ExitCodeFor returns the exit code carried by err, or ExitGeneral.
func ExitCodeFor(err error) int {
	if cliErr, ok := err.(*CLIError); ok {
		return cliErr.ExitCode
	}
	return ExitGeneral
}
