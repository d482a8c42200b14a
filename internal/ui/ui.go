// Package ui renders pipeline runs and data status for the terminal.
package ui

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// StageIcon returns the short tag printed in front of a stage line.
func StageIcon(stage string) string {
	if stage == "" {
		return "???"
	}
	return strings.ToUpper(stage)
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}

// NoColorFor reports whether output to w should be uncolored. force wins.
func NoColorFor(w io.Writer, force bool) bool {
	return force || DetectNoColor() || DetectCI() || !IsTTY(w)
}
