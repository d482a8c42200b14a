package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// FormatForCLI formats an error for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !stderrors.As(err, &e) {
		e = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", e.Message)
	if e.Cause != nil && e.Cause.Error() != e.Message {
		fmt.Fprintf(&sb, "  Cause: %s\n", e.Cause)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", e.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", e.Code)

	return sb.String()
}

// FormatForLog returns slog attributes for an error as alternating key-value pairs.
func FormatForLog(err error) []any {
	if err == nil {
		return nil
	}

	var e *Error
	if !stderrors.As(err, &e) {
		return []any{"error", err.Error()}
	}

	attrs := []any{
		"error_code", e.Code,
		"message", e.Message,
		"category", string(e.Category),
		"severity", string(e.Severity),
	}
	if e.Cause != nil {
		attrs = append(attrs, "cause", e.Cause.Error())
	}
	for k, v := range e.Details {
		attrs = append(attrs, "detail_"+k, v)
	}
	return attrs
}
