// Package mcp exposes the resolver and the pipeline controller as Model Context
// Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

// Custom MCP error codes.
const (
	// ErrCodeNotFound indicates the identifier is not in the index.
	ErrCodeNotFound = -32001

	// ErrCodeUpstream indicates a remote service or sync failure.
	ErrCodeUpstream = -32002

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// ErrCodeDataUnavailable indicates local data is missing or corrupt.
	ErrCodeDataUnavailable = -32004

	// ErrCodeConflict indicates a pipeline run is already in progress.
	ErrCodeConflict = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ErrPipelineUnavailable is returned by pipeline tools when the server has no
// run controller.
var ErrPipelineUnavailable = errors.New("pipeline control is not enabled")

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var pe *pcerrors.Error
	if errors.As(err, &pe) {
		return mapCodedError(pe)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrPipelineUnavailable):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Pipeline control is not enabled on this server."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

func mapCodedError(e *pcerrors.Error) *MCPError {
	message := e.Message
	if e.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", e.Message, e.Suggestion)
	}

	switch e.Code {
	case pcerrors.ErrCodeNotFound:
		return &MCPError{Code: ErrCodeNotFound, Message: message}
	case pcerrors.ErrCodeConcurrentRun:
		return &MCPError{Code: ErrCodeConflict, Message: message}
	case pcerrors.ErrCodeCorruptIndex, pcerrors.ErrCodeMalformedLocalData:
		return &MCPError{Code: ErrCodeDataUnavailable, Message: message}
	}

	switch e.Category {
	case pcerrors.CategoryUpstream:
		return &MCPError{Code: ErrCodeUpstream, Message: message}
	case pcerrors.CategoryRequest:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
