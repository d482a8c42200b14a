package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", pcerrors.NotFound("dn99"), ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("resolve: %w", pcerrors.NotFound("dn99")), ErrCodeNotFound},
		{"concurrent run", pcerrors.ConcurrentRun(), ErrCodeConflict},
		{"corrupt index", pcerrors.New(pcerrors.ErrCodeCorruptIndex, "bad index", nil), ErrCodeDataUnavailable},
		{"upstream", pcerrors.Upstream("remote down", nil), ErrCodeUpstream},
		{"validation", pcerrors.ValidationError("bad id", nil), ErrCodeInvalidParams},
		{"internal", pcerrors.InternalError("boom", nil), ErrCodeInternalError},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeTimeout},
		{"pipeline unavailable", ErrPipelineUnavailable, ErrCodeMethodNotFound},
		{"unknown", errors.New("something"), ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapError(tt.err).Code)
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_IncludesSuggestion(t *testing.T) {
	got := MapError(pcerrors.ConcurrentRun())

	assert.Contains(t, got.Message, "already in progress")
	assert.Contains(t, got.Message, "palicanon status")
}

func TestMCPError_Error(t *testing.T) {
	err := &MCPError{Code: ErrCodeNotFound, Message: "identifier not found: dn99"}

	assert.Equal(t, "MCP error -32001: identifier not found: dn99", err.Error())
}
