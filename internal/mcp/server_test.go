package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/palicanon/internal/async"
	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
	"github.com/Aman-CERP/palicanon/internal/legacy"
	"github.com/Aman-CERP/palicanon/internal/pipeline"
	"github.com/Aman-CERP/palicanon/internal/resolver"
)

type mockResolver struct {
	ResolveFn func(ctx context.Context, id, author string) (*resolver.Bundle, error)
}

func (m *mockResolver) Resolve(ctx context.Context, id, author string) (*resolver.Bundle, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx, id, author)
	}
	if id != "dn1" {
		return nil, pcerrors.NotFound(id)
	}
	return &resolver.Bundle{ID: id, SelectedAuthor: "sujato", AvailableAuthors: []string{"sujato"}}, nil
}

func (m *mockResolver) Translations(id string) ([]resolver.AuthorRef, error) {
	if id != "dn1" {
		return nil, pcerrors.NotFound(id)
	}
	return []resolver.AuthorRef{{ID: "sujato", Name: "Bhikkhu Sujato"}}, nil
}

func (m *mockResolver) ResolveLegacy(_ context.Context, id string) (*resolver.LegacyBundle, error) {
	if id != "ud1" {
		return nil, pcerrors.NotFound(id)
	}
	return &resolver.LegacyBundle{ID: id, Author: "bodhi", Document: &legacy.Document{UID: id, Text: "x"}}, nil
}

type mockPipeline struct {
	result   async.TriggerResult
	err      error
	triggers int
}

func (m *mockPipeline) Trigger() (async.TriggerResult, error) {
	m.triggers++
	return m.result, m.err
}

func (m *mockPipeline) Status() async.Status {
	return async.Status{Running: m.result == async.AlreadyRunning, State: pipeline.StateRunning, Logs: []string{"stage starting"}}
}

func newTestServer(t *testing.T, p Pipeline) *Server {
	t.Helper()
	s, err := NewServer(&mockResolver{}, p, nil)
	require.NoError(t, err)
	return s
}

func TestNewServer_RequiresResolver(t *testing.T) {
	_, err := NewServer(nil, nil, nil)
	require.Error(t, err)
}

func TestListTools_ReturnsAllTools(t *testing.T) {
	s := newTestServer(t, nil)

	var names []string
	for _, tool := range s.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}

	assert.Equal(t, []string{"resolve", "translations", "legacy", "pipeline_trigger", "pipeline_status"}, names)
	assert.NotNil(t, s.MCPServer())
}

func TestHandleResolve(t *testing.T) {
	s := newTestServer(t, nil)

	b, err := s.HandleResolve(context.Background(), ResolveInput{ID: " dn1 "})

	require.NoError(t, err)
	assert.Equal(t, "sujato", b.SelectedAuthor)
}

func TestHandleResolve_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    ResolveInput
		wantCode int
	}{
		{"missing id", ResolveInput{}, ErrCodeInvalidParams},
		{"unknown id", ResolveInput{ID: "nope"}, ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)

			_, err := s.HandleResolve(context.Background(), tt.input)

			var mcpErr *MCPError
			require.ErrorAs(t, err, &mcpErr)
			assert.Equal(t, tt.wantCode, mcpErr.Code)
		})
	}
}

func TestHandleResolve_PassesAuthor(t *testing.T) {
	var gotAuthor string
	s, err := NewServer(&mockResolver{ResolveFn: func(_ context.Context, id, author string) (*resolver.Bundle, error) {
		gotAuthor = author
		return &resolver.Bundle{ID: id}, nil
	}}, nil, nil)
	require.NoError(t, err)

	_, err = s.HandleResolve(context.Background(), ResolveInput{ID: "dn1", Author: "brahmali"})

	require.NoError(t, err)
	assert.Equal(t, "brahmali", gotAuthor)
}

func TestHandleTranslationsAndLegacy(t *testing.T) {
	s := newTestServer(t, nil)

	refs, err := s.HandleTranslations(context.Background(), IDInput{ID: "dn1"})
	require.NoError(t, err)
	assert.Equal(t, "Bhikkhu Sujato", refs[0].Name)

	lb, err := s.HandleLegacy(context.Background(), IDInput{ID: "ud1"})
	require.NoError(t, err)
	assert.Equal(t, "bodhi", lb.Author)

	_, err = s.HandleLegacy(context.Background(), IDInput{ID: "dn1"})
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeNotFound, mcpErr.Code)
}

func TestHandleTrigger(t *testing.T) {
	p := &mockPipeline{result: async.Accepted}
	s := newTestServer(t, p)

	out, err := s.HandleTrigger(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "accepted", out.Result)
	assert.Empty(t, out.Error)
	assert.Equal(t, 1, p.triggers)
}

func TestHandleTrigger_StartFailedCarriesError(t *testing.T) {
	p := &mockPipeline{result: async.StartFailed, err: errors.New("exec: not found")}
	s := newTestServer(t, p)

	out, err := s.HandleTrigger(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "start_failed", out.Result)
	assert.Contains(t, out.Error, "not found")
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t, &mockPipeline{result: async.AlreadyRunning})

	st, err := s.HandleStatus(context.Background())

	require.NoError(t, err)
	assert.True(t, st.Running)
	assert.Equal(t, []string{"stage starting"}, st.Logs)
}

func TestPipelineTools_WithoutController(t *testing.T) {
	s := newTestServer(t, nil)

	_, err := s.HandleTrigger(context.Background())
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeMethodNotFound, mcpErr.Code)

	_, err = s.HandleStatus(context.Background())
	require.Error(t, err)
}

func TestTextResult_IsJSON(t *testing.T) {
	res, err := textResult(map[string]string{"id": "dn1"})

	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(*mcp.TextContent).Text), &decoded))
	assert.Equal(t, "dn1", decoded["id"])
}
