package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{
		BaseURL:   srv.URL + "/api",
		Timeout:   2 * time.Second,
		UserAgent: "palicanon-test",
		Retry:     pcerrors.RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1},
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "not a url"})

	require.Error(t, err)
	assert.Equal(t, pcerrors.ErrCodeConfigInvalid, pcerrors.GetCode(err))
}

func TestMenu_UnwrapsArrayOfOne(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/menu/sutta", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "palicanon-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"uid":"sutta","children":[]}]`))
	})
	mux.HandleFunc("/api/menu/dn", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"uid":"dn"}`))
	})
	c := newTestClient(t, mux)

	doc, err := c.Menu(context.Background(), "sutta")
	require.NoError(t, err)
	assert.JSONEq(t, `{"uid":"sutta","children":[]}`, string(doc))

	doc, err = c.Menu(context.Background(), "dn")
	require.NoError(t, err)
	assert.JSONEq(t, `{"uid":"dn"}`, string(doc))
}

func TestMenuRoots(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/menu", r.URL.Path)
		_, _ = w.Write([]byte(`[{"uid":"sutta"},{"uid":"vinaya"}]`))
	}))

	nodes, err := c.MenuRoots(context.Background())

	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"uid":"dn"}]`))
	}))

	_, err := c.Menu(context.Background(), "dn")

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_DoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))

	_, err := c.Menu(context.Background(), "nope")

	require.Error(t, err)
	assert.Equal(t, pcerrors.ErrCodeUpstreamUnavailable, pcerrors.GetCode(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestTranslations(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/suttaplex/dn34", r.URL.Path)
		_, _ = w.Write([]byte(`[{"uid":"dn34","translations":[
			{"author_uid":"walshe","lang":"de"},
			{"author_uid":"sujato","lang":"en","segmented":true}
		]}]`))
	}))

	refs, err := c.Translations(context.Background(), "dn34")

	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "sujato", refs[1].AuthorUID)
	assert.True(t, refs[1].Segmented)
}

func TestTranslations_MalformedJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"translations":`))
	}))

	_, err := c.Translations(context.Background(), "dn34")

	require.Error(t, err)
	assert.False(t, pcerrors.IsRetryable(err))
}

func TestDocument(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/suttas/dn34/sujato", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		_, _ = w.Write([]byte(`{"translation":{"title":"Ten Up","text":"<p>So I have heard.</p>"}}`))
	}))

	doc, err := c.Document(context.Background(), "dn34", "sujato", "en")

	require.NoError(t, err)
	assert.Equal(t, "dn34", doc.UID)
	assert.Equal(t, "sujato", doc.Author)
	assert.Equal(t, "en", doc.Lang)
	assert.Equal(t, "Ten Up", doc.Title)
	assert.Equal(t, "<p>So I have heard.</p>", doc.Text)
}

func TestDocument_NoTranslationIsEmpty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"root_text":{}}`))
	}))

	doc, err := c.Document(context.Background(), "dn34", "sujato", "en")

	require.NoError(t, err)
	assert.Empty(t, doc.Text)
}

func TestGet_HonoursContextCancellation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Menu(ctx, "dn")

	assert.Error(t, err)
}

func TestEndpoint_EscapesSegments(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "https://example.org/api/"})
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/api/suttas/a%2Fb/x?lang=en", c.endpoint(map[string][]string{"lang": {"en"}}, "suttas", "a/b", "x"))
}
