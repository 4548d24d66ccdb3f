package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/metalagman/contentgen/internal/completion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticKey struct {
	key string
	err error
}

func (k staticKey) APIKey(context.Context) (string, error) { return k.key, k.err }

func TestService_GenerateUsesStoredKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"text":"# Title\n\nSome *text*."}]}`))
	}))
	t.Cleanup(srv.Close)

	svc := NewService(staticKey{key: "sk-stored"}, completion.WithBaseURL(srv.URL), completion.WithHTTPClient(srv.Client()))
	res, err := svc.Generate(context.Background(), "Write a post")
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-stored", gotAuth)
	assert.Equal(t, "# Title\n\nSome *text*.", res.Content)
	assert.Contains(t, res.HTML, "<h1>Title</h1>")
	assert.Contains(t, res.HTML, "<em>text</em>")
}

func TestService_GenerateWithKeyOverridesStore(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"choices":[{"text":"ok"}]}`))
	}))
	t.Cleanup(srv.Close)

	svc := NewService(staticKey{key: "sk-stored"}, completion.WithBaseURL(srv.URL), completion.WithHTTPClient(srv.Client()))
	_, err := svc.GenerateWithKey(context.Background(), "sk-flag", "p")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-flag", gotAuth)
}

func TestService_PassesThroughTypedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	t.Cleanup(srv.Close)

	svc := NewService(staticKey{key: "k"}, completion.WithBaseURL(srv.URL), completion.WithHTTPClient(srv.Client()))
	_, err := svc.Generate(context.Background(), "p")

	var emptyErr *completion.EmptyCompletionError
	require.ErrorAs(t, err, &emptyErr)
}

func TestService_KeySourceError(t *testing.T) {
	boom := errors.New("db locked")
	svc := NewService(staticKey{err: boom})

	_, err := svc.Generate(context.Background(), "p")
	require.ErrorIs(t, err, boom)
}

func TestService_RenderHTMLOmitsRawHTML(t *testing.T) {
	svc := NewService(staticKey{})

	out, err := svc.RenderHTML("<script>alert(1)</script>\n\nhello")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<p>hello</p>")
}
