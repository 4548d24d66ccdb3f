package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/metalagman/contentgen/internal/completion"
	"github.com/metalagman/contentgen/internal/content"
	"github.com/metalagman/contentgen/internal/db"
	"github.com/metalagman/contentgen/internal/keycheck"
	"github.com/metalagman/contentgen/internal/nonce"
	"github.com/metalagman/contentgen/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	prompts []string
	result  content.Result
	err     error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (content.Result, error) {
	g.prompts = append(g.prompts, prompt)
	return g.result, g.err
}

type fakeVerifier struct {
	gotKey string
	result keycheck.Result
	err    error
}

func (v *fakeVerifier) Verify(_ context.Context, key string) (keycheck.Result, error) {
	v.gotKey = key
	return v.result, v.err
}

type testEnv struct {
	handler   http.Handler
	settings  *settings.Settings
	generator *fakeGenerator
	verifier  *fakeVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	store := db.NewStore(conn)

	env := &testEnv{
		settings:  settings.New(store, nonce.NewManager(store, time.Hour)),
		generator: &fakeGenerator{},
		verifier:  &fakeVerifier{},
	}
	srv, err := NewServer(env.settings, env.generator, env.verifier)
	require.NoError(t, err)
	env.handler = srv.Routes()
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

var nonceValue = regexp.MustCompile(`name="openai_api_key_nonce" value="([^"]+)"`)

func (e *testEnv) fetchNonce(t *testing.T) string {
	t.Helper()
	rec := e.do(t, httptest.NewRequest(http.MethodGet, "/admin/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	m := nonceValue.FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2, "nonce field not rendered")
	return m[1]
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeAJAX(t *testing.T, rec *httptest.ResponseRecorder) (bool, map[string]any) {
	t.Helper()
	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Success, resp.Data
}

func TestSettingsPage_RendersForm(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.settings.SetAPIKey(context.Background(), `sk-"quoted"`))

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/admin/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<h1>OpenAI Settings</h1>")
	assert.Contains(t, body, `name="openai_api_key" type="text"`)
	assert.Contains(t, body, `value="sk-&#34;quoted&#34;"`)
	assert.Contains(t, body, `value="Save Changes"`)
	assert.Regexp(t, nonceValue, body)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestSettingsPage_SaveWithValidNonce(t *testing.T) {
	env := newTestEnv(t)
	token := env.fetchNonce(t)

	rec := env.do(t, postForm("/admin/settings", url.Values{
		"openai_api_key":       {"sk-test"},
		"openai_api_key_nonce": {token},
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Settings saved.")

	key, err := env.settings.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)
}

func TestSettingsPage_SaveWithoutValidNonceKeepsKey(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.settings.SetAPIKey(context.Background(), "sk-original"))
	used := env.fetchNonce(t)
	rec := env.do(t, postForm("/admin/settings", url.Values{"openai_api_key": {"sk-one"}, "openai_api_key_nonce": {used}}))
	require.Equal(t, http.StatusOK, rec.Code)

	for name, form := range map[string]url.Values{
		"missing": {"openai_api_key": {"sk-attacker"}},
		"forged":  {"openai_api_key": {"sk-attacker"}, "openai_api_key_nonce": {"forged"}},
		"reused":  {"openai_api_key": {"sk-attacker"}, "openai_api_key_nonce": {used}},
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, postForm("/admin/settings", form))
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Contains(t, rec.Body.String(), "notice-error")

			key, err := env.settings.APIKey(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "sk-one", key)
		})
	}
}

func TestGenerate_JSONBody(t *testing.T) {
	env := newTestEnv(t)
	env.generator.result = content.Result{Content: "hello", HTML: "<p>hello</p>\n"}

	req := httptest.NewRequest(http.MethodPost, "/admin/ajax/generate_content", strings.NewReader(`{"prompt":"Say hi"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := env.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	ok, data := decodeAJAX(t, rec)
	assert.True(t, ok)
	assert.Equal(t, "hello", data["content"])
	assert.Equal(t, "<p>hello</p>\n", data["html"])
	assert.Equal(t, []string{"Say hi"}, env.generator.prompts)
}

func TestGenerate_FormBodyAllowsEmptyPrompt(t *testing.T) {
	env := newTestEnv(t)
	env.generator.result = content.Result{Content: "x"}

	rec := env.do(t, postForm("/admin/ajax/generate_content", url.Values{"action": {"generate_content"}, "prompt": {""}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{""}, env.generator.prompts)
}

func TestGenerate_MissingPrompt(t *testing.T) {
	env := newTestEnv(t)

	for name, req := range map[string]*http.Request{
		"form": postForm("/admin/ajax/generate_content", url.Values{"action": {"generate_content"}}),
		"json": func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/admin/ajax/generate_content", strings.NewReader(`{}`))
			r.Header.Set("Content-Type", "application/json")
			return r
		}(),
		"bad json": func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/admin/ajax/generate_content", strings.NewReader(`{`))
			r.Header.Set("Content-Type", "application/json")
			return r
		}(),
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			ok, data := decodeAJAX(t, rec)
			assert.False(t, ok)
			assert.Equal(t, kindBadRequest, data["kind"])
		})
	}
	assert.Empty(t, env.generator.prompts)
}

func TestGenerate_MapsCompletionErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantRemote float64
	}{
		{name: "network", err: &completion.NetworkError{Err: errors.New("refused")}, wantStatus: http.StatusBadGateway, wantKind: completion.KindNetwork},
		{name: "timeout", err: &completion.NetworkError{Err: context.DeadlineExceeded}, wantStatus: http.StatusGatewayTimeout, wantKind: completion.KindNetwork},
		{name: "remote", err: &completion.RemoteError{StatusCode: 401, Body: "{}"}, wantStatus: http.StatusBadGateway, wantKind: completion.KindRemote, wantRemote: 401},
		{name: "malformed", err: &completion.MalformedResponseError{Reason: "choices is missing"}, wantStatus: http.StatusBadGateway, wantKind: completion.KindMalformedResponse},
		{name: "empty", err: &completion.EmptyCompletionError{}, wantStatus: http.StatusBadGateway, wantKind: completion.KindEmptyCompletion},
		{name: "other", err: fmt.Errorf("load api key: %w", errors.New("disk")), wantStatus: http.StatusInternalServerError, wantKind: completion.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.generator.err = tt.err

			rec := env.do(t, postForm("/admin/ajax/generate_content", url.Values{"prompt": {"p"}}))
			assert.Equal(t, tt.wantStatus, rec.Code)
			ok, data := decodeAJAX(t, rec)
			assert.False(t, ok)
			assert.Equal(t, tt.wantKind, data["kind"])
			assert.Equal(t, tt.err.Error(), data["message"])
			if tt.wantRemote != 0 {
				assert.Equal(t, tt.wantRemote, data["status"])
			} else {
				assert.NotContains(t, data, "status")
			}
		})
	}
}

func TestVerifyKey(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.settings.SetAPIKey(context.Background(), "sk-stored"))
	env.verifier.result = keycheck.Result{Models: 3, Sample: []string{"a", "b", "c"}}

	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/admin/settings/verify", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	ok, data := decodeAJAX(t, rec)
	assert.True(t, ok)
	assert.EqualValues(t, 3, data["models"])
	assert.Equal(t, "sk-stored", env.verifier.gotKey)
}

func TestVerifyKey_Rejected(t *testing.T) {
	env := newTestEnv(t)
	env.verifier.err = &keycheck.RejectedError{StatusCode: http.StatusUnauthorized}

	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/admin/settings/verify", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	ok, data := decodeAJAX(t, rec)
	assert.False(t, ok)
	assert.Equal(t, "rejected", data["kind"])
	assert.EqualValues(t, http.StatusUnauthorized, data["status"])
}

func TestRoutes_HealthAndRedirect(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/settings", rec.Header().Get("Location"))
}

func TestRequestID_PreservesValidIncomingID(t *testing.T) {
	env := newTestEnv(t)
	const id = "0f8fad5b-d9cb-469f-a165-70867728950e"

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	rec := env.do(t, req)
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))
}

func TestSettingsPage_RepeatedLoadsKeepLatestNonceValid(t *testing.T) {
	env := newTestEnv(t)

	var token string
	for i := 0; i < db.MaxNoncesPerAction*2; i++ {
		token = env.fetchNonce(t)
	}

	rec := env.do(t, postForm("/admin/settings", url.Values{
		"openai_api_key":       {"sk-latest"},
		"openai_api_key_nonce": {token},
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	key, err := env.settings.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-latest", key)
}
