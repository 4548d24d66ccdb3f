// Package web serves the admin settings page and the content generation action.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/metalagman/contentgen/internal/content"
	"github.com/metalagman/contentgen/internal/keycheck"
	"github.com/metalagman/contentgen/internal/settings"
	"github.com/rs/zerolog"
)

const pageTitle = "OpenAI Settings"

// Settings is the API key store behind the settings page.
type Settings interface {
	APIKey(ctx context.Context) (string, error)
	NewSaveToken(ctx context.Context) (string, error)
	SaveAPIKey(ctx context.Context, token, value string) error
}

// Generator produces content for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (content.Result, error)
}

// KeyVerifier checks that a key is accepted by the API.
type KeyVerifier interface {
	Verify(ctx context.Context, apiKey string) (keycheck.Result, error)
}

// Server provides the web UI handlers and state.
type Server struct {
	settings  Settings
	generator Generator
	verifier  KeyVerifier
	page      *template.Template
}

//go:embed templates/*.html
var templatesFS embed.FS

// NewServer creates a new web server.
func NewServer(s Settings, g Generator, v KeyVerifier) (*Server, error) {
	page, err := template.ParseFS(templatesFS, "templates/settings.html")
	if err != nil {
		return nil, err
	}
	return &Server{settings: s, generator: g, verifier: v, page: page}, nil
}

// Routes returns the router for the web UI.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /admin/settings", s.handleSettings)
	mux.HandleFunc("POST /admin/settings", s.handleSaveSettings)
	mux.HandleFunc("POST /admin/settings/verify", s.handleVerifyKey)
	mux.HandleFunc("POST /admin/ajax/generate_content", s.handleGenerate)
	return requestID(accessLog(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/settings", http.StatusFound)
}

type settingsPage struct {
	Title      string
	KeyField   string
	NonceField string
	APIKey     string
	Nonce      string
	Notice     string
	Error      string
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	s.renderSettings(w, r, http.StatusOK, settingsPage{})
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token := r.PostFormValue(settings.NonceField)
	value := r.PostFormValue(settings.OptionAPIKey)
	err := s.settings.SaveAPIKey(r.Context(), token, value)
	switch {
	case errors.Is(err, settings.ErrInvalidNonce):
		s.renderSettings(w, r, http.StatusForbidden, settingsPage{Error: "The link you followed has expired. Reload the page and try again."})
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("save api key")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		s.renderSettings(w, r, http.StatusOK, settingsPage{Notice: "Settings saved."})
	}
}

func (s *Server) renderSettings(w http.ResponseWriter, r *http.Request, status int, data settingsPage) {
	ctx := r.Context()
	key, err := s.settings.APIKey(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	token, err := s.settings.NewSaveToken(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data.Title = pageTitle
	data.KeyField = settings.OptionAPIKey
	data.NonceField = settings.NonceField
	data.APIKey = key
	data.Nonce = token

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
