// Package content connects the stored credential to the completion client.
package content

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/metalagman/contentgen/internal/completion"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
)

// KeySource provides the credential for completion requests.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// Result is generated content.
type Result struct {
	Content string `json:"content"`
	// HTML is Content rendered as Markdown.
	HTML string `json:"html"`
}

// Service generates content with the stored credential.
type Service struct {
	keys KeySource
	opts []completion.Option
	md   goldmark.Markdown
}

// NewService creates a service. opts are applied to every completion client.
func NewService(keys KeySource, opts ...completion.Option) *Service {
	return &Service{
		keys: keys,
		opts: opts,
		md:   goldmark.New(),
	}
}

// Generate completes prompt with the stored credential. Completion failures
// are returned unchanged so callers can classify them with completion.Kind.
func (s *Service) Generate(ctx context.Context, prompt string) (Result, error) {
	key, err := s.keys.APIKey(ctx)
	if err != nil {
		return Result{}, err
	}
	return s.GenerateWithKey(ctx, key, prompt)
}

// GenerateWithKey completes prompt with an explicit credential.
func (s *Service) GenerateWithKey(ctx context.Context, key, prompt string) (Result, error) {
	if key == "" {
		log.Warn().Msg("generating with an empty api key")
	}

	start := time.Now()
	text, err := completion.Generate(ctx, key, prompt, s.opts...)
	logger := log.With().
		Int("prompt_len", len(prompt)).
		Dur("elapsed", time.Since(start)).
		Logger()
	if err != nil {
		logger.Warn().Err(err).Str("kind", completion.Kind(err)).Msg("generation failed")
		return Result{}, err
	}
	logger.Info().Int("content_len", len(text)).Msg("content generated")

	rendered, err := s.RenderHTML(text)
	if err != nil {
		return Result{}, err
	}
	return Result{Content: text, HTML: rendered}, nil
}

// RenderHTML converts Markdown to HTML. Raw HTML in the input is omitted.
func (s *Service) RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render content: %w", err)
	}
	return buf.String(), nil
}
