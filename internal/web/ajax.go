package web

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/metalagman/contentgen/internal/completion"
	"github.com/metalagman/contentgen/internal/keycheck"
	"github.com/rs/zerolog"
)

const (
	maxFormBytes   = 1 << 20
	promptField    = "prompt"
	kindBadRequest = "invalid_request"
)

// ajaxResponse mirrors the {"success": ..., "data": ...} envelope of admin AJAX actions.
type ajaxResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type ajaxError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	prompt, ok, err := readPrompt(r)
	if err != nil {
		writeAJAX(w, http.StatusBadRequest, false, ajaxError{Kind: kindBadRequest, Message: err.Error()})
		return
	}
	if !ok {
		writeAJAX(w, http.StatusBadRequest, false, ajaxError{Kind: kindBadRequest, Message: "prompt is required"})
		return
	}

	res, err := s.generator.Generate(r.Context(), prompt)
	if err != nil {
		status, payload := generationFailure(err)
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("kind", payload.Kind).Msg("generate_content failed")
		writeAJAX(w, status, false, payload)
		return
	}
	writeAJAX(w, http.StatusOK, true, res)
}

// readPrompt accepts a JSON body {"prompt": "..."} or a form field.
func readPrompt(r *http.Request) (string, bool, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			Prompt *string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", false, errors.New("request body is not valid JSON")
		}
		if body.Prompt == nil {
			return "", false, nil
		}
		return *body.Prompt, true, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", false, err
	}
	if _, ok := r.Form[promptField]; !ok {
		return "", false, nil
	}
	return r.FormValue(promptField), true, nil
}

func generationFailure(err error) (int, ajaxError) {
	payload := ajaxError{Kind: completion.Kind(err), Message: err.Error()}
	var (
		netErr    *completion.NetworkError
		remoteErr *completion.RemoteError
	)
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return http.StatusGatewayTimeout, payload
	case errors.As(err, &remoteErr):
		payload.Status = remoteErr.StatusCode
		return http.StatusBadGateway, payload
	case payload.Kind == completion.KindUnknown:
		return http.StatusInternalServerError, payload
	default:
		return http.StatusBadGateway, payload
	}
}

func (s *Server) handleVerifyKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, err := s.settings.APIKey(ctx)
	if err != nil {
		writeAJAX(w, http.StatusInternalServerError, false, ajaxError{Kind: completion.KindUnknown, Message: err.Error()})
		return
	}

	res, err := s.verifier.Verify(ctx, key)
	if err != nil {
		var rejected *keycheck.RejectedError
		if errors.As(err, &rejected) {
			writeAJAX(w, http.StatusOK, false, ajaxError{Kind: "rejected", Message: rejected.Error(), Status: rejected.StatusCode})
			return
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("verify api key failed")
		writeAJAX(w, http.StatusBadGateway, false, ajaxError{Kind: completion.KindNetwork, Message: err.Error()})
		return
	}
	writeAJAX(w, http.StatusOK, true, res)
}

func writeAJAX(w http.ResponseWriter, status int, success bool, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ajaxResponse{Success: success, Data: data})
}
