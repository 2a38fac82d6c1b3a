package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/rag-chat-backend/internal/services"
)

func TestSystemPrompt_GetAndSave(t *testing.T) {
	d := newDeps()
	d.prompts.text = "Be brief."
	r := d.router()

	w := do(r, http.MethodGet, "/api/system-prompt", nil, nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"prompt":"Be brief."}` {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/system-prompt", `{"prompt":"  Keep spacing  "}`)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"success":true}` {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if d.prompts.saved[0] != "  Keep spacing  " {
		t.Fatalf("prompt must be stored verbatim, got %q", d.prompts.saved[0])
	}
}

func TestSystemPrompt_Errors(t *testing.T) {
	d := newDeps()
	r := d.router()

	if w := doJSON(r, http.MethodPost, "/api/system-prompt", `not json`); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid json: %d", w.Code)
	}

	d.prompts.saveErr = services.ErrEmptyPrompt
	if w := doJSON(r, http.MethodPost, "/api/system-prompt", `{"prompt":" "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank prompt: %d", w.Code)
	}

	d.prompts.saveErr = errors.New("readonly database")
	if w := doJSON(r, http.MethodPost, "/api/system-prompt", `{"prompt":"x"}`); w.Code != http.StatusInternalServerError {
		t.Fatalf("store failure: %d", w.Code)
	}

	d.prompts.getErr = errors.New("readonly database")
	if w := do(r, http.MethodGet, "/api/system-prompt", nil, nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("get failure: %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	d := newDeps()
	w := do(d.router(), http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	d.store = fakePinger{err: errors.New("connection refused")}
	w = do(d.router(), http.MethodGet, "/health", nil, nil)
	if er := decodeError(t, w.Body.Bytes()); w.Code != http.StatusServiceUnavailable || er.Code != ErrCodeUnavailable {
		t.Fatalf("status=%d body=%+v", w.Code, er)
	}
}
