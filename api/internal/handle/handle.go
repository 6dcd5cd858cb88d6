package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"stemmate/api/internal/config"
	"stemmate/api/internal/pipeline"
	"stemmate/api/internal/tutor"
	"stemmate/api/internal/util"
)

type Handle struct {
	orch     *pipeline.Orchestrator
	catalog  *config.Catalog
	deadline time.Duration
}

func New(orch *pipeline.Orchestrator, catalog *config.Catalog, deadline time.Duration) *Handle {
	if deadline <= 0 {
		deadline = 180 * time.Second
	}
	return &Handle{
		orch:     orch,
		catalog:  catalog,
		deadline: deadline,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// withDeadline - X-Request-Timeout или ?timeoutSec=, в секундах.
func (h *Handle) withDeadline(r *http.Request) (context.Context, context.CancelFunc) {
	deadline := h.deadline
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return context.WithTimeout(r.Context(), deadline)
}

func decodeImage(s string) ([]byte, error) {
	if s == "" {
		return nil, pipeline.ErrNoImage
	}
	img, _, err := util.DecodeBase64MaybeDataURL(s)
	if err != nil || len(img) == 0 {
		return nil, errors.New("bad image")
	}
	return img, nil
}

// statusFor maps a run failure to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNoImage):
		return http.StatusBadRequest
	case errors.Is(err, tutor.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// Catalog lists teaching styles, personas and the default model queue.
func (h *Handle) Catalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"styles":          h.catalog.Styles,
		"personas":        h.catalog.Personas,
		"default_style":   config.DefaultStyle,
		"default_persona": config.DefaultPersona,
		"default_queue":   h.orch.DefaultQueue(),
	})
}
