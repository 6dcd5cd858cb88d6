package handle

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"stemmate/api/internal/config"
	"stemmate/api/internal/pipeline"
)

type SolveRequest struct {
	Image            string   `json:"image"` // base64 или data URL
	EnableMultiModel bool     `json:"enable_multi_model"`
	Models           []string `json:"models,omitempty"`
	TeachingStyle    string   `json:"teaching_style,omitempty"`
	Persona          string   `json:"persona,omitempty"`
	Language         string   `json:"language,omitempty"`
}

// Solve runs the pipeline and streams every snapshot as one NDJSON line.
// Failures before the first snapshot are plain JSON errors; later ones
// end the stream with a failed snapshot.
func (h *Handle) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	img, err := decodeImage(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TeachingStyle == "" {
		req.TeachingStyle = config.DefaultStyle
	}
	if req.Persona == "" {
		req.Persona = config.DefaultPersona
	}
	if !h.catalog.HasStyle(req.TeachingStyle) {
		writeError(w, http.StatusBadRequest, "unknown teaching_style: "+req.TeachingStyle)
		return
	}
	if !h.catalog.HasPersona(req.Persona) {
		writeError(w, http.StatusBadRequest, "unknown persona: "+req.Persona)
		return
	}

	ctx, cancel := h.withDeadline(r)
	defer cancel()

	stream := h.orch.Run(pipeline.Request{
		Image:      img,
		MultiModel: req.EnableMultiModel,
		Models:     config.CleanList(req.Models),
		Style:      req.TeachingStyle,
		Persona:    req.Persona,
		Language:   req.Language,
	})

	first, err := stream.Next(ctx)
	if err != nil {
		writeError(w, statusFor(err), "solve error: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Run-Id", stream.RunID())
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	emit := func(v any) bool {
		if err := enc.Encode(v); err != nil {
			log.Printf("solve[%s]: client gone: %v", stream.RunID(), err)
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	if !emit(first) {
		return
	}
	for {
		snap, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			snap = pipeline.ErrorSnapshot(err)
			snap.RunID = stream.RunID()
			emit(snap)
			return
		}
		if !emit(snap) {
			return
		}
	}
}
