package handle

import (
	"encoding/json"
	"net/http"
)

type AugmentRequest struct {
	Image string `json:"image"`
	Count int    `json:"count,omitempty"` // 1..5, по умолчанию 3
	Level string `json:"level,omitempty"`
}

type AugmentResponse struct {
	Questions string `json:"questions"`
}

func (h *Handle) Augment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var req AugmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	img, err := decodeImage(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.withDeadline(r)
	defer cancel()

	out, err := h.orch.Augment(ctx, img, req.Count, req.Level)
	if err != nil {
		writeError(w, statusFor(err), "augment error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, AugmentResponse{Questions: out})
}
