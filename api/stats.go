package api

import (
	"net/http"
)

type statsResponse struct {
	EventTypes     int   `json:"event_types"`
	DeadLetterSize int64 `json:"dead_letter_size"`
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	count, err := h.courier.DeadLetters().Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		EventTypes:     len(h.courier.Catalog().Names()),
		DeadLetterSize: count,
	})
}
