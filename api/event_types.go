package api

import (
	"errors"
	"net/http"

	"github.com/pantrio/courier"
)

func (h *Handler) listEventTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.courier.Catalog().List())
}

func (h *Handler) getEventType(w http.ResponseWriter, r *http.Request) {
	def, err := h.courier.Catalog().Describe(r.PathValue("name"))
	if err != nil {
		if errors.Is(err, courier.ErrEventTypeNotFound) {
			writeError(w, http.StatusNotFound, "event type not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, def)
}
