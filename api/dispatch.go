package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pantrio/courier"
)

type dispatchRequest struct {
	OwnerID   string          `json:"owner_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

type testRequest struct {
	OwnerID   string `json:"owner_id"`
	EventType string `json:"event_type"`
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	var payload any
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
	}

	summary, err := h.courier.Dispatch(r.Context(), req.OwnerID, req.EventType, payload)
	if err != nil {
		switch {
		case errors.Is(err, courier.ErrEventTypeNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, courier.ErrInvalidPayload),
			errors.Is(err, courier.ErrPayloadValidationFailed):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) testDispatch(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	results, err := h.courier.Test(r.Context(), req.OwnerID, req.EventType)
	if err != nil {
		switch {
		case errors.Is(err, courier.ErrEventTypeNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, courier.ErrNoRecipients):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, results)
}
