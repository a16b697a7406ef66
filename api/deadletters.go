package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/pantrio/courier"
	"github.com/pantrio/courier/deadletter"
	"github.com/pantrio/courier/id"
)

func (h *Handler) listDeadLetters(w http.ResponseWriter, r *http.Request) {
	opts := deadletter.ListOpts{
		Offset:    queryInt(r, "offset", 0),
		Limit:     queryInt(r, "limit", 50),
		OwnerID:   queryParam(r, "owner_id"),
		EventType: queryParam(r, "event_type"),
	}

	if v := queryParam(r, "from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		opts.From = &from
	}
	if v := queryParam(r, "to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		opts.To = &to
	}

	recs, err := h.courier.DeadLetters().List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) getDeadLetter(w http.ResponseWriter, r *http.Request) {
	recID, err := id.ParseDeadLetterID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dead letter ID")
		return
	}

	rec, getErr := h.courier.DeadLetters().Get(r.Context(), recID)
	if getErr != nil {
		if errors.Is(getErr, courier.ErrDeadLetterNotFound) {
			writeError(w, http.StatusNotFound, "dead letter not found")
			return
		}
		writeError(w, http.StatusInternalServerError, getErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) replayDeadLetter(w http.ResponseWriter, r *http.Request) {
	recID, err := id.ParseDeadLetterID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dead letter ID")
		return
	}

	res, replayErr := h.courier.DeadLetters().Replay(r.Context(), recID)
	if replayErr != nil {
		if errors.Is(replayErr, courier.ErrDeadLetterNotFound) {
			writeError(w, http.StatusNotFound, "dead letter not found")
			return
		}
		writeError(w, http.StatusInternalServerError, replayErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) purgeDeadLetters(w http.ResponseWriter, r *http.Request) {
	v := queryParam(r, "before")
	if v == "" {
		writeError(w, http.StatusBadRequest, "before query parameter is required")
		return
	}
	before, err := time.Parse(time.RFC3339, v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid before timestamp")
		return
	}

	purged, purgeErr := h.courier.DeadLetters().Purge(r.Context(), before)
	if purgeErr != nil {
		writeError(w, http.StatusInternalServerError, purgeErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"purged": purged})
}
