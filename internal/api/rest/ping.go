package rest

import (
	"errors"
	"net/http"

	"github.com/KretovDmitry/hashlink/internal/errs"
)

// GetPing checks the status of the storage.
//
// Request:
//
//	GET /ping
func (h *Handler) GetPing(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		if errors.Is(err, errs.ErrDBNotConnected) {
			h.textError(w, r, "DB not connected", err, http.StatusInternalServerError)
			return
		}
		h.textError(w, r, "connection error", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
