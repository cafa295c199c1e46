package rest

import (
	"errors"
	"net/http"

	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/go-chi/chi/v5"
)

// GetRedirect serves a redirect to the long URL of the slug.
//
// Request:
//
//	GET /e/{slug}
func (h *Handler) GetRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "slug")

	longURL, err := h.service.Resolve(r.Context(), code)
	if err != nil {
		h.slugError(w, r, "redirect with slug: "+code, err)
		return
	}

	http.Redirect(w, r, longURL, http.StatusTemporaryRedirect)
}

// DeleteLink removes the link of the slug immediately.
//
// Request:
//
//	DELETE /e/{slug}
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "slug")

	removed, err := h.service.RemoveBySlug(r.Context(), code)
	if err != nil {
		h.slugError(w, r, "delete slug: "+code, err)
		return
	}
	if !removed {
		h.textError(w, r, "delete slug: "+code, errs.ErrNotFound, http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// slugError replies to a failed slug operation: a malformed slug is
// a client error, an unknown one is not found.
func (h *Handler) slugError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, errs.ErrDecode):
		h.textError(w, r, msg, errs.ErrDecode, http.StatusBadRequest)
	case errors.Is(err, errs.ErrNotFound):
		h.textError(w, r, msg, errs.ErrNotFound, http.StatusNotFound)
	default:
		h.textError(w, r, msg, err, http.StatusInternalServerError)
	}
}
