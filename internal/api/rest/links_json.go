package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/go-chi/chi/v5"
)

type linkResponse struct {
	Slug     string `json:"slug"`
	ShortURL string `json:"short_url"`
	LongURL  string `json:"long_url"`
}

type linkInfoResponse struct {
	Slug              string     `json:"slug"`
	CreatedOn         time.Time  `json:"created_on"`
	RequestedFrom     string     `json:"requested_from,omitempty"`
	DuplicateRequests int64      `json:"duplicate_requests"`
	RedirectsServed   int64      `json:"redirects_served"`
	MarkedForDeletion *time.Time `json:"marked_for_deletion,omitempty"`
}

// GetLinksJSON lists all links in insertion order.
//
// Request:
//
//	GET /api/links
//
// Response:
//
//	[{"slug": "AQAAAAAAAAA=", "short_url": "http://localhost:8000/e/AQAAAAAAAAA=", "long_url": "https://example.com"}]
func (h *Handler) GetLinksJSON(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListAll(r.Context())
	if err != nil {
		h.textError(w, r, "failed to list links", err, http.StatusInternalServerError)
		return
	}

	response := make([]linkResponse, 0, len(links))
	for _, l := range links {
		response = append(response, linkResponse{
			Slug:     l.Slug,
			ShortURL: h.config.ShortLink(l.Slug),
			LongURL:  l.LongURL,
		})
	}

	h.writeJSON(w, r, response)
}

// GetLinkInfo reveals usage counters of the link.
//
// Request:
//
//	GET /api/links/{slug}
func (h *Handler) GetLinkInfo(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "slug")

	info, err := h.service.Info(r.Context(), code)
	if err != nil {
		h.slugError(w, r, "link info: "+code, err)
		return
	}

	response := linkInfoResponse{
		Slug:              code,
		CreatedOn:         info.CreatedOn,
		RequestedFrom:     info.RequestedFrom.String,
		DuplicateRequests: info.DuplicateRequests,
		RedirectsServed:   info.RedirectsServed,
	}
	if info.MarkedForDeletion.Valid {
		response.MarkedForDeletion = &info.MarkedForDeletion.Time
	}

	h.writeJSON(w, r, response)
}

// PostMarkLink marks the link for deletion. It keeps resolving until
// the next purge after the grace period.
//
// Request:
//
//	POST /api/links/{slug}/mark
func (h *Handler) PostMarkLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "slug")

	marked, err := h.service.MarkForDeletion(r.Context(), code)
	if err != nil {
		h.slugError(w, r, "mark slug: "+code, err)
		return
	}
	if !marked {
		h.textError(w, r, "mark slug: "+code, errs.ErrNotFound, http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set(contentType, applicationJSON)
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.With(r.Context()).Errorf("failed to encode response: %v", err)
	}
}
