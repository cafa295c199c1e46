package rest

import (
	"net/http"
	"net/url"
)

type resultPage struct {
	ShortLink string
	LongURL   string
}

type linkRow struct {
	LongURL   string
	Host      string
	ShortLink string
}

// GetForm serves the submission form.
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "form", nil, http.StatusOK)
}

// PostSubmit shortens the URL from the submitted form and shows
// the short and the original link.
//
// Request:
//
//	POST /submit
//	Content-Type: application/x-www-form-urlencoded
//	long_url=https://example.com
func (h *Handler) PostSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.textError(w, r, "failed to parse form", err, http.StatusBadRequest)
		return
	}

	longURL, err := validateURL(r.PostFormValue("long_url"))
	if err != nil {
		h.textError(w, r, "shorten url: "+longURL, err, http.StatusBadRequest)
		return
	}

	code, err := h.service.Shorten(r.Context(), longURL, clientAddr(r))
	if err != nil {
		h.textError(w, r, "failed to save to database", err, http.StatusInternalServerError)
		return
	}

	h.render(w, r, "result", resultPage{
		ShortLink: h.config.ShortLink(code),
		LongURL:   longURL,
	}, http.StatusCreated)
}

// GetLinks shows all links in a table.
func (h *Handler) GetLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListAll(r.Context())
	if err != nil {
		h.textError(w, r, "failed to list links", err, http.StatusInternalServerError)
		return
	}

	rows := make([]linkRow, 0, len(links))
	for _, l := range links {
		row := linkRow{
			LongURL:   l.LongURL,
			ShortLink: h.config.ShortLink(l.Slug),
		}
		if u, err := url.Parse(l.LongURL); err == nil {
			row.Host = u.Hostname()
		}
		rows = append(rows, row)
	}

	h.render(w, r, "links", rows, http.StatusOK)
}
