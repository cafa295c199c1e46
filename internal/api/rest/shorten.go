package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/asaskevich/govalidator"
)

// maxURLLength limits the size of a submitted long URL.
const maxURLLength = 8 << 10

var (
	ErrURLIsNotProvided = errors.New("url is not provided")
	ErrNotValidURL      = errors.New("not valid url")
)

// PostShortenText shortens the long URL given in the request body.
// Responds with the short link followed by a newline.
//
// Request:
//
//	POST /shorten
//	https://example.com/some/long/path
//
// Response:
//
//	201 Created
//	http://localhost:8000/e/AQAAAAAAAAA=
func (h *Handler) PostShortenText(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxURLLength+1))
	if err != nil {
		h.textError(w, r, "failed to read request body", err, http.StatusInternalServerError)
		return
	}

	longURL, err := validateURL(string(body))
	if err != nil {
		h.textError(w, r, "shorten url: "+longURL, err, http.StatusBadRequest)
		return
	}

	code, err := h.service.Shorten(r.Context(), longURL, clientAddr(r))
	if err != nil {
		h.textError(w, r, "failed to save to database", err, http.StatusInternalServerError)
		return
	}

	w.Header().Set(contentType, textPlain)
	w.WriteHeader(http.StatusCreated)

	if _, err = fmt.Fprintf(w, "%s\n", h.config.ShortLink(code)); err != nil {
		h.logger.With(r.Context()).Errorf("failed to write response: %v", err)
	}
}

// validateURL trims the submitted URL and checks that it is a valid
// absolute URL. A URL without a scheme would redirect relative to the server.
func validateURL(s string) (string, error) {
	s = strings.TrimSpace(s)

	switch {
	case s == "":
		return s, ErrURLIsNotProvided
	case len(s) > maxURLLength:
		return s[:64] + "...", fmt.Errorf("%w: too long", errs.ErrInvalidRequest)
	case !govalidator.IsURL(s), !govalidator.IsRequestURL(s):
		return s, ErrNotValidURL
	}

	return s, nil
}
