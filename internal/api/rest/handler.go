// Package rest serves the link shortener over HTTP.
package rest

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"

	"github.com/KretovDmitry/hashlink/internal/config"
	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/KretovDmitry/hashlink/internal/logger"
	"github.com/KretovDmitry/hashlink/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	contentType     = "Content-Type"
	textPlain       = "text/plain; charset=utf-8"
	textHTML        = "text/html; charset=utf-8"
	applicationJSON = "application/json"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed assets
var assetsFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Handler serves HTML pages, the plain text and the JSON API.
type Handler struct {
	service *service.URLService
	config  *config.Config
	logger  logger.Logger
	assets  http.Handler
}

// NewHandler constructs a new handler, ensuring that the dependencies are valid values.
func NewHandler(
	service *service.URLService,
	config *config.Config,
	logger logger.Logger,
) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("%w: service", errs.ErrNilDependency)
	}
	if config == nil {
		return nil, fmt.Errorf("%w: config", errs.ErrNilDependency)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger", errs.ErrNilDependency)
	}

	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}

	return &Handler{
		service: service,
		config:  config,
		logger:  logger,
		assets:  http.StripPrefix("/assets/", http.FileServerFS(assets)),
	}, nil
}

// Register mounts all routes of the handler on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.GetForm)
	r.Post("/submit", h.PostSubmit)
	r.Get("/links", h.GetLinks)
	r.Handle("/assets/*", h.assets)

	r.Post("/shorten", h.PostShortenText)

	r.Get("/e/{slug}", h.GetRedirect)
	r.Delete("/e/{slug}", h.DeleteLink)

	r.Route("/api/links", func(r chi.Router) {
		r.Get("/", h.GetLinksJSON)
		r.Get("/{slug}", h.GetLinkInfo)
		r.Post("/{slug}/mark", h.PostMarkLink)
	})

	r.Get("/ping", h.GetPing)
}

// textError logs the error and replies with it as plain text.
func (h *Handler) textError(w http.ResponseWriter, r *http.Request, msg string, err error, code int) {
	log := h.logger.With(r.Context())
	if code >= http.StatusInternalServerError {
		log.Errorf("%s: %v", msg, err)
	} else {
		log.Debugf("%s: %v", msg, err)
	}
	http.Error(w, fmt.Sprintf("%s: %s", err, msg), code)
}

// render executes the named page and writes it with the given status.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any, code int) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.textError(w, r, "failed to render page", err, http.StatusInternalServerError)
		return
	}

	w.Header().Set(contentType, textHTML)
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.With(r.Context()).Errorf("failed to write response: %v", err)
	}
}

// clientAddr returns the host part of the request's remote address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
