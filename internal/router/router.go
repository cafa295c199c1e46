// Package router assembles the HTTP handler of the application.
package router

import (
	"net/http"

	"github.com/KretovDmitry/hashlink/internal/api/rest"
	"github.com/KretovDmitry/hashlink/internal/logger"
	"github.com/KretovDmitry/hashlink/pkg/accesslog"
	"github.com/KretovDmitry/hashlink/pkg/middleware/gzip"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	compress "github.com/nanmu42/gzip"
)

// New returns a router serving all routes of the handler.
//
// Every request is logged, recovered from panics, decompressed when
// sent gzipped, and compressed in reply when the client accepts it.
func New(h *rest.Handler, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(accesslog.Handler(log))
	r.Use(middleware.Recoverer)
	r.Use(gzip.Unzip(log))
	r.Use(compress.DefaultHandler().WrapHandler)

	h.Register(r)

	return r
}
