// Package accesslog provides a middleware that records every HTTP
// request in a log message.
package accesslog

import (
	"fmt"
	"net/http"
	"time"

	"github.com/KretovDmitry/hashlink/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// sugaredLogFormat is the format of the access log message.
// Uses fmt.Printf templating.
var sugaredLogFormat = "%s %s %s from %s - %s %dB in %s"

// Handler returns a middleware that records an access log message
// for every HTTP request being processed. Server errors are logged
// at the ERROR level.
func Handler(log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		f := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// associate request ID and correlation ID with the request context
			// so that they can be added to the log messages
			ctx := logger.WithRequest(r.Context(), r)
			r = r.WithContext(ctx)
			ww.Header().Set("X-Request-ID", logger.RequestID(ctx))

			defer func(start time.Time) {
				logf := log.With(ctx).Infof
				if ww.Status() >= http.StatusInternalServerError {
					logf = log.With(ctx).Errorf
				}
				logf(sugaredLogFormat,
					r.Method,                 // Method
					r.URL.Path,               // Path
					r.Proto,                  // Protocol
					r.RemoteAddr,             // RemoteAddr
					statusLabel(ww.Status()), // "200 OK"
					ww.BytesWritten(),        // Bytes Written
					time.Since(start),        // Elapsed
				)
			}(time.Now())

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(f)
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 100 && status < 300:
		return fmt.Sprintf("%d OK", status)
	case status >= 300 && status < 400:
		return fmt.Sprintf("%d Redirect", status)
	case status >= 400 && status < 500:
		return fmt.Sprintf("%d Client Error", status)
	case status >= 500:
		return fmt.Sprintf("%d Server Error", status)
	default:
		return fmt.Sprintf("%d Unknown", status)
	}
}
