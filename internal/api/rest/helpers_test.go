package rest

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/KretovDmitry/hashlink/internal/config"
	"github.com/KretovDmitry/hashlink/internal/logger"
	"github.com/KretovDmitry/hashlink/internal/repository"
	"github.com/KretovDmitry/hashlink/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

var errIntentionallyNotWorkingMethod = errors.New("intentionally not working method")

// newTestHandler wires a handler over the given store and returns it
// together with a router serving all its routes.
func newTestHandler(t *testing.T, store repository.URLStorage) (*Handler, http.Handler) {
	t.Helper()

	l, _ := logger.NewForTest()
	c := config.NewForTest()

	svc, err := service.NewURLService(store, c, l)
	require.NoError(t, err, "failed to init service")
	t.Cleanup(svc.Stop)

	handler, err := NewHandler(svc, c, l)
	require.NoError(t, err, "failed to init new handler")

	r := chi.NewRouter()
	handler.Register(r)

	return handler, r
}

// getResponseTextPayload reads the body and trims the trailing newline.
func getResponseTextPayload(t *testing.T, res *http.Response) string {
	t.Helper()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err, "failed to read response body")

	return strings.TrimSuffix(string(body), "\n")
}
