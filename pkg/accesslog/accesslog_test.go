package accesslog

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KretovDmitry/hashlink/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestHandler(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
		label  string
	}{
		{"ok", http.StatusOK, zapcore.InfoLevel, "200 OK"},
		{"redirect", http.StatusTemporaryRedirect, zapcore.InfoLevel, "307 Redirect"},
		{"client error", http.StatusNotFound, zapcore.InfoLevel, "404 Client Error"},
		{"server error", http.StatusInternalServerError, zapcore.ErrorLevel, "500 Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, recorded := logger.NewForTest()

			h := Handler(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.NotEmpty(t, logger.RequestID(r.Context()))
				w.WriteHeader(tt.status)
			}))

			r := httptest.NewRequest(http.MethodGet, "/e/abc", http.NoBody)
			r.Header.Set("X-Request-ID", "req-1")
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

			entries := recorded.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Contains(t, entries[0].Message, "GET /e/abc")
			assert.Contains(t, entries[0].Message, tt.label)
			assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
		})
	}
}
