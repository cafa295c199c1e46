package rest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/KretovDmitry/hashlink/internal/repository"
	"github.com/KretovDmitry/hashlink/internal/repository/memstore"
	"github.com/KretovDmitry/hashlink/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGetPing(t *testing.T) {
	path := "/ping"

	closed := memstore.NewURLRepository()
	require.NoError(t, closed.Close())

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	broken := mocks.NewMockURLStorage(ctrl)
	broken.EXPECT().Ping(gomock.Any()).Return(errIntentionallyNotWorkingMethod)

	type want struct {
		response   string
		statusCode int
	}

	tests := []struct {
		name  string
		store repository.URLStorage
		want  want
	}{
		{
			name:  "connected test",
			store: memstore.NewURLRepository(),
			want: want{
				statusCode: http.StatusOK,
				response:   "",
			},
		},
		{
			name:  "DB not connected",
			store: closed,
			want: want{
				statusCode: http.StatusInternalServerError,
				response: fmt.Sprintf(
					"%s: DB not connected", errs.ErrDBNotConnected,
				),
			},
		},
		{
			name:  "connection error",
			store: broken,
			want: want{
				statusCode: http.StatusInternalServerError,
				response: fmt.Sprintf(
					"%s: connection error", errIntentionallyNotWorkingMethod,
				),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, path, http.NoBody)

			w := httptest.NewRecorder()

			handler, _ := newTestHandler(t, tt.store)

			handler.GetPing(w, r)

			res := w.Result()

			response := getResponseTextPayload(t, res)
			require.NoError(t, res.Body.Close(), "failed close body")

			assert.Equal(t, tt.want.statusCode, res.StatusCode)
			assert.Equal(t, tt.want.response, response)
		})
	}
}

func TestGetPing_Method(t *testing.T) {
	_, router := newTestHandler(t, memstore.NewURLRepository())

	for _, method := range []string{http.MethodPut, http.MethodPost, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			r := httptest.NewRequest(method, "/ping", http.NoBody)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, r)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		})
	}
}
