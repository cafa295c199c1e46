package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KretovDmitry/hashlink/internal/repository/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinksJSON_Scenario(t *testing.T) {
	_, router := newTestHandler(t, memstore.NewURLRepository())

	list := func() []linkResponse {
		r := httptest.NewRequest(http.MethodGet, "/api/links", http.NoBody)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, applicationJSON, w.Header().Get(contentType))

		var links []linkResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&links))
		return links
	}

	assert.Empty(t, list())

	s1 := shorten(t, router, "https://example.com/a")
	assert.Equal(t, []linkResponse{
		{Slug: s1, ShortURL: "http://localhost:8000/e/" + s1, LongURL: "https://example.com/a"},
	}, list())

	s2 := shorten(t, router, "https://example.com/b")
	require.NotEqual(t, s1, s2)

	links := list()
	require.Len(t, links, 2)
	assert.Equal(t, s1, links[0].Slug)
	assert.Equal(t, s2, links[1].Slug)

	r := httptest.NewRequest(http.MethodDelete, "/e/"+s1, http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)

	links = list()
	require.Len(t, links, 1)
	assert.Equal(t, s2, links[0].Slug)
}

func TestGetLinkInfo(t *testing.T) {
	_, router := newTestHandler(t, memstore.NewURLRepository())

	code := shorten(t, router, "https://example.com")
	shorten(t, router, "https://example.com")

	r := httptest.NewRequest(http.MethodGet, "/e/"+code, http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/links/"+code, http.NoBody)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var info linkInfoResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, code, info.Slug)
	assert.Equal(t, int64(1), info.DuplicateRequests)
	assert.Equal(t, int64(1), info.RedirectsServed)
	assert.Equal(t, "192.0.2.1", info.RequestedFrom)
	assert.Nil(t, info.MarkedForDeletion)
}

func TestPostMarkLink(t *testing.T) {
	_, router := newTestHandler(t, memstore.NewURLRepository())

	code := shorten(t, router, "https://example.com")

	do := func(method, path string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, path, http.NoBody)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusAccepted, do(http.MethodPost, "/api/links/"+code+"/mark").Code)
	assert.Equal(t, http.StatusTemporaryRedirect, do(http.MethodGet, "/e/"+code).Code,
		"marked link still resolves")

	w := do(http.MethodGet, "/api/links/"+code)
	require.Equal(t, http.StatusOK, w.Code)
	var info linkInfoResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.NotNil(t, info.MarkedForDeletion)

	assert.Equal(t, http.StatusNotFound, do(http.MethodPost, "/api/links/AQAAAAAAAAA=/mark").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/api/links/bad/mark").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/links/AQAAAAAAAAA=").Code)
}
