package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/book"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/identity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/memstore"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

type testServer struct {
	handler http.Handler
	tokens  *auth.TokenService
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	logger := zap.NewNop().Sugar()
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte("router-secret"), TTL: time.Hour, Issuer: "test"})
	require.NoError(t, err)
	ids, err := utilities.NewIDGenerator(3)
	require.NoError(t, err)

	identSvc := identity.NewService(memstore.NewIdentityStore(), identity.BcryptHasher{Cost: bcrypt.MinCost}, tokens)
	bookSvc := book.NewService(memstore.NewBookStore(), ids)

	opts.Logger = logger
	opts.Metrics = collector
	opts.Gatherer = reg
	h := RegisterRoutes(opts,
		identity.NewHandler(identSvc, logger, collector),
		book.NewHandler(bookSvc, logger, collector),
		auth.NewMiddleware(tokens, logger, collector),
	)
	return &testServer{handler: h, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) signup(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"name": "John Doe", "email": "john@example.com", "password": "securePassword123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["message"]
}

var dune = map[string]any{"title": "Dune", "author": "Frank Herbert", "price": 19.99, "yearPublished": 1965}

func TestRouter_FullFlow(t *testing.T) {
	s := newTestServer(t, Options{BasePath: "/api"})

	w := s.do(t, http.MethodGet, "/api", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Document not found", strings.TrimSpace(w.Body.String()))

	token := s.signup(t)

	w = s.do(t, http.MethodPost, "/api/signin", "", map[string]string{"email": "JOHN@example.com", "password": "securePassword123"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api", token, dune)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "$19.99", created["formattedPrice"])

	// reads do not need a token
	w = s.do(t, http.MethodGet, "/api/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/"+id, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPut, "/api/"+id, token, map[string]any{"price": 9.5})
	require.Equal(t, http.StatusOK, w.Code)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 9.5, updated["price"])
	assert.Equal(t, "Dune", updated["title"])

	w = s.do(t, http.MethodDelete, "/api/"+id, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/signout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ack map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, true, ack["clearToken"])

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="POST /api",status="200"`)
	assert.Contains(t, w.Body.String(), `library_book_mutations_total{op="delete"} 1`)
}

func TestRouter_AuthRejections(t *testing.T) {
	s := newTestServer(t, Options{BasePath: "/api"})
	token := s.signup(t)

	cases := []struct {
		name   string
		method string
		header string
		want   string
	}{
		{"missing header", http.MethodPost, "", auth.MsgNoAuthHeader},
		{"wrong scheme", http.MethodPost, "Basic " + token, auth.MsgMalformedToken},
		{"no token", http.MethodDelete, "Bearer", auth.MsgMalformedToken},
		{"garbage token", http.MethodPut, "Bearer not-a-jwt", auth.MsgInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := "/api"
			if tc.method != http.MethodPost {
				target = "/api/12345"
			}
			req := httptest.NewRequest(tc.method, target, strings.NewReader(`{"title":""}`))
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			s.handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tc.want, message(t, w))
		})
	}
}

// The gate runs before the id is looked at: a malformed id with no token is
// an auth failure, not a server error.
func TestRouter_AuthBeforeIDValidation(t *testing.T) {
	s := newTestServer(t, Options{BasePath: "/api"})

	w := s.do(t, http.MethodDelete, "/api/invalid-id", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, auth.MsgNoAuthHeader, message(t, w))

	w = s.do(t, http.MethodGet, "/api/invalid-id", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRouter_ExpiredToken(t *testing.T) {
	s := newTestServer(t, Options{BasePath: "/api"})
	issuer, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte("router-secret"),
		TTL:    time.Minute,
		Issuer: "test",
		Now:    func() time.Time { return time.Now().Add(-2 * time.Hour) },
	})
	require.NoError(t, err)
	stale, err := issuer.Issue(auth.Principal{Subject: "abc", Email: "a@b.c", Name: "A"})
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api", stale, dune)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, auth.MsgInvalidToken, message(t, w))
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := newTestServer(t, Options{BasePath: "/api", CORSOrigin: "https://library.example"})

	req := httptest.NewRequest(http.MethodOptions, "/api/123", nil)
	req.Header.Set("Origin", "https://library.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://library.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestRouter_RootBasePath(t *testing.T) {
	s := newTestServer(t, Options{BasePath: "/"})
	token := s.do(t, http.MethodPost, "/signup", "", map[string]string{
		"name": "Jane", "email": "jane@example.com", "password": "pw123456",
	})
	require.Equal(t, http.StatusOK, token.Code)

	w := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, Options{BasePath: "/api", Ping: func(context.Context) error { return errors.New("down") }})

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "library_http_requests_total")
}

func TestRouter_RequestID(t *testing.T) {
	s := newTestServer(t, Options{BasePath: "/api"})

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
