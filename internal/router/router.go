// Package router mounts the catalog endpoints on a standard library ServeMux.
package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/book"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/identity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/metrics"
)

// Options configures RegisterRoutes. Metrics, Gatherer and Ping are optional.
type Options struct {
	BasePath   string
	CORSOrigin string
	Logger     *zap.SugaredLogger
	Metrics    *metrics.Collector
	Gatherer   prometheus.Gatherer
	Ping       func(ctx context.Context) error
}

// RegisterRoutes wires identity and book endpoints under opts.BasePath. Book
// reads are public; every book mutation goes through authz.
func RegisterRoutes(opts Options, ident *identity.Handler, books *book.Handler, authz *auth.Middleware) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health(opts.Ping))
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(opts.Gatherer))
	}

	base := opts.BasePath
	mux.HandleFunc("POST "+join(base, "/signup"), ident.Signup)
	mux.HandleFunc("POST "+join(base, "/signin"), ident.Signin)
	mux.HandleFunc("GET "+join(base, "/signout"), ident.Signout)

	mux.HandleFunc("GET "+join(base, "/{$}"), books.List)
	mux.Handle("POST "+join(base, "/{$}"), authz.RequireFunc(books.Create))
	if root := join(base, ""); root != "/" {
		mux.HandleFunc("GET "+root, books.List)
		mux.Handle("POST "+root, authz.RequireFunc(books.Create))
	}
	mux.HandleFunc("GET "+join(base, "/{id}"), books.Get)
	mux.Handle("PUT "+join(base, "/{id}"), authz.RequireFunc(books.Update))
	mux.Handle("DELETE "+join(base, "/{id}"), authz.RequireFunc(books.Delete))

	// metrics must sit directly on the mux so the matched pattern is visible
	var h http.Handler = MetricsMiddleware(recorder(opts.Metrics))(mux)
	h = SecurityHeadersMiddleware()(h)
	h = RecoveryMiddleware(logger)(h)
	h = CORSMiddleware(opts.CORSOrigin)(h)
	h = LoggingMiddleware(logger)(h)
	h = RequestIDMiddleware()(h)
	return h
}

func recorder(c *metrics.Collector) RequestRecorder {
	if c == nil {
		return nil
	}
	return c
}

func health(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// join appends p to a normalized base path ("/" or "/x" without a trailing
// slash).
func join(base, p string) string {
	base = strings.TrimRight(base, "/")
	if p == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return base + p
}
