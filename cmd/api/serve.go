package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/book"
	bookrepo "github.com/ovaphlow/pitchfork/service-library-go/internal/book/repo"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/identity"
	identityrepo "github.com/ovaphlow/pitchfork/service-library-go/internal/identity/repo"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/memstore"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

const shutdownGrace = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

// stores groups the persistence backends selected by STORE_DRIVER.
type stores struct {
	identities identity.CredentialStore
	books      book.Store
	ping       func(context.Context) error
	close      func() error
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	lg, err := utilities.Init(cfg.Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return err
	}
	defer func() { _ = lg.Sync() }()
	sugar := lg.Sugar()
	sugar.Infow("starting library api", "addr", cfg.HTTPAddr, "base_path", cfg.BasePath, "store", cfg.StoreDriver)

	tokens, err := auth.NewTokenService(cfg.Token())
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "SECRET_KEY").Wrap(err)
	}
	ids, err := utilities.NewIDGenerator(cfg.SnowflakeNode)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "SNOWFLAKE_NODE").Wrap(err)
	}

	st, err := openStores(cfg, sugar)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	identSvc := identity.NewService(st.identities, identity.BcryptHasher{Cost: cfg.BcryptCost}, tokens)
	bookSvc := book.NewService(st.books, ids)

	handler := router.RegisterRoutes(router.Options{
		BasePath:   cfg.BasePath,
		CORSOrigin: cfg.CORSOrigin,
		Logger:     sugar,
		Metrics:    collector,
		Gatherer:   reg,
		Ping:       st.ping,
	},
		identity.NewHandler(identSvc, sugar, collector),
		book.NewHandler(bookSvc, sugar, collector),
		auth.NewMiddleware(tokens, sugar, collector),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	sugar.Info("service is running; press Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVER_FAILED").Wrap(err)
		}
	}

	sugar.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
	return nil
}

func openStores(cfg *config.Config, sugar *zap.SugaredLogger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		sugar.Warn("using in-memory store; data is lost on restart")
		return &stores{
			identities: memstore.NewIdentityStore(),
			books:      memstore.NewBookStore(),
			close:      func() error { return nil },
		}, nil
	}

	if cfg.MigrateOnStart {
		sugar.Info("applying migrations")
		if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
			return nil, oops.Code("MIGRATION_FAILED").With("operation", "migrate up").Wrap(err)
		}
	}

	db, err := database.Connect(cfg.Database())
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	return &stores{
		identities: identityrepo.NewIdentityRepo(db),
		books:      bookrepo.NewBookRepo(db),
		ping:       db.PingContext,
		close:      db.Close,
	}, nil
}
