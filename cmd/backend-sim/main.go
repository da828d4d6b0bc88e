package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grocify/storefront/internal/backendsim"
	catalogdomain "github.com/grocify/storefront/internal/catalog/domain"
	"github.com/grocify/storefront/pkg/logging"
	"github.com/grocify/storefront/pkg/shutdown"
	"github.com/grocify/storefront/pkg/tracing"
)

func main() {
	log := logging.New()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	httpAddr := env("HTTP_ADDR", ":8081")
	secret := env("JWT_SECRET", "grocify-dev-secret")
	catalogPath := env("CATALOG_PATH", "")
	otlpEndpoint := env("OTLP_ENDPOINT", "")

	stopTracing, err := tracing.Init(ctx, "backend-sim", otlpEndpoint, log)
	if err != nil {
		log.Error("tracing init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = stopTracing(ctx) }()

	var catalog []catalogdomain.Product
	if catalogPath != "" {
		catalog, err = backendsim.LoadCatalog(catalogPath)
		if err != nil {
			log.Error("catalog load failed", "path", catalogPath, "err", err)
			os.Exit(1)
		}
	} else {
		catalog = backendsim.DefaultCatalog()
	}

	sim := backendsim.New(log, []byte(secret), catalog)

	r := chi.NewRouter()
	r.Mount("/", sim.Routes())
	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("backend-sim listening", "addr", httpAddr, "products", len(catalog))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("backend-sim shutdown complete")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
