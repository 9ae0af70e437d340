// Command storefrontd runs the storefront HTTP facade: a local API in front
// of a WooCommerce backend, with cart synchronization, catalog browsing,
// checkout, and customer login.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/estora/storefront/account"
	"github.com/estora/storefront/cart"
	"github.com/estora/storefront/catalog"
	"github.com/estora/storefront/checkout"
	"github.com/estora/storefront/config"
	"github.com/estora/storefront/logger"
	"github.com/estora/storefront/observability"
	"github.com/estora/storefront/server"
	"github.com/estora/storefront/session"
	"github.com/estora/storefront/transport"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "storefrontd:", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "path to a YAML config file")
	envFile := flag.String("env-file", "", "path to a .env file")
	flag.Parse()

	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}

	var cfg config.Config
	if err := config.Load("storefront", &cfg, opts...); err != nil {
		return err
	}

	log := logger.New(cfg.Logging)
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: version,
			Environment:    os.Getenv("STOREFRONT_ENV"),
			Endpoint:       cfg.Tracing.Endpoint,
			Insecure:       cfg.Tracing.Insecure,
			SampleRate:     cfg.Tracing.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	var store session.Store
	if cfg.Session.File != "" {
		fileStore, err := session.NewFileStore(cfg.Session.File)
		if err != nil {
			return fmt.Errorf("open session file: %w", err)
		}
		store = fileStore
	} else {
		store = session.NewMemStore()
	}

	tp, err := transport.New(transport.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, store)
	if err != nil {
		return err
	}

	handlers := &server.Handlers{
		Cart:     cart.NewSyncer(cart.NewClient(tp, cfg.Backend.CartPrefix)),
		Catalog:  catalog.NewClient(tp, cfg.Backend.StorePrefix),
		Checkout: checkout.NewClient(tp, cfg.Backend.StorePrefix),
		Account:  account.NewClient(tp, store, cfg.Backend.TokenPath),
	}

	srv := server.New(cfg.Server, log)
	handlers.Register(srv.Engine())

	if err := srv.Start(ctx); err != nil {
		return err
	}

	log.Info("Storefront ready", logger.Fields(
		"backend", cfg.Backend.BaseURL,
		"version", version,
	))

	<-ctx.Done()
	return srv.Stop(context.Background())
}
