package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/KretovDmitry/hashlink/internal/api/rest"
	"github.com/KretovDmitry/hashlink/internal/config"
	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/KretovDmitry/hashlink/internal/logger"
	"github.com/KretovDmitry/hashlink/internal/repository"
	"github.com/KretovDmitry/hashlink/internal/router"
	"github.com/KretovDmitry/hashlink/internal/service"
	"golang.org/x/crypto/acme/autocert"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.MustLoad()

	logger := logger.New(cfg)
	defer func() {
		_ = logger.Sync()
	}()

	store, err := repository.NewURLStore(cfg, logger)
	if err != nil {
		if errors.Is(err, errs.ErrSchema) {
			return fmt.Errorf("schema initialization failed: %w", err)
		}
		return fmt.Errorf("new store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Errorf("close store: %v", err)
		}
	}()

	svc, err := service.NewURLService(store, cfg, logger)
	if err != nil {
		return fmt.Errorf("new service: %w", err)
	}
	defer svc.Stop()

	handler, err := rest.NewHandler(svc, cfg, logger)
	if err != nil {
		return fmt.Errorf("new handler: %w", err)
	}

	hs := &http.Server{
		Addr:              cfg.Server.RunAddress.String(),
		Handler:           router.New(handler, logger),
		ReadHeaderTimeout: cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Graceful shutdown.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT,
			syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)

		signal := <-sig

		logger.With(context.Background(), "signal", signal.String()).
			Infof("Shutting down server with %s timeout", cfg.Server.ShutdownTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := hs.Shutdown(ctx); err != nil {
			logger.Errorf("graceful shutdown failed: %s", err)
		}
	}()

	logger.Infof("Server has started: %s", cfg.Server.RunAddress)
	logger.Infof("Short links base: %s", cfg.Server.BaseURL)

	if cfg.TLSEnabled {
		cm := &autocert.Manager{
			Cache:  autocert.DirCache("cache/certs"),
			Prompt: autocert.AcceptTOS,
		}
		hs.TLSConfig = cm.TLSConfig()
		logger.Info("The server is running over the SSL protocol")
		err = hs.ListenAndServeTLS("", "")
	} else {
		err = hs.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("run server failed: %w", err)
	}

	<-shutdownDone

	return nil
}

func printBuildInfo() {
	if buildVersion == "" {
		fmt.Println("Build version: N/A")
	} else {
		fmt.Printf("Build version: %s\n", buildVersion)
	}
	if buildDate == "" {
		fmt.Println("Build date: N/A")
	} else {
		fmt.Printf("Build date: %s\n", buildDate)
	}
	if buildCommit == "" {
		fmt.Println("Build commit: N/A")
	} else {
		fmt.Printf("Build commit: %s\n", buildCommit)
	}
}
