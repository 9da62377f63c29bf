// Package main is the entry point for the finadm command-line client.
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

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/cli"
	"gitlab.com/yelinaung/finadm/internal/config"
	"gitlab.com/yelinaung/finadm/internal/fx"
	"gitlab.com/yelinaung/finadm/internal/logger"
	"gitlab.com/yelinaung/finadm/internal/mockapi"
	"gitlab.com/yelinaung/finadm/internal/service"
	"gitlab.com/yelinaung/finadm/internal/session"
	"gitlab.com/yelinaung/finadm/internal/telemetry"
)

// mockFXBase routes rate lookups to the mock backend's /fx feed.
const mockFXBase = "http://finadm.mock/fx"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("finadm %s (commit: %s, built: %s)\n", version, commit, date)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load config")
		return 1
	}

	logger.SetLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		logger.SetJSON()
	}

	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:  cfg.OTelEnabled,
		Version:  version,
		Endpoint: cfg.OTelEndpoint,
		Protocol: cfg.OTelProtocol,
		Out:      os.Stderr,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to set up telemetry")
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	store, closeStore, err := session.Open(ctx, cfg)
	if err != nil {
		logger.Log.Error().Err(err).Str("store", cfg.SessionStore).Msg("Failed to open session store")
		return 1
	}
	defer closeStore()
	sess := session.NewManager(store)

	var transport http.RoundTripper
	fxBase := cfg.FXBase
	if cfg.UseMocks {
		transport = mockapi.New(mockapi.Options{Delay: cfg.MockDelay}).Transport()
		fxBase = mockFXBase
		logger.Log.Debug().Dur("delay", cfg.MockDelay).Msg("Using in-process mock backend")
	}

	client := apiclient.New(apiclient.Options{
		BaseURL:   cfg.APIBase,
		Timeout:   cfg.Timeout,
		Transport: transport,
		Tokens:    sess,
		OnAuthFailure: func() {
			logger.Log.Warn().Msg("Session expired, run finadm login again")
		},
	})

	rates := fx.NewCache(fx.NewFrankfurter(fxBase, cfg.Timeout, transport), fx.DefaultTTL)

	app := cli.New(service.New(client, sess), sess, rates, os.Stdout, version)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}
