package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/iliyamo/maternal-vitals/internal/config"
	"github.com/iliyamo/maternal-vitals/internal/handler"
	"github.com/iliyamo/maternal-vitals/internal/middleware"
	"github.com/iliyamo/maternal-vitals/internal/router"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return runServer(a)
		},
	}
}

func runServer(a *app) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(a.log))
	e.Use(middleware.Logger(a.log))

	registerLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), a.rdb, a.log)
	trendCache := middleware.NewPrincipalCache(config.LoadCacheConfig(), a.rdb)

	router.RegisterRoutes(e, a.db)
	router.RegisterAuth(e, handler.NewAuthHandler(a.cfg, a.identity, a.tokens, a.log), a.cfg.JWTSecret, registerLimit)
	router.RegisterDevice(e, handler.NewDeviceHandler(a.ingestor, a.log))
	router.RegisterPatient(e, handler.NewPatientHandler(a.history, a.identity, a.log), a.cfg.JWTSecret)
	router.RegisterDoctor(e, handler.NewDoctorHandler(a.history, a.alerts, a.log), a.cfg.JWTSecret, trendCache)

	addr := ":" + a.cfg.Port // Address string with port
	go func() {
		a.log.Info().Str("addr", addr).Str("env", a.cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error().Err(err).Msg("server failed")
		}
	}()

	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()

	a.log.Info().Msg("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return err
	}
	a.log.Info().Msg("server stopped")
	return nil
}
