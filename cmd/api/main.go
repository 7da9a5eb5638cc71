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

	"github.com/rs/zerolog"

	"github.com/mbsadvocates/site/internal/auth"
	"github.com/mbsadvocates/site/internal/config"
	"github.com/mbsadvocates/site/internal/database"
	"github.com/mbsadvocates/site/internal/services"
	"github.com/mbsadvocates/site/internal/validation"
	"github.com/mbsadvocates/site/internal/web"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid server config: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().
		Str("version", cfg.App.Version).
		Bool("debug", cfg.App.Debug).
		Str("host", cfg.App.Host).
		Str("port", cfg.App.Port).
		Msgf("starting %s", cfg.App.Name)

	// A missing or unreachable datastore is not fatal: every page and form
	// degrades to its "unavailable" behavior instead.
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Error().Err(err).Msg("datastore unavailable, continuing without it")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error().Err(err).Msg("error closing database")
		}
	}()

	handler, err := buildHandler(cfg, database.NewGateway(db), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build HTTP handler")
	}

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("server failed to start")
		return
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("starting graceful shutdown")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("error during graceful shutdown")
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn().Msg("shutdown timeout exceeded, forcing close")
			_ = httpServer.Close()
		}
	}

	logger.Info().Msg("server shutdown complete")
}

// buildHandler wires services and the HTTP surface around the gateway.
func buildHandler(cfg *config.Config, gateway *database.Gateway, logger zerolog.Logger) (http.Handler, error) {
	v := validation.New()
	rules := validation.ContactRules{
		RequireName:    cfg.Contact.RequireName,
		NameMin:        cfg.Contact.NameMin,
		RequireSubject: cfg.Contact.RequireSubject,
		MessageMin:     cfg.Contact.MessageMin,
	}

	emailSvc := services.NewEmailService(cfg.Email, logger)
	if !emailSvc.Configured() {
		logger.Warn().Str("provider", cfg.Email.Provider).Msg("email provider not configured, contact notifications disabled")
	}

	provider := auth.NewSupabaseProvider(cfg.Auth, logger)
	if !provider.Configured() {
		logger.Warn().Msg("auth provider not configured, admin sign-in disabled")
	}

	renderer, err := web.NewRenderer(logger)
	if err != nil {
		return nil, err
	}

	srv := web.NewServer(web.Deps{
		Contact:      services.NewContactService(gateway, emailSvc, v, rules, cfg.Email, logger),
		Testimonials: services.NewTestimonialService(gateway, v, logger),
		Content:      services.NewContentService(gateway),
		Auth:         services.NewAuthService(provider, v, auth.DefaultPaths.Dashboard, logger),
		Health:       services.NewHealthService(cfg.App.Name, cfg.App.Version, gateway),
		Sessions:     provider,
		Renderer:     renderer,
		Config:       cfg,
		Logger:       logger,
	})
	return srv.Handler()
}
