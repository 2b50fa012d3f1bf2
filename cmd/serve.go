// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/canonical/rights-portal/internal/access"
	"github.com/canonical/rights-portal/internal/config"
	"github.com/canonical/rights-portal/internal/db"
	"github.com/canonical/rights-portal/internal/directory"
	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring/prometheus"
	"github.com/canonical/rights-portal/internal/storage"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/pkg/authentication"
	"github.com/canonical/rights-portal/pkg/guard"
	"github.com/canonical/rights-portal/pkg/rights"
	"github.com/canonical/rights-portal/pkg/session"
	"github.com/canonical/rights-portal/pkg/web"
	"github.com/canonical/rights-portal/pkg/webhooks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("rights-portal", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}
	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}
	defer dbClient.Close()
	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	registry := access.DefaultRegistry()
	if specs.ModuleOverlayFile != "" {
		registry, err = access.NewRegistryFromFile(specs.ModuleOverlayFile)
		if err != nil {
			return fmt.Errorf("failed to load module overlay: %v", err)
		}
		logger.Infof("Loaded module overlay from %s", specs.ModuleOverlayFile)
	}

	directoryClient := directory.NewClient(
		directory.Config{
			AdminURL:     specs.DirectoryAdminURL,
			TokenURL:     specs.DirectoryTokenURL,
			ClientID:     specs.DirectoryClientID,
			ClientSecret: specs.DirectoryClientSecret,
		},
		tracer,
		monitor,
		logger,
	)

	sessionService := session.NewService(
		s,
		specs.SessionCacheSize,
		specs.SessionCacheTTL,
		tracer,
		monitor,
		logger,
	)

	rightsService := rights.NewService(
		s,
		directoryClient,
		sessionService,
		specs.InvitationLifetime,
		tracer,
		monitor,
		logger,
	)

	hookService := webhooks.NewService(s, tracer, monitor, logger)

	var apiAuth func(http.Handler) http.Handler
	if specs.AuthenticationEnabled {
		verifier, err := authentication.NewJWTAuthenticator(
			context.Background(),
			specs.OIDCIssuer,
			specs.JWKSURL,
			specs.AllowedSubjects,
			specs.RequiredScope,
			tracer,
			monitor,
			logger,
		)
		if err != nil {
			return fmt.Errorf("failed to set up JWT authentication: %v", err)
		}
		apiAuth = authentication.NewMiddleware(verifier, tracer, monitor, logger).Authenticate()
	} else if specs.Debug {
		apiAuth = authentication.NewMiddleware(authentication.NewNoopVerifier(), tracer, monitor, logger).Authenticate()
		logger.Info("Using noop token verifier, bearer tokens are treated as user IDs")
	}

	router := web.NewRouter(
		web.RouterConfig{
			Sessions: sessionService,
			Rights:   rightsService,
			Hooks:    hookService,
			Registry: registry,
			DB:       dbClient,
			Guard: guard.Config{
				SignInURL:      specs.SignInURL,
				AccessErrorURL: specs.AccessErrorURL,
				RestrictedURL:  specs.RestrictedURL,
			},
			APIAuth:     apiAuth,
			CORSOrigins: specs.CORSAllowedOrigins,
		},
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}
