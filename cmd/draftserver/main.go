// Package main provides the draft sync web API. It exposes the Outlook
// connect flow (authorization code redirect) and a sync endpoint that turns
// submitted records into Outlook drafts via Microsoft Graph. Nothing is ever
// sent; drafts are created for review.
//
// Configuration is environment-driven; a .env file in the working directory
// is honored. Without MICROSOFT_CLIENT_ID and MICROSOFT_CLIENT_SECRET the
// server still starts, but the Outlook endpoints report the unconfigured
// state instead of serving sign-ins.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"outlookdraftsync/internal/auth"
	"outlookdraftsync/internal/common/logger"
	"outlookdraftsync/internal/common/security"
	"outlookdraftsync/internal/common/version"
	"outlookdraftsync/internal/graph"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg := Load()
	slogger := logger.SetupLogger(false, cfg.LogLevel)
	slogger.Info("Draft sync API starting", "version", version.Get(), "port", cfg.Port)

	authenticator, creator, err := setupOutlook(cfg, slogger)
	if err != nil {
		return err
	}

	audit, err := logger.NewJSONLogger("draftserver", "syncdrafts")
	if err != nil {
		log.Printf("Warning: Could not initialize JSON audit logging: %v", err)
		audit = nil
	}
	if audit != nil {
		if err := audit.WriteHeader(graph.AuditColumns); err != nil {
			log.Printf("Warning: Could not set audit columns: %v", err)
		}
	}

	server := NewServer(cfg, authenticator, creator, auditOrNil(audit), slogger)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slogger.Info("Listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		slogger.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if audit != nil {
		if err := audit.Close(); err != nil {
			log.Printf("Warning: Could not close audit log: %v", err)
		}
	}
	slogger.Info("Stopped")
	return nil
}

// setupOutlook builds the sign-in flow and the Graph client when the app
// registration is configured. Both come back nil otherwise; the handlers
// then answer with the unconfigured state.
func setupOutlook(cfg Config, slogger *slog.Logger) (Authenticator, graph.DraftCreator, error) {
	if !cfg.oauthConfigured() {
		slogger.Warn("MICROSOFT_CLIENT_ID or MICROSOFT_CLIENT_SECRET unset; Outlook endpoints disabled")
		return nil, nil, nil
	}
	slogger.Info("Outlook app registration configured",
		"client_id", security.MaskGUID(cfg.ClientID),
		"tenant", cfg.TenantID,
		"redirect_uri", cfg.RedirectURI)

	cachePath := cfg.CachePath
	if cachePath == "" {
		var err error
		cachePath, err = auth.DefaultCachePath()
		if err != nil {
			return nil, nil, err
		}
	}
	slogger.Debug("Using token cache", "path", cachePath)

	authenticator, err := auth.NewWebAuthenticator(cfg.ClientID, cfg.ClientSecret, cfg.TenantID, cfg.RedirectURI, auth.NewFileCache(cachePath), slogger)
	if err != nil {
		return nil, nil, fmt.Errorf("authentication setup failed: %w", err)
	}

	cred := graph.NewTokenProviderCredential(authenticator)
	client, err := graph.NewClient(cred, auth.DelegatedScopes(), slogger)
	if err != nil {
		return nil, nil, err
	}
	return authenticator, client, nil
}

// auditOrNil keeps a typed-nil *JSONLogger out of the AuditLogger interface.
func auditOrNil(audit *logger.JSONLogger) graph.AuditLogger {
	if audit == nil {
		return nil
	}
	return audit
}
