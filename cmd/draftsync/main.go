// Package main provides a CLI tool that reads draft emails from a CSV file
// and creates them as drafts in an Outlook mailbox via Microsoft Graph.
// Nothing is ever sent; every message lands in the Drafts folder for review.
//
// Authentication methods supported:
//   - Device code flow (default): interactive user sign-in, tokens cached on disk
//   - Client Secret / PFX Certificate: app-only auth targeting a named mailbox
//
// All runs are logged to an action-specific CSV file in the system temp
// directory for audit and troubleshooting purposes.
//
// Example usage:
//
//	draftsync -clientid "..." -csv data/final/drafts.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"outlookdraftsync/internal/auth"
	"outlookdraftsync/internal/common/logger"
	"outlookdraftsync/internal/common/ratelimit"
	"outlookdraftsync/internal/common/security"
	"outlookdraftsync/internal/common/version"
	"outlookdraftsync/internal/drafts"
	"outlookdraftsync/internal/graph"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

// setupSignalHandling configures graceful shutdown on interrupt signals.
// Returns a cancellable context for use throughout the application.
func setupSignalHandling() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\n\nReceived interrupt signal. Shutting down gracefully...")
		cancel()
	}()

	return ctx, cancel
}

// run orchestrates the tool's execution flow:
//  1. Signal handling for graceful shutdown
//  2. Configuration from flags and environment variables
//  3. Structured and CSV audit logging
//  4. CSV draft loading
//  5. Authentication (device code or app-only) and Graph client setup
//  6. The sync loop, one draft creation per row
func run() error {
	ctx, cancel := setupSignalHandling()
	defer cancel()

	config := parseAndConfigureFlags()

	if config.ShowVersion {
		fmt.Printf("Outlook Draft Sync - Version %s\n", version.Get())
		return nil
	}

	if err := validateConfiguration(config); err != nil {
		fmt.Printf("Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	slogger := logger.SetupLogger(config.VerboseMode, config.LogLevel)
	slogger.Info("Application starting", "version", version.Get(), "whatif", config.WhatIf)

	if config.VerboseMode {
		printConfigSummary(config)
	}

	records, err := drafts.ReadFile(config.CSVPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No drafts to sync.")
		return nil
	}
	slogger.Info("Loaded drafts", "file", config.CSVPath, "count", len(records))

	csvLogger, err := logger.NewCSVLogger("draftsync", "createdrafts")
	if err != nil {
		log.Printf("Warning: Could not initialize CSV logging: %v", err)
		csvLogger = nil
	}
	if csvLogger != nil {
		defer csvLogger.Close()
		if newFile, err := csvLogger.ShouldWriteHeader(); err == nil && newFile {
			if err := csvLogger.WriteHeader(graph.AuditColumns); err != nil {
				log.Printf("Warning: Could not write CSV header: %v", err)
			}
		}
	}

	client, err := setupGraphClient(ctx, config, slogger)
	if err != nil {
		return err
	}

	opts := graph.SyncOptions{
		Limiter:    ratelimit.New(config.RateLimit),
		MaxRetries: config.MaxRetries,
		RetryDelay: config.RetryDelay,
		Progress:   os.Stdout,
		WhatIf:     config.WhatIf,
	}
	if csvLogger != nil {
		opts.Audit = csvLogger
	}
	if opts.Limiter.Enabled() {
		slogger.Info("Rate limiting enabled", "limit", opts.Limiter.String())
	}

	result, err := graph.NewSyncer(client, slogger, opts).Sync(ctx, records)
	fmt.Printf("\nDone. Created: %d, Failed: %d\n", result.Created, result.Failed)
	return err
}

// setupGraphClient authenticates and initializes the Graph client.
// App-only credentials target the configured mailbox; otherwise the device
// code flow signs the user in and drafts go to their own mailbox.
func setupGraphClient(ctx context.Context, config *Config, slogger *slog.Logger) (*graph.Client, error) {
	if config.WhatIf {
		// Dry runs never touch the network
		return nil, nil
	}

	if config.appOnly() {
		cred, err := auth.NewAppCredential(config.TenantID, config.ClientID, config.Secret, config.PfxPath, config.PfxPass, slogger)
		if err != nil {
			return nil, fmt.Errorf("authentication setup failed: %w", err)
		}
		printTokenInfo(ctx, config, cred)

		client, err := graph.NewClient(cred, []string{auth.ScopeDefault}, slogger)
		if err != nil {
			return nil, err
		}
		return client.WithMailbox(config.Mailbox), nil
	}

	cachePath := config.CachePath
	if cachePath == "" {
		var err error
		cachePath, err = auth.DefaultCachePath()
		if err != nil {
			return nil, err
		}
	}
	slogger.Debug("Using token cache", "path", cachePath)

	authenticator, err := auth.NewDeviceCodeAuthenticator(config.ClientID, config.TenantID, auth.NewFileCache(cachePath), slogger)
	if err != nil {
		return nil, fmt.Errorf("authentication setup failed: %w", err)
	}

	// Acquire eagerly so the device code prompt happens before the sync
	// loop starts, not in the middle of it.
	token, err := authenticator.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}
	if config.VerboseMode {
		printClaims(token.Value)
	}

	cred := graph.NewTokenProviderCredential(authenticator)
	return graph.NewClient(cred, auth.DelegatedScopes(), slogger)
}

// printConfigSummary prints the effective configuration with secrets masked.
func printConfigSummary(config *Config) {
	logger.LogVerbose(true, "Configuration:")
	logger.LogVerbose(true, "  ClientID: %s", security.MaskGUID(config.ClientID))
	logger.LogVerbose(true, "  TenantID: %s", config.TenantID)
	logger.LogVerbose(true, "  CSV: %s", config.CSVPath)
	if config.Secret != "" {
		logger.LogVerbose(true, "  Secret: %s", security.MaskSecret(config.Secret))
	}
	if config.PfxPath != "" {
		logger.LogVerbose(true, "  PFX: %s", config.PfxPath)
	}
	if config.Mailbox != "" {
		logger.LogVerbose(true, "  Mailbox: %s", security.MaskEmail(config.Mailbox))
	}
	logger.LogVerbose(true, "  MaxRetries: %d, RetryDelay: %v, RateLimit: %.2f",
		config.MaxRetries, config.RetryDelay, config.RateLimit)
}

// printTokenInfo displays app-only token diagnostics in verbose mode.
func printTokenInfo(ctx context.Context, config *Config, cred azcore.TokenCredential) {
	if !config.VerboseMode {
		return
	}
	token, err := graph.ProbeToken(ctx, cred)
	if err != nil {
		logger.LogVerbose(true, "Warning: Could not retrieve token for verbose display: %v", err)
		return
	}
	printClaims(token)
}

// printClaims shows who the token belongs to and what it may do.
func printClaims(tokenStr string) {
	fmt.Println()
	fmt.Println("Token Information:")
	fmt.Println("------------------")
	fmt.Printf("Token (masked): %s\n", security.MaskAccessToken(tokenStr))

	claims, err := auth.ParseTokenClaims(tokenStr)
	if err != nil {
		fmt.Printf("  (Could not parse JWT claims: %v)\n", err)
		fmt.Println()
		return
	}
	if claims.AppDisplayName != "" {
		fmt.Printf("  Application: %s\n", claims.AppDisplayName)
	}
	if claims.PreferredUsername != "" {
		fmt.Printf("  Account: %s\n", security.MaskEmail(claims.PreferredUsername))
	}
	fmt.Printf("  Granted: %s\n", claims.DescribeGrants())
	if claims.ExpiresAt != nil {
		fmt.Printf("  Expires at: %s\n", claims.ExpiresAt.Time.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Println()
}
