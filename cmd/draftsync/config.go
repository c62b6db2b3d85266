package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"outlookdraftsync/internal/common/validation"
)

// Config holds all draftsync configuration.
type Config struct {
	// Core configuration
	ShowVersion bool

	// App registration
	ClientID string
	TenantID string

	// Delegated sign-in (device code flow)
	CachePath string

	// App-only authentication (admin scenarios)
	Secret  string
	PfxPath string
	PfxPass string
	Mailbox string // Target mailbox, required with app-only auth

	// Input
	CSVPath string

	// Network configuration
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  float64 // Maximum Graph requests per second (0 = unlimited)

	// Runtime configuration
	WhatIf      bool
	VerboseMode bool
	LogLevel    string
}

// DefaultCSVPath is where the outreach pipeline writes its drafts.
const DefaultCSVPath = "data/final/drafts.csv"

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		TenantID:   "common",
		CSVPath:    DefaultCSVPath,
		MaxRetries: 3,
		RetryDelay: 2000 * time.Millisecond,
		RateLimit:  0,
		LogLevel:   "INFO",
	}
}

// parseAndConfigureFlags parses command-line flags and environment variables.
func parseAndConfigureFlags() *Config {
	config := NewConfig()

	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Outlook Draft Sync - create Outlook drafts from a CSV file via Microsoft Graph\n\n")
		fmt.Fprintf(out, "Drafts are created in the Drafts folder; nothing is ever sent.\n\n")
		fmt.Fprintf(out, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(out, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(out, "\nEnvironment Variables:\n")
		fmt.Fprintf(out, "  Most flags can be set via environment variables with DRAFTSYNC prefix\n")
		fmt.Fprintf(out, "  Example: DRAFTSYNCCLIENTID, DRAFTSYNCTENANTID, DRAFTSYNCCSV\n")
		fmt.Fprintf(out, "  MICROSOFT_CLIENT_ID and MICROSOFT_CLIENT_SECRET are also honored\n\n")
		fmt.Fprintf(out, "Examples:\n")
		fmt.Fprintf(out, "  %s -clientid \"...\" -csv data/final/drafts.csv\n", os.Args[0])
		fmt.Fprintf(out, "  %s -clientid \"...\" -csv drafts.csv -whatif\n", os.Args[0])
		fmt.Fprintf(out, "  %s -clientid \"...\" -tenantid \"...\" -secret \"...\" -mailbox shared@example.com -csv drafts.csv\n", os.Args[0])
	}

	// Define flags
	showVersion := flag.Bool("version", false, "Show version information")
	clientID := flag.String("clientid", "", "Entra ID application (client) ID (env: DRAFTSYNCCLIENTID, MICROSOFT_CLIENT_ID)")
	tenantID := flag.String("tenantid", "common", "Tenant ID or common/organizations/consumers (env: DRAFTSYNCTENANTID)")
	cachePath := flag.String("cache", "", "Token cache file path (default: per-user cache dir) (env: DRAFTSYNCCACHE)")
	secret := flag.String("secret", "", "Client secret for app-only authentication (env: DRAFTSYNCSECRET, MICROSOFT_CLIENT_SECRET)")
	pfxPath := flag.String("pfx", "", "PFX certificate file for app-only authentication (env: DRAFTSYNCPFX)")
	pfxPass := flag.String("pfxpass", "", "PFX certificate password (env: DRAFTSYNCPFXPASS)")
	mailbox := flag.String("mailbox", "", "Target mailbox for app-only authentication (env: DRAFTSYNCMAILBOX)")
	csvPath := flag.String("csv", DefaultCSVPath, "CSV file with draft rows (env: DRAFTSYNCCSV)")
	maxRetries := flag.Int("maxretries", 3, "Maximum retry attempts per draft (env: DRAFTSYNCMAXRETRIES)")
	retryDelay := flag.Int("retrydelay", 2000, "Base retry delay in milliseconds (env: DRAFTSYNCRETRYDELAY)")
	rateLimit := flag.Float64("ratelimit", 0, "Maximum Graph requests per second (0 = unlimited) (env: DRAFTSYNCRATELIMIT)")
	whatIf := flag.Bool("whatif", false, "Validate and preview without creating drafts")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	logLevel := flag.String("loglevel", "INFO", "Logging level: DEBUG, INFO, WARN, ERROR")

	flag.Parse()

	// Apply flags to config
	config.ShowVersion = *showVersion
	config.ClientID = *clientID
	config.TenantID = *tenantID
	config.CachePath = *cachePath
	config.Secret = *secret
	config.PfxPath = *pfxPath
	config.PfxPass = *pfxPass
	config.Mailbox = *mailbox
	config.CSVPath = *csvPath
	config.MaxRetries = *maxRetries
	config.RetryDelay = time.Duration(*retryDelay) * time.Millisecond
	config.RateLimit = *rateLimit
	config.WhatIf = *whatIf
	config.VerboseMode = *verbose
	config.LogLevel = *logLevel

	// Apply environment variables (if flags not set)
	applyEnvironmentVariables(config)

	return config
}

// applyEnvironmentVariables applies environment variables to config.
// Flags take precedence; env vars only fill values left at their defaults.
func applyEnvironmentVariables(config *Config) {
	if config.ClientID == "" {
		config.ClientID = os.Getenv("DRAFTSYNCCLIENTID")
	}
	if config.ClientID == "" {
		config.ClientID = os.Getenv("MICROSOFT_CLIENT_ID")
	}
	if config.TenantID == "common" {
		if v := os.Getenv("DRAFTSYNCTENANTID"); v != "" {
			config.TenantID = v
		}
	}
	if config.CachePath == "" {
		config.CachePath = os.Getenv("DRAFTSYNCCACHE")
	}
	if config.Secret == "" {
		config.Secret = os.Getenv("DRAFTSYNCSECRET")
	}
	if config.Secret == "" && config.PfxPath == "" {
		config.Secret = os.Getenv("MICROSOFT_CLIENT_SECRET")
	}
	if config.PfxPath == "" {
		config.PfxPath = os.Getenv("DRAFTSYNCPFX")
	}
	if config.PfxPass == "" {
		config.PfxPass = os.Getenv("DRAFTSYNCPFXPASS")
	}
	if config.Mailbox == "" {
		config.Mailbox = os.Getenv("DRAFTSYNCMAILBOX")
	}
	if config.CSVPath == DefaultCSVPath {
		if v := os.Getenv("DRAFTSYNCCSV"); v != "" {
			config.CSVPath = v
		}
	}
	if rateLimitStr := os.Getenv("DRAFTSYNCRATELIMIT"); rateLimitStr != "" && config.RateLimit == 0 {
		if rateLimit, err := strconv.ParseFloat(rateLimitStr, 64); err == nil {
			config.RateLimit = rateLimit
		}
	}
	if maxRetriesStr := os.Getenv("DRAFTSYNCMAXRETRIES"); maxRetriesStr != "" && config.MaxRetries == 3 {
		if maxRetries, err := strconv.Atoi(maxRetriesStr); err == nil {
			config.MaxRetries = maxRetries
		}
	}
	if retryDelayStr := os.Getenv("DRAFTSYNCRETRYDELAY"); retryDelayStr != "" && config.RetryDelay == 2000*time.Millisecond {
		if retryDelay, err := strconv.Atoi(retryDelayStr); err == nil {
			config.RetryDelay = time.Duration(retryDelay) * time.Millisecond
		}
	}
}

// appOnly reports whether app-only authentication is configured.
func (c *Config) appOnly() bool {
	return c.Secret != "" || c.PfxPath != ""
}

// validateConfiguration validates the configuration.
func validateConfiguration(config *Config) error {
	if config.ClientID == "" {
		return fmt.Errorf("client ID is required (-clientid flag or MICROSOFT_CLIENT_ID)")
	}
	if err := validation.ValidateGUID(config.ClientID, "client ID"); err != nil {
		return err
	}

	if config.appOnly() {
		// App-only tokens are tenant-scoped; aliases like "common" cannot work
		if err := validation.ValidateGUID(config.TenantID, "tenant ID"); err != nil {
			return fmt.Errorf("app-only authentication requires a tenant GUID: %w", err)
		}
	} else if err := validation.ValidateTenant(config.TenantID, "tenant ID"); err != nil {
		return err
	}

	if config.Secret != "" && config.PfxPath != "" {
		return fmt.Errorf("cannot use both -secret and -pfx simultaneously")
	}
	if config.PfxPath != "" {
		if err := validation.ValidateFilePath(config.PfxPath, "PFX file"); err != nil {
			return err
		}
	}

	if config.appOnly() {
		if config.Mailbox == "" {
			return fmt.Errorf("app-only authentication requires -mailbox")
		}
		if err := validation.ValidateEmail(config.Mailbox); err != nil {
			return fmt.Errorf("invalid mailbox: %w", err)
		}
	} else if config.Mailbox != "" {
		return fmt.Errorf("-mailbox is only valid with app-only authentication (drafts go to the signed-in mailbox otherwise)")
	}

	if config.CSVPath == "" {
		return fmt.Errorf("CSV file is required (-csv flag)")
	}
	if err := validation.ValidateFilePath(config.CSVPath, "CSV file"); err != nil {
		return err
	}

	if config.MaxRetries < 0 {
		return fmt.Errorf("maxretries must be >= 0 (got %d)", config.MaxRetries)
	}
	if config.RetryDelay <= 0 {
		return fmt.Errorf("retrydelay must be > 0 (got %v)", config.RetryDelay)
	}
	if config.RateLimit < 0 {
		return fmt.Errorf("ratelimit must be >= 0 (got %f)", config.RateLimit)
	}

	return nil
}
