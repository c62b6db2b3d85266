package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"outlookdraftsync/internal/common/ratelimit"
	"outlookdraftsync/internal/common/retry"
	"outlookdraftsync/internal/common/security"
	"outlookdraftsync/internal/drafts"
)

// AuditColumns is the audit log header written before sync rows.
var AuditColumns = []string{"Company", "Recipient", "Subject", "Status", "MessageID", "Error"}

// AuditLogger receives one audit row per processed draft.
type AuditLogger interface {
	WriteRow(row []string) error
}

// Result tallies a sync run. Per-draft failures are counted, not fatal.
type Result struct {
	Created int
	Failed  int
}

// SyncOptions tune the sync loop. The zero value disables rate limiting,
// retries, auditing, and progress output.
type SyncOptions struct {
	Limiter    *ratelimit.Limiter
	MaxRetries int
	RetryDelay time.Duration
	Audit      AuditLogger
	Progress   io.Writer
	WhatIf     bool
}

// Syncer runs the draft creation loop: one CreateDraft call per record,
// throttled and retried, with per-row failure isolation.
type Syncer struct {
	creator DraftCreator
	logger  *slog.Logger
	opts    SyncOptions
}

// NewSyncer creates a sync loop around the given draft creator.
func NewSyncer(creator DraftCreator, logger *slog.Logger, opts SyncOptions) *Syncer {
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(0)
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &Syncer{creator: creator, logger: logger, opts: opts}
}

// Sync creates one draft per record. A failing record is logged and counted;
// the loop moves on. Only context cancellation aborts the run, returning the
// tally so far.
func (s *Syncer) Sync(ctx context.Context, records []drafts.Draft) (Result, error) {
	var result Result
	total := len(records)

	for i, d := range records {
		if err := s.opts.Limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("sync aborted: %w", err)
		}

		label := d.Company
		if label == "" {
			label = d.To
		}

		if s.opts.WhatIf {
			result.Created++
			fmt.Fprintf(s.opts.Progress, "[%d/%d] WhatIf: would create draft: %s\n", i+1, total, label)
			s.audit(d, "WHATIF", "", nil)
			continue
		}

		var id string
		err := retry.RetryWithBackoffFunc(ctx, s.opts.MaxRetries, s.opts.RetryDelay, IsRetryableError, func() error {
			var createErr error
			id, createErr = s.creator.CreateDraft(ctx, d)
			return createErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return result, fmt.Errorf("sync aborted: %w", ctx.Err())
			}
			result.Failed++
			fmt.Fprintf(s.opts.Progress, "[%d/%d] Failed: %s: %v\n", i+1, total, label, err)
			s.logger.Error("draft creation failed",
				"company", d.Company,
				"to", security.MaskEmail(d.To),
				"error", err)
			s.audit(d, "ERROR", "", err)
			continue
		}

		result.Created++
		fmt.Fprintf(s.opts.Progress, "[%d/%d] Draft created: %s\n", i+1, total, label)
		s.audit(d, "SUCCESS", id, nil)
	}

	return result, nil
}

func (s *Syncer) audit(d drafts.Draft, status, id string, err error) {
	if s.opts.Audit == nil {
		return
	}
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	row := []string{d.Company, d.To, d.Subject, status, id, errMsg}
	if werr := s.opts.Audit.WriteRow(row); werr != nil {
		s.logger.Warn("audit log write failed", "error", werr)
	}
}
