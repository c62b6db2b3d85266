package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"outlookdraftsync/internal/drafts"
)

type fakeCreator struct {
	calls   int
	failFor map[string]error
	created []drafts.Draft
}

func (f *fakeCreator) CreateDraft(ctx context.Context, d drafts.Draft) (string, error) {
	f.calls++
	if err, ok := f.failFor[d.Company]; ok {
		return "", err
	}
	f.created = append(f.created, d)
	return fmt.Sprintf("msg-%d", f.calls), nil
}

type recordingAudit struct {
	rows [][]string
}

func (r *recordingAudit) WriteRow(row []string) error {
	r.rows = append(r.rows, append([]string(nil), row...))
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRecords() []drafts.Draft {
	return []drafts.Draft{
		{Company: "Acme", To: "jane@acme.com", Subject: "Hi Acme", Body: "one"},
		{Company: "Globex", To: "joe@globex.com", Subject: "Hi Globex", Body: "two"},
		{Company: "Initech", To: "sam@initech.com", Subject: "Hi Initech", Body: "three"},
	}
}

func TestSyncer_AllSucceed(t *testing.T) {
	creator := &fakeCreator{}
	var progress strings.Builder
	syncer := NewSyncer(creator, testLogger(), SyncOptions{Progress: &progress})

	result, err := syncer.Sync(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Created != 3 || result.Failed != 0 {
		t.Errorf("Sync() = %+v, want Created=3 Failed=0", result)
	}
	if !strings.Contains(progress.String(), "[1/3] Draft created: Acme") {
		t.Errorf("progress output missing first row:\n%s", progress.String())
	}
	if !strings.Contains(progress.String(), "[3/3] Draft created: Initech") {
		t.Errorf("progress output missing last row:\n%s", progress.String())
	}
}

func TestSyncer_FailureIsolation(t *testing.T) {
	creator := &fakeCreator{failFor: map[string]error{
		"Globex": errors.New("mailbox quota exceeded"),
	}}
	var progress strings.Builder
	audit := &recordingAudit{}
	syncer := NewSyncer(creator, testLogger(), SyncOptions{Progress: &progress, Audit: audit})

	result, err := syncer.Sync(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Created != 2 || result.Failed != 1 {
		t.Errorf("Sync() = %+v, want Created=2 Failed=1", result)
	}
	if !strings.Contains(progress.String(), "[2/3] Failed: Globex") {
		t.Errorf("progress output missing failure row:\n%s", progress.String())
	}

	// One audit row per record, failure marked
	if len(audit.rows) != 3 {
		t.Fatalf("audit rows = %d, want 3", len(audit.rows))
	}
	if audit.rows[1][3] != "ERROR" {
		t.Errorf("audit status for failed row = %q, want ERROR", audit.rows[1][3])
	}
	if audit.rows[0][3] != "SUCCESS" || audit.rows[0][4] == "" {
		t.Errorf("audit row for success = %v, want SUCCESS with message ID", audit.rows[0])
	}
}

func TestSyncer_RetriesTransientErrors(t *testing.T) {
	transient := errors.New("dial tcp: i/o timeout")
	attempts := 0
	creator := &flakyCreator{failTimes: 2, err: transient, attempts: &attempts}
	syncer := NewSyncer(creator, testLogger(), SyncOptions{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})

	result, err := syncer.Sync(context.Background(), testRecords()[:1])
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Created != 1 {
		t.Errorf("Sync() = %+v, want Created=1", result)
	}
	if attempts != 3 {
		t.Errorf("creator called %d times, want 3 (2 failures + 1 success)", attempts)
	}
}

type flakyCreator struct {
	failTimes int
	err       error
	attempts  *int
}

func (f *flakyCreator) CreateDraft(ctx context.Context, d drafts.Draft) (string, error) {
	*f.attempts++
	if *f.attempts <= f.failTimes {
		return "", f.err
	}
	return "msg-ok", nil
}

func TestSyncer_WhatIf(t *testing.T) {
	creator := &fakeCreator{}
	var progress strings.Builder
	audit := &recordingAudit{}
	syncer := NewSyncer(creator, testLogger(), SyncOptions{
		Progress: &progress,
		Audit:    audit,
		WhatIf:   true,
	})

	result, err := syncer.Sync(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Created != 3 || result.Failed != 0 {
		t.Errorf("Sync() = %+v, want Created=3 Failed=0", result)
	}
	if creator.calls != 0 {
		t.Errorf("WhatIf mode must not call the API, got %d calls", creator.calls)
	}
	if !strings.Contains(progress.String(), "WhatIf: would create draft: Acme") {
		t.Errorf("progress output missing WhatIf row:\n%s", progress.String())
	}
	for _, row := range audit.rows {
		if row[3] != "WHATIF" {
			t.Errorf("audit status = %q, want WHATIF", row[3])
		}
	}
}

func TestSyncer_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	creator := &cancellingCreator{cancel: cancel}
	syncer := NewSyncer(creator, testLogger(), SyncOptions{})

	result, err := syncer.Sync(ctx, testRecords())
	if err == nil {
		t.Fatal("Sync() should fail when context is cancelled mid-run")
	}
	if result.Created != 1 {
		t.Errorf("Sync() = %+v, want the one draft created before cancellation", result)
	}
}

// cancellingCreator succeeds once, then cancels the run.
type cancellingCreator struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingCreator) CreateDraft(ctx context.Context, d drafts.Draft) (string, error) {
	c.calls++
	if c.calls == 1 {
		return "msg-1", nil
	}
	c.cancel()
	return "", ctx.Err()
}

func TestSyncer_EmptyInput(t *testing.T) {
	creator := &fakeCreator{}
	syncer := NewSyncer(creator, testLogger(), SyncOptions{})

	result, err := syncer.Sync(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Created != 0 || result.Failed != 0 {
		t.Errorf("Sync() = %+v, want zero tally", result)
	}
}

func TestSyncer_LabelFallsBackToRecipient(t *testing.T) {
	creator := &fakeCreator{}
	var progress strings.Builder
	syncer := NewSyncer(creator, testLogger(), SyncOptions{Progress: &progress})

	records := []drafts.Draft{{To: "jane@acme.com", Subject: "Hi", Body: "b"}}
	if _, err := syncer.Sync(context.Background(), records); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if !strings.Contains(progress.String(), "Draft created: jane@acme.com") {
		t.Errorf("progress should fall back to recipient label:\n%s", progress.String())
	}
}
