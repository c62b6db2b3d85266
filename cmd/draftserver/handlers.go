package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"

	"outlookdraftsync/internal/auth"
	"outlookdraftsync/internal/common/ratelimit"
	"outlookdraftsync/internal/common/security"
	"outlookdraftsync/internal/drafts"
	"outlookdraftsync/internal/graph"
)

// draftPayload is one draft in a sync-drafts request body. The recipient
// field names mirror the CSV column fallbacks.
type draftPayload struct {
	Company string `json:"company"`
	ToEmail string `json:"to_email"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (p draftPayload) toDraft() drafts.Draft {
	to := p.ToEmail
	if to == "" {
		to = p.Email
	}
	return drafts.Draft{Company: p.Company, To: to, Subject: p.Subject, Body: p.Body}
}

// handleAuthURL returns the Microsoft sign-in URL and a CSRF state for the
// frontend's "Connect with Outlook" button.
func (s *Server) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.auth == nil {
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Microsoft OAuth is not configured"})
		return
	}

	state := s.states.Issue()
	authURL, err := s.auth.AuthCodeURL(r.Context(), state)
	if err != nil {
		s.logger.Error("building auth URL failed", "error", err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not build sign-in URL"})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"auth_url": authURL,
		"state":    state,
	})
}

// handleCallback receives the browser redirect from Microsoft, exchanges the
// authorization code, and bounces back to the frontend with the outcome.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		s.logger.Warn("sign-in rejected by provider", "error", errParam)
		s.redirectToFrontend(w, r, url.Values{"outlook": {"error"}, "error": {errParam}})
		return
	}

	code := query.Get("code")
	state := query.Get("state")
	if s.auth == nil || code == "" || !s.states.Consume(state) {
		s.logger.Warn("callback with missing code or unknown state")
		s.redirectToFrontend(w, r, url.Values{"outlook": {"error"}, "error": {"invalid_callback"}})
		return
	}

	token, err := s.auth.ExchangeCode(r.Context(), code)
	if err != nil {
		s.logger.Error("code exchange failed", "error", err)
		s.redirectToFrontend(w, r, url.Values{"outlook": {"error"}, "error": {"token_failed"}})
		return
	}

	s.logger.Info("outlook connected", "account", security.MaskEmail(token.Account))
	s.redirectToFrontend(w, r, url.Values{"outlook": {"connected"}})
}

// handleStatus reports whether a signed-in account is available.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	connected := false
	if s.auth != nil {
		_, err := s.auth.Token(r.Context())
		connected = err == nil
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"connected": connected})
}

// handleSyncDrafts creates one Outlook draft per submitted record.
// The body is a JSON array of drafts; an empty body falls back to the CSV
// file on disk. Responds with the created/failed tally.
func (s *Server) handleSyncDrafts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if s.auth == nil {
		s.respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "outlook not connected"})
		return
	}
	if _, err := s.auth.Token(r.Context()); err != nil {
		if !errors.Is(err, auth.ErrNotConnected) {
			s.logger.Error("token acquisition failed", "error", err)
		}
		s.respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "outlook not connected"})
		return
	}

	records, err := s.loadRecords(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(records) == 0 {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": drafts.ErrNoDrafts.Error()})
		return
	}

	syncer := graph.NewSyncer(s.creator, s.logger, graph.SyncOptions{
		Limiter:    ratelimit.New(s.cfg.RateLimit),
		MaxRetries: s.cfg.MaxRetries,
		RetryDelay: s.cfg.RetryDelay,
		Audit:      s.audit,
	})
	result, err := syncer.Sync(r.Context(), records)
	if err != nil {
		s.logger.Error("sync aborted", "error", err, "created", result.Created, "failed", result.Failed)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "sync aborted"})
		return
	}

	s.logger.Info("sync finished", "created", result.Created, "failed", result.Failed)
	s.respondJSON(w, http.StatusOK, map[string]int{
		"created": result.Created,
		"failed":  result.Failed,
	})
}

// loadRecords reads drafts from the request body, falling back to the CSV
// file when the body is empty.
func (s *Server) loadRecords(r *http.Request) ([]drafts.Draft, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.New("could not read request body")
	}

	if len(body) > 0 {
		var payloads []draftPayload
		if err := json.Unmarshal(body, &payloads); err != nil {
			return nil, errors.New("request body must be a JSON array of drafts")
		}
		records := make([]drafts.Draft, 0, len(payloads))
		for _, p := range payloads {
			records = append(records, p.toDraft())
		}
		return records, nil
	}

	records, err := drafts.ReadFile(s.cfg.CSVPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, drafts.ErrNoDrafts
		}
		return nil, errors.New("could not read drafts file")
	}
	return records, nil
}
