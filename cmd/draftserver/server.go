package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"outlookdraftsync/internal/auth"
	"outlookdraftsync/internal/graph"
)

// Authenticator is the slice of the redirect sign-in flow the handlers use.
type Authenticator interface {
	AuthCodeURL(ctx context.Context, state string) (string, error)
	ExchangeCode(ctx context.Context, code string) (auth.Token, error)
	Token(ctx context.Context) (auth.Token, error)
}

// Server is the draft sync web API. A nil authenticator or creator means the
// app registration is not configured; the endpoints then report that state
// instead of failing obscurely.
type Server struct {
	cfg     Config
	auth    Authenticator
	creator graph.DraftCreator
	states  *auth.StateStore
	audit   graph.AuditLogger
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewServer wires the HTTP routes.
func NewServer(cfg Config, authenticator Authenticator, creator graph.DraftCreator, audit graph.AuditLogger, logger *slog.Logger) *Server {
	server := &Server{
		cfg:     cfg,
		auth:    authenticator,
		creator: creator,
		states:  auth.NewStateStore(auth.DefaultStateTTL),
		audit:   audit,
		logger:  logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/outlook/auth-url", server.handleAuthURL)
	mux.HandleFunc("/api/outlook/status", server.handleStatus)
	mux.HandleFunc("/api/outlook/sync-drafts", server.handleSyncDrafts)
	mux.HandleFunc("/auth/outlook/callback", server.handleCallback)
	server.mux = mux
	return server
}

// ServeHTTP dispatches requests, applying CORS headers to the API routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if strings.HasPrefix(path, "/api/") {
		if s.applyCORS(w, r) {
			return
		}
		s.mux.ServeHTTP(w, r)
		return
	}
	if strings.HasPrefix(path, "/auth/") {
		s.mux.ServeHTTP(w, r)
		return
	}
	if path == "/health" {
		s.respondText(w, http.StatusOK, "ok")
		return
	}
	http.NotFound(w, r)
}

// applyCORS sets the CORS response headers for allowed origins and answers
// preflight requests. Returns true when the request is fully handled.
func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin != "" && s.originAllowed(origin) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.CORSOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// redirectToFrontend sends the browser back to the frontend with the sign-in
// outcome in the query string.
func (s *Server) redirectToFrontend(w http.ResponseWriter, r *http.Request, params url.Values) {
	target := s.cfg.FrontendSuccessURL
	if encoded := params.Encode(); encoded != "" {
		if strings.Contains(target, "?") {
			target += "&" + encoded
		} else {
			target += "?" + encoded
		}
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) respondText(w http.ResponseWriter, status int, payload string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(payload))
}
