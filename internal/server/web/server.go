// Package web serves the public council site and the admin area over HTTP.
//
// Public pages are server-rendered from embedded templates. Everything
// under /admin goes through RequireAdmin, which opens a session gate for
// the visitor's cookie and waits a bounded time for its decision.
package web

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/logging"
	"github.com/dmitrijs2005/councilsite/internal/server/config"
	"github.com/dmitrijs2005/councilsite/internal/server/gate"
	"github.com/dmitrijs2005/councilsite/internal/server/services"
	"github.com/dmitrijs2005/councilsite/internal/server/sessions"
)

// Services bundles what the handlers call into.
type Services struct {
	Members    *services.MemberService
	Programs   *services.ProgramService
	Activities *services.ActivityService
	Profile    *services.ProfileService
	Dashboard  *services.DashboardService
	Sessions   *sessions.Store
}

type Server struct {
	address  string
	logger   logging.Logger
	services Services
	// auth backs the admin gates; it is services.Sessions outside tests.
	auth          gate.Source
	templates     templates
	csrfKey       []byte
	secureCookies bool
	gateWait      time.Duration
	// keepAlive is the interval of comment frames on the session stream.
	keepAlive time.Duration
	// stopping ends open session streams, which would otherwise hold
	// Shutdown until its deadline.
	stopping chan struct{}
}

func NewServer(cfg *config.Config, l logging.Logger, svc Services) (*Server, error) {
	key, err := csrfKey(cfg.CSRFKey)
	if err != nil {
		return nil, err
	}
	t, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	return &Server{
		address:       cfg.EndpointAddrHTTP,
		logger:        l.With("module", "http_server"),
		services:      svc,
		auth:          svc.Sessions,
		templates:     t,
		csrfKey:       key,
		secureCookies: cfg.SecureCookies,
		gateWait:      cfg.GateWaitTimeout,
		keepAlive:     15 * time.Second,
		stopping:      make(chan struct{}),
	}, nil
}

// csrfKey decodes the configured hex key, or makes a random one. A random
// key invalidates open forms on restart.
func csrfKey(hexKey string) ([]byte, error) {
	if hexKey == "" {
		return common.GenerateRandByteArray(32), nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != 32 {
		return nil, errors.New("csrf key must be 64 hex characters (32 bytes)")
	}
	return key, nil
}

// Handler returns the full middleware chain around the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /members", s.handleMembers)
	mux.HandleFunc("GET /programs/{id}", s.handleProgram)
	mux.HandleFunc("GET /activities", s.handleActivities)
	mux.HandleFunc("GET /activities/{id}", s.handleActivity)
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	// The stream keeps its own gate open and reports the loss of a session
	// instead of redirecting.
	mux.HandleFunc("GET /admin/session/events", s.handleSessionEvents)

	admin := http.NewServeMux()
	admin.HandleFunc("GET /admin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
	})
	admin.HandleFunc("GET /admin/dashboard", s.handleDashboard)
	admin.HandleFunc("GET /admin/profile", s.handleProfileForm)
	admin.HandleFunc("POST /admin/profile", s.handleProfileSave)

	admin.HandleFunc("GET /admin/members", s.handleAdminMembers)
	admin.HandleFunc("GET /admin/members/new", s.handleMemberNew)
	admin.HandleFunc("POST /admin/members", s.handleMemberCreate)
	admin.HandleFunc("GET /admin/members/{id}/edit", s.handleMemberEdit)
	admin.HandleFunc("POST /admin/members/{id}", s.handleMemberUpdate)
	admin.HandleFunc("POST /admin/members/{id}/delete", s.handleMemberDelete)

	admin.HandleFunc("GET /admin/programs", s.handleAdminPrograms)
	admin.HandleFunc("GET /admin/programs/new", s.handleProgramNew)
	admin.HandleFunc("POST /admin/programs", s.handleProgramCreate)
	admin.HandleFunc("GET /admin/programs/{id}/edit", s.handleProgramEdit)
	admin.HandleFunc("POST /admin/programs/{id}", s.handleProgramUpdate)
	admin.HandleFunc("POST /admin/programs/{id}/delete", s.handleProgramDelete)

	admin.HandleFunc("GET /admin/activities", s.handleAdminActivities)
	admin.HandleFunc("GET /admin/activities/new", s.handleActivityNew)
	admin.HandleFunc("POST /admin/activities", s.handleActivityCreate)
	admin.HandleFunc("GET /admin/activities/{id}/edit", s.handleActivityEdit)
	admin.HandleFunc("POST /admin/activities/{id}", s.handleActivityUpdate)
	admin.HandleFunc("POST /admin/activities/{id}/delete", s.handleActivityDelete)

	protected := s.RequireAdmin(admin)
	mux.Handle("/admin", protected)
	mux.Handle("/admin/", protected)

	return Chain(mux,
		RequestLogger(s.logger),
		SecurityHeaders,
		LimitBody(maxRequestBytes),
		CSRF(s.csrfKey, s.secureCookies),
	)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		close(s.stopping)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
