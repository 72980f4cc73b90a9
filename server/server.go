// Package server exposes the authentication flows and the session audit
// administration endpoints over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-audit/audit"
	"github.com/jrsteele09/go-session-audit/auth"
	"github.com/jrsteele09/go-session-audit/internal/config"
	"github.com/jrsteele09/go-session-audit/token"
	"github.com/jrsteele09/go-session-audit/users"
	"github.com/rs/zerolog/log"
)

// Services holds everything the HTTP layer delegates to.
type Services struct {
	Users    users.UserRepo
	Issuer   *token.Issuer
	Auth     *auth.Service
	Query    *audit.QueryService
	Deletion *audit.DeletionService
	Health   func(ctx context.Context) error // optional store liveness check
}

type Server struct {
	env         string
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	services    Services
	rateLimiter func(http.Handler) http.Handler
}

func New(cfg config.Config, services Services) (*Server, error) {
	if services.Users == nil || services.Issuer == nil || services.Auth == nil ||
		services.Query == nil || services.Deletion == nil {
		return nil, fmt.Errorf("[Server New] users, issuer, auth, query and deletion services are required")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		services: services,
	}
	s.rateLimiter = s.newRateLimiter()

	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Debug().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}
