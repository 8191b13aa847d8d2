package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gradebook-hq/go-auth-bridge/auth"
	"github.com/gradebook-hq/go-auth-bridge/internal/config"
)

type Server struct {
	env     string
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	login   *auth.LoginService
	limiter *LoginLimiter
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithLoginLimiter attaches a Redis-backed login attempt limiter. Without it
// login requests are not throttled.
func WithLoginLimiter(limiter *LoginLimiter) Option {
	return func(s *Server) {
		s.limiter = limiter
	}
}

func New(cfg config.Config, stores auth.Stores, options ...Option) (*Server, error) {
	loginService, err := auth.NewLoginService(stores,
		auth.WithBackoffSchedule(cfg.GetBackoffSchedule()),
		auth.WithRepairBudget(cfg.GetRepairRounds()),
		auth.WithLoginDomain(cfg.GetLoginDomain()),
	)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create login service: %w", err)
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		login:  loginService,
	}
	s.env = cfg.GetEnv()

	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
		} else {
			log.Info().Str("path", parts[0]).Msg("route registered")
		}
	}
}
