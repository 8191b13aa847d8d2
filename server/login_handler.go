package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	goerrors "errors"

	"github.com/rs/zerolog/log"

	"github.com/gradebook-hq/go-auth-bridge/auth"
	"github.com/gradebook-hq/go-auth-bridge/credentials"
	"github.com/gradebook-hq/go-auth-bridge/profiles"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Profile *profiles.Profile    `json:"profile"`
	Session *credentials.Session `json:"session"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LoginHandler handles POST /v1/login: throttle, run the reconciliation
// protocol, map the outcome to a status code.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Identifier == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "bad_request", "identifier and password are required")
			return
		}

		if s.limiter != nil && s.config.GetEnableRateLimiting() {
			if err := s.limiter.Enforce(r.Context(), req.Identifier, clientIP(r)); err != nil {
				if goerrors.Is(err, ErrLoginRateLimited) {
					writeError(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts, try again later")
					return
				}
				// Limiter outage must not lock every user out.
				log.Warn().Err(err).Msg("login limiter unavailable, skipping throttle")
			}
		}

		result, err := s.login.Login(r.Context(), req.Identifier, req.Password)
		if err != nil {
			kind := auth.KindOf(err)
			log.Warn().
				Err(err).
				Str("kind", string(kind)).
				Str("identifier", req.Identifier).
				Msg("login failed")
			writeError(w, statusForKind(kind), string(kind), messageForKind(kind))
			return
		}

		log.Info().
			Int64("profile_id", result.Profile.ID).
			Str("role", string(result.Profile.Role)).
			Int("repair_rounds", result.RepairRounds).
			Msg("login succeeded")

		writeJSON(w, http.StatusOK, loginResponse{Profile: result.Profile, Session: result.Session})
	}
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func statusForKind(kind auth.Kind) int {
	switch kind {
	case auth.KindInvalidCredentials:
		return http.StatusUnauthorized
	case auth.KindSignInFailed:
		return http.StatusBadGateway
	case auth.KindIdentityUnrecoverable:
		return http.StatusConflict
	case auth.KindProfileUnresolvable:
		return http.StatusNotFound
	case auth.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageForKind(kind auth.Kind) string {
	switch kind {
	case auth.KindInvalidCredentials:
		return "identifier or password is incorrect"
	case auth.KindSignInFailed:
		return "sign in did not complete, please try again"
	case auth.KindIdentityUnrecoverable:
		return "this account needs attention from an administrator before it can sign in"
	case auth.KindProfileUnresolvable:
		return "profile for this account could not be found, contact an administrator"
	case auth.KindServiceUnavailable:
		return "authentication service is temporarily unavailable"
	default:
		return "login failed"
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
