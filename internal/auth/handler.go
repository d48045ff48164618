package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opsdesk/opsdesk/internal/instrumentation"
	"github.com/opsdesk/opsdesk/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// fixed user-facing messages, never carrying internal detail
const (
	msgMalformedRequest = "malformed login request"
	msgMissingCreds     = "username or password missing"
	msgWrongCredentials = "wrong credentials"
	msgInternalError    = "internal server error"
)

type loginSessions interface {
	Login(ctx context.Context, user AuthenticatedUser)
	Logout(ctx context.Context)
}

type loginResponse struct {
	Success bool               `json:"success"`
	User    *AuthenticatedUser `json:"user,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type Handler struct {
	verifier *Verifier
	sessions loginSessions
	instr    *instrumentation.Instrumentation
}

func NewHandler(
	verifier *Verifier,
	sessions loginSessions,
	instr *instrumentation.Instrumentation,
) *Handler {
	return &Handler{
		verifier: verifier,
		sessions: sessions,
		instr:    instr,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	authSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	authSubrouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")
	authSubrouter.
		HandleFunc("/login", handler.handleLoginPrompt).
		Methods("GET").Name("login-prompt")
	authSubrouter.
		HandleFunc("/logout", handler.handleLogout).
		Methods("GET", "OPTIONS").Name("logout")
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var loginReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		writeLoginError(w, msgMalformedRequest, http.StatusBadRequest)
		return
	}

	user, err := handler.verifier.Verify(r.Context(), loginReq)
	switch {
	case errors.Is(err, ErrMissingCredentials):
		writeLoginError(w, msgMissingCreds, http.StatusBadRequest)
		return
	case errors.Is(err, ErrWrongCredentials):
		ipAddr, ipErr := pkg.ReadUserIP(r)
		if ipErr != nil {
			ipAddr = r.RemoteAddr
		}
		log.Tracef("failed login attempt for user [%s] from [%s]", loginReq.Username, ipAddr)
		handler.instr.CounterFailedLogins.Inc()
		writeLoginError(w, msgWrongCredentials, http.StatusUnauthorized)
		return
	case err != nil:
		// for the operators, not for the caller
		log.Errorf("login for user [%s]: %s", loginReq.Username, err)
		writeLoginError(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	handler.sessions.Login(r.Context(), *user)
	handler.instr.CounterLogins.Inc()
	log.Tracef("new login success: %s [%s]", user.Username, user.Role)

	respBytes, err := json.Marshal(loginResponse{
		Success: true,
		User:    user,
	})
	if err != nil {
		log.Errorf("login, marshal response: %s", err)
		writeLoginError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

// handleLoginPrompt is the landing spot for guard redirects, so a browser
// arriving with GET gets an answer instead of a 405; the UI renders the
// login form on it.
func (handler *Handler) handleLoginPrompt(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSONResponseOK(w, `{"success":false,"error":"login required"}`)
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	handler.sessions.Logout(r.Context())
	log.Trace("logged out")
	pkg.WriteJSONResponseOK(w, `{"success":true}`)
}

func writeLoginError(w http.ResponseWriter, message string, statusCode int) {
	respBytes, err := json.Marshal(loginResponse{
		Success: false,
		Error:   message,
	})
	if err != nil {
		// cannot really happen for this shape, but fail closed anyway
		http.Error(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, statusCode)
}
