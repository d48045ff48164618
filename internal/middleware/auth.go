package middleware

import (
	"net/http"

	"github.com/opsdesk/opsdesk/internal/instrumentation"
	"github.com/opsdesk/opsdesk/internal/session"

	log "github.com/sirupsen/logrus"
)

const LoginPath = "/a/login"

type sessionReader interface {
	Current() session.Snapshot
}

// AccessGuardHandler gates every protected path behind the session store.
// The store is consulted on each request, so a logout is observed by the
// very next navigation, nothing is cached here.
type AccessGuardHandler struct {
	sessions     sessionReader
	instr        *instrumentation.Instrumentation
	allowedPaths map[string]bool
}

func NewAccessGuardHandler(
	sessions sessionReader,
	instr *instrumentation.Instrumentation,
) *AccessGuardHandler {
	return &AccessGuardHandler{
		sessions: sessions,
		instr:    instr,
		allowedPaths: map[string]bool{
			"/":        true,
			"/version": true,
			"/health":  true,

			// login-logout:
			"/a/login":  true,
			"/a/logout": true,
		},
	}
}

func (h *AccessGuardHandler) Guard() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				return
			}

			if h.allowedPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			decision := session.Decide(h.sessions.Current(), LoginPath)
			if !decision.Allow {
				log.Tracef("[access guard] not authenticated => %s", r.URL.Path)
				if h.instr != nil {
					h.instr.CounterGuardRedirects.Inc()
				}
				http.Redirect(w, r, decision.RedirectTarget, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
