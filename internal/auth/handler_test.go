package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opsdesk/opsdesk/internal/instrumentation"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLoginSessions struct {
	loggedIn  *AuthenticatedUser
	logouts   int
	loginsCnt int
}

func (s *testLoginSessions) Login(_ context.Context, user AuthenticatedUser) {
	s.loggedIn = &user
	s.loginsCnt++
}

func (s *testLoginSessions) Logout(_ context.Context) {
	s.loggedIn = nil
	s.logouts++
}

func setupAuthRouterForTests(t *testing.T) (*mux.Router, *testLoginSessions, *testCredentialsRepo) {
	t.Helper()

	verifier, repo := newTestVerifier(t)
	sessions := &testLoginSessions{}

	r := mux.NewRouter()
	handler := NewHandler(verifier, sessions, instrumentation.NewTestInstrumentation())
	handler.SetupRoutes(r)

	return r, sessions, repo
}

func doLogin(t *testing.T, router *mux.Router, body string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest("POST", "/a/login", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandler_login_success(t *testing.T) {
	router, sessions, _ := setupAuthRouterForTests(t)

	rr := doLogin(t, router, `{"username":"alice","password":"alice-pass"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(
		t,
		`{"success":true,"user":{"id":1,"name":"Alice A.","username":"alice","role":"ADMIN"}}`,
		rr.Body.String(),
	)
	// the secret must not appear anywhere in the response
	assert.NotContains(t, rr.Body.String(), "passwordHash")
	assert.NotContains(t, rr.Body.String(), "$2a$")

	// session mutation happens here, in the handler, not in the verifier
	require.NotNil(t, sessions.loggedIn)
	assert.Equal(t, "alice", sessions.loggedIn.Username)
	assert.Equal(t, 1, sessions.loginsCnt)
}

func TestHandler_login_malformedBody(t *testing.T) {
	router, sessions, _ := setupAuthRouterForTests(t)

	for name, body := range map[string]string{
		"empty body":     "",
		"broken json":    `{"username": "alice",`,
		"not an object":  `"alice"`,
		"arrays instead": `["alice","pass"]`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := doLogin(t, router, body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, `{"success":false,"error":"malformed login request"}`, rr.Body.String())
		})
	}
	assert.Nil(t, sessions.loggedIn)
}

func TestHandler_login_missingCredentials(t *testing.T) {
	router, sessions, _ := setupAuthRouterForTests(t)

	rr := doLogin(t, router, `{"username":"  ","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, `{"success":false,"error":"username or password missing"}`, rr.Body.String())
	assert.Nil(t, sessions.loggedIn)
}

func TestHandler_login_antiEnumeration(t *testing.T) {
	router, sessions, _ := setupAuthRouterForTests(t)

	unknownUser := doLogin(t, router, `{"username":"who-is-this","password":"alice-pass"}`)
	wrongPassword := doLogin(t, router, `{"username":"alice","password":"wrong"}`)
	deactivated := doLogin(t, router, `{"username":"former-cashier","password":"cashier-pass"}`)

	// all three rejection paths must be byte-identical
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, unknownUser.Code, wrongPassword.Code)
	assert.Equal(t, unknownUser.Code, deactivated.Code)
	assert.Equal(t, unknownUser.Body.String(), wrongPassword.Body.String())
	assert.Equal(t, unknownUser.Body.String(), deactivated.Body.String())
	assert.Equal(t, `{"success":false,"error":"wrong credentials"}`, unknownUser.Body.String())

	assert.Nil(t, sessions.loggedIn)
}

func TestHandler_login_storeFailure(t *testing.T) {
	router, sessions, repo := setupAuthRouterForTests(t)
	repo.findErr = assert.AnError

	rr := doLogin(t, router, `{"username":"alice","password":"alice-pass"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	// no internal detail leaks to the caller
	assert.Equal(t, `{"success":false,"error":"internal server error"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), assert.AnError.Error())
	assert.Nil(t, sessions.loggedIn)
}

func TestHandler_logout(t *testing.T) {
	router, sessions, _ := setupAuthRouterForTests(t)

	rr := doLogin(t, router, `{"username":"alice","password":"alice-pass"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, sessions.loggedIn)

	req, err := http.NewRequest("GET", "/a/logout", nil)
	require.NoError(t, err)
	logoutRR := httptest.NewRecorder()
	router.ServeHTTP(logoutRR, req)

	assert.Equal(t, http.StatusOK, logoutRR.Code)
	assert.Equal(t, `{"success":true}`, logoutRR.Body.String())
	assert.Nil(t, sessions.loggedIn)
	assert.Equal(t, 1, sessions.logouts)
}

// guard redirects send browsers to GET /a/login, it must answer 200
func TestHandler_login_promptOnGet(t *testing.T) {
	router, sessions, _ := setupAuthRouterForTests(t)

	req, err := http.NewRequest("GET", "/a/login", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"success":false,"error":"login required"}`, rr.Body.String())
	assert.Nil(t, sessions.loggedIn)
}

func TestHandler_login_options(t *testing.T) {
	router, _, _ := setupAuthRouterForTests(t)

	req, err := http.NewRequest("OPTIONS", "/a/login", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "POST, OPTIONS", rr.Header().Get("Allow"))
}
