package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRequest_logsCallerIP(t *testing.T) {
	logHook := logrustest.NewGlobal()
	defer logHook.Reset()
	prevLevel := log.GetLevel()
	log.SetLevel(log.TraceLevel)
	defer log.SetLevel(prevLevel)

	handler := LogRequest()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/crm/clients/page/1/size/10", nil)
	req.RemoteAddr = "83.12.53.65:2145"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, logHook.Entries)

	lastEntry := logHook.LastEntry()
	assert.Contains(t, lastEntry.Message, "83.12.53.65")
	assert.Contains(t, lastEntry.Message, "/crm/clients/page/1/size/10")
}
