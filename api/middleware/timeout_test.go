package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutLetsFastHandlersThrough(t *testing.T) {
	handler := Timeout(time.Second, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestTimeoutWritesGatewayTimeout(t *testing.T) {
	release := make(chan struct{})
	handler := Timeout(20*time.Millisecond, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	close(release)

	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
	payload := decodeErrorEnvelope(t, rr)
	assert.Equal(t, "TIMEOUT", payload.Code)
	assert.Equal(t, http.StatusGatewayTimeout, payload.StatusCode)
}

func TestTimeoutShieldsResponseFromLateWrites(t *testing.T) {
	finished := make(chan struct{})
	handler := Timeout(10*time.Millisecond, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(finished)
		<-r.Context().Done()
		for i := 0; i < 100; i++ {
			w.Header().Set("X-Late", "true")
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("late body"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	<-finished

	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
	assert.Empty(t, rr.Header().Get("X-Late"))
	assert.NotContains(t, rr.Body.String(), "late body")
	payload := decodeErrorEnvelope(t, rr)
	assert.Equal(t, "TIMEOUT", payload.Code)
}

func TestTimeoutDisabledWhenZero(t *testing.T) {
	handler := Timeout(0, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}
