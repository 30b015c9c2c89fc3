package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Readiness(t *testing.T) {
	var r Readiness
	h := Handler("dashboard-server", &r)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"starting","service":"dashboard-server"}`, rec.Body.String())

	r.MarkReady()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","service":"dashboard-server"}`, rec.Body.String())
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	var r Readiness
	r.MarkReady()
	rec := httptest.NewRecorder()
	Handler("svc", &r).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
}

func TestCheckOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewChecker(nil)

	res, err := c.CheckOne(context.Background(), Check{Endpoint: srv.URL + "/up", ExpectedBody: `"ok"`})
	require.NoError(t, err)
	assert.True(t, res.IsHealthy())
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = c.CheckOne(context.Background(), Check{Endpoint: srv.URL + "/up", ExpectedBody: "nope"})
	require.NoError(t, err)
	assert.False(t, res.IsHealthy())

	res, err = c.CheckOne(context.Background(), Check{Endpoint: srv.URL + "/down"})
	require.NoError(t, err)
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Contains(t, res.Message, "503")

	_, err = c.CheckOne(context.Background(), Check{})
	assert.Error(t, err)
}

func TestCheckOne_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res, err := NewChecker(nil).CheckOne(context.Background(), Check{Endpoint: url})
	require.NoError(t, err)
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Contains(t, res.Message, "request failed")
}

func TestWaitFor_BecomesReady(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, WaitFor(context.Background(), srv.URL, 5*time.Second))
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWait_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewChecker(nil).Wait(context.Background(), Check{Endpoint: srv.URL}, 200*time.Millisecond, 20*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}
