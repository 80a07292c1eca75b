package deploy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPoller(t *testing.T, handler http.HandlerFunc) *Poller {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPoller(Config{
		Owner:    "octo",
		Repo:     "site",
		Token:    "test-token",
		BaseURL:  srv.URL,
		Interval: time.Hour,
	})
}

func TestPollFetchesLatestBuild(t *testing.T) {
	p := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/site/pages/builds/latest", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "built",
			"commit": "abc123",
		})
	})

	status := p.Poll(context.Background())
	assert.Equal(t, "built", status.State)
	assert.Equal(t, "abc123", status.Commit)
	assert.False(t, status.CheckedAt.IsZero())
}

func TestPollSurfacesBuildError(t *testing.T) {
	p := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "errored",
			"error":  map[string]string{"message": "Jekyll build failed"},
		})
	})

	status := p.Poll(context.Background())
	assert.Equal(t, "errored", status.State)
	assert.Equal(t, "Jekyll build failed", status.Error)
}

func TestPollPagesDisabledIsUnknown(t *testing.T) {
	p := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	status := p.Poll(context.Background())
	assert.Equal(t, "unknown", status.State)
	assert.Empty(t, status.Error)
}

func TestPollFailureKeepsLastSnapshot(t *testing.T) {
	var fail atomic.Bool
	p := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "built"})
	})

	first := p.Poll(context.Background())
	require.Equal(t, "built", first.State)

	fail.Store(true)
	second := p.Poll(context.Background())
	assert.Equal(t, "built", second.State)
	assert.True(t, !second.CheckedAt.Before(first.CheckedAt))
}

func TestRunStopsOnCancel(t *testing.T) {
	p := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "built"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
