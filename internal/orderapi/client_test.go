package orderapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yalgud-dairy/orders-admin/internal/domain"
)

// stubUpstream serves the order API surface the client talks to.
func stubUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/api/orders/Status/{status}", handler).Methods(http.MethodGet)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchByStatusSuccess(t *testing.T) {
	srv := stubUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Accepted", mux.Vars(r)["status"])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[{"_id":"o1"},{"_id":"o2"}]}`))
	})

	c := New(srv.URL+"/api", 5*time.Second)
	raws, err := c.FetchByStatus(context.Background(), domain.StatusAccepted)
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, "o1", raws[0]["_id"])
}

func TestFetchByStatusHTTPErrorIncludesBody(t *testing.T) {
	srv := stubUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	c := New(srv.URL+"/api", 5*time.Second)
	_, err := c.FetchByStatus(context.Background(), domain.StatusAccepted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestFetchByStatusApplicationFailureFlag(t *testing.T) {
	srv := stubUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"orders unavailable"}`))
	})

	c := New(srv.URL+"/api", 5*time.Second)
	_, err := c.FetchByStatus(context.Background(), domain.StatusAccepted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders unavailable")
}

func TestFetchByStatusSupersededByNewerFetch(t *testing.T) {
	var requests atomic.Int32
	srv := stubUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			// First request hangs until its context is cancelled.
			<-r.Context().Done()
			return
		}
		w.Write([]byte(`{"success":true,"data":[]}`))
	})

	c := New(srv.URL+"/api", 5*time.Second)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = c.FetchByStatus(context.Background(), domain.StatusAccepted)
	}()

	// Let the first request reach the stub, then supersede it.
	time.Sleep(50 * time.Millisecond)
	_, secondErr := c.FetchByStatus(context.Background(), domain.StatusAccepted)
	wg.Wait()

	require.NoError(t, secondErr)
	assert.True(t, errors.Is(firstErr, ErrSuperseded), "first fetch should report supersession, got %v", firstErr)
}

func TestFetchByStatusSupersededWhileReadingBody(t *testing.T) {
	var requests atomic.Int32
	srv := stubUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			// First response stalls after a partial body, so cancellation
			// hits the client mid-read rather than before headers.
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"success":true,`))
			w.(http.Flusher).Flush()
			<-r.Context().Done()
			return
		}
		w.Write([]byte(`{"success":true,"data":[]}`))
	})

	c := New(srv.URL+"/api", 5*time.Second)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = c.FetchByStatus(context.Background(), domain.StatusAccepted)
	}()

	time.Sleep(50 * time.Millisecond)
	_, secondErr := c.FetchByStatus(context.Background(), domain.StatusAccepted)
	wg.Wait()

	require.NoError(t, secondErr)
	assert.True(t, errors.Is(firstErr, ErrSuperseded), "interrupted body read should report supersession, got %v", firstErr)
}

func TestFetchByStatusCallerCancelIsNotSupersession(t *testing.T) {
	srv := stubUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	c := New(srv.URL+"/api", 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := c.FetchByStatus(ctx, domain.StatusAccepted)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSuperseded))
	assert.True(t, errors.Is(err, context.Canceled))
}
