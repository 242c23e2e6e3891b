package zurg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkotenko/zurgmon/internal/domain/torrent"
)

type fakeLimiter struct{ acquired int32 }

func (f *fakeLimiter) Acquire(context.Context) error {
	atomic.AddInt32(&f.acquired, 1)
	return nil
}

func newTestClient(t *testing.T, handler http.Handler, dryRun bool) (*Client, *fakeLimiter, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	lim := &fakeLimiter{}
	c := NewClient(Config{BaseURL: srv.URL, DryRun: dryRun}, lim, zap.NewNop())
	return c, lim, srv
}

func TestListTorrents(t *testing.T) {
	var hits int32
	c, lim, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/manage/torrents.json", r.URL.Path)
		w.Write([]byte(`[
			{"hash":"aaa","name":"Movie A","state":"ok"},
			{"hash":"bbb","name":"Movie B","state":"broken"}
		]`))
	}), false)

	items, err := c.ListTorrents(context.Background())
	require.NoError(t, err)
	require.Equal(t, []torrent.Torrent{
		{Hash: "aaa", Name: "Movie A", State: "ok"},
		{Hash: "bbb", Name: "Movie B", State: "broken"},
	}, items)
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, lim.acquired)
}

func TestListTorrentsAuthErrorNotRetried(t *testing.T) {
	var hits int32
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}), false)

	_, err := c.ListTorrents(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuth(err))
	assert.EqualValues(t, 1, hits, "auth failures are structural, not retried")
}

func TestListTorrentsMalformedBodyIsProtocolError(t *testing.T) {
	var hits int32
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("<html>not json</html>"))
	}), false)

	_, err := c.ListTorrents(context.Background())
	require.Error(t, err)
	assert.True(t, IsProtocol(err))
	assert.EqualValues(t, 1, hits)
}

func TestListTorrentsServerErrorIsProtocolError(t *testing.T) {
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}), false)

	_, err := c.ListTorrents(context.Background())
	assert.True(t, IsProtocol(err))
}

func TestListTorrentsNetworkErrorRetriedTwice(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	lim := &fakeLimiter{}
	c := NewClient(Config{BaseURL: srv.URL}, lim, zap.NewNop())
	srv.Close() // every attempt now fails to connect

	_, err := c.ListTorrents(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	// Initial attempt plus two retries, each passing through the limiter.
	assert.EqualValues(t, 3, lim.acquired)
}

func TestTriggerRepair(t *testing.T) {
	var hits int32
	c, lim, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/manage/abc123/repair", r.URL.Path)
	}), false)

	require.NoError(t, c.TriggerRepair(context.Background(), "abc123"))
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, lim.acquired)
}

func TestTriggerRepairNotFound(t *testing.T) {
	var hits int32
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}), false)

	err := c.TriggerRepair(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.EqualValues(t, 1, hits, "vanished items are not retried")
}

func TestTriggerRepairDryRun(t *testing.T) {
	var hits int32
	c, lim, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
	}), true)

	require.NoError(t, c.TriggerRepair(context.Background(), "abc123"))
	assert.EqualValues(t, 0, hits, "dry run must not touch the network")
	assert.EqualValues(t, 1, lim.acquired, "dry run still consumes rate budget")
}

func TestTriggerRepairSendsBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL, Username: "admin", Password: "secret"}, &fakeLimiter{}, zap.NewNop())

	require.NoError(t, c.TriggerRepair(context.Background(), "abc"))
}

func TestPing(t *testing.T) {
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stats", r.URL.Path)
	}), false)

	require.NoError(t, c.Ping(context.Background()))
}
