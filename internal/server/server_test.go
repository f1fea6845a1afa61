package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tickboard/internal/server/handler"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestServer_RoutesAndAuth(t *testing.T) {
	srv := New(Config{Addr: "127.0.0.1:0", APIKey: "k"}, Handlers{
		Health: handler.NewHealthHandler(nil),
		WS:     func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) },
	}, nil, discard())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health is public")

	resp, err = http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/ws?token=k")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/tiles", nil)
	req.Header.Set("X-API-Key", "k")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "unmounted groups are absent")
}

func TestServer_ListenServeShutdown(t *testing.T) {
	srv := New(Config{Addr: "127.0.0.1:0"}, Handlers{Health: handler.NewHealthHandler(nil)}, nil, discard())
	ln, err := srv.Listen()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}
