package server_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theblitlabs/starknet-env/internal/server"
)

func TestServer(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	srv := server.NewServer(server.Config{Addr: "127.0.0.1:0"}, handler)
	require.NoError(t, srv.Listen())

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerPortInUse(t *testing.T) {
	first := server.NewServer(server.Config{Addr: "127.0.0.1:0"}, http.NotFoundHandler())
	require.NoError(t, first.Listen())
	defer first.Stop(context.Background())

	second := server.NewServer(server.Config{Addr: first.Addr()}, http.NotFoundHandler())
	assert.Error(t, second.Listen())
}
