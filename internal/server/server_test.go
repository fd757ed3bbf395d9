package server_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"snaplink/internal/server"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, "127.0.0.1:0", http.NewServeMux(), zerolog.Nop())
	}()

	// Let the listener come up, then cancel as a signal handler would
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

func TestRunReturnsListenError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, "127.0.0.1:-1", http.NewServeMux(), zerolog.Nop())
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not surface the listen error")
	}
}
