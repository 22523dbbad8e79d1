//go:build integration

package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/mbd888/guardian/internal/testutil"
)

// A database-backed server must flip to ready and shut down gracefully.
// The DB stats collector runs off Run's context; it must never stall the
// run loop itself.
func TestRun_DatabaseBackedReadinessAndShutdown(t *testing.T) {
	dsn, cleanup := testutil.PGContainerDSN(t)
	defer cleanup()

	cfg := testConfig()
	cfg.Port = "18231"
	cfg.DatabaseURL = dsn

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	readyURL := "http://127.0.0.1:" + cfg.Port + "/health/ready"
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := http.Get(readyURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("server never became ready")
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
