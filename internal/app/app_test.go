package app

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/happyhours/orderhub/internal/config"
)

func testConfig(port int) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", HTTPPort: port},
		Database: config.DatabaseConfig{Path: ":memory:"},
		Auth:     config.AuthConfig{Secret: "test-secret", TokenExpirySecs: 3600},
		Orders:   config.OrdersConfig{RateLimitPerMinute: 100},
		Logging:  config.LoggingConfig{Level: "error", Format: "json"},
	}
}

func TestAppStartAndShutdown(t *testing.T) {
	port := 38751
	application, err := New(testConfig(port), "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- application.Start(ctx)
	}()

	// Wait for the HTTP surface to come up.
	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	deadline := time.Now().Add(5 * time.Second)
	var up bool
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				up = true
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !up {
		cancel()
		t.Fatal("health endpoint never came up")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned error on shutdown: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("shutdown timed out")
	}
}

func TestAppRejectsDoubleStart(t *testing.T) {
	port := 38752
	application, err := New(testConfig(port), "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- application.Start(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := application.Start(ctx); err == nil {
		t.Error("second Start must report an error while running")
	}
}
