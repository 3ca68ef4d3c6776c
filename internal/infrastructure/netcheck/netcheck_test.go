package netcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStatic(t *testing.T) {
	if !Static(true).Online() {
		t.Error("Static(true) must report online")
	}
	if Static(false).Online() {
		t.Error("Static(false) must report offline")
	}
}

func TestProbeFlipsOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMonitor("", srv.URL, time.Hour)
	if m.Online() {
		t.Fatal("monitor must start offline")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for !m.Online() {
		if time.Now().After(deadline) {
			t.Fatal("probe never flipped online")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
}

func TestProbeStaysOfflineOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewMonitor("", srv.URL, time.Hour)
	m.probe(context.Background())
	if m.Online() {
		t.Error("5xx health response must count as offline")
	}
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	m := NewMonitor("", srv.URL, time.Hour)
	m.online.Store(true)
	m.probe(context.Background())
	if m.Online() {
		t.Error("unreachable endpoint must flip offline")
	}
}
