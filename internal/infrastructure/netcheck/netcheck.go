// Package netcheck provides the network-reachability signal consumed by
// the sync coordinator. When the remote service exposes a websocket
// health endpoint the monitor holds a heartbeat connection open and
// flips offline the moment it drops; otherwise it falls back to a
// periodic HTTP probe.
package netcheck

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// RetryConfig controls heartbeat reconnect backoff.
type RetryConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig doubles the delay per failed reconnect up to the cap.
var DefaultRetryConfig = RetryConfig{
	InitialDelay: 1 * time.Second,
	MaxDelay:     30 * time.Second,
}

const (
	pingInterval = 15 * time.Second
	pongWait     = 25 * time.Second
)

// Monitor tracks remote reachability. Online flips asynchronously; the
// coordinator treats it as advisory and still degrades on per-call
// transport errors.
type Monitor struct {
	wsURL    string
	probeURL string
	interval time.Duration
	retry    RetryConfig
	online   atomic.Bool
	client   *http.Client
	dialer   *websocket.Dialer
}

// NewMonitor builds a monitor. wsURL may be empty to use HTTP probing
// only. The monitor starts offline until the first successful contact.
func NewMonitor(wsURL, probeURL string, probeInterval time.Duration) *Monitor {
	if probeInterval <= 0 {
		probeInterval = 30 * time.Second
	}
	return &Monitor{
		wsURL:    wsURL,
		probeURL: probeURL,
		interval: probeInterval,
		retry:    DefaultRetryConfig,
		client:   &http.Client{Timeout: 5 * time.Second},
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Online reports the last observed reachability state.
func (m *Monitor) Online() bool { return m.online.Load() }

// Run blocks until ctx is cancelled, keeping the reachability state
// fresh. Callers usually run it in its own goroutine.
func (m *Monitor) Run(ctx context.Context) {
	if m.wsURL != "" {
		m.runHeartbeat(ctx)
		return
	}
	m.runProbe(ctx)
}

// runHeartbeat holds a websocket open with ping/pong, reconnecting with
// exponential backoff.
func (m *Monitor) runHeartbeat(ctx context.Context) {
	delay := m.retry.InitialDelay
	for {
		if ctx.Err() != nil {
			return
		}
		conn, _, err := m.dialer.DialContext(ctx, m.wsURL, nil)
		if err != nil {
			m.setOnline(false)
			log.Warn().Err(err).Dur("retry_in", delay).Msg("reachability heartbeat connect failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > m.retry.MaxDelay {
				delay = m.retry.MaxDelay
			}
			continue
		}

		delay = m.retry.InitialDelay
		m.setOnline(true)
		m.holdConnection(ctx, conn)
		m.setOnline(false)
	}
}

// holdConnection pumps pings and reads until the connection dies.
func (m *Monitor) holdConnection(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

// runProbe polls the HTTP health endpoint.
func (m *Monitor) runProbe(ctx context.Context) {
	m.probe(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.probeURL, nil)
	if err != nil {
		m.setOnline(false)
		return
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.setOnline(false)
		return
	}
	defer resp.Body.Close()
	m.setOnline(resp.StatusCode < 500)
}

func (m *Monitor) setOnline(v bool) {
	if m.online.Swap(v) != v {
		log.Info().Bool("online", v).Msg("reachability changed")
	}
}

// Static is a fixed reachability signal for tests and offline demos.
type Static bool

func (s Static) Online() bool { return bool(s) }
