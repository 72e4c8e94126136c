package signaling

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/huddlekit/signaling/internal/config"
)

// A connection that only listens must be kept alive by server pings: the
// dialer's default ping handler answers with pongs, which reset the server's
// idle deadline.
func TestServerPingsKeepIdleConnectionAlive(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.WSIdleTimeout = 300 * time.Millisecond
		cfg.WSPingInterval = 100 * time.Millisecond
	})

	conn := dialWS(t, ts)

	// Read for several idle periods. The only acceptable outcome is our own
	// client-side deadline expiring; a server-side close would surface as a
	// close or EOF error instead.
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, _, err := conn.ReadMessage()
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("read error = %v, want client-side timeout", err)
	}
}

// A peer that answers nothing, not even pongs, is dropped once the idle
// deadline passes.
func TestUnresponsivePeerIsDropped(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.WSIdleTimeout = 200 * time.Millisecond
		cfg.WSPingInterval = 50 * time.Millisecond
	})

	conn := dialWS(t, ts)
	// Suppress the automatic pong replies.
	conn.SetPingHandler(func(string) error { return nil })

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				t.Fatal("server kept unresponsive connection open")
			}
			return
		}
	}
}
