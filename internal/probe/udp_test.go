package probe_test

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracknest/trackersync/internal/probe"
)

// startUDPResponder listens on loopback and answers each datagram with
// responseSize bytes. It hands every received request to inspect.
func startUDPResponder(t *testing.T, responseSize int, inspect func([]byte)) string {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	go func() {
		buf := make([]byte, 64)
		for {
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			if inspect != nil {
				inspect(append([]byte(nil), buf[:n]...))
			}
			_, _ = conn.WriteTo(make([]byte, responseSize), addr)
		}
	}()

	return "udp://" + conn.LocalAddr().String()
}

func TestUDPCheckerAlive(t *testing.T) {
	t.Parallel()

	requests := make(chan []byte, 1)
	endpoint := startUDPResponder(t, 16, func(req []byte) {
		select {
		case requests <- req:
		default:
		}
	})

	checker := probe.NewUDPChecker(2 * time.Second)

	result := checker.Check(t.Context(), endpoint)

	assert.True(t, result.Alive)
	assert.Greater(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 1.0)
	assert.Less(t, result.Latency, 2*time.Second)

	select {
	case req := <-requests:
		require.Len(t, req, 16)
		assert.Equal(t, uint64(0x41727101980), binary.BigEndian.Uint64(req[0:8]))
		assert.Equal(t, uint32(0), binary.BigEndian.Uint32(req[8:12]))
	case <-time.After(2 * time.Second):
		t.Fatal("responder never received a connect request")
	}
}

func TestUDPCheckerShortResponse(t *testing.T) {
	t.Parallel()

	endpoint := startUDPResponder(t, 4, nil)

	checker := probe.NewUDPChecker(2 * time.Second)

	result := checker.Check(t.Context(), endpoint)

	assert.False(t, result.Alive)
	assert.Zero(t, result.Score)
}

func TestUDPCheckerTimeout(t *testing.T) {
	t.Parallel()

	// Listener that never answers.
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()

	checker := probe.NewUDPChecker(200 * time.Millisecond)

	result := checker.Check(t.Context(), "udp://"+conn.LocalAddr().String())

	assert.False(t, result.Alive)
	assert.Zero(t, result.Score)
	assert.Equal(t, 200*time.Millisecond, result.Latency)
}

func TestUDPCheckerMalformedEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "no colon", endpoint: "udp://bad"},
		{name: "port not numeric", endpoint: "udp://host:notaport"},
		{name: "announce path glued to port", endpoint: "udp://host:80/announce"},
		{name: "too many colons", endpoint: "udp://host:80:90"},
		{name: "empty host", endpoint: "udp://:80"},
		{name: "port zero", endpoint: "udp://host:0"},
		{name: "port out of range", endpoint: "udp://host:70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			checker := probe.NewUDPChecker(2 * time.Second)

			start := time.Now()
			result := checker.Check(t.Context(), tt.endpoint)

			assert.False(t, result.Alive)
			assert.Zero(t, result.Score)
			assert.Zero(t, result.Latency)
			// Rejected before any network activity.
			assert.Less(t, time.Since(start), 100*time.Millisecond)
		})
	}
}
