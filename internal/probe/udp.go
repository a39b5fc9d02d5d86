package probe

import (
	"context"
	"encoding/binary"
	"math/rand/v2"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// connectMagic is the protocol constant identifying a connect request.
	connectMagic uint64 = 0x41727101980

	// actionConnect is the connect action code.
	actionConnect uint32 = 0

	// connectRequestSize is the fixed size of a connect request datagram.
	connectRequestSize = 16

	// minResponseSize is the minimum datagram length counting as a valid
	// connect response. Reachability only; the payload is not validated.
	minResponseSize = 8
)

// UDPChecker probes udp trackers with the BitTorrent connect handshake.
type UDPChecker struct {
	timeout time.Duration
}

// NewUDPChecker creates a UDPChecker with the given probe timeout.
func NewUDPChecker(timeout time.Duration) *UDPChecker {
	return &UDPChecker{timeout: timeout}
}

// Check sends a 16-byte connect request and waits for any response of at
// least 8 bytes. A malformed endpoint (not exactly udp://host:port with a
// numeric port) is reported dead immediately, without sending a packet.
func (c *UDPChecker) Check(ctx context.Context, endpoint string) Result {
	hostport, ok := parseTarget(endpoint)
	if !ok {
		return Result{Endpoint: endpoint}
	}

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "udp", hostport)
	if err != nil {
		return Result{Endpoint: endpoint, Latency: c.timeout}
	}
	defer func() {
		_ = conn.Close()
	}()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Result{Endpoint: endpoint, Latency: c.timeout}
	}

	start := time.Now()
	if _, err := conn.Write(connectRequest()); err != nil {
		return Result{Endpoint: endpoint, Latency: c.timeout}
	}

	buf := make([]byte, connectRequestSize)
	n, err := conn.Read(buf)
	if err != nil {
		return Result{Endpoint: endpoint, Latency: c.timeout}
	}
	elapsed := time.Since(start)

	alive := n >= minResponseSize

	return Result{
		Endpoint: endpoint,
		Alive:    alive,
		Latency:  elapsed,
		Score:    score(alive, elapsed),
	}
}

// connectRequest frames a connect request: 8-byte big-endian magic, 4-byte
// action, 4-byte transaction id. The transaction id is random per probe; the
// response is only length-checked, so it is never matched back.
func connectRequest() []byte {
	buf := make([]byte, connectRequestSize)
	binary.BigEndian.PutUint64(buf[0:8], connectMagic)
	binary.BigEndian.PutUint32(buf[8:12], actionConnect)
	binary.BigEndian.PutUint32(buf[12:16], rand.Uint32())
	return buf
}

// parseTarget extracts host:port from udp://host:port. Exactly one
// colon-separated pair with a numeric port is accepted.
func parseTarget(endpoint string) (string, bool) {
	rest, ok := strings.CutPrefix(endpoint, "udp://")
	if !ok {
		return "", false
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 2 {
		return "", false
	}
	host, port := parts[0], parts[1]
	if host == "" {
		return "", false
	}

	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return "", false
	}

	return net.JoinHostPort(host, port), true
}
