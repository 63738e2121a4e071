package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// runProbeListener serves a plain-TCP liveness probe. The reply carries the
// transport state so an external check can distinguish "process up" from
// "controller reachable" without parsing logs.
func (b *Bridge) runProbeListener(ctx context.Context) error {
	addr := strings.TrimSpace(b.cfg.ProbeListenAddr)
	if addr == "" {
		// Embedded hosts disable the probe; liveness is the host's concern.
		b.logger.Info("probe endpoint disabled")
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen probe endpoint %s: %w", addr, err)
	}
	defer func() { _ = ln.Close() }()

	b.logger.Info("probe endpoint listening", "addr", addr)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			if ctx.Err() != nil || errors.Is(acceptErr, net.ErrClosed) {
				return nil
			}
			if ne, ok := acceptErr.(net.Error); ok && ne.Temporary() {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return fmt.Errorf("accept probe endpoint %s: %w", addr, acceptErr)
		}
		b.answerProbe(conn)
	}
}

func (b *Bridge) answerProbe(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	state := "detached"
	if b.health.TransportAvailable() {
		state = "attached"
	}
	_, _ = fmt.Fprintf(conn, "sim-bridge:ok transport=%s\n", state)
}
