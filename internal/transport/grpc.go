package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"

	"sim-bridge/internal/model"
)

type grpcWireCodec struct{ Codec }

func (c grpcWireCodec) Name() string { return c.Codec.Name() }

// GRPCTransport exchanges envelopes over one bidirectional stream to a
// controller backend. Frames are plain envelopes encoded with the configured
// wire codec; no generated message types are involved. A send worker owns the
// connection; a receive goroutine relays incoming envelopes into the bounded
// inbound queue for the tick thread to validate.
type GRPCTransport struct {
	logger       *slog.Logger
	codec        Codec
	addr         string
	token        string
	method       string
	tlsConfig    *tls.Config
	dialTimeout  time.Duration
	pollInterval time.Duration

	mu     sync.Mutex
	conn   *grpc.ClientConn
	stream grpc.ClientStream

	outbound  chan model.Envelope
	inbound   chan model.Envelope
	results   *resultQueue
	available atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
}

func NewGRPCTransport(logger *slog.Logger, codec Codec, addr, token, method string, tlsCfg *tls.Config, pollInterval time.Duration, queueSize int) *GRPCTransport {
	encoding.RegisterCodec(grpcWireCodec{codec})
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &GRPCTransport{
		logger:       logger,
		codec:        codec,
		addr:         addr,
		token:        token,
		method:       method,
		tlsConfig:    tlsCfg,
		dialTimeout:  8 * time.Second,
		pollInterval: pollInterval,
		outbound:     make(chan model.Envelope, queueSize),
		inbound:      make(chan model.Envelope, queueSize),
		results:      newResultQueue(queueSize),
		done:         make(chan struct{}),
	}
}

func (t *GRPCTransport) Start(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	go t.runWorker(workerCtx)
	return nil
}

func (t *GRPCTransport) Send(env model.Envelope) bool {
	select {
	case t.outbound <- env:
		return true
	default:
		return false
	}
}

func (t *GRPCTransport) SendResult(env model.Envelope) bool {
	t.results.push(t.logger, env)
	return true
}

func (t *GRPCTransport) Poll() (model.Envelope, bool) {
	select {
	case env := <-t.inbound:
		return env, true
	default:
		return model.Envelope{}, false
	}
}

func (t *GRPCTransport) Available() bool {
	return t.available.Load()
}

func (t *GRPCTransport) Close(ctx context.Context) error {
	if t.cancel != nil {
		t.cancel()
	}
	select {
	case <-t.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stream != nil {
		_ = t.stream.CloseSend()
		t.stream = nil
	}
	if t.conn != nil {
		err := t.conn.Close()
		t.conn = nil
		return err
	}
	return nil
}

func (t *GRPCTransport) runWorker(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.results.flush(func(env model.Envelope) error { return t.send(ctx, env) })
			return
		case env := <-t.outbound:
			if err := t.send(ctx, env); err != nil {
				t.logger.Warn("grpc send failed, dropping envelope", "kind", env.Kind, "error", err)
				t.available.Store(false)
			} else {
				t.available.Store(true)
			}
		case <-ticker.C:
			if err := t.ensureStream(ctx); err != nil {
				t.available.Store(false)
				continue
			}
			t.available.Store(true)
			t.results.flush(func(env model.Envelope) error { return t.send(ctx, env) })
		}
	}
}

func (t *GRPCTransport) send(ctx context.Context, env model.Envelope) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureStreamLocked(ctx); err != nil {
		return err
	}
	if err := t.stream.SendMsg(&env); err != nil {
		t.logger.Warn("grpc send failed, reopening stream", "error", err)
		t.stream = nil
		if err2 := t.ensureStreamLocked(ctx); err2 != nil {
			return fmt.Errorf("reopen stream: %w", err2)
		}
		if err2 := t.stream.SendMsg(&env); err2 != nil {
			return fmt.Errorf("send envelope: %w", err2)
		}
	}
	return nil
}

func (t *GRPCTransport) ensureStream(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ensureStreamLocked(ctx)
}

func (t *GRPCTransport) ensureStreamLocked(ctx context.Context) error {
	if err := t.ensureConnLocked(ctx); err != nil {
		return err
	}
	if t.stream != nil {
		return nil
	}
	desc := &grpc.StreamDesc{ClientStreams: true, ServerStreams: true}
	s, err := t.conn.NewStream(t.decorateContext(ctx), desc, t.method)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	t.stream = s
	go t.recvLoop(ctx, s)
	t.logger.Info("grpc stream connected", "addr", t.addr)
	return nil
}

func (t *GRPCTransport) ensureConnLocked(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, t.dialTimeout)
	defer cancel()

	var creds credentials.TransportCredentials
	if t.tlsConfig != nil {
		creds = credentials.NewTLS(t.tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.DialContext(
		dialCtx,
		t.addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(grpcWireCodec{t.codec}), grpc.CallContentSubtype(t.codec.Name())),
	)
	if err != nil {
		return fmt.Errorf("grpc dial %s: %w", t.addr, err)
	}
	t.conn = conn
	return nil
}

// recvLoop relays controller envelopes from one stream into the inbound
// queue. It exits when the stream breaks; the next worker pass reopens the
// stream and starts a fresh loop.
func (t *GRPCTransport) recvLoop(ctx context.Context, s grpc.ClientStream) {
	for {
		var env model.Envelope
		if err := s.RecvMsg(&env); err != nil {
			if ctx.Err() == nil {
				t.logger.Warn("grpc receive failed", "error", err)
			}
			t.mu.Lock()
			if t.stream == s {
				t.stream = nil
			}
			t.mu.Unlock()
			return
		}
		select {
		case t.inbound <- env:
		case <-ctx.Done():
			return
		}
	}
}

func (t *GRPCTransport) decorateContext(ctx context.Context) context.Context {
	out := context.WithoutCancel(ctx)
	if t.token != "" {
		out = metadata.AppendToOutgoingContext(out, "authorization", "Bearer "+t.token)
	}
	return out
}
