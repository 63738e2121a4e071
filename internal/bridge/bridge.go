// Package bridge synchronizes host state with an external controller. The
// host drives Tick from its own update loop; nothing here ever blocks it.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"sim-bridge/internal/config"
	"sim-bridge/internal/extract"
	"sim-bridge/internal/host"
	"sim-bridge/internal/model"
	"sim-bridge/internal/transport"
)

type Bridge struct {
	cfg      config.Config
	logger   *slog.Logger
	tr       transport.Transport
	src      host.StateSource
	commands host.CommandSurface
	events   host.EventScheduler

	registry  *extract.Registry
	assembler *extract.Assembler
	seq       *Sequencer
	tracker   *Tracker
	deferred  *DeferredScheduler
	health    *HealthStatus

	startedAt       time.Time
	lastSnapshotAt  time.Time
	lastHeartbeatAt time.Time
	lastDeckAt      time.Time
}

func New(cfg config.Config, logger *slog.Logger, tr transport.Transport, src host.StateSource, commands host.CommandSurface, events host.EventScheduler) (*Bridge, error) {
	delays, err := config.LoadSettleDelays(cfg.SettleDelaysPath)
	if err != nil {
		return nil, fmt.Errorf("settle delays: %w", err)
	}

	registry := extract.NewRegistry(logger)
	extract.RegisterStandard(registry, src)
	assembler := extract.NewAssembler(logger, registry, extract.NewCoreReader(src))

	b := &Bridge{
		cfg:       cfg,
		logger:    logger,
		tr:        tr,
		src:       src,
		commands:  commands,
		events:    events,
		registry:  registry,
		assembler: assembler,
		seq:       NewSequencer(),
		tracker:   NewTracker(logger, cfg.ActionTimeout),
		health:    NewHealthStatus(),
	}
	b.deferred = NewDeferredScheduler(logger, events, delays, b.onSettled)
	return b, nil
}

// Registry exposes the extraction registry so hosts can plug in extractors
// beyond the standard set.
func (b *Bridge) Registry() *extract.Registry {
	return b.registry
}

// Health exposes the bridge's health status.
func (b *Bridge) Health() *HealthStatus {
	return b.health
}

// Start brings up the transport. The host then drives Tick from its own
// update loop, or Run drives it for the standalone runner.
func (b *Bridge) Start(ctx context.Context) error {
	b.startedAt = time.Now()
	if err := b.tr.Start(ctx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}
	return nil
}

// Tick is the bridge's entire per-update work: timeout recovery, polling the
// controller, and periodic publications. now is host-simulated time. Tick
// never blocks; every transport interaction is a non-blocking queue
// operation.
func (b *Bridge) Tick(now time.Time) {
	if b.tracker.Tick(now) {
		b.health.MarkRecovery()
	}

	available := b.tr.Available()
	b.health.SetTransportAvailable(available)
	if !available {
		return
	}

	b.pollActions(now)

	if now.Sub(b.lastSnapshotAt) >= b.cfg.SnapshotInterval {
		b.publishSnapshot(now)
		b.lastSnapshotAt = now
	}
	if now.Sub(b.lastHeartbeatAt) >= b.cfg.HeartbeatInterval {
		b.publishHeartbeat(now)
		b.lastHeartbeatAt = now
	}
	if now.Sub(b.lastDeckAt) >= b.cfg.DeckSyncInterval {
		b.publishDeck(now)
		b.lastDeckAt = now
	}
}

func (b *Bridge) pollActions(now time.Time) {
	for i := 0; i < b.cfg.PollBudget; i++ {
		env, ok := b.tr.Poll()
		if !ok {
			return
		}
		if env.Kind != model.KindActionRequest {
			b.logger.Debug("ignoring incoming envelope", "kind", env.Kind)
			continue
		}
		// Stale or duplicate delivery: discard silently, no second result.
		if !b.seq.AcceptIncoming(env.Sequence) {
			continue
		}
		var req model.ActionRequest
		if err := model.DecodePayload(env.Payload, &req); err != nil {
			b.logger.Warn("undecodable action request", "sequence", env.Sequence, "error", err)
			continue
		}
		if req.Sequence == 0 {
			req.Sequence = env.Sequence
		}
		if !b.tracker.TryAdmit(env.Sequence, now) {
			b.logger.Warn("action rejected, another in flight", "sequence", env.Sequence, "action", req.Action)
			continue
		}
		b.health.MarkAction(now)
		if err := b.applyAction(req); err != nil {
			b.logger.Warn("action failed", "sequence", env.Sequence, "action", req.Action, "error", err)
			b.emitResult(env.Sequence, false, err.Error(), nil, now)
			b.tracker.Complete(env.Sequence)
			continue
		}
		// Let the host settle before capturing the resulting snapshot.
		b.deferred.Schedule(req.Action, env.Sequence, true, now)
	}
}

// applyAction invokes the host command surface inside a recover boundary: a
// panicking action must degrade to a failed result, never reach the host's
// tick loop.
func (b *Bridge) applyAction(req model.ActionRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panic: %v", r)
		}
	}()
	return b.commands.Apply(req.Action, req.Params)
}

// onSettled is the deferred scheduler's callback: capture a snapshot at the
// host's fire time and route it with the pending action's sequence if that
// action is still outstanding, otherwise as an unsolicited status update.
func (b *Bridge) onSettled(task *DeferredTask, firedAt time.Time) bool {
	snap := b.assembler.Assemble(firedAt)
	if task.Correlated {
		if seq, ok := b.tracker.Pending(); ok && seq == task.PendingSeq {
			delivered := b.emitResult(task.PendingSeq, true, "", &snap, firedAt)
			b.tracker.Complete(task.PendingSeq)
			b.health.MarkSnapshot(firedAt)
			return delivered
		}
		// The pending action was force-cleared before the host settled; the
		// fresh state still goes out, just uncorrelated.
	}
	env := b.newEnvelope(model.KindStatusUpdate, snap, firedAt)
	return b.tr.Send(env)
}

func (b *Bridge) publishSnapshot(now time.Time) {
	snap := b.assembler.Assemble(now)
	env := b.newEnvelope(model.KindSnapshot, snap, now)
	if b.tr.Send(env) {
		b.health.MarkSnapshot(now)
		return
	}
	// Dropped snapshots are not retried; the next tick produces a fresher one.
	b.health.MarkDroppedSnapshot()
}

func (b *Bridge) publishHeartbeat(now time.Time) {
	hb := model.Heartbeat{
		Version:      b.cfg.BridgeVersion,
		UptimeMillis: time.Since(b.startedAt).Milliseconds(),
	}
	env := b.newEnvelope(model.KindHeartbeat, hb, now)
	_ = b.tr.Send(env)
}

func (b *Bridge) publishDeck(now time.Time) {
	manifest, err := extract.BuildDeckManifest(b.src, now)
	if err != nil {
		b.logger.Warn("deck manifest build failed", "error", err)
		return
	}
	env := b.newEnvelope(model.KindDeckManifest, manifest, now)
	_ = b.tr.Send(env)
}

func (b *Bridge) emitResult(seq uint64, success bool, errMsg string, snap *model.Snapshot, now time.Time) bool {
	res := model.ActionResult{Sequence: seq, Success: success, Error: errMsg, Snapshot: snap}
	env := b.newEnvelope(model.KindActionResult, res, now)
	return b.tr.SendResult(env)
}

func (b *Bridge) newEnvelope(kind model.Kind, payload any, now time.Time) model.Envelope {
	return model.Envelope{
		Kind:      kind,
		Sequence:  b.seq.NextOutgoing(),
		MessageID: uuid.New().String(),
		Source:    b.cfg.BridgeID,
		Timestamp: now,
		Payload:   payload,
	}
}

func BuildLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, hOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, hOpts))
}
