package bridge

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run operates the bridge standalone: a wall-clock ticker stands in for the
// host's update loop and drives Tick. Embedded hosts skip Run entirely and
// call Start plus Tick themselves.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("starting sim-bridge", "bridge_id", b.cfg.BridgeID, "transport", b.cfg.TransportMode)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	if err := b.Start(runCtx); err != nil {
		return err
	}

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- b.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
		// Bridge terminated by itself (runtime error or parent ctx canceled).
	case sig := <-sigCh:
		b.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", b.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(b.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
			// graceful stop completed in time
		case sig2 := <-sigCh:
			b.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			b.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", b.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), b.cfg.ShutdownTimeout)
	defer cancelShutdown()
	b.shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	b.logger.Info("sim-bridge stopped")
	return nil
}

func (b *Bridge) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.runTickLoop(gctx)
	})
	g.Go(func() error {
		return b.runHealthLoop(gctx)
	})
	g.Go(func() error {
		return b.runProbeListener(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// clockDriver is implemented by event schedulers that need explicit time
// advancement (the standalone TickScheduler). Real hosts advance their own
// timers.
type clockDriver interface {
	Advance(now time.Time)
}

func (b *Bridge) runTickLoop(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.TickInterval)
	defer ticker.Stop()

	driver, _ := b.events.(clockDriver)
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if driver != nil {
				driver.Advance(now)
			}
			b.Tick(now)
		}
	}
}

func (b *Bridge) runHealthLoop(ctx context.Context) error {
	t := time.NewTicker(b.cfg.HealthInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			b.logger.Debug("bridge health", "snapshot", b.health.Snapshot())
		}
	}
}

func (b *Bridge) shutdown(ctx context.Context) {
	if err := b.tr.Close(ctx); err != nil {
		b.logger.Warn("transport close failed", "error", err)
	}
	b.health.SetTransportAvailable(false)
}
