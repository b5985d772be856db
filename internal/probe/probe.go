// Package probe runs a single motion probe session.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/niktheblak/motion-probe/internal/receiver"
	"github.com/niktheblak/motion-probe/internal/session"
)

var ErrNoPackets = errors.New("no motion packets received")

// Source delivers raw datagrams. Receive returns receiver.ErrTimeout when no
// data arrived within its wait window.
type Source interface {
	Receive(ctx context.Context) ([]byte, error)
}

type Printer interface {
	Observation(o session.Observation)
	Timeout()
	Summary(s session.Summary)
}

type TimeoutRecorder interface {
	Timeout()
}

type Config struct {
	Source   Source
	Tracker  *session.Tracker
	Printer  Printer
	Duration time.Duration
	Logger   *slog.Logger
	Metrics  TimeoutRecorder
}

// Run receives until the duration elapses or ctx is cancelled, then prints and
// returns the session summary. It returns ErrNoPackets along with the summary
// if nothing was decoded. A receive error other than a timeout ends the
// session early and is returned after the summary has been printed.
func Run(ctx context.Context, cfg Config) (session.Summary, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Tracker == nil {
		cfg.Tracker = session.New(session.Config{Logger: cfg.Logger})
	}
	start := time.Now()
	sessionCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()
	var recvErr error
loop:
	for sessionCtx.Err() == nil {
		data, err := cfg.Source.Receive(sessionCtx)
		switch {
		case err == nil:
			cfg.Printer.Observation(cfg.Tracker.Observe(data))
		case errors.Is(err, receiver.ErrTimeout):
			cfg.Printer.Timeout()
			if cfg.Metrics != nil {
				cfg.Metrics.Timeout()
			}
		case sessionCtx.Err() != nil:
		default:
			cfg.Logger.LogAttrs(ctx, slog.LevelError, "Receive failed", slog.Any("error", err))
			recvErr = fmt.Errorf("receive: %w", err)
			break loop
		}
	}
	if ctx.Err() != nil {
		cfg.Logger.LogAttrs(ctx, slog.LevelInfo, "Session interrupted", slog.Duration("elapsed", time.Since(start)))
	}
	summary := cfg.Tracker.Finalize(time.Since(start))
	cfg.Printer.Summary(summary)
	cfg.Logger.LogAttrs(ctx, slog.LevelDebug, "Session finished",
		slog.Uint64("packets", summary.PacketsReceived),
		slog.Uint64("decode_errors", summary.DecodeErrors),
		slog.Uint64("dropped_frames", summary.DroppedFrames),
		slog.Float64("rate", summary.Rate),
	)
	if recvErr != nil {
		return summary, recvErr
	}
	if !summary.OK {
		return summary, ErrNoPackets
	}
	return summary, nil
}
