// Package session tracks packet statistics and frame sequence gaps over one
// diagnostic session.
//
// A Tracker has a single owner and is not safe for concurrent use. The
// lifecycle is New, any number of Observe calls and finally one Finalize.
//
// Frame counter resets are not detected: a frame id lower than the previous
// one replaces the last seen id without a drop notice.
package session

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/niktheblak/motion-probe/pkg/motion"
)

// Recorder receives tracker events, typically to export them as metrics
type Recorder interface {
	Packet(frameID uint64)
	DecodeError()
	Dropped(frames uint64)
}

type Config struct {
	Logger   *slog.Logger
	Recorder Recorder
}

// Stats are the running statistics of a session
type Stats struct {
	PacketsReceived uint64
	DecodeErrors    uint64
	LastFrameID     uint64
	FrameSeen       bool
	DroppedFrames   uint64
}

// Observation is the outcome of one received payload. Err is nil when the
// payload was decoded into Sample.
type Observation struct {
	Sample  motion.Sample
	Dropped uint64
	Raw     []byte
	Err     error
}

// Summary is the final report of a session
type Summary struct {
	PacketsReceived uint64
	DecodeErrors    uint64
	DroppedFrames   uint64
	Elapsed         time.Duration
	Rate            float64
	OK              bool
}

type Tracker struct {
	stats    Stats
	recorder Recorder
	logger   *slog.Logger
}

func New(cfg Config) *Tracker {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	return &Tracker{
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}
}

// Observe decodes raw and updates the statistics
func (t *Tracker) Observe(raw []byte) Observation {
	s, err := motion.Decode(raw)
	if err != nil {
		t.stats.DecodeErrors++
		t.recorder.DecodeError()
		t.logger.LogAttrs(context.Background(), slog.LevelDebug, "Decode failed", slog.Int("bytes", len(raw)), slog.Any("error", err))
		return Observation{Raw: raw, Err: err}
	}
	var dropped uint64
	if t.stats.FrameSeen && s.FrameID > t.stats.LastFrameID && s.FrameID-t.stats.LastFrameID > 1 {
		dropped = s.FrameID - t.stats.LastFrameID - 1
		t.stats.DroppedFrames += dropped
		t.recorder.Dropped(dropped)
		t.logger.LogAttrs(context.Background(), slog.LevelDebug, "Frames dropped",
			slog.Uint64("previous", t.stats.LastFrameID),
			slog.Uint64("current", s.FrameID),
			slog.Uint64("dropped", dropped),
		)
	}
	t.stats.LastFrameID = s.FrameID
	t.stats.FrameSeen = true
	t.stats.PacketsReceived++
	t.recorder.Packet(s.FrameID)
	return Observation{Sample: s, Dropped: dropped, Raw: raw}
}

// Stats returns a copy of the current statistics
func (t *Tracker) Stats() Stats {
	return t.stats
}

// Finalize summarizes the session. The rate is zero when elapsed is not positive.
func (t *Tracker) Finalize(elapsed time.Duration) Summary {
	var rate float64
	if elapsed > 0 {
		rate = float64(t.stats.PacketsReceived) / elapsed.Seconds()
	}
	return Summary{
		PacketsReceived: t.stats.PacketsReceived,
		DecodeErrors:    t.stats.DecodeErrors,
		DroppedFrames:   t.stats.DroppedFrames,
		Elapsed:         elapsed,
		Rate:            rate,
		OK:              t.stats.PacketsReceived > 0,
	}
}

type nopRecorder struct{}

func (nopRecorder) Packet(uint64)  {}
func (nopRecorder) DecodeError()   {}
func (nopRecorder) Dropped(uint64) {}
