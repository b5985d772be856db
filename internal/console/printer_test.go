package console

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/niktheblak/motion-probe/internal/session"
	"github.com/niktheblak/motion-probe/pkg/motion"
)

func newTestPrinter() (*Printer, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	return New(Config{Out: buf, Location: time.UTC, Service: "sdmotion", Port: 27760}), buf
}

func TestObservation(t *testing.T) {
	t.Parallel()

	t.Run("sample", func(t *testing.T) {
		t.Parallel()

		p, buf := newTestPrinter()
		p.Observation(session.Observation{
			Sample: motion.Sample{
				Timestamp: 1607602239123456,
				FrameID:   42,
				Accel:     motion.Accel{X: 0.0123, Y: -0.5, Z: 0.98765},
				Gyro:      motion.Gyro{Pitch: 1.3, Yaw: -12.34, Roll: 0},
				Magnitude: motion.Magnitude{Accel: 1.1, Gyro: 12.4},
			},
		})
		assert.Equal(t,
			"[12:10:39.123] Frame     42 | Accel: X= 0.012 Y=-0.500 Z= 0.988 (|1.100|) | Gyro: P=   1.3 Y= -12.3 R=   0.0 (| 12.4|)\n",
			buf.String(),
		)
	})
	t.Run("dropped frames", func(t *testing.T) {
		t.Parallel()

		p, buf := newTestPrinter()
		p.Observation(session.Observation{Sample: motion.Sample{FrameID: 7}, Dropped: 3})
		assert.Contains(t, buf.String(), "⚠️  Dropped 3 frames\n")
		assert.Contains(t, buf.String(), "Frame      7 |")
	})
	t.Run("decode error", func(t *testing.T) {
		t.Parallel()

		p, buf := newTestPrinter()
		err := fmt.Errorf("%w: unexpected end of JSON input", motion.ErrDecode)
		p.Observation(session.Observation{Raw: []byte(`{"frame`), Err: err})
		assert.Equal(t,
			"❌ JSON decode error: decode error: unexpected end of JSON input\n   Raw data: \"{\\\"frame\"\n",
			buf.String(),
		)
	})
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	p, buf := newTestPrinter()
	p.Timeout()
	assert.Equal(t, "⏱️  No data received (timeout)\n", buf.String())
}

func TestServiceStatus(t *testing.T) {
	t.Parallel()

	p, buf := newTestPrinter()
	p.ServiceStatus(false)
	assert.Contains(t, buf.String(), "❌ Motion service is not running\n")
	assert.Contains(t, buf.String(), "systemctl --user start sdmotion")
	buf.Reset()
	p.ServiceStatus(true)
	assert.Equal(t, "✅ Motion service is running\n", buf.String())
}

func TestStatusUnknown(t *testing.T) {
	t.Parallel()

	p, buf := newTestPrinter()
	p.StatusUnknown(errors.New("systemctl not found"))
	assert.Equal(t, "⚠️  Could not check service status: systemctl not found\n", buf.String())
}

func TestSummary(t *testing.T) {
	t.Parallel()

	t.Run("packets received", func(t *testing.T) {
		t.Parallel()

		p, buf := newTestPrinter()
		p.Summary(session.Summary{
			PacketsReceived: 600,
			DroppedFrames:   2,
			Elapsed:         10 * time.Second,
			Rate:            60,
			OK:              true,
		})
		out := buf.String()
		assert.Contains(t, out, "✅ Test completed! Received 600 packets in 10.0 seconds")
		assert.Contains(t, out, "Average rate: 60.0 packets/second")
		assert.Contains(t, out, "Dropped frames: 2")
		assert.NotContains(t, out, "Decode errors")
		assert.NotContains(t, out, "No data received")
	})
	t.Run("no packets", func(t *testing.T) {
		t.Parallel()

		p, buf := newTestPrinter()
		p.Summary(session.Summary{DecodeErrors: 1, Elapsed: 5 * time.Second})
		out := buf.String()
		assert.Contains(t, out, "Received 0 packets in 5.0 seconds")
		assert.Contains(t, out, "Average rate: 0.0 packets/second")
		assert.Contains(t, out, "Decode errors: 1")
		assert.Contains(t, out, "❌ No data received. Check that:")
		assert.Contains(t, out, "systemctl --user status sdmotion")
		assert.Contains(t, out, "(27760)")
	})
}

func TestHeader(t *testing.T) {
	t.Parallel()

	p, buf := newTestPrinter()
	p.Header(10 * time.Second)
	assert.Contains(t, buf.String(), "Listening on UDP port 27761 for 10.0 seconds")
}
