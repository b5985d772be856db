// Package console renders probe output for a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/niktheblak/motion-probe/internal/session"
)

const ruler = "------------------------------------------------------------"

type Config struct {
	Out io.Writer
	// Location is used for packet timestamps. Defaults to time.Local.
	Location *time.Location
	// Service and Port are quoted in the remediation hints
	Service string
	Port    int
}

type Printer struct {
	out     io.Writer
	loc     *time.Location
	service string
	port    int
}

func New(cfg Config) *Printer {
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Printer{
		out:     cfg.Out,
		loc:     cfg.Location,
		service: cfg.Service,
		port:    cfg.Port,
	}
}

func (p *Printer) Header(duration time.Duration) {
	fmt.Fprintln(p.out, "Motion Service Test")
	fmt.Fprintf(p.out, "Listening on UDP port %d for %s...\n", p.port+1, formatSeconds(duration))
	fmt.Fprintln(p.out, "Move the device to see motion data!")
	fmt.Fprintln(p.out, ruler)
}

// Observation prints a decoded packet, or the decode error and raw bytes
func (p *Printer) Observation(o session.Observation) {
	if o.Err != nil {
		fmt.Fprintf(p.out, "❌ JSON decode error: %v\n", o.Err)
		fmt.Fprintf(p.out, "   Raw data: %q\n", o.Raw)
		return
	}
	if o.Dropped > 0 {
		fmt.Fprintf(p.out, "⚠️  Dropped %d frames\n", o.Dropped)
	}
	s := o.Sample
	fmt.Fprintf(p.out,
		"[%s] Frame %6d | Accel: X=%6.3f Y=%6.3f Z=%6.3f (|%5.3f|) | Gyro: P=%6.1f Y=%6.1f R=%6.1f (|%5.1f|)\n",
		s.Time().In(p.loc).Format("15:04:05.000"),
		s.FrameID,
		s.Accel.X, s.Accel.Y, s.Accel.Z,
		s.Magnitude.Accel,
		s.Gyro.Pitch, s.Gyro.Yaw, s.Gyro.Roll,
		s.Magnitude.Gyro,
	)
}

func (p *Printer) Timeout() {
	fmt.Fprintln(p.out, "⏱️  No data received (timeout)")
}

// ServiceStatus prints the outcome of the liveness check
func (p *Printer) ServiceStatus(running bool) {
	if running {
		fmt.Fprintln(p.out, "✅ Motion service is running")
		return
	}
	fmt.Fprintln(p.out, "❌ Motion service is not running")
	fmt.Fprintf(p.out, "   Start it with: systemctl --user start %s\n", p.service)
}

// StatusUnknown prints why the liveness check could not be performed
func (p *Printer) StatusUnknown(err error) {
	fmt.Fprintf(p.out, "⚠️  Could not check service status: %v\n", err)
}

// Summary prints the final report, with remediation hints if no packets arrived
func (p *Printer) Summary(s session.Summary) {
	fmt.Fprintln(p.out, ruler)
	fmt.Fprintf(p.out, "✅ Test completed! Received %d packets in %s\n", s.PacketsReceived, formatSeconds(s.Elapsed))
	fmt.Fprintf(p.out, "   Average rate: %.1f packets/second\n", s.Rate)
	if s.DroppedFrames > 0 {
		fmt.Fprintf(p.out, "   Dropped frames: %d\n", s.DroppedFrames)
	}
	if s.DecodeErrors > 0 {
		fmt.Fprintf(p.out, "   Decode errors: %d\n", s.DecodeErrors)
	}
	if s.OK {
		return
	}
	var b strings.Builder
	b.WriteString("\n❌ No data received. Check that:\n")
	fmt.Fprintf(&b, "   1. Motion service is running: systemctl --user status %s\n", p.service)
	fmt.Fprintf(&b, "   2. Service is bound to the correct port (%d)\n", p.port)
	b.WriteString("   3. No firewall is blocking UDP traffic\n")
	fmt.Fprint(p.out, b.String())
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.1f seconds", d.Seconds())
}
