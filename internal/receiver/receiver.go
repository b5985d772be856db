// Package receiver registers with the motion service and receives its UDP
// broadcasts.
//
// The service replies to the address a registration came from. The receiver
// binds port+1 and registers from that socket, so broadcasts arrive on port+1.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"
)

var ErrTimeout = errors.New("no data received")

const (
	DefaultPort             = 27760
	DefaultTimeout          = 2 * time.Second
	DefaultBufferSize       = 1024
	DefaultRegisterInterval = 10 * time.Second
)

type Config struct {
	// Host and Port address the motion service
	Host string
	Port int
	// Timeout bounds a single receive wait
	Timeout    time.Duration
	BufferSize int
	// RegisterPayload is sent to the service to request broadcasts
	RegisterPayload []byte
	// RegisterInterval is how often the registration is renewed. The
	// service forgets clients it has not heard from in 30 seconds.
	RegisterInterval time.Duration
	Logger           *slog.Logger
}

type Receiver struct {
	conn             *net.UDPConn
	target           *net.UDPAddr
	timeout          time.Duration
	buf              []byte
	payload          []byte
	registerInterval time.Duration
	lastRegistered   time.Time
	logger           *slog.Logger
}

// Listen binds the receive port and sends the first registration
func Listen(cfg Config) (*Receiver, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Port < 1 || cfg.Port > 65534 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if len(cfg.RegisterPayload) == 0 {
		cfg.RegisterPayload = []byte("register")
	}
	if cfg.RegisterInterval <= 0 {
		cfg.RegisterInterval = DefaultRegisterInterval
	}
	target, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("resolve service address: %w", err)
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: cfg.Port + 1})
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", cfg.Port+1, err)
	}
	r := &Receiver{
		conn:             conn,
		target:           target,
		timeout:          cfg.Timeout,
		buf:              make([]byte, cfg.BufferSize),
		payload:          cfg.RegisterPayload,
		registerInterval: cfg.RegisterInterval,
		logger:           cfg.Logger,
	}
	cfg.Logger.LogAttrs(context.Background(), slog.LevelInfo, "Listening for motion data",
		slog.String("local", conn.LocalAddr().String()),
		slog.String("service", target.String()),
	)
	if err := r.Register(); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

// Register sends the registration payload to the service
func (r *Receiver) Register() error {
	if _, err := r.conn.WriteToUDP(r.payload, r.target); err != nil {
		return fmt.Errorf("register with %s: %w", r.target, err)
	}
	r.lastRegistered = time.Now()
	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "Sent registration", slog.String("service", r.target.String()))
	return nil
}

// Receive waits for one datagram. It returns ErrTimeout when nothing arrived
// within the configured timeout and ctx.Err() when ctx ended first. The
// returned slice is owned by the caller.
func (r *Receiver) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if time.Since(r.lastRegistered) >= r.registerInterval {
		if err := r.Register(); err != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to renew registration", slog.Any("error", err))
		}
	}
	if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		r.conn.SetReadDeadline(time.Now())
	})
	defer stop()
	n, _, err := r.conn.ReadFromUDP(r.buf)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	data := make([]byte, n)
	copy(data, r.buf[:n])
	return data, nil
}

// LocalAddr returns the address broadcasts are received on
func (r *Receiver) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

func (r *Receiver) Close() error {
	return r.conn.Close()
}
