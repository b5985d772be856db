// Package service checks whether the motion service is running.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

var (
	ErrServiceInactive   = errors.New("service is not active")
	ErrStatusCheckFailed = errors.New("could not check service status")
)

const DefaultName = "sdmotion"

// Runner runs a command and returns its standard output and exit code. err is
// only set when the command could not be run at all.
type Runner func(ctx context.Context, name string, args ...string) (stdout string, exitCode int, err error)

type Config struct {
	Name   string
	Runner Runner
	Logger *slog.Logger
}

type Checker struct {
	name   string
	run    Runner
	logger *slog.Logger
}

func New(cfg Config) *Checker {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner
	}
	return &Checker{
		name:   cfg.Name,
		run:    cfg.Runner,
		logger: cfg.Logger,
	}
}

// Name returns the systemd unit name being checked
func (c *Checker) Name() string {
	return c.name
}

// Check asks systemd whether the service is active. It returns an error
// wrapping ErrServiceInactive when systemd reports any other state, and one
// wrapping ErrStatusCheckFailed when systemctl could not be run.
func (c *Checker) Check(ctx context.Context) error {
	out, code, err := c.run(ctx, "systemctl", "--user", "is-active", c.name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStatusCheckFailed, err)
	}
	state := strings.TrimSpace(out)
	c.logger.LogAttrs(ctx, slog.LevelDebug, "Service status", slog.String("service", c.name), slog.String("state", state), slog.Int("exit_code", code))
	if code == 0 && state == "active" {
		return nil
	}
	if state == "" {
		state = "unknown"
	}
	return fmt.Errorf("%w: %s is %s", ErrServiceInactive, c.name, state)
}

// ExecRunner runs the command with os/exec
func ExecRunner(ctx context.Context, name string, args ...string) (string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		return string(out), exitErr.ExitCode(), nil
	case err != nil:
		return "", -1, err
	}
	return string(out), 0, nil
}
