package cmd

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/niktheblak/web-common/pkg/auth"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niktheblak/motion-probe/internal/metrics"
	"github.com/niktheblak/motion-probe/internal/server"
)

// these tests use the global viper instance and must not run in parallel

func TestLoadProbeConfig(t *testing.T) {
	t.Cleanup(func() {
		viper.Set("port", nil)
		viper.Set("duration", nil)
	})

	cfg, err := loadProbeConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, 27760, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Duration)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 1024, cfg.BufferSize)
	assert.Equal(t, "register", cfg.RegisterPayload)
	assert.Equal(t, 10*time.Second, cfg.RegisterInterval)
	assert.Equal(t, "sdmotion", cfg.ServiceName)
	assert.True(t, cfg.CheckService)
	assert.Zero(t, cfg.MetricsPort)

	cfg, err = loadProbeConfig([]string{"30000", "3"})
	require.NoError(t, err)
	assert.Equal(t, 30000, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.Duration)

	viper.Set("duration", 7)
	cfg, err = loadProbeConfig([]string{"30001"})
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.Duration)
}

func TestLoadProbeConfigInvalid(t *testing.T) {
	for name, args := range map[string][]string{
		"zero duration":     {"27760", "0"},
		"negative duration": {"27760", "-5"},
		"port too high":     {"65535"},
		"zero port":         {"0"},
		"not a number":      {"x"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := loadProbeConfig(args)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestServeMetrics(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := server.New(metrics.NewCollector().Gatherer(), auth.Static("tkn_5c1e"), nil)
	wait := serveMetrics(ctx, addr, handler, slog.New(slog.NewTextHandler(io.Discard, nil)))

	client := &http.Client{
		Timeout:   time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
	require.Eventually(t, func() bool {
		res, err := client.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	res, err := client.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	cancel()
	done := make(chan struct{})
	go func() {
		_ = wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("metrics server did not shut down")
	}
	_, err = client.Get("http://" + addr + "/healthz")
	assert.Error(t, err)
}
