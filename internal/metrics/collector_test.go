package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.Packet(1)
	c.Packet(2)
	c.Packet(6)
	c.Dropped(3)
	c.DecodeError()
	c.Timeout()
	c.Timeout()

	assert.Equal(t, 3.0, testutil.ToFloat64(c.packetsReceived))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.droppedFrames))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decodeErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.receiveTimeouts))
	assert.Equal(t, 6.0, testutil.ToFloat64(c.lastFrameID))
}

func TestCollectorGatherer(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.Packet(12)
	expected := `
# HELP motionprobe_packets_received_total Motion packets decoded successfully
# TYPE motionprobe_packets_received_total counter
motionprobe_packets_received_total 1
`
	err := testutil.GatherAndCompare(c.Gatherer(), strings.NewReader(expected), "motionprobe_packets_received_total")
	require.NoError(t, err)
	n, err := testutil.GatherAndCount(c.Gatherer())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestCollectorsAreIndependent(t *testing.T) {
	t.Parallel()

	a := NewCollector()
	b := NewCollector()
	a.DecodeError()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.decodeErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.decodeErrors))
}
