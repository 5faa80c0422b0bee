package cortex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Receptor responses peak at the receptor's centre and fall off with
// distance, so neighbouring receptors respond to overlapping ranges.
func TestGRFResponse(t *testing.T) {
	n := 10
	for r := 0; r < n; r++ {
		center := (float64(r) + 0.5) / float64(n)
		peak := grfResponse(center, r, n)
		assert.InDelta(t, 1.0, peak, 1e-12)
		assert.Less(t, grfResponse(center+0.3, r, n), peak)
		assert.Less(t, grfResponse(center-0.3, r, n), peak)
	}
}

// With Gaussian receptive fields, strong responses spike early and
// weak ones below the cutoff stay silent.
func TestGaussianRFConversion(t *testing.T) {
	conf := testConf(4, 1)
	conf.Net.Type = SpikingNet
	conf.Net.RF.Type = GaussianRF
	conf.Net.RF.GRF.Nodes = 4
	conf.Net.RF.GRF.Cutoff = 0.5
	conf.Net.Spike.Max.Delay = 1.0
	net := testNet(conf)

	net.scheduler.Reset()
	// One input variable spread over the four input receptors.
	net.convert([]float64{0.125})

	require.False(t, net.scheduler.Empty(), "the matching receptor must fire")
	first := net.scheduler.Pop()
	assert.Same(t, net.Layers[0].Nodes[0], first.Node, "the receptor tuned to the input fires first")
	assert.InDelta(t, 0.0, first.Time, 1e-9, "a perfect response spikes immediately")

	// Far-off receptors respond below the cutoff and stay silent.
	for !net.scheduler.Empty() {
		ev := net.scheduler.Pop()
		assert.NotSame(t, net.Layers[0].Nodes[3], ev.Node)
	}
}
