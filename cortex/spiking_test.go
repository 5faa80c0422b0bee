package cortex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spikingConf() *Conf {
	conf := testConf(2, 1)
	conf.Net.Type = SpikingNet
	conf.Net.Spike.LIF = true
	conf.Net.Spike.Enc = TimeEnc
	conf.Net.Spike.Max.Delay = 0.5
	conf.Learning.Mode = STDPLearning
	conf.Learning.STDP.Rate = 0.1
	conf.Learning.STDP.DpRatio = 1.0
	return conf
}

// LTP moves the weight magnitude strictly toward its saturating bound;
// LTD moves an excitatory weight strictly toward 0 and an inhibitory
// weight strictly toward its lower bound.
func TestSTDPSignLaw(t *testing.T) {
	def := &ParamDef{Dist: FixedDist, Mean: 0.5, SD: 0.1, Min: -1.0, Max: 1.0}

	exc := &Link{Type: ForwardLink, Weight: NewParameter(def)}
	before := exc.Weight.Value
	exc.LTP(0.1)
	assert.Greater(t, exc.Weight.Value, before)
	assert.LessOrEqual(t, exc.Weight.Value, 1.0)

	before = exc.Weight.Value
	exc.LTD(0.1, 1.0)
	assert.Less(t, exc.Weight.Value, before)
	assert.GreaterOrEqual(t, exc.Weight.Value, 0.0)

	inh := &Link{Type: ForwardLink, Weight: NewParameter(def)}
	inh.Weight.Value = -0.5
	before = inh.Weight.Value
	inh.LTP(0.1)
	assert.Less(t, inh.Weight.Value, before, "inhibitory LTP moves toward the lower bound")
	assert.GreaterOrEqual(t, inh.Weight.Value, -1.0)

	before = inh.Weight.Value
	inh.LTD(0.1, 1.0)
	assert.Less(t, inh.Weight.Value, before, "inhibitory LTD also moves toward the lower bound")
	assert.GreaterOrEqual(t, inh.Weight.Value, -1.0)
}

// Two input nodes, one output. One input spikes at t=1, the other at
// t=2, and the threshold is reached at t=2: after one evaluation the
// earlier-input link has been potentiated, the later-input link
// depressed, and both weights stay in [-1, 1].
func TestSpikingSTDPPotentiation(t *testing.T) {
	conf := spikingConf()
	net := testNet(conf)

	inA := net.Layers[0].Nodes[0]
	inB := net.Layers[0].Nodes[1]
	out := net.Layers[1].Nodes[0]

	linkA := out.Sources()[inA]
	linkB := out.Sources()[inB]
	require.NotNil(t, linkA)
	require.NotNil(t, linkB)

	// Make the timing deterministic: a large time constant keeps the
	// leak negligible, and 0.6 + 0.6 crosses the threshold on the
	// second spike.
	out.Tau.Value = 1000.0
	linkA.Weight.Value = 0.6
	linkB.Weight.Value = 0.6

	net.Evaluate([]float64{1.0, 2.0})

	assert.Greater(t, linkA.Weight.Value, 0.6, "earlier input potentiated")
	assert.Less(t, linkB.Weight.Value, 0.6, "later input depressed")
	for _, lnk := range []*Link{linkA, linkB} {
		assert.GreaterOrEqual(t, lnk.Weight.Value, -1.0)
		assert.LessOrEqual(t, lnk.Weight.Value, 1.0)
	}
}

// The membrane resets to zero after firing; there is no refractory
// period.
func TestMembraneResetsAfterFiring(t *testing.T) {
	conf := spikingConf()
	net := testNet(conf)

	inA := net.Layers[0].Nodes[0]
	inB := net.Layers[0].Nodes[1]
	out := net.Layers[1].Nodes[0]
	out.Sources()[inA].Weight.Value = 0.4
	out.Sources()[inB].Weight.Value = 1.0
	out.Tau.Value = 1000.0

	// The second spike pushes the membrane over the threshold, so the
	// last event leaves the output freshly reset.
	net.Evaluate([]float64{1.0, 2.0})
	assert.Equal(t, 0.0, out.Potential.Value)
	assert.Greater(t, out.last.Out, 0.0)
}

// Without the leak the membrane integrates inputs unchanged; with it,
// the potential decays between spikes.
func TestLIFDecay(t *testing.T) {
	conf := spikingConf()
	conf.Net.Spike.LIF = false
	net := testNet(conf)

	out := net.Layers[1].Nodes[0]
	for _, lnk := range out.Sources() {
		lnk.Weight.Value = 0.4
	}
	net.Evaluate([]float64{1.0, 5.0})
	assert.InDelta(t, 0.8, out.Potential.Value, 1e-12, "no decay without LIF")

	leaky := spikingConf()
	net2 := testNet(leaky)
	out2 := net2.Layers[1].Nodes[0]
	for _, lnk := range out2.Sources() {
		lnk.Weight.Value = 0.4
	}
	out2.Tau.Value = 1.0
	net2.Evaluate([]float64{1.0, 5.0})
	assert.Less(t, out2.Potential.Value, 0.8, "leaky membrane decays between inputs")
	assert.Greater(t, out2.Potential.Value, 0.4, "decay only affects the earlier contribution")
}

// Rank-order encoding preserves the order of input spikes but replaces
// their times with ranks.
func TestRankOrderEncoding(t *testing.T) {
	conf := spikingConf()
	conf.Net.Spike.Enc = RankOrderEnc
	net := testNet(conf)

	inA := net.Layers[0].Nodes[0]
	inB := net.Layers[0].Nodes[1]

	net.scheduler.Reset()
	net.convert([]float64{3.7, 1.2})

	first := net.scheduler.Pop()
	second := net.scheduler.Pop()
	assert.True(t, net.scheduler.Empty())
	assert.Same(t, inB, first.Node)
	assert.Equal(t, 1.0, first.Time)
	assert.Same(t, inA, second.Node)
	assert.Equal(t, 2.0, second.Time)
}

// Scheduler pops events in time order, ties broken by insertion order.
func TestSchedulerOrdering(t *testing.T) {
	s := &Scheduler{}
	n1 := &Node{}
	n2 := &Node{}
	n3 := &Node{}
	s.Push(Spike{Time: 2.0, Node: n1})
	s.Push(Spike{Time: 1.0, Node: n2})
	s.Push(Spike{Time: 1.0, Node: n3})

	first := s.Pop()
	assert.Same(t, n2, first.Node)
	second := s.Pop()
	assert.Same(t, n3, second.Node, "ties break by insertion order")
	third := s.Pop()
	assert.Same(t, n1, third.Node)
	assert.True(t, s.Empty())
}
