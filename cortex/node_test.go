package cortex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The link policy table: legal (source layer, target layer) pairs per
// link type, plus the role constraints.
func TestLinkPolicy(t *testing.T) {
	conf := testConf(2, 2, 2, 2)
	net := testNet(conf)

	nodeIn := net.Layers[0].Nodes[0]
	hidden1 := net.Layers[1].Nodes[0]
	hidden1b := net.Layers[1].Nodes[1]
	hidden2 := net.Layers[2].Nodes[0]
	nodeOut := net.Layers[3].Nodes[0]

	// Forward links only to the directly following layer.
	assert.False(t, hidden2.allowLink(nodeIn, ForwardLink), "forward link may not span two layers")
	assert.False(t, nodeIn.allowLink(hidden1, ForwardLink), "input nodes never receive forward links")
	assert.False(t, hidden1.allowLink(nodeOut, ForwardLink), "output nodes never send forward links")

	// Skip links jump at least two layers.
	assert.False(t, hidden1.allowLink(nodeIn, SkipLink), "skip link must span at least two layers")
	assert.True(t, hidden2.allowLink(nodeIn, SkipLink) || hidden2.HasSource(nodeIn))
	if !nodeOut.HasSource(hidden1) {
		assert.True(t, nodeOut.allowLink(hidden1, SkipLink))
	}

	// Lateral links stay within a layer and need distinct endpoints.
	assert.True(t, hidden1.allowLink(hidden1b, LateralLink))
	assert.False(t, hidden1.allowLink(hidden1, LateralLink))
	assert.False(t, hidden2.allowLink(hidden1, LateralLink))
}

func TestRecurrentMustCloseCycle(t *testing.T) {
	conf := testConf(1, 1, 1)
	net := testNet(conf)

	in := net.Layers[0].Nodes[0]
	hid := net.Layers[1].Nodes[0]
	out := net.Layers[2].Nodes[0]

	// Chain in -> hid -> out exists by construction, so a backward
	// recurrent link closes a cycle and is accepted.
	require.True(t, in.forwardReaches(out))
	assert.True(t, in.allowLink(out, RecurrentLink))
	assert.True(t, hid.allowLink(out, RecurrentLink))

	// A "recurrent" link that closes nothing is rejected: two
	// disconnected nodes have no forward path between them.
	lone := NewNode(net.Layers[1], HiddenNode, nil)
	net.Layers[1].Nodes = append(net.Layers[1].Nodes, lone)
	assert.False(t, lone.allowLink(out, RecurrentLink))
}

// Adding a forward or skip link may never create a directed cycle.
func TestDAGInvariant(t *testing.T) {
	conf := testConf(2, 3, 3, 2)
	conf.Link.Types = []LinkType{ForwardLink, SkipLink, LateralLink, RecurrentLink}
	net := testNet(conf)
	require.True(t, isDAG(net))

	ctx := net.ctx
	reg := NewRegistry(ctx.Conf)
	reg.Register(net)
	for i := 0; i < 200; i++ {
		net.Mutate(reg)
		require.True(t, isDAG(net), "mutation %d broke the DAG invariant", i)
	}

	// Every link still satisfies its policy row.
	for li, layer := range net.Layers {
		for _, node := range layer.Nodes {
			for src, lnk := range node.Sources() {
				s := src.ID().Layer
				switch lnk.Type {
				case ForwardLink:
					assert.Equal(t, s+1, li)
				case SkipLink:
					assert.GreaterOrEqual(t, li, s+2)
				case LateralLink:
					assert.Equal(t, s, li)
				}
			}
		}
	}
}

func TestEraseLinkKeepsSpine(t *testing.T) {
	conf := testConf(1, 1, 1)
	net := testNet(conf)

	hid := net.Layers[1].Nodes[0]
	in := net.Layers[0].Nodes[0]

	// The hidden node has exactly one forward source; erasing it would
	// disconnect the node from the spine.
	require.Equal(t, 1, hid.SourceCount(ForwardLink))
	assert.False(t, hid.eraseLinkGuarded(in))
	assert.True(t, hid.HasSource(in))
}

func TestDisconnectReversesPairings(t *testing.T) {
	conf := testConf(2, 2, 2)
	net := testNet(conf)

	hid := net.Layers[1].Nodes[0]
	srcs := make([]*Node, 0)
	for src := range hid.Sources() {
		srcs = append(srcs, src)
	}
	require.NotEmpty(t, srcs)

	hid.Disconnect()
	assert.Empty(t, hid.Sources())
	for _, src := range srcs {
		_, stillTarget := src.targets[hid]
		assert.False(t, stillTarget)
	}
}

func TestNodeCloneCopiesNoLinks(t *testing.T) {
	conf := testConf(2, 2, 2)
	net := testNet(conf)
	orig := net.Layers[1].Nodes[0]

	cl := NewNode(net.Layers[1], HiddenNode, orig)
	assert.Equal(t, orig.TF, cl.TF)
	assert.Equal(t, orig.Tau.Value, cl.Tau.Value)
	assert.Empty(t, cl.Sources())
}
