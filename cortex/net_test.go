package cortex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Given the same inputs and weights, evaluation is deterministic.
func TestClassicalEvaluationDeterminism(t *testing.T) {
	conf := testConf(3, 4, 2)
	net := testNet(conf)

	sample := []float64{0.3, -1.2, 0.8}
	net.Evaluate(sample)
	first := net.Output()
	for i := 0; i < 10; i++ {
		net.Evaluate(sample)
		out := net.Output()
		require.Len(t, out, len(first))
		for j := range out {
			assert.InDelta(t, first[j], out[j], 1e-12)
		}
	}
}

// A recurrent link from the output back to the input must not break
// the topological sort, and the forward DFS visits every
// forward-reachable node exactly once.
func TestRecurrentLinkExcludedFromSort(t *testing.T) {
	conf := testConf(2, 2, 1)
	net := testNet(conf)

	in := net.Layers[0].Nodes[0]
	out := net.Layers[2].Nodes[0]
	require.True(t, in.forwardReaches(out))
	require.True(t, in.AddLink(out, RecurrentLink))

	require.NoError(t, net.refreshOrder())

	seen := make(map[*Node]int)
	for _, node := range net.EvalOrder() {
		seen[node]++
	}
	assert.Len(t, seen, net.NodeTotal())
	for node, count := range seen {
		assert.Equal(t, 1, count, "node %v visited %d times", node.ID(), count)
	}

	// Sources must precede their forward targets in the order.
	pos := make(map[*Node]int)
	for i, node := range net.EvalOrder() {
		pos[node] = i
	}
	for _, layer := range net.Layers {
		for _, node := range layer.Nodes {
			for src, lnk := range node.Sources() {
				if isForward(lnk.Type) {
					assert.Less(t, pos[src], pos[node])
				}
			}
		}
	}
}

func TestCloneDeepCopies(t *testing.T) {
	conf := testConf(2, 3, 1)
	net := testNet(conf)
	net.Fitness.Abs.Update(1.5)

	clone := net.Clone()
	require.Equal(t, len(net.Layers), len(clone.Layers))
	assert.Equal(t, net.NodeTotal(), clone.NodeTotal())
	assert.Equal(t, net.LinkTotal(), clone.LinkTotal())

	// Mutating the clone's weights must not touch the original.
	origWeights := make(map[NodeID]map[NodeID]float64)
	for _, layer := range net.Layers {
		for _, node := range layer.Nodes {
			links := make(map[NodeID]float64)
			for src, lnk := range node.Sources() {
				links[src.ID()] = lnk.Weight.Value
			}
			origWeights[node.ID()] = links
		}
	}
	for _, layer := range clone.Layers {
		for _, node := range layer.Nodes {
			for _, lnk := range node.Sources() {
				lnk.Weight.Value = 123.0
			}
		}
	}
	for _, layer := range net.Layers {
		for _, node := range layer.Nodes {
			for src, lnk := range node.Sources() {
				assert.Equal(t, origWeights[node.ID()][src.ID()], lnk.Weight.Value)
			}
		}
	}

	// Clone links point at clone nodes, not originals.
	for _, layer := range clone.Layers {
		for _, node := range layer.Nodes {
			for src := range node.Sources() {
				assert.Same(t, clone.NodeAt(src.ID()), src)
			}
		}
	}
}

// Crossover of parents with layer counts (3, 5): the offspring's layer
// count lies between them and every layer kind matches one of the
// parents' kinds at the same index.
func TestCrossoverLayerCountInvariant(t *testing.T) {
	conf := testConf(2, 2, 1)
	ctx := NewContext(conf)

	p1 := NewNetwork(ctx, NewGenome(conf))

	g2 := NewGenome(conf)
	hidden := LayerDef{Type: RegularLayer, Nodes: []NodeDef{{Dim: [3]int{1, 1, 1}}}}
	g2.Layers = append(g2.Layers[:1], append([]LayerDef{hidden, hidden}, g2.Layers[1:]...)...)
	p2 := NewNetwork(ctx, g2)
	require.Len(t, p2.Layers, 5)

	p1.Fitness.Rel.Update(0.5)
	p2.Fitness.Rel.Update(0.5)

	for i := 0; i < 50; i++ {
		child := Crossover(ctx, p1, p2)
		assert.GreaterOrEqual(t, len(child.Layers), 3)
		assert.LessOrEqual(t, len(child.Layers), 5)
		for _, layer := range child.Layers {
			assert.Equal(t, RegularLayer, layer.Def.Type)
		}
		assert.True(t, isDAG(child))

		// The definition stays in sync with the realised nodes.
		for _, layer := range child.Layers {
			assert.Len(t, layer.Nodes, len(layer.Def.Nodes))
		}
	}
}

// A structural mutation that the species quota rejects leaves the
// network identical to its pre-state.
func TestMutationIdempotentOnRejection(t *testing.T) {
	conf := testConf(2, 2, 1)
	conf.Net.Init.Layers[1].Fixed = false
	conf.Species.Max.Count = 1
	conf.Mutation.Prob = map[string]float64{"add_node": 1.0}
	ctx := NewContext(conf)

	net := NewNetwork(ctx, NewGenome(conf))
	reg := NewRegistry(conf)
	require.True(t, reg.Register(net))

	beforeNodes := net.NodeTotal()
	beforeLinks := net.LinkTotal()
	beforeGenome := net.Genome()

	assert.False(t, net.Mutate(reg))
	assert.Equal(t, beforeNodes, net.NodeTotal())
	assert.Equal(t, beforeLinks, net.LinkTotal())
	assert.True(t, beforeGenome.Equal(net.Genome()))
	assert.Equal(t, 1, reg.Count())
}

func TestSaturation(t *testing.T) {
	conf := testConf(1, 1)
	net := testNet(conf)
	// Two nodes, one link: saturation 2*1/(2*1) = 1.
	require.Equal(t, 2, net.NodeTotal())
	require.Equal(t, 1, net.LinkTotal())
	assert.InDelta(t, 1.0, net.Saturation(), 1e-12)
}

func TestStageRatchet(t *testing.T) {
	conf := testConf(1, 1)
	conf.Fitness.Target = 1.0
	ctx := NewContext(conf)

	var solved *Network
	ctx.OnSolved = func(net *Network) { solved = net }

	net := NewNetwork(ctx, NewGenome(conf))
	require.Equal(t, TrainStage, net.Stage)

	net.SetFitness(0.5)
	assert.Equal(t, TrainStage, net.Stage)

	net.SetFitness(1.0)
	assert.Equal(t, DevStage, net.Stage)
	net.SetFitness(1.2)
	assert.Equal(t, TestStage, net.Stage)
	assert.Nil(t, solved)
	net.SetFitness(1.3)
	assert.Same(t, net, solved)
}
