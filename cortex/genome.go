package cortex

import "math"

// Genome is the abstract shape shared by all networks realising it: a
// vector of layer definitions. Two genomes are equal iff their layer
// definitions are equal element-wise. The genome carries no fitness
// state; the Species wrapping it holds the statistics of the networks
// that realise it.
type Genome struct {
	Layers []LayerDef `json:"layers"`
}

// NewGenome builds the default genome from the configured initial
// layers.
func NewGenome(conf *Conf) *Genome {
	g := &Genome{}
	for _, ld := range conf.Net.Init.Layers {
		g.Layers = append(g.Layers, ld.Clone())
	}
	return g
}

// Clone returns a deep copy.
func (g *Genome) Clone() *Genome {
	out := &Genome{Layers: make([]LayerDef, 0, len(g.Layers))}
	for i := range g.Layers {
		out.Layers = append(out.Layers, g.Layers[i].Clone())
	}
	return out
}

// Equal reports whether two genomes describe the same shape.
func (g *Genome) Equal(other *Genome) bool {
	if len(g.Layers) != len(other.Layers) {
		return false
	}
	for i := range g.Layers {
		if !g.Layers[i].Equal(&other.Layers[i]) {
			return false
		}
	}
	return true
}

// NodeTotal counts the nodes across all layer definitions, optionally
// restricted to mutable layers.
func (g *Genome) NodeTotal(withFixed bool) int {
	count := 0
	for i := range g.Layers {
		if g.Layers[i].Fixed && !withFixed {
			continue
		}
		count += len(g.Layers[i].Nodes)
	}
	return count
}

// mutableLayers counts the layers whose node count may change.
func (g *Genome) mutableLayers() int {
	count := 0
	for i := range g.Layers {
		if !g.Layers[i].Fixed {
			count++
		}
	}
	return count
}

// Mutate changes the genome's shape in place: it adds or erases a node
// in one mutable layer, occasionally adding or erasing a whole layer
// instead. The complexity argument is the genome's node-count offset
// within the environment; higher complexity lowers the chance of
// growth. convLimit bounds the number of convolutional layers the
// shape may hold (DataConf.Image.ConvLayerLimit): an insertion that
// would exceed it is abandoned. Returns whether the shape changed.
func (g *Genome) Mutate(complexity float64, convLimit int) bool {
	tau := g.confFor()

	// With no mutable layers the only possible move is a new hidden
	// layer with a single node.
	if g.mutableLayers() == 0 {
		return g.insertLayer(RegularLayer)
	}

	addNode := 1.0 - complexity
	grow := RndChance(addNode)

	// A minimal network must keep its two fixed layers; below three
	// layers there is nothing left to shrink.
	if !grow && g.mutableLayers() == 0 {
		return false
	}

	// Pick the layer: growth favours sparse layers, shrinkage favours
	// crowded ones.
	wheel := Wheel[int]{}
	for i := range g.Layers {
		if g.Layers[i].Fixed {
			continue
		}
		if !grow && len(g.Layers[i].Nodes) == 0 {
			continue
		}
		wheel.Add(i, float64(len(g.Layers[i].Nodes)))
	}
	if wheel.IsEmpty() {
		return false
	}
	var idx int
	if grow {
		idx = wheel.FlipSpin()
	} else {
		idx = wheel.Spin()
	}

	// The chance of inserting a whole layer instead of a node shrinks
	// with depth. The new layer inherits the selected layer's kind;
	// convolutional growth is bounded by the image geometry, as each
	// convolutional stage pools its response.
	if grow && RndChance(math.Pow(addNode, float64(len(g.Layers)))) {
		lt := g.Layers[idx].Type
		if lt == ConvolutionalLayer && g.ConvLayerCount() >= convLimit {
			return false
		}
		return g.insertLayer(lt)
	}

	if grow {
		g.Layers[idx].Nodes = append(g.Layers[idx].Nodes, NodeDef{Dim: [3]int{1, 1, 1}, Tau: tau})
		return true
	}
	// Erasing the last node of a layer removes the layer itself.
	if len(g.Layers[idx].Nodes) <= 1 {
		g.Layers = append(g.Layers[:idx], g.Layers[idx+1:]...)
		return true
	}
	g.Layers[idx].Nodes = g.Layers[idx].Nodes[:len(g.Layers[idx].Nodes)-1]
	return true
}

// insertLayer adds a single-node hidden layer of the given kind.
// Convolutional layers go right after the input, ahead of the regular
// stages; regular layers go before the output layer.
func (g *Genome) insertLayer(lt LayerType) bool {
	if len(g.Layers) < 2 {
		return false
	}
	idx := len(g.Layers) - 1
	if lt == ConvolutionalLayer {
		idx = 1
	}
	ld := LayerDef{
		Type:  lt,
		Nodes: []NodeDef{{Dim: [3]int{1, 1, 1}, Tau: g.confFor()}},
	}
	g.Layers = append(g.Layers[:idx], append([]LayerDef{ld}, g.Layers[idx:]...)...)
	return true
}

// ConvLayerCount counts the convolutional layers in the shape.
func (g *Genome) ConvLayerCount() int {
	count := 0
	for i := range g.Layers {
		if g.Layers[i].Type == ConvolutionalLayer {
			count++
		}
	}
	return count
}

// confFor returns the default time constant recorded in node
// definitions. Genomes are value objects without a context, so the
// default is taken from the existing definitions where possible.
func (g *Genome) confFor() float64 {
	for i := range g.Layers {
		if len(g.Layers[i].Nodes) > 0 {
			return g.Layers[i].Nodes[0].Tau
		}
	}
	return 0.0
}
