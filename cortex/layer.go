package cortex

// NodeDef describes a node inside a layer definition: its dimensions
// (depth, height, width — used by convolutional layers; regular nodes
// are 1x1x1) and its initial membrane time constant.
type NodeDef struct {
	Dim [3]int  `json:"dim"`
	Tau float64 `json:"tau"`
}

// LayerDef describes a layer: its kind, its node definitions and
// whether its node count is fixed. Fixed layers (inputs and outputs)
// cannot gain or lose nodes through mutation.
type LayerDef struct {
	Type  LayerType `json:"type"`
	Nodes []NodeDef `json:"nodes"`
	Fixed bool      `json:"fixed"`
}

// Equal reports element-wise equality of two layer definitions.
func (ld *LayerDef) Equal(other *LayerDef) bool {
	if ld.Type != other.Type || ld.Fixed != other.Fixed || len(ld.Nodes) != len(other.Nodes) {
		return false
	}
	for i := range ld.Nodes {
		if ld.Nodes[i] != other.Nodes[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the definition.
func (ld *LayerDef) Clone() LayerDef {
	out := LayerDef{Type: ld.Type, Fixed: ld.Fixed}
	out.Nodes = make([]NodeDef, len(ld.Nodes))
	copy(out.Nodes, ld.Nodes)
	return out
}

// Layer is an ordered sequence of nodes of one kind. It serves as the
// container for nodes, which in turn own all links.
type Layer struct {
	net *Network

	// Def is the layer's definition, kept in sync with the node list.
	Def LayerDef

	// Nodes belonging to this layer.
	Nodes []*Node
}

// NewLayer creates an empty layer from the definition; Init populates
// it with nodes.
func NewLayer(net *Network, def LayerDef) *Layer {
	l := &Layer{net: net, Def: def.Clone()}
	return l
}

// Init populates the layer with nodes, cloning from the reference nodes
// when provided (crossover) or creating blank ones.
func (l *Layer) Init(refNodes []*Node) {
	for i := range l.Def.Nodes {
		var ref *Node
		if i < len(refNodes) {
			ref = refNodes[i]
		}
		l.Nodes = append(l.Nodes, NewNode(l, l.Role(), ref))
	}
}

// Role returns the role of nodes in this layer, determined by its
// position: first layer input, last layer output, hidden otherwise.
func (l *Layer) Role() NodeRole {
	switch l.Index() {
	case 0:
		return InputNode
	case len(l.net.Layers) - 1:
		return OutputNode
	default:
		return HiddenNode
	}
}

// Index returns the layer's position within the network.
func (l *Layer) Index() int {
	for i, layer := range l.net.Layers {
		if layer == l {
			return i
		}
	}
	return -1
}

// Prev returns the preceding layer, or nil for the input layer.
func (l *Layer) Prev() *Layer {
	idx := l.Index()
	if idx <= 0 {
		return nil
	}
	return l.net.Layers[idx-1]
}

// Next returns the following layer, or nil for the output layer.
func (l *Layer) Next() *Layer {
	idx := l.Index()
	if idx < 0 || idx == len(l.net.Layers)-1 {
		return nil
	}
	return l.net.Layers[idx+1]
}

// LinkCount returns the number of links owned by this layer's nodes.
func (l *Layer) LinkCount() int {
	count := 0
	for _, n := range l.Nodes {
		count += len(n.sources)
	}
	return count
}

// Connect links every node in the layer, either replicating the given
// reference nodes (crossover) or at random.
func (l *Layer) Connect(refNodes []*Node) {
	for i, n := range l.Nodes {
		var ref *Node
		if i < len(refNodes) {
			ref = refNodes[i]
		}
		n.Connect(ref)
	}
}

// Disconnect detaches every node in the layer.
func (l *Layer) Disconnect() {
	for _, n := range l.Nodes {
		n.Disconnect()
	}
}

// FreeTargets returns the nodes in layers legal for the given link type
// that do not already receive a link from src.
func (l *Layer) FreeTargets(src *Node, lt LinkType) []*Node {
	var candidates []*Node
	for _, layer := range l.net.Layers {
		for _, tgt := range layer.Nodes {
			if tgt.allowLink(src, lt) {
				candidates = append(candidates, tgt)
			}
		}
	}
	return candidates
}

// FreeSources returns the nodes in layers legal for the given link type
// that do not already feed tgt.
func (l *Layer) FreeSources(tgt *Node, lt LinkType) []*Node {
	var candidates []*Node
	for _, layer := range l.net.Layers {
		for _, src := range layer.Nodes {
			if tgt.allowLink(src, lt) {
				candidates = append(candidates, src)
			}
		}
	}
	return candidates
}

// AddNode appends a fresh node, connects it to random legal sources and
// targets, and updates the definition. Fixed layers refuse.
func (l *Layer) AddNode() bool {
	if l.Def.Fixed {
		return false
	}
	n := NewNode(l, l.Role(), nil)
	l.Nodes = append(l.Nodes, n)
	// The definition records the configured time constant, not the
	// drawn one: genomes group networks by shape, not by parameters.
	l.Def.Nodes = append(l.Def.Nodes, NodeDef{Dim: [3]int{1, 1, 1}, Tau: l.net.ctx.Conf.Node.Tau.Mean})
	n.Connect(nil)
	return true
}

// EraseNode removes one node, picked by an inverse-age wheel so that
// older nodes are likelier to be kept, reversing all of its source and
// target pairings. A layer never drops below one node; fixed layers
// refuse.
func (l *Layer) EraseNode() bool {
	if l.Def.Fixed || len(l.Nodes) <= 1 {
		return false
	}
	return l.EraseNodeAt(l.pickEraseIndex())
}

// pickEraseIndex spins the inverse-age wheel over the layer's nodes.
func (l *Layer) pickEraseIndex() int {
	wheel := Wheel[int]{}
	for i, n := range l.Nodes {
		wheel.Add(i, float64(n.Age))
	}
	return wheel.FlipSpin()
}

// EraseNodeAt removes the node at the given index.
func (l *Layer) EraseNodeAt(idx int) bool {
	if l.Def.Fixed || len(l.Nodes) <= 1 || idx < 0 || idx >= len(l.Nodes) {
		return false
	}
	l.Nodes[idx].Disconnect()
	l.Nodes = append(l.Nodes[:idx], l.Nodes[idx+1:]...)
	l.Def.Nodes = append(l.Def.Nodes[:idx], l.Def.Nodes[idx+1:]...)
	return true
}
