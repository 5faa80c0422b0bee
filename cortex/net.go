package cortex

import (
	"errors"
	"fmt"
)

// mutationRetries bounds how many random choices a structural mutation
// makes before the generation proceeds without it.
const mutationRetries = 8

// maxSpikeEvents caps the number of events processed per evaluation,
// guarding against runaway recurrent excitation.
const maxSpikeEvents = 100000

// errCycle is reported by the evaluation-order refresh when the forward
// subgraph contains a cycle.
var errCycle = errors.New("cycle detected in forward subgraph")

// Network is a phenotype: an ordered sequence of layers plus a cached
// evaluation order. Classical networks evaluate nodes in topologically
// sorted order; spiking networks schedule spike events on a min-heap.
type Network struct {
	ctx *Context

	// ID is unique within a run.
	ID int

	// Layers in input-to-output order.
	Layers []*Layer

	// Age in generations since creation.
	Age int

	// Stage gates "solved" detection.
	Stage Stage

	// Fitness state, absolute and relative.
	Fitness Fitness

	// Species this network currently belongs to.
	species *Species

	// Cached topological evaluation order (classical nets).
	evalOrder []*Node

	// Spike event scheduler (spiking nets).
	scheduler Scheduler

	// Reusable buffer for per-node input gathering.
	buf []float64
}

// NewNetwork realises a genome: create each layer, populate it with
// blank nodes, connect every node to at least one legal forward source
// and target, and refresh the evaluation order.
func NewNetwork(ctx *Context, g *Genome) *Network {
	net := &Network{
		ctx:     ctx,
		Fitness: NewFitness(ctx.Conf.Fitness.Stat.Alpha),
	}
	for _, ld := range g.Layers {
		net.Layers = append(net.Layers, NewLayer(net, ld))
	}
	for _, layer := range net.Layers {
		layer.Init(nil)
	}
	for _, layer := range net.Layers {
		layer.Connect(nil)
	}
	net.ensureConnected()
	net.refreshOrder()
	return net
}

// Clone returns a deep copy of the network. Links are reattached by
// mapping each source's (layer, node) identifier to the new arena.
func (n *Network) Clone() *Network {
	clone := &Network{
		ctx:     n.ctx,
		Age:     n.Age,
		Stage:   n.Stage,
		Fitness: n.Fitness,
	}
	clone.Fitness.ClearParameters()
	for _, layer := range n.Layers {
		clone.Layers = append(clone.Layers, NewLayer(clone, layer.Def))
	}
	for li, layer := range n.Layers {
		for _, node := range layer.Nodes {
			cn := NewNode(clone.Layers[li], node.Role, node)
			cn.Age = node.Age
			cn.InStats = node.InStats
			cn.Potential = node.Potential
			cn.Output = node.Output
			clone.Layers[li].Nodes = append(clone.Layers[li].Nodes, cn)
		}
	}
	for li, layer := range n.Layers {
		for ni, node := range layer.Nodes {
			tgt := clone.Layers[li].Nodes[ni]
			for src, lnk := range node.sources {
				csrc := clone.NodeAt(src.ID())
				tgt.sources[csrc] = &Link{Type: lnk.Type, Weight: lnk.Weight, Age: lnk.Age}
				csrc.targets[tgt] = struct{}{}
			}
		}
	}
	clone.refreshOrder()
	return clone
}

// NodeAt returns the node with the given identifier, or nil when the
// identifier is out of range.
func (n *Network) NodeAt(id NodeID) *Node {
	if id.Layer < 0 || id.Layer >= len(n.Layers) {
		return nil
	}
	layer := n.Layers[id.Layer]
	if id.Node < 0 || id.Node >= len(layer.Nodes) {
		return nil
	}
	return layer.Nodes[id.Node]
}

// Genome extracts the network's current shape.
func (n *Network) Genome() *Genome {
	g := &Genome{}
	for _, layer := range n.Layers {
		g.Layers = append(g.Layers, layer.Def.Clone())
	}
	return g
}

// Species returns the species this network belongs to.
func (n *Network) Species() *Species {
	return n.species
}

// NodeTotal counts the nodes across all layers.
func (n *Network) NodeTotal() int {
	count := 0
	for _, layer := range n.Layers {
		count += len(layer.Nodes)
	}
	return count
}

// LinkTotal counts the links across all layers.
func (n *Network) LinkTotal() int {
	count := 0
	for _, layer := range n.Layers {
		count += layer.LinkCount()
	}
	return count
}

// Saturation is the ratio of existing links to the maximum possible
// for the network's node count.
func (n *Network) Saturation() float64 {
	v := n.NodeTotal()
	if v < 2 {
		return 1.0
	}
	return clamp(2.0*float64(n.LinkTotal())/(float64(v)*float64(v-1)), 0.0, 1.0)
}

// IsOld reports whether the network has exceeded the configured age
// cap (0 disables forced retirement).
func (n *Network) IsOld() bool {
	maxAge := n.ctx.Conf.Net.Max.Age
	return maxAge > 0 && n.Age > maxAge
}

// IncreaseAge increments the network's age and that of every node and
// link, at the start of each epoch.
func (n *Network) IncreaseAge() {
	n.Age++
	for _, layer := range n.Layers {
		for _, node := range layer.Nodes {
			node.Age++
			for _, lnk := range node.sources {
				lnk.Age++
			}
		}
	}
}

// ensureConnected attaches a forward link to any node left without one
// on either side of the forward spine, as can happen after crossover
// when a reference link has no counterpart in the offspring.
func (n *Network) ensureConnected() {
	for li, layer := range n.Layers {
		for _, node := range layer.Nodes {
			if li > 0 && node.SourceCount(ForwardLink)+node.SourceCount(SkipLink) == 0 {
				prev := n.Layers[li-1]
				if len(prev.Nodes) > 0 {
					node.AddLink(prev.Nodes[RndInt(0, len(prev.Nodes)-1)], ForwardLink)
				}
			}
			if li < len(n.Layers)-1 && node.forwardTargetCount() == 0 {
				next := n.Layers[li+1]
				if len(next.Nodes) > 0 {
					next.Nodes[RndInt(0, len(next.Nodes)-1)].AddLink(node, ForwardLink)
				}
			}
		}
	}
}

// --- Evaluation order ---

const (
	unmarked = iota
	tempMark
	permMark
)

// refreshOrder recomputes the topological evaluation order with a
// depth-first search over the forward subgraph from every node.
// Recurrent and lateral links are excluded from the traversal. The
// cached order is the reversed DFS exit order.
func (n *Network) refreshOrder() error {
	marks := make(map[*Node]int, n.NodeTotal())
	order := make([]*Node, 0, n.NodeTotal())

	var visit func(nd *Node) error
	visit = func(nd *Node) error {
		switch marks[nd] {
		case permMark:
			return nil
		case tempMark:
			return errCycle
		}
		marks[nd] = tempMark
		for tgt := range nd.targets {
			lnk := tgt.sources[nd]
			if lnk == nil || !isForward(lnk.Type) {
				continue
			}
			if err := visit(tgt); err != nil {
				return err
			}
		}
		marks[nd] = permMark
		order = append(order, nd)
		return nil
	}

	for _, layer := range n.Layers {
		for _, node := range layer.Nodes {
			if err := visit(node); err != nil {
				return err
			}
		}
	}

	// Reverse the exit order in place.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	n.evalOrder = order
	return nil
}

// EvalOrder exposes the cached evaluation order.
func (n *Network) EvalOrder() []*Node {
	return n.evalOrder
}

// --- Evaluation ---

// Evaluate feeds an input sample to the input layer and triggers the
// network. Classical networks propagate in topological order; spiking
// networks interpret the sample as spike times and run the event loop.
func (n *Network) Evaluate(sample []float64) {
	if n.ctx.Conf.Net.Type == SpikingNet {
		n.evalSpiking(sample)
		return
	}
	n.evalClassical(sample)
}

func (n *Network) evalClassical(sample []float64) {
	input := n.Layers[0]
	for i, node := range input.Nodes {
		switch node.Role {
		case BiasNode:
			node.Output = 1.0
		default:
			if i < len(sample) {
				node.Output = sample[i]
			}
		}
	}
	for _, node := range n.evalOrder {
		if node.Role == InputNode || node.Role == BiasNode {
			continue
		}
		n.buf = node.evalClassical(n.buf)
	}
}

func (n *Network) evalSpiking(sample []float64) {
	for _, layer := range n.Layers {
		for _, node := range layer.Nodes {
			node.resetState()
		}
	}
	n.scheduler.Reset()
	n.convert(sample)

	events := 0
	for !n.scheduler.Empty() && events < maxSpikeEvents {
		ev := n.scheduler.Pop()
		for tgt := range ev.Node.targets {
			tgt.integrate(ev.Time, tgt.sources[ev.Node], n)
		}
		events++
	}
}

// Output reads the network's output vector: the computed outputs of the
// output layer for classical networks, the membrane potentials for
// spiking networks.
func (n *Network) Output() []float64 {
	outLayer := n.Layers[len(n.Layers)-1]
	out := make([]float64, len(outLayer.Nodes))
	for i, node := range outLayer.Nodes {
		if n.ctx.Conf.Net.Type == SpikingNet {
			out[i] = node.Potential.Value
		} else {
			out[i] = node.Output
		}
	}
	return out
}

// --- Fitness ---

// SetFitness records the evaluator's score. Crossing the target
// fitness advances the stage ratchet (Train, Dev, Test); crossing it on
// the final stage reports the network as having solved the task.
// Otherwise, with probability equal to the fitness offset, the network
// mutates its parameters and re-enqueues itself for another evaluation.
func (n *Network) SetFitness(value float64) {
	conf := n.ctx.Conf
	n.Fitness.Set(value, conf.Learning.Mutation.Scale)

	if value >= conf.Fitness.Target {
		switch n.Stage {
		case TrainStage:
			n.Stage = DevStage
		case DevStage:
			n.Stage = TestStage
		case TestStage:
			if n.ctx.OnSolved != nil {
				n.ctx.OnSolved(n)
			}
			return
		}
	}

	if conf.Learning.Mode == MutationLearning && n.ctx.Pool != nil && n.ctx.Evaluate != nil {
		if RndChance(n.Fitness.Abs.Offset()) {
			n.MutateParameters()
			net := n
			n.ctx.Pool.Enqueue(func() { n.ctx.Evaluate(net) })
		}
	}
}

// MutateParameters perturbs the weights of one node's incoming links,
// registering each with the fitness optimiser so that the next score
// can steer their direction. The node is picked by an inverse-age
// wheel, favouring recent additions. Safe to call from workers: it
// never changes structure.
func (n *Network) MutateParameters() {
	wheel := Wheel[*Node]{}
	for _, layer := range n.Layers {
		for _, node := range layer.Nodes {
			if len(node.sources) > 0 {
				wheel.Add(node, float64(node.Age))
			}
		}
	}
	if wheel.IsEmpty() {
		return
	}
	node := wheel.FlipSpin()
	n.Fitness.ClearParameters()
	for _, lnk := range node.sources {
		if lnk.Weight.Mutate() {
			n.Fitness.AddParameter(&lnk.Weight)
		}
	}
	if n.ctx.Conf.Net.Type == SpikingNet {
		if node.Tau.Mutate() {
			n.Fitness.AddParameter(&node.Tau)
		}
	}
}

// --- Structural mutation ---

// pickOp spins the mutation operator wheel. When adaptive mutation is
// enabled the node operators scale with the network's saturation S:
// add-node, erase-node and erase-link by S, add-link by 1-S.
func (n *Network) pickOp() MutOp {
	conf := n.ctx.Conf
	sat := n.Saturation()
	wheel := Wheel[MutOp]{}
	for name, op := range mutOpNames {
		weight := conf.Mutation.Prob[name]
		if weight <= 0.0 {
			continue
		}
		switch op {
		case TauOp:
			if conf.Net.Type != SpikingNet {
				continue
			}
		case TransferOp:
			if conf.Net.Type == SpikingNet {
				continue
			}
		}
		if conf.Mutation.Adaptive {
			switch op {
			case AddNodeOp, EraseNodeOp, EraseLinkOp:
				weight *= sat
			case AddLinkOp:
				weight *= 1.0 - sat
			}
		}
		wheel.Add(op, weight)
	}
	if wheel.IsEmpty() {
		return WeightOp
	}
	return wheel.Spin()
}

// rndNode picks a node by an age-weighted wheel.
func (n *Network) rndNode() *Node {
	wheel := Wheel[*Node]{}
	for _, layer := range n.Layers {
		for _, node := range layer.Nodes {
			wheel.Add(node, float64(node.Age))
		}
	}
	return wheel.Spin()
}

// rndLinkType picks one of the enabled link types.
func (n *Network) rndLinkType() LinkType {
	types := n.ctx.Conf.Link.Types
	return types[RndInt(0, len(types)-1)]
}

// Mutate applies one structural mutation operator, selected by the
// configured weights. A choice that proves impossible (no candidate
// link, species quota exceeded, shape constraint) is retried with
// another random choice up to mutationRetries times, after which the
// generation proceeds without the mutation. Returns whether anything
// changed. Must only be called between epochs: shape changes
// re-register the network in the species registry.
func (n *Network) Mutate(reg *Registry) bool {
	for try := 0; try < mutationRetries; try++ {
		switch n.pickOp() {
		case WeightOp:
			node := n.rndNode()
			if p := node.mutateWeight(); p != nil {
				n.Fitness.ClearParameters()
				n.Fitness.AddParameter(p)
				return true
			}
		case TauOp:
			node := n.rndNode()
			if p := node.mutateTau(); p != nil {
				n.Fitness.ClearParameters()
				n.Fitness.AddParameter(p)
				return true
			}
		case TransferOp:
			if n.rndNode().mutateTF() {
				return true
			}
		case AddLinkOp:
			src := n.rndNode()
			lt := n.rndLinkType()
			candidates := src.layer.FreeTargets(src, lt)
			if len(candidates) == 0 {
				continue
			}
			tgt := candidates[RndInt(0, len(candidates)-1)]
			if tgt.AddLink(src, lt) {
				n.refreshOrder()
				return true
			}
		case EraseLinkOp:
			if n.rndNode().mutateEraseLink() {
				n.refreshOrder()
				return true
			}
		case AddNodeOp:
			if n.mutateShape(true, reg) {
				return true
			}
		case EraseNodeOp:
			if n.mutateShape(false, reg) {
				return true
			}
		}
	}
	return false
}

// mutateShape adds or erases a node in a mutable layer, re-registering
// the network under the resulting genome. The change is checked
// against the species quota before anything is touched, so a rejected
// mutation leaves the network identical to its pre-state.
func (n *Network) mutateShape(add bool, reg *Registry) bool {
	wheel := Wheel[int]{}
	for i, layer := range n.Layers {
		if layer.Def.Fixed {
			continue
		}
		if !add && len(layer.Nodes) <= 1 {
			continue
		}
		wheel.Add(i, float64(len(layer.Nodes)))
	}
	if wheel.IsEmpty() {
		return false
	}
	var idx int
	if add {
		// Sparse layers are likelier to gain a node.
		idx = wheel.FlipSpin()
	} else {
		idx = wheel.Spin()
	}

	layer := n.Layers[idx]
	eraseIdx := -1
	if !add {
		eraseIdx = layer.pickEraseIndex()
	}

	// Probe the resulting shape against the species quota before
	// anything is touched.
	if reg != nil {
		probe := n.Genome()
		if add {
			probe.Layers[idx].Nodes = append(probe.Layers[idx].Nodes, NodeDef{Dim: [3]int{1, 1, 1}, Tau: n.ctx.Conf.Node.Tau.Mean})
		} else {
			defs := probe.Layers[idx].Nodes
			probe.Layers[idx].Nodes = append(defs[:eraseIdx], defs[eraseIdx+1:]...)
		}
		if !reg.CanAdopt(probe) {
			return false
		}
	}

	var ok bool
	if add {
		ok = layer.AddNode()
	} else {
		ok = layer.EraseNodeAt(eraseIdx)
	}
	if !ok {
		return false
	}
	n.refreshOrder()
	if reg != nil {
		reg.Reassign(n)
	}
	return true
}

func (n *Network) String() string {
	return fmt.Sprintf("Network %d (age %d, layers %d, nodes %d, links %d, fitness %.4f)",
		n.ID, n.Age, len(n.Layers), n.NodeTotal(), n.LinkTotal(), n.Fitness.Abs.Value)
}
