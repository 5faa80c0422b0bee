package cortex

import (
	"fmt"
	"math"
)

// NodeID identifies a node by its layer index and its index within the
// layer. IDs are computed on demand, so they stay valid across
// structural mutations without bookkeeping.
type NodeID struct {
	Layer int `json:"layer"`
	Node  int `json:"node"`
}

func (id NodeID) String() string {
	return fmt.Sprintf("%d:%d", id.Layer, id.Node)
}

// spikeTimes records when a node last received and last emitted a spike.
type spikeTimes struct {
	In  float64
	Out float64
}

// Node is a unit inside a layer. It owns its table of incoming links
// (keyed by source node) and a set of back-references to the nodes it
// feeds, used only for bookkeeping on disconnect.
type Node struct {
	layer *Layer

	// Role drives connectivity: bias and input nodes never receive
	// forward links, and output nodes never send them.
	Role NodeRole

	// Age in generations since the node was created.
	Age int

	// Incoming links keyed by source node.
	sources map[*Node]*Link

	// Nodes this one feeds. The actual links live in the targets'
	// source tables.
	targets map[*Node]struct{}

	// Transfer function, drawn from the role's permitted set.
	TF Func

	// Membrane time constant (spiking networks).
	Tau Parameter

	// Membrane potential with exponential statistics. For spiking
	// networks the statistics track the firing rate.
	Potential StatPack

	// Pre-activation input statistics (classical networks).
	InStats Stats

	// Output value of the last classical evaluation.
	Output float64

	// Spike timing state.
	last spikeTimes
}

// NewNode creates a node in the given layer. With a nil reference the
// transfer function and time constant are drawn at random; otherwise
// they are copied from the reference. Links are never copied here: they
// refer to nodes that may not exist yet, so the owning layer reattaches
// them via Connect.
func NewNode(layer *Layer, role NodeRole, other *Node) *Node {
	n := &Node{
		layer:     layer,
		Role:      role,
		sources:   make(map[*Node]*Link),
		targets:   make(map[*Node]struct{}),
		Potential: NewEMAStatPack(layer.net.ctx.Conf.Fitness.Stat.Alpha),
		InStats:   NewStats(),
	}
	if other != nil {
		n.TF = other.TF
		n.Tau = CloneParameter(&other.Tau)
	} else {
		funcs := PermittedFuncs(role)
		n.TF = funcs[RndInt(0, len(funcs)-1)]
		n.Tau = NewParameter(&layer.net.ctx.Conf.Node.Tau)
	}
	return n
}

// Index returns the node's position within its layer.
func (n *Node) Index() int {
	for i, node := range n.layer.Nodes {
		if node == n {
			return i
		}
	}
	return -1
}

// ID returns the node's (layer, node) identifier.
func (n *Node) ID() NodeID {
	return NodeID{Layer: n.layer.Index(), Node: n.Index()}
}

// SourceCount returns the number of incoming links, optionally
// restricted to one link type (pass -1 for all).
func (n *Node) SourceCount(lt LinkType) int {
	if lt < 0 {
		return len(n.sources)
	}
	count := 0
	for _, lnk := range n.sources {
		if lnk.Type == lt {
			count++
		}
	}
	return count
}

// Sources returns the incoming link table. The caller must not modify it.
func (n *Node) Sources() map[*Node]*Link {
	return n.sources
}

// HasSource reports whether a link from src already exists.
func (n *Node) HasSource(src *Node) bool {
	_, ok := n.sources[src]
	return ok
}

// --- Link policy ---

// isForward reports whether a link type belongs to the forward
// subgraph, which must stay acyclic at all times.
func isForward(lt LinkType) bool {
	return lt == ForwardLink || lt == SkipLink
}

// forwardReaches reports whether a DFS over the forward subgraph
// starting at n reaches the target node.
func (n *Node) forwardReaches(target *Node) bool {
	if n == target {
		return true
	}
	visited := make(map[*Node]bool)
	return n.forwardDFS(target, visited)
}

func (n *Node) forwardDFS(target *Node, visited map[*Node]bool) bool {
	if visited[n] {
		return false
	}
	visited[n] = true
	for tgt := range n.targets {
		lnk := tgt.sources[n]
		if lnk == nil || !isForward(lnk.Type) {
			continue
		}
		if tgt == target || tgt.forwardDFS(target, visited) {
			return true
		}
	}
	return false
}

// allowLink checks the link policy for a candidate link src -> n of the
// given type:
//
//	Forward:   target layer directly follows the source layer; the
//	           forward subgraph must remain acyclic.
//	Skip:      target layer at least two past the source layer; same
//	           acyclicity requirement.
//	Lateral:   same layer, distinct nodes.
//	Recurrent: any layer pair, but the link must close a cycle through
//	           existing forward links.
//
// Role constraints apply throughout: bias and input nodes never receive
// forward links and output nodes never send them.
func (n *Node) allowLink(src *Node, lt LinkType) bool {
	if src == nil || src == n && lt != LateralLink {
		return false
	}
	if n.HasSource(src) {
		return false
	}
	s := src.layer.Index()
	t := n.layer.Index()
	switch lt {
	case ForwardLink, SkipLink:
		if n.Role == BiasNode || n.Role == InputNode {
			return false
		}
		if src.Role == OutputNode {
			return false
		}
		if lt == ForwardLink && t != s+1 {
			return false
		}
		if lt == SkipLink && t < s+2 {
			return false
		}
		// Adding src -> n must not close a directed cycle through
		// the forward subgraph.
		if n.forwardReaches(src) {
			return false
		}
	case LateralLink:
		if t != s || src == n {
			return false
		}
	case RecurrentLink:
		// A recurrent link must close a cycle: the target has to
		// reach the source through existing forward links.
		if !n.forwardReaches(src) {
			return false
		}
	default:
		return false
	}
	return true
}

// AddLink creates a link of the given type from src to this node,
// drawing the weight from the configured definition. Returns false if
// the policy forbids the link or it already exists.
func (n *Node) AddLink(src *Node, lt LinkType) bool {
	if !n.allowLink(src, lt) {
		return false
	}
	n.sources[src] = NewLink(LinkDef{Type: lt}, &n.layer.net.ctx.Conf.Link.Weight)
	src.targets[n] = struct{}{}
	return true
}

// AddLinkFrom replicates a reference link from src to this node,
// copying its type and weight. The policy still applies.
func (n *Node) AddLinkFrom(src *Node, ref *Link) bool {
	if !n.allowLink(src, ref.Type) {
		return false
	}
	n.sources[src] = CloneLink(ref)
	src.targets[n] = struct{}{}
	return true
}

// EraseLink removes the link from src, reversing the back-reference.
// The last incoming link of a node is never removed.
func (n *Node) EraseLink(src *Node) bool {
	if src == nil || !n.HasSource(src) || len(n.sources) == 1 {
		return false
	}
	delete(n.sources, src)
	delete(src.targets, n)
	return true
}

// forwardTargetCount counts outgoing forward-subgraph links.
func (n *Node) forwardTargetCount() int {
	count := 0
	for tgt := range n.targets {
		if lnk := tgt.sources[n]; lnk != nil && isForward(lnk.Type) {
			count++
		}
	}
	return count
}

// eraseLinkGuarded removes the link from src unless doing so would
// detach either end from the forward spine: input and hidden sources
// must retain at least one forward target, and hidden and output
// targets at least one forward source.
func (n *Node) eraseLinkGuarded(src *Node) bool {
	lnk := n.sources[src]
	if lnk == nil {
		return false
	}
	if isForward(lnk.Type) {
		if (n.Role == HiddenNode || n.Role == OutputNode) && n.SourceCount(ForwardLink)+n.SourceCount(SkipLink) <= 1 {
			return false
		}
		if (src.Role == InputNode || src.Role == HiddenNode || src.Role == BiasNode) && src.forwardTargetCount() <= 1 {
			return false
		}
	}
	return n.EraseLink(src)
}

// Connect attaches the node to the network. With a reference node
// (crossover) the reference's links are replicated by identifier;
// otherwise the node links to one random node in each neighbouring
// layer, honouring its role.
func (n *Node) Connect(ref *Node) {
	if ref != nil {
		for refSrc, refLink := range ref.sources {
			if src := n.layer.net.NodeAt(refSrc.ID()); src != nil {
				n.AddLinkFrom(src, refLink)
			}
		}
		for refTgt := range ref.targets {
			if tgt := n.layer.net.NodeAt(refTgt.ID()); tgt != nil {
				tgt.AddLinkFrom(n, refTgt.sources[ref])
			}
		}
		return
	}
	if prev := n.layer.Prev(); prev != nil && len(prev.Nodes) > 0 {
		n.AddLink(prev.Nodes[RndInt(0, len(prev.Nodes)-1)], ForwardLink)
	}
	if next := n.layer.Next(); next != nil && len(next.Nodes) > 0 {
		next.Nodes[RndInt(0, len(next.Nodes)-1)].AddLink(n, ForwardLink)
	}
}

// Disconnect reverses every source and target pairing of the node.
func (n *Node) Disconnect() {
	for src := range n.sources {
		delete(src.targets, n)
	}
	for tgt := range n.targets {
		delete(tgt.sources, n)
	}
	n.sources = make(map[*Node]*Link)
	n.targets = make(map[*Node]struct{})
}

// --- Classical evaluation ---

// evalClassical computes the node's output from its incoming links.
// Invoked in topological order; recurrent and lateral sources
// contribute their previous output. The pre-activation sum feeds the
// input statistics.
func (n *Node) evalClassical(buf []float64) []float64 {
	inputs := buf[:0]
	pre := 0.0
	for src, lnk := range n.sources {
		signal := lnk.Weight.Value * src.Output
		inputs = append(inputs, signal)
		pre += signal
	}
	n.InStats.Update(pre)
	n.Output = TransferAll(n.TF, inputs)
	return inputs
}

// --- Spiking evaluation ---

// spikeThreshold is the membrane potential at which a node fires.
const spikeThreshold = 1.0

// integrate processes a source spike arriving at time t through the
// given link: decay the membrane (when configured leaky), add the
// weight, and emit when the threshold is reached.
func (n *Node) integrate(t float64, lnk *Link, net *Network) {
	conf := n.layer.net.ctx.Conf
	if conf.Net.Spike.LIF && n.Tau.Value > 0.0 {
		n.Potential.Value *= math.Exp(-(t - n.last.In) / n.Tau.Value)
	}
	n.Potential.Value += lnk.Weight.Value
	n.last.In = t
	if n.Potential.Value >= spikeThreshold {
		n.emit(net)
	}
}

// schedule queues an output spike from this node at time t, as when
// converting input samples into spike trains.
func (n *Node) schedule(t float64, net *Network) {
	n.last.Out = t
	net.scheduler.Push(Spike{Time: t, Node: n})
}

// emit fires the node: draw a random delay, record the output spike
// time, push the spike event, optionally apply STDP, and reset the
// membrane to zero. There is no refractory period.
func (n *Node) emit(net *Network) {
	conf := n.layer.net.ctx.Conf
	prevOut := n.last.Out
	delay := RndReal(0.0, conf.Net.Spike.Max.Delay)
	out := n.last.In + delay

	// The potential statistics track the firing rate.
	if period := out - prevOut; period > 0.0 {
		n.Potential.Stats.Update(1.0 / period)
	}
	n.last.Out = out
	net.scheduler.Push(Spike{Time: out, Node: n})

	if conf.Learning.Mode == STDPLearning {
		n.stdp(prevOut)
	}
	n.Potential.Value = 0.0
}

// stdp applies spike-timing-dependent plasticity on emission. Sources
// whose spikes arrived ahead of the triggering input (within the window
// since this node's previous emission) are potentiated in proportion to
// their timing; the remaining sources, including those that did not
// contribute at all, are depressed symmetrically.
func (n *Node) stdp(prevOut float64) {
	conf := n.layer.net.ctx.Conf
	rate := conf.Learning.STDP.Rate
	tau := n.Tau.Value
	if tau <= 0.0 {
		tau = 1.0
	}
	for src, lnk := range n.sources {
		dw := rate * math.Exp(-(n.last.Out-src.last.Out)/tau)
		if src.last.Out > prevOut && src.last.Out < n.last.In {
			lnk.LTP(dw)
		} else {
			lnk.LTD(dw, conf.Learning.STDP.DpRatio)
		}
	}
}

// resetState clears the transient evaluation state (membrane value,
// spike times, classical output) ahead of a fresh evaluation.
func (n *Node) resetState() {
	n.Potential.Value = 0.0
	n.last = spikeTimes{}
	n.Output = 0.0
}

// --- Parameter mutation ---

// mutateWeight perturbs one incoming link weight, picked by an
// age-weighted wheel, and returns the parameter for fitness tracking.
func (n *Node) mutateWeight() *Parameter {
	if len(n.sources) == 0 {
		return nil
	}
	wheel := Wheel[*Link]{}
	for _, lnk := range n.sources {
		wheel.Add(lnk, float64(lnk.Age))
	}
	lnk := wheel.Spin()
	if !lnk.Weight.Mutate() {
		return nil
	}
	return &lnk.Weight
}

// mutateTau perturbs the membrane time constant (spiking networks).
func (n *Node) mutateTau() *Parameter {
	if !n.Tau.Mutate() {
		return nil
	}
	return &n.Tau
}

// mutateTF re-samples the transfer function from the role's permitted
// set (classical networks).
func (n *Node) mutateTF() bool {
	funcs := PermittedFuncs(n.Role)
	if len(funcs) <= 1 {
		return false
	}
	old := n.TF
	for try := 0; try < maxParamRetries; try++ {
		if tf := funcs[RndInt(0, len(funcs)-1)]; tf != old {
			n.TF = tf
			return true
		}
	}
	return false
}

// mutateEraseLink removes one incoming link, picked by an inverted
// weight-magnitude wheel so that heavy links are more likely retained.
func (n *Node) mutateEraseLink() bool {
	if len(n.sources) <= 1 {
		return false
	}
	wheel := Wheel[*Node]{}
	for src, lnk := range n.sources {
		wheel.Add(src, math.Abs(lnk.Weight.Value))
	}
	return n.eraseLinkGuarded(wheel.FlipSpin())
}
