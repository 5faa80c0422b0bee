package cortex

import "fmt"

// Env drives the evolutionary loop: it initialises the proto-population,
// calibrates relative fitnesses every epoch, lets each species produce
// offspring or mutate survivors, and culls.
type Env struct {
	ctx *Context

	// Registry of live genomes and their species.
	Registry *Registry

	// All live networks.
	Nets []*Network

	// Champ is the best network seen during the last calibration.
	Champ *Network

	nextNetID int
}

// NewEnv creates an environment around the given context.
func NewEnv(ctx *Context) *Env {
	return &Env{
		ctx:      ctx,
		Registry: NewRegistry(ctx.Conf),
	}
}

// Initialise builds the proto-population: species.init.count distinct
// proto-genomes obtained by successive mutation of the default genome,
// each realised by net.init.count / species.init.count networks. With
// speciation disabled a single global genome is used.
func (e *Env) Initialise() error {
	conf := e.ctx.Conf
	e.Registry.Reset()
	e.Nets = nil
	e.Champ = nil
	e.nextNetID = 0

	speciesCount := conf.Species.Init.Count
	if !conf.Species.Enabled || speciesCount < 1 {
		speciesCount = 1
	}
	quota := conf.Net.Init.Count / speciesCount
	if quota < 1 {
		quota = 1
	}

	genome := NewGenome(conf)
	for e.Registry.Count() < speciesCount {
		s := e.Registry.Insert(genome)
		if s == nil {
			return fmt.Errorf("environment initialisation failed: species quota reached at %d of %d", e.Registry.Count(), speciesCount)
		}
		for i := 0; i < quota; i++ {
			e.insertNet(NewNetwork(e.ctx, genome))
		}

		if !conf.Species.Enabled {
			break
		}

		// Mutate the genome until the shape is one the registry has
		// not seen, to seed the next species.
		convLimit := conf.Data.Image.ConvLayerLimit()
		next := genome.Clone()
		distinct := false
		for try := 0; try < initGenomeRetries; try++ {
			if !next.Mutate(0.5, convLimit) {
				continue
			}
			if e.Registry.Find(next) == nil {
				distinct = true
				break
			}
		}
		if !distinct && e.Registry.Count() < speciesCount {
			return fmt.Errorf("environment initialisation failed: could not derive %d distinct proto-genomes", speciesCount)
		}
		genome = next
	}

	if len(e.Nets) == 0 || e.Registry.Count() == 0 {
		return fmt.Errorf("environment initialisation failed: %d networks, %d species", len(e.Nets), e.Registry.Count())
	}
	if e.ctx.Conf.Task.Verbose {
		fmt.Printf("Environment initialised with %d networks and %d species.\n", len(e.Nets), e.Registry.Count())
	}
	return nil
}

// initGenomeRetries bounds the search for a distinct proto-genome.
const initGenomeRetries = 64

// insertNet registers a network with the environment and its species.
func (e *Env) insertNet(net *Network) *Network {
	e.nextNetID++
	net.ID = e.nextNetID
	if !e.Registry.Register(net) {
		return nil
	}
	e.Nets = append(e.Nets, net)
	return net
}

// ComplexityOffset returns the offset of the given node count within
// the population's node-count distribution. Nothing in the package
// calls it: Initialise mutates proto-genomes with a fixed complexity of
// 0.5.
func (e *Env) ComplexityOffset(count int) float64 {
	stat := NewStats()
	for _, net := range e.Nets {
		stat.Update(float64(net.NodeTotal()))
	}
	return stat.Offset(float64(count))
}

// Evaluate enqueues the evaluator for every live network and waits for
// the pool to drain.
func (e *Env) Evaluate() {
	for _, net := range e.Nets {
		net := net
		e.ctx.Pool.Enqueue(func() { e.ctx.Evaluate(net) })
	}
	e.ctx.Pool.Wait()
}

// Evolve runs one evolution step: increment ages, calibrate relative
// fitnesses, let each species produce offspring or mutate survivors,
// then cull.
func (e *Env) Evolve() {
	for _, net := range e.Nets {
		net.IncreaseAge()
	}
	e.Calibrate()
	for _, s := range e.Registry.Species() {
		e.evolveSpecies(s)
	}
	e.Cull()
}

// Calibrate computes the relative fitness of every network within its
// species and of every species within the population, and tracks the
// population champion.
func (e *Env) Calibrate() {
	e.Champ = nil
	topFitness := 0.0
	for _, s := range e.Registry.Species() {
		champ := s.Calibrate()
		if champ == nil {
			continue
		}
		if e.Champ == nil || champ.Fitness.Abs.Value > topFitness {
			e.Champ = champ
			topFitness = champ.Fitness.Abs.Value
		}
	}
	popStat := NewStats()
	for _, s := range e.Registry.Species() {
		popStat.Update(s.Fitness.Abs.Value)
	}
	for _, s := range e.Registry.Species() {
		s.Fitness.Rel.Update(popStat.Offset(s.Fitness.Abs.Value))
	}
}

// evolveSpecies iterates over a snapshot of the species' members: each
// network either participates in crossover, with probability equal to
// its relative fitness, or receives a structural mutation. Structural
// mutation may move the network to another species, which is why the
// iteration works on a copy.
func (e *Env) evolveSpecies(s *Species) {
	members := make([]*Network, len(s.Nets))
	copy(members, s.Nets)

	wheel := Wheel[*Network]{}
	for _, net := range members {
		wheel.Add(net, net.Fitness.Rel.Value)
	}

	for _, net := range members {
		if RndChance(net.Fitness.Rel.Value) {
			if e.ctx.Conf.Net.Max.Count > 0 && len(e.Nets) >= e.ctx.Conf.Net.Max.Count {
				continue
			}
			e.insertNet(Crossover(e.ctx, net, wheel.Spin()))
		} else {
			net.Mutate(e.Registry)
		}
	}
}

// Cull removes unfit networks and empty species. The probability of
// culling a network grows with its age offset (tanh, protecting fresh
// offspring) and shrinks with the relative fitness of the network and
// of its species. Networks past the configured age cap are retired
// outright.
func (e *Env) Cull() {
	ageStat := NewStats()
	for _, net := range e.Nets {
		ageStat.Update(float64(net.Age))
	}

	kept := e.Nets[:0]
	for _, net := range e.Nets {
		cullProb := ageStat.OffsetFunc(float64(net.Age), Tanh) *
			(1.0 - net.Fitness.Rel.Value) *
			(1.0 - net.species.Fitness.Rel.Value)
		if net.IsOld() || RndChance(cullProb) {
			if e.ctx.Conf.Task.Verbose {
				fmt.Printf("Erasing network %d\n", net.ID)
			}
			e.Registry.Remove(net)
			continue
		}
		kept = append(kept, net)
	}
	e.Nets = kept
	e.Registry.Prune()
}

// Counts returns the population totals used by the per-epoch history:
// networks, species, and mean layers, nodes and links per network.
func (e *Env) Counts() (nets, species int, layers, nodes, links float64) {
	nets = len(e.Nets)
	species = e.Registry.Count()
	if nets == 0 {
		return nets, species, 0, 0, 0
	}
	for _, net := range e.Nets {
		layers += float64(len(net.Layers))
		nodes += float64(net.NodeTotal())
		links += float64(net.LinkTotal())
	}
	layers /= float64(nets)
	nodes /= float64(nets)
	links /= float64(nets)
	return nets, species, layers, nodes, links
}
