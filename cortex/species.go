package cortex

import "sort"

// Species groups the networks realising one genome. Its fitness
// statistics reflect the mean performance of its members.
type Species struct {
	ID      int
	Genome  *Genome
	Nets    []*Network
	Fitness Fitness
}

// NewSpecies wraps a genome.
func NewSpecies(id int, g *Genome, alpha float64) *Species {
	return &Species{
		ID:      id,
		Genome:  g.Clone(),
		Fitness: NewFitness(alpha),
	}
}

// IsEmpty reports whether the species has no members.
func (s *Species) IsEmpty() bool {
	return len(s.Nets) == 0
}

// Add registers a network with the species.
func (s *Species) Add(net *Network) {
	s.Nets = append(s.Nets, net)
	net.species = s
}

// Erase removes a network from the species.
func (s *Species) Erase(net *Network) {
	for i, n := range s.Nets {
		if n == net {
			s.Nets = append(s.Nets[:i], s.Nets[i+1:]...)
			break
		}
	}
	if net.species == s {
		net.species = nil
	}
}

// Calibrate sorts the member networks by absolute fitness, sets each
// network's relative fitness to its offset within the species, and
// updates the species' absolute fitness to the members' mean. Returns
// the species champion, or nil for an empty species.
func (s *Species) Calibrate() *Network {
	if s.IsEmpty() {
		return nil
	}
	stat := NewStatPack()
	for _, net := range s.Nets {
		stat.Update(net.Fitness.Abs.Value)
	}
	sort.Slice(s.Nets, func(i, j int) bool {
		return s.Nets[i].Fitness.Abs.Value > s.Nets[j].Fitness.Abs.Value
	})
	for _, net := range s.Nets {
		net.Fitness.Rel.Update(stat.Stats.Offset(net.Fitness.Abs.Value))
	}
	s.Fitness.Abs.Update(stat.Stats.Mean)
	return s.Nets[0]
}

// Registry is the process-wide set of distinct genomes and the
// networks realising each. Lookups scan linearly: genomes are few.
type Registry struct {
	conf    *Conf
	species []*Species
	nextID  int
}

// NewRegistry returns an empty registry.
func NewRegistry(conf *Conf) *Registry {
	return &Registry{conf: conf}
}

// Species lists the live species.
func (r *Registry) Species() []*Species {
	return r.species
}

// Count returns the number of live species.
func (r *Registry) Count() int {
	return len(r.species)
}

// Find returns the species matching the genome by value, or nil. With
// speciation disabled there is a single global species and every
// genome matches it.
func (r *Registry) Find(g *Genome) *Species {
	if !r.conf.Species.Enabled {
		if len(r.species) == 0 {
			return nil
		}
		return r.species[0]
	}
	for _, s := range r.species {
		if s.Genome.Equal(g) {
			return s
		}
	}
	return nil
}

// CanAdopt reports whether a network with the given shape could be
// registered: either a matching species exists or there is room for a
// new one under species.max.count.
func (r *Registry) CanAdopt(g *Genome) bool {
	if r.Find(g) != nil {
		return true
	}
	maxCount := r.conf.Species.Max.Count
	return maxCount == 0 || len(r.species) < maxCount
}

// Insert returns the species for the genome, creating it if the quota
// allows. Returns nil when the quota is exhausted.
func (r *Registry) Insert(g *Genome) *Species {
	if s := r.Find(g); s != nil {
		return s
	}
	maxCount := r.conf.Species.Max.Count
	if maxCount > 0 && len(r.species) >= maxCount {
		return nil
	}
	r.nextID++
	s := NewSpecies(r.nextID, g, r.conf.Fitness.Stat.Alpha)
	r.species = append(r.species, s)
	return s
}

// Register places a network in the species for its genome, creating
// the species if needed. Returns false when the quota forbids it.
func (r *Registry) Register(net *Network) bool {
	s := r.Insert(net.Genome())
	if s == nil {
		return false
	}
	s.Add(net)
	return true
}

// Reassign moves a network to the species matching its current shape,
// typically after a structural mutation. Empty species are removed by
// the next Prune.
func (r *Registry) Reassign(net *Network) bool {
	s := r.Insert(net.Genome())
	if s == nil {
		return false
	}
	if net.species == s {
		return true
	}
	if net.species != nil {
		net.species.Erase(net)
	}
	s.Add(net)
	return true
}

// Remove erases a network from its species.
func (r *Registry) Remove(net *Network) {
	if net.species != nil {
		net.species.Erase(net)
	}
}

// Prune drops species with no members.
func (r *Registry) Prune() {
	kept := r.species[:0]
	for _, s := range r.species {
		if !s.IsEmpty() {
			kept = append(kept, s)
		}
	}
	r.species = kept
}

// Reset clears the registry for a fresh run.
func (r *Registry) Reset() {
	r.species = nil
	r.nextID = 0
}
