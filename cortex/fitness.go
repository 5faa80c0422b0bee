package cortex

// Fitness holds a network's absolute and relative fitness together with
// the parameters touched by the last mutation. When the next score
// arrives, the observed effect on the absolute fitness is fed back into
// each tracked parameter so its mutation direction can adapt.
type Fitness struct {
	Abs StatPack `json:"abs"`
	Rel StatPack `json:"rel"`

	// Parameters registered by the last mutation.
	params []*Parameter
}

// NewFitness returns a fitness bundle with exponential statistics using
// the configured forgetting factor.
func NewFitness(alpha float64) Fitness {
	return Fitness{
		Abs: NewEMAStatPack(alpha),
		Rel: NewEMAStatPack(alpha),
	}
}

// AddParameter registers a parameter whose mutation should be steered
// by the next fitness observation.
func (f *Fitness) AddParameter(p *Parameter) {
	if p != nil {
		f.params = append(f.params, p)
	}
}

// ClearParameters forgets the tracked parameters. The slice is
// released rather than truncated so that copies of the bundle (cloned
// networks) never share a backing array.
func (f *Fitness) ClearParameters() {
	f.params = nil
}

// Set records a new absolute fitness value, first feeding the effect of
// the change into every tracked parameter. The SD scaling step is the
// learning.mutation.scale option.
func (f *Fitness) Set(value, scale float64) {
	effect := EffectUndef
	switch {
	case value > f.Abs.Value:
		effect = EffectInc
	case value < f.Abs.Value:
		effect = EffectDec
	}
	for _, p := range f.params {
		p.Optimise(effect, scale)
	}
	f.Abs.Update(value)
}
