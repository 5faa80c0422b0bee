package cortex

// ParamDef describes how a Parameter is initialised and bounded.
type ParamDef struct {
	Dist Dist    `json:"dist" ini:"-"`
	Mean float64 `json:"mean" ini:"mean"`
	SD   float64 `json:"sd" ini:"sd"`
	Min  float64 `json:"min" ini:"min"`
	Max  float64 `json:"max" ini:"max"`
}

// Initialise draws an initial value from the declared distribution.
// Out-of-bounds draws fall back to a uniform draw over [Min, Max].
func (pd *ParamDef) Initialise() float64 {
	val := RndDist(pd.Dist, pd.Mean, pd.SD)
	if val < pd.Min || val > pd.Max {
		val = RndReal(pd.Min, pd.Max)
	}
	return val
}

// Validate reports whether the definition is internally consistent.
func (pd *ParamDef) Validate(what string) []error {
	var errs []error
	if pd.Max < pd.Min {
		errs = append(errs, errf("%s: max (%g) is less than min (%g)", what, pd.Max, pd.Min))
	}
	if pd.SD <= 0.0 {
		errs = append(errs, errf("%s: sd must be positive, got %g", what, pd.SD))
	}
	return errs
}

// maxParamRetries bounds how many times a rejected perturbation is
// re-sampled before the value is clamped to the violated boundary.
const maxParamRetries = 8

// Parameter is a bounded mutable scalar with per-parameter mutation
// state: the standard deviation of its perturbation distribution and
// the direction the last perturbation took.
type Parameter struct {
	Value float64 `json:"value"`

	// Bounds, copied from the definition.
	Min float64 `json:"min"`
	Max float64 `json:"max"`

	// SD of the perturbation distribution.
	SD float64 `json:"sd"`

	// Direction chosen by the last mutation.
	Action Action `json:"-"`
}

// NewParameter draws a value from the definition and copies the
// mutation state.
func NewParameter(def *ParamDef) Parameter {
	return Parameter{
		Value:  def.Initialise(),
		Min:    def.Min,
		Max:    def.Max,
		SD:     def.SD,
		Action: ActionUndef,
	}
}

// CloneParameter copies another parameter's value and mutation state.
func CloneParameter(other *Parameter) Parameter {
	return *other
}

// Mutate perturbs the value by a draw from Normal(0, SD), honouring the
// direction chosen by previous mutations: Inc adds the magnitude, Dec
// subtracts it, Undef applies the signed draw and records its sign.
// A perturbation that leaves [Min, Max] is re-sampled up to
// maxParamRetries times; the final attempt clamps to the boundary.
// Returns whether the value actually changed.
func (p *Parameter) Mutate() bool {
	old := p.Value
	for try := 0; try < maxParamRetries; try++ {
		delta := RndNorm(0.0, p.SD)
		switch p.Action {
		case ActionInc:
			if delta < 0.0 {
				delta = -delta
			}
		case ActionDec:
			if delta > 0.0 {
				delta = -delta
			}
		}
		val := p.Value + delta
		if val < p.Min || val > p.Max {
			if try < maxParamRetries-1 {
				continue
			}
			val = clamp(val, p.Min, p.Max)
		}
		if p.Action == ActionUndef {
			if delta > 0.0 {
				p.Action = ActionInc
			} else if delta < 0.0 {
				p.Action = ActionDec
			}
		}
		p.Value = val
		break
	}
	return p.Value != old
}

// Optimise digests the effect of the last mutation on the owning
// network's fitness. An increase keeps the direction and grows the
// perturbation SD; a decrease flips the direction and anneals the SD; an
// indeterminate effect resets the direction.
func (p *Parameter) Optimise(effect Effect, scale float64) {
	switch effect {
	case EffectInc:
		p.ScaleSD(ActionInc, scale)
	case EffectDec:
		switch p.Action {
		case ActionInc:
			p.Action = ActionDec
		case ActionDec:
			p.Action = ActionInc
		default:
			p.Action = ActionUndef
		}
		p.ScaleSD(ActionDec, scale)
	default:
		p.Action = ActionUndef
	}
}

// ScaleSD grows or shrinks the perturbation SD by the learning scale
// factor. The SD stays strictly positive.
func (p *Parameter) ScaleSD(act Action, scale float64) {
	if act == ActionDec {
		p.SD *= 1.0 - scale
	} else {
		p.SD *= 1.0 + scale
	}
}

// InBounds reports whether the value lies within [Min, Max].
func (p *Parameter) InBounds() bool {
	return p.Value >= p.Min && p.Value <= p.Max
}
