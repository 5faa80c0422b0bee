package cortex

// LinkDef describes a link to be created: its type and, optionally, an
// explicit weight definition. A nil weight falls back to the
// configured link.weight definition.
type LinkDef struct {
	Type   LinkType  `json:"type"`
	Weight *ParamDef `json:"weight,omitempty"`
}

// Link is a weighted directed connection owned by its target node and
// keyed there by the source node.
type Link struct {
	Type   LinkType  `json:"type"`
	Weight Parameter `json:"weight"`

	// Age in generations since the link was created.
	Age int `json:"age"`
}

// NewLink creates a link from a definition, drawing the weight from the
// definition's distribution (or the supplied default when the
// definition carries none).
func NewLink(def LinkDef, defaultWeight *ParamDef) *Link {
	wd := def.Weight
	if wd == nil {
		wd = defaultWeight
	}
	return &Link{
		Type:   def.Type,
		Weight: NewParameter(wd),
	}
}

// CloneLink copies another link's type and weight. The age is not
// carried over: the copy is a new connection.
func CloneLink(other *Link) *Link {
	return &Link{
		Type:   other.Type,
		Weight: CloneParameter(&other.Weight),
	}
}

// LTP potentiates the link: excitatory weights (w >= 0) move toward the
// upper bound, inhibitory weights (w < 0) toward the lower bound, both
// in proportion to the remaining headroom.
func (l *Link) LTP(dw float64) {
	w := l.Weight.Value
	if w >= 0.0 {
		l.Weight.Value += dw * (l.Weight.Max - w)
	} else {
		l.Weight.Value += dw * (l.Weight.Min - w)
	}
}

// LTD depresses the link. Excitatory weights decay toward zero at the
// configured depression/potentiation ratio; inhibitory weights are
// potentiated further toward the lower bound.
func (l *Link) LTD(dw, dpRatio float64) {
	w := l.Weight.Value
	if w >= 0.0 {
		l.Weight.Value += dw * (-dpRatio * w)
	} else {
		l.Weight.Value += dw * (l.Weight.Min - w)
	}
}
