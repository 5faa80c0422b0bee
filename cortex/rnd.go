package cortex

import (
	"math"
	"math/rand"
	"time"

	"github.com/emer/emergent/erand"
)

// Random draws go through the process-wide math/rand source, which is
// internally locked and therefore safe to use from worker goroutines.
// Determinism of results across threads is explicitly not a contract.

// SeedRNG reseeds the process RNG. A seed of 0 reseeds from the clock.
func SeedRNG(seed int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rand.Seed(seed)
}

// RndReal returns a uniform random number in [lo, hi).
func RndReal(lo, hi float64) float64 {
	return lo + (hi-lo)*rand.Float64()
}

// RndInt returns a uniform random integer in [lo, hi].
func RndInt(lo, hi int) int {
	return lo + rand.Intn(hi-lo+1)
}

// RndNorm returns a draw from Normal(mean, sd).
func RndNorm(mean, sd float64) float64 {
	return rand.NormFloat64()*sd + mean
}

// RndPosNorm returns the absolute value of a draw from Normal(0, sd).
func RndPosNorm(sd float64) float64 {
	return math.Abs(RndNorm(0.0, sd))
}

// RndChance returns true with probability p.
func RndChance(p float64) bool {
	if p <= 0.0 {
		return false
	}
	if p >= 1.0 {
		return true
	}
	return rand.Float64() < p
}

// RndDist draws a value from the given distribution with the given mean
// and variability. The half-normal variants fold the Gaussian draw onto
// one side of the mean.
func RndDist(dist Dist, mean, sd float64) float64 {
	rp := erand.RndParams{Mean: mean, Var: sd}
	switch dist {
	case FixedDist:
		rp.Dist = erand.Mean
		return rp.Gen(-1)
	case UniformDist:
		rp.Dist = erand.Uniform
		return rp.Gen(-1)
	case PosNormalDist:
		rp.Dist = erand.Gaussian
		rp.Mean = 0
		return mean + math.Abs(rp.Gen(-1))
	case NegNormalDist:
		rp.Dist = erand.Gaussian
		rp.Mean = 0
		return mean - math.Abs(rp.Gen(-1))
	default:
		rp.Dist = erand.Gaussian
		return rp.Gen(-1)
	}
}

// Wheel is a weighted roulette wheel over items of any type. Weights
// need not be normalised; non-positive weights make an item
// unselectable by Spin but still selectable by FlipSpin.
type Wheel[T any] struct {
	Items   []T
	Weights []float64
}

// Add appends an item with the given weight.
func (w *Wheel[T]) Add(item T, weight float64) {
	w.Items = append(w.Items, item)
	w.Weights = append(w.Weights, weight)
}

// IsEmpty reports whether the wheel has no items.
func (w *Wheel[T]) IsEmpty() bool {
	return len(w.Items) == 0
}

// Spin picks an item with probability proportional to its weight.
// With all weights non-positive the choice is uniform.
func (w *Wheel[T]) Spin() T {
	return w.Items[spin(w.Weights)]
}

// FlipSpin picks an item with probability inversely related to its
// weight: items with low weights become likely and vice versa.
func (w *Wheel[T]) FlipSpin() T {
	maxW := 0.0
	for _, wt := range w.Weights {
		if wt > maxW {
			maxW = wt
		}
	}
	flipped := make([]float64, len(w.Weights))
	for i, wt := range w.Weights {
		flipped[i] = maxW - wt + 1.0
	}
	return w.Items[spin(flipped)]
}

// spin picks an index proportionally to the weights via
// erand.PChoose64, normalising first.
func spin(weights []float64) int {
	total := 0.0
	for _, wt := range weights {
		if wt > 0.0 {
			total += wt
		}
	}
	if total <= 0.0 {
		return RndInt(0, len(weights)-1)
	}
	ps := make([]float64, len(weights))
	for i, wt := range weights {
		if wt > 0.0 {
			ps[i] = wt / total
		}
	}
	return erand.PChoose64(ps)
}
