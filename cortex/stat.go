package cortex

import (
	"math"
	"sort"
)

// Stats tracks a moving mean and variance in one of two modes: simple
// (running Welford update) or exponential with a forgetting factor
// alpha in (0,1). Only the mean and variance are stored; the current
// value, where needed, lives in StatPack.
type Stats struct {
	MA    MAType  `json:"ma"`
	Alpha float64 `json:"alpha"` // forgetting factor (EMA) or sample count (SMA)
	Mean  float64 `json:"mean"`

	// Var accumulates the sum of squared deviations (Welford M2) in
	// simple mode and the variance itself in exponential mode; read
	// it through Variance.
	Var float64 `json:"var"`
}

// NewStats returns a simple (Welford) statistics bundle.
func NewStats() Stats {
	return Stats{MA: SimpleMA}
}

// NewEMAStats returns an exponential statistics bundle with the given
// forgetting factor.
func NewEMAStats(alpha float64) Stats {
	return Stats{MA: ExponentialMA, Alpha: alpha}
}

// Update folds a new observation into the mean and variance.
func (st *Stats) Update(x float64) {
	switch st.MA {
	case ExponentialMA:
		diff := x - st.Mean
		inc := st.Alpha * diff
		st.Mean += inc
		st.Var = (1.0 - st.Alpha) * (st.Var + diff*inc)
	default:
		st.Alpha++
		delta := x - st.Mean
		st.Mean += delta / st.Alpha
		st.Var += delta * (x - st.Mean)
	}
}

// Variance returns the tracked variance: the accumulated squared
// deviations over the count in simple mode, the stored value in
// exponential mode.
func (st *Stats) Variance() float64 {
	if st.MA == SimpleMA {
		if st.Alpha < 1 {
			return 0.0
		}
		return st.Var / st.Alpha
	}
	return st.Var
}

// SD computes the standard deviation on demand from the variance.
func (st *Stats) SD() float64 {
	return math.Sqrt(st.Variance())
}

// Offset returns a bounded, saturating measure of how far x lies from
// the mean: Logistic((x - mean) / sd). When the variance vanishes the
// divisor falls back to |x|, then |mean|, then 1, so the result is
// defined on constant streams.
func (st *Stats) Offset(x float64) float64 {
	return st.OffsetFunc(x, Logistic)
}

// OffsetFunc is Offset with an explicit saturating function, which must
// be one of the bounded transfer functions (Logistic or Tanh).
func (st *Stats) OffsetFunc(x float64, f Func) float64 {
	div := 1.0
	switch {
	case st.Variance() > 0.0:
		div = st.SD()
	case x != 0.0:
		div = math.Abs(x)
	case st.Mean != 0.0:
		div = math.Abs(st.Mean)
	}
	return Transfer(f, (x-st.Mean)/div)
}

// Reset clears the accumulated statistics but keeps the mode and, for
// EMA, the forgetting factor.
func (st *Stats) Reset() {
	if st.MA == SimpleMA {
		st.Alpha = 0.0
	}
	st.Mean = 0.0
	st.Var = 0.0
}

// StatPack couples a current value with its running statistics.
type StatPack struct {
	Stats
	Value float64 `json:"value"`
}

// NewStatPack returns a simple-mode pack.
func NewStatPack() StatPack {
	return StatPack{Stats: NewStats()}
}

// NewEMAStatPack returns an exponential-mode pack.
func NewEMAStatPack(alpha float64) StatPack {
	return StatPack{Stats: NewEMAStats(alpha)}
}

// Update replaces the current value and folds it into the statistics.
func (sp *StatPack) Update(x float64) {
	sp.Value = x
	sp.Stats.Update(x)
}

// Add adds a delta to the current value and updates the statistics.
func (sp *StatPack) Add(delta float64) {
	sp.Update(sp.Value + delta)
}

// Offset returns the offset of the current value.
func (sp *StatPack) Offset() float64 {
	return sp.Stats.Offset(sp.Value)
}

// Reset clears the value and the statistics.
func (sp *StatPack) Reset() {
	sp.Value = 0.0
	sp.Stats.Reset()
}

// --- Slice statistics ---

// Mean calculates the average of a slice of float64 values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stdev calculates the sample standard deviation of a slice of float64
// values. Returns 0 for fewer than two values.
func Stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}
	mean := Mean(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)-1))
}

// Median calculates the median of a slice of float64 values.
// Returns NaN if the slice is empty.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2.0
}

// clamp restricts a value to a given range [minVal, maxVal].
func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(value, maxVal))
}
