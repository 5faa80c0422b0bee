// Package data provides the sample container consumed by evaluators:
// labelled input vectors partitioned into training, development and
// test sets. The core treats it as opaque; it only ever iterates over
// samples and feeds their inputs to networks.
package data

import (
	"fmt"

	"github.com/emer/emergent/erand"
)

// Sample is one labelled input vector.
type Sample struct {
	Input []float64
	Label string
}

// SetName identifies one of the three sample partitions.
type SetName int

const (
	Train SetName = iota
	Dev
	Test
)

var setNames = map[SetName]string{Train: "train", Dev: "dev", Test: "test"}

func (sn SetName) String() string { return setNames[sn] }

// Data is a collection of samples partitioned into sets.
type Data struct {
	samples []Sample
	sets    map[SetName][]int
}

// New returns an empty collection.
func New() *Data {
	return &Data{sets: make(map[SetName][]int)}
}

// Add appends a sample. Partitions are recomputed by the next call to
// Partition.
func (d *Data) Add(s Sample) {
	d.samples = append(d.samples, s)
}

// Len returns the total number of samples.
func (d *Data) Len() int {
	return len(d.samples)
}

// Partition shuffles the samples and splits them into train, dev and
// test sets with the given weights (which need not be normalised). A
// positive subset bounds the number of samples used; 0 means all.
func (d *Data) Partition(weights map[string]float64, subset int) error {
	total := 0.0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("negative set weight %g", w)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("no positive set weights")
	}

	n := len(d.samples)
	if subset > 0 && subset < n {
		n = subset
	}
	order := make([]int, len(d.samples))
	for i := range order {
		order[i] = i
	}
	erand.PermuteInts(order)
	order = order[:n]

	trainEnd := int(float64(n) * weights["train"] / total)
	devEnd := trainEnd + int(float64(n)*weights["dev"]/total)
	d.sets = map[SetName][]int{
		Train: order[:trainEnd],
		Dev:   order[trainEnd:devEnd],
		Test:  order[devEnd:],
	}
	return nil
}

// Set returns the samples of one partition. Before Partition has been
// called every set is empty; use All for the raw collection.
func (d *Data) Set(name SetName) []Sample {
	idxs := d.sets[name]
	out := make([]Sample, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, d.samples[i])
	}
	return out
}

// All returns every sample in insertion order.
func (d *Data) All() []Sample {
	return d.samples
}

// Windows converts a scalar time series into overlapping input windows
// of the given width, labelled by the value that follows each window.
// Used for data.type = time-series prediction tasks.
func Windows(series []float64, width int) (*Data, error) {
	if width < 1 {
		return nil, fmt.Errorf("window width must be positive, got %d", width)
	}
	if len(series) <= width {
		return nil, fmt.Errorf("series of %d values is too short for windows of %d", len(series), width)
	}
	d := New()
	for i := 0; i+width < len(series); i++ {
		window := make([]float64, width)
		copy(window, series[i:i+width])
		d.Add(Sample{
			Input: window,
			Label: fmt.Sprintf("%g", series[i+width]),
		})
	}
	return d, nil
}
