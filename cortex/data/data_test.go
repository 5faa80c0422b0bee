package data

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	d := New()
	for i := 0; i < 100; i++ {
		d.Add(Sample{Input: []float64{float64(i)}, Label: fmt.Sprintf("s%d", i)})
	}

	weights := map[string]float64{"train": 0.8, "dev": 0.1, "test": 0.1}
	require.NoError(t, d.Partition(weights, 0))

	train := d.Set(Train)
	dev := d.Set(Dev)
	test := d.Set(Test)
	assert.Len(t, train, 80)
	assert.Len(t, dev, 10)
	assert.Len(t, test, 10)

	// Partitions are disjoint and cover the subset.
	seen := make(map[string]bool)
	for _, set := range [][]Sample{train, dev, test} {
		for _, s := range set {
			assert.False(t, seen[s.Label], "sample %s appears twice", s.Label)
			seen[s.Label] = true
		}
	}
	assert.Len(t, seen, 100)
}

func TestPartitionSubset(t *testing.T) {
	d := New()
	for i := 0; i < 50; i++ {
		d.Add(Sample{Input: []float64{float64(i)}})
	}
	require.NoError(t, d.Partition(map[string]float64{"train": 1.0}, 10))
	assert.Len(t, d.Set(Train), 10)
	assert.Empty(t, d.Set(Dev))
}

func TestPartitionRejectsBadWeights(t *testing.T) {
	d := New()
	d.Add(Sample{Input: []float64{1}})
	assert.Error(t, d.Partition(map[string]float64{"train": -1}, 0))
	assert.Error(t, d.Partition(map[string]float64{}, 0))
}

func TestWindows(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	d, err := Windows(series, 2)
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())

	all := d.All()
	assert.Equal(t, []float64{1, 2}, all[0].Input)
	assert.Equal(t, "3", all[0].Label)
	assert.Equal(t, []float64{3, 4}, all[2].Input)
	assert.Equal(t, "5", all[2].Label)

	_, err = Windows(series, 0)
	assert.Error(t, err)
	_, err = Windows(series, 5)
	assert.Error(t, err)
}

func TestFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.White)
		}
	}

	s := FromImage(img, 4, 4, "white")
	assert.Equal(t, "white", s.Label)
	require.Len(t, s.Input, 16)
	for _, v := range s.Input {
		assert.InDelta(t, 1.0, v, 0.01)
	}

	black := image.NewRGBA(image.Rect(0, 0, 8, 8))
	s = FromImage(black, 2, 2, "black")
	require.Len(t, s.Input, 4)
	for _, v := range s.Input {
		assert.InDelta(t, 0.0, v, 0.01)
	}
}
