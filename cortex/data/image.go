package data

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
)

// Image ingestion for data.type = image: files are resized to the
// input layer's dimensions, converted to grayscale intensities in
// [0, 1] and flattened row-major into the sample's input vector.

// FromImage converts an image into a sample labelled with the given
// string, resampling it to width x height.
func FromImage(img image.Image, width, height int, label string) Sample {
	resized := transform.Resize(img, width, height, transform.Linear)
	rgba := clone.AsRGBA(resized)

	input := make([]float64, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := rgba.RGBAAt(x, y)
			// Luma weights, normalised to [0, 1].
			gray := (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255.0
			input = append(input, gray)
		}
	}
	return Sample{Input: input, Label: label}
}

// LoadImage reads an image file into a sample labelled with the name of
// its parent directory, the usual layout for image classification sets.
func LoadImage(path string, width, height int) (Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to open image '%s': %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to decode image '%s': %w", path, err)
	}
	label := filepath.Base(filepath.Dir(path))
	return FromImage(img, width, height, label), nil
}

// LoadImageDir loads every .png, .jpg and .jpeg file under the given
// directory into a collection, one subdirectory per label.
func LoadImageDir(dir string, width, height int) (*Data, error) {
	d := New()
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		switch filepath.Ext(path) {
		case ".png", ".jpg", ".jpeg":
		default:
			return nil
		}
		s, err := LoadImage(path, width, height)
		if err != nil {
			return err
		}
		d.Add(s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load images from '%s': %w", dir, err)
	}
	if d.Len() == 0 {
		return nil, fmt.Errorf("no images found under '%s'", dir)
	}
	return d, nil
}
