package pipeline

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// HSV is a point in OpenCV's 8-bit HSV space (H 0-180, S and V 0-255).
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

func (h HSV) scalar() gocv.Scalar {
	return gocv.Scalar{Val1: h.H, Val2: h.S, Val3: h.V}
}

// Range is an inclusive HSV foreground range.
type Range struct {
	Name string `json:"name"`
	Min  HSV    `json:"min"`
	Max  HSV    `json:"max"`
}

// Config holds the tunables of a segmentation pipeline. Fractions are relative
// to the image so the same config works at any resolution.
type Config struct {
	// EdgeThreshold is the minimum contour area of the edge stage as a fraction
	// of the image area.
	EdgeThreshold float64 `json:"edgeThreshold"`
	// ColorThreshold is the same for the color stage.
	ColorThreshold float64 `json:"colorThreshold"`

	Ranges []Range `json:"ranges"`

	// SmoothingWindow is the half window of the boundary smoother as a fraction
	// of the shorter image side.
	SmoothingWindow float64 `json:"smoothingWindow"`
	SmoothingOrder  int     `json:"smoothingOrder"`

	// MaxSize downscales images whose longer side exceeds it. Zero disables it.
	MaxSize int `json:"maxSize"`
}

// DefaultConfig returns the ranges tuned for chili peppers on a light
// background: one green range and the two halves of red around the hue wrap.
func DefaultConfig() Config {
	return Config{
		EdgeThreshold:  0.05,
		ColorThreshold: 0.03,
		Ranges: []Range{
			{Name: "green", Min: HSV{30, 20, 0}, Max: HSV{70, 255, 255}},
			{Name: "lower-red", Min: HSV{0, 80, 20}, Max: HSV{30, 255, 230}},
			{Name: "upper-red", Min: HSV{160, 20, 5}, Max: HSV{180, 255, 255}},
		},
		SmoothingWindow: 0.05,
		SmoothingOrder:  3,
	}
}

// Validate reports the first problem found in c.
func (c Config) Validate() error {
	if c.EdgeThreshold < 0 || c.EdgeThreshold >= 1 {
		return fmt.Errorf("edge threshold %v out of [0, 1)", c.EdgeThreshold)
	}
	if c.ColorThreshold < 0 || c.ColorThreshold >= 1 {
		return fmt.Errorf("color threshold %v out of [0, 1)", c.ColorThreshold)
	}
	if len(c.Ranges) == 0 {
		return errors.New("at least one color range is required")
	}
	for _, r := range c.Ranges {
		if r.Min.H > r.Max.H || r.Min.S > r.Max.S || r.Min.V > r.Max.V {
			return fmt.Errorf("color range %q has min above max", r.Name)
		}
	}
	if c.SmoothingWindow < 0 {
		return fmt.Errorf("smoothing window %v is negative", c.SmoothingWindow)
	}
	if c.SmoothingOrder < 0 {
		return fmt.Errorf("smoothing order %d is negative", c.SmoothingOrder)
	}
	if c.MaxSize < 0 {
		return fmt.Errorf("max size %d is negative", c.MaxSize)
	}

	return nil
}
