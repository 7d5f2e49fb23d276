// Package feature turns segmented images into fixed-layout numeric rows.
package feature

import (
	"fmt"
	"strings"

	"github.com/chiliquality/chiliquality-app/pipeline"
	"gocv.io/x/gocv"
)

// Variant selects the columns of a feature vector.
type Variant int

const (
	// Basic is mean color plus total contour area.
	Basic Variant = iota
	// WithPerimeter adds total contour perimeter to Basic.
	WithPerimeter
)

// Column indexes shared by every variant.
const (
	Blue = iota
	Green
	Red
	Area
	Perimeter
)

var columnNames = []string{"Blue", "Green", "Red", "Area", "Perimeter"}

// Columns returns the column names of v in order.
func (v Variant) Columns() []string {
	if v == Basic {
		return columnNames[:Perimeter]
	}

	return columnNames
}

// Header is the CSV header line of v.
func (v Variant) Header() string {
	return strings.Join(v.Columns(), ",")
}

func (v Variant) String() string {
	switch v {
	case Basic:
		return "basic"
	case WithPerimeter:
		return "perimeter"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant is the inverse of Variant.String.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "basic":
		return Basic, nil
	case "perimeter", "":
		return WithPerimeter, nil
	default:
		return 0, fmt.Errorf("unknown feature variant %q", s)
	}
}

// Vector is one row of features, laid out as Variant.Columns.
type Vector []float64

// MeanColor returns the mean blue, green and red of img over the non-zero
// pixels of mask, or zeros if mask is empty.
func MeanColor(img, mask gocv.Mat) [3]float64 {
	if mask.Empty() || gocv.CountNonZero(mask) == 0 {
		return [3]float64{}
	}

	mean := img.MeanWithMask(mask)

	return [3]float64{mean.Val1, mean.Val2, mean.Val3}
}

// Extract computes the feature vector of a segmented image.
func Extract(seg pipeline.Segment, v Variant) Vector {
	mean := MeanColor(seg.Image, seg.Region)

	var area, perimeter float64
	for _, c := range seg.Contours {
		area += c.Area()
		if v == WithPerimeter {
			perimeter += c.Perimeter()
		}
	}

	vec := Vector{mean[0], mean[1], mean[2], area}
	if v == WithPerimeter {
		vec = append(vec, perimeter)
	}

	return vec
}
