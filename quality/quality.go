// Package quality estimates nutrient content from the mean color of a
// segmented chili.
package quality

import (
	"fmt"

	"github.com/chiliquality/chiliquality-app/feature"
)

// Estimate holds linear nutrient estimates, truncated toward zero.
type Estimate struct {
	VitaminC int `json:"vitaminC"`
	Carotene int `json:"carotene"`
}

func rgb(v feature.Vector) (r, g, b float64, err error) {
	if len(v) <= feature.Red {
		return 0, 0, 0, fmt.Errorf("feature vector has %d columns, need mean color", len(v))
	}

	return v[feature.Red], v[feature.Green], v[feature.Blue], nil
}

// VitaminC estimates vitamin C from mean color.
func VitaminC(v feature.Vector) (int, error) {
	r, g, b, err := rgb(v)
	if err != nil {
		return 0, err
	}

	return int(112.304 + 0.713*r - 1.774*g + 2.569*b), nil
}

// Carotene estimates carotene from mean color.
func Carotene(v feature.Vector) (int, error) {
	r, g, b, err := rgb(v)
	if err != nil {
		return 0, err
	}

	return int(310.983 - 1.238*r - 8.033*g + 3.894*b), nil
}

func Estimates(v feature.Vector) (Estimate, error) {
	vc, err := VitaminC(v)
	if err != nil {
		return Estimate{}, err
	}

	c, err := Carotene(v)
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{VitaminC: vc, Carotene: c}, nil
}
