package classify

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// KNearest is a k-nearest-neighbors classifier using the Minkowski distance.
type KNearest struct {
	Params KNNParams

	x [][]float64
	y []float64
}

func (k *KNearest) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return errors.New("unable to fit knn on an empty dataset")
	}
	if len(x) != len(y) {
		return ErrShapeMismatch{Features: len(x), Labels: len(y)}
	}

	k.x, k.y = x, y
	return nil
}

type neighbor struct {
	distance float64
	label    float64
}

func (k *KNearest) neighbors(q []float64) []neighbor {
	all := make([]neighbor, len(k.x))
	for i, row := range k.x {
		all[i] = neighbor{
			distance: floats.Distance(q, row, float64(k.Params.P)),
			label:    k.y[i],
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].distance < all[j].distance
	})

	n := k.Params.Neighbors
	if n > len(all) {
		n = len(all)
	}

	return all[:n]
}

// vote returns the label with the largest weight, the smallest label on ties.
func (k *KNearest) vote(near []neighbor) float64 {
	weights := make(map[float64]float64)

	exact := false
	if k.Params.Weights == Distance {
		for _, n := range near {
			if n.distance == 0 {
				exact = true
				weights[n.label]++
			}
		}
	}

	if !exact {
		for _, n := range near {
			w := 1.0
			if k.Params.Weights == Distance {
				w = 1 / n.distance
			}
			weights[n.label] += w
		}
	}

	labels := make([]float64, 0, len(weights))
	for label := range weights {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	best := labels[0]
	for _, label := range labels[1:] {
		if weights[label] > weights[best] {
			best = label
		}
	}

	return best
}

func (k *KNearest) Predict(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, q := range x {
		out[i] = k.vote(k.neighbors(q))
	}

	return out
}
