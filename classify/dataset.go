// Package classify trains and evaluates classifiers and regressors over
// feature tables.
package classify

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"

	"github.com/chiliquality/chiliquality-app/feature"
)

// ErrShapeMismatch is returned when features and labels disagree on the
// number of samples.
type ErrShapeMismatch struct {
	Features int
	Labels   int
}

func (err ErrShapeMismatch) Error() string {
	return fmt.Sprintf("%d feature rows but %d labels", err.Features, err.Labels)
}

func (err ErrShapeMismatch) Is(target error) bool {
	_, ok := target.(ErrShapeMismatch)
	return ok
}

// Dataset is a feature matrix with one label per row.
type Dataset struct {
	X [][]float64
	Y []float64
}

func (d Dataset) Len() int {
	return len(d.Y)
}

func (d Dataset) subset(idx []int) Dataset {
	sub := Dataset{X: make([][]float64, len(idx)), Y: make([]float64, len(idx))}
	for i, j := range idx {
		sub.X[i] = d.X[j]
		sub.Y[i] = d.Y[j]
	}

	return sub
}

// flattenLabels accepts either one label per row or a single row of labels.
func flattenLabels(rows [][]float64, samples int) ([]float64, error) {
	if len(rows) == 1 {
		return rows[0], nil
	}

	labels := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != 1 {
			return nil, fmt.Errorf("label row %d has %d values: %w", i, len(row), ErrShapeMismatch{Features: samples, Labels: len(rows)})
		}
		labels[i] = row[0]
	}

	return labels, nil
}

// NewDataset pairs features with labels, keeping only the given feature
// columns (all when columns is empty). A single column yields n x 1 rows.
func NewDataset(features, labels [][]float64, columns []int) (Dataset, error) {
	y, err := flattenLabels(labels, len(features))
	if err != nil {
		return Dataset{}, err
	}
	if len(features) != len(y) {
		return Dataset{}, ErrShapeMismatch{Features: len(features), Labels: len(y)}
	}

	x := make([][]float64, len(features))
	for i, row := range features {
		if len(columns) == 0 {
			x[i] = row
			continue
		}

		x[i] = make([]float64, len(columns))
		for j, c := range columns {
			if c < 0 || c >= len(row) {
				return Dataset{}, fmt.Errorf("feature column %d out of range, rows have %d columns", c, len(row))
			}
			x[i][j] = row[c]
		}
	}

	return Dataset{X: x, Y: y}, nil
}

// LoadMatrix reads comma separated rows of numbers, skipping a header row.
func LoadMatrix(r io.Reader) ([][]float64, error) {
	_, rows, err := feature.ReadCSV(r)
	return rows, err
}

func readCSVFile(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %q: %w", path, err)
	}
	defer f.Close()

	rows, err := LoadMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("unable to read %q: %w", path, err)
	}

	return rows, nil
}

// LoadDataset reads a feature table and a label file written as CSV.
func LoadDataset(featurePath, labelPath string, columns []int) (Dataset, error) {
	features, err := readCSVFile(featurePath)
	if err != nil {
		return Dataset{}, err
	}

	labels, err := readCSVFile(labelPath)
	if err != nil {
		return Dataset{}, err
	}

	return NewDataset(features, labels, columns)
}

// Split shuffles d with seed and holds out ceil(testFraction * n) rows.
func Split(d Dataset, testFraction float64, seed int64) (train, test Dataset, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return train, test, fmt.Errorf("test fraction %v out of (0, 1)", testFraction)
	}

	n := d.Len()
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest < 1 || nTest >= n {
		return train, test, fmt.Errorf("unable to split %d samples with test fraction %v", n, testFraction)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)

	return d.subset(perm[nTest:]), d.subset(perm[:nTest]), nil
}

// folds splits the samples labelled y into k stratified folds and returns,
// for each, the training and validation indexes in ascending order. Every
// label is dealt round robin across the folds so each fold sees roughly the
// label mix of the whole set.
func folds(y []float64, k int) ([][2][]int, error) {
	n := len(y)
	if k < 2 || k > n {
		return nil, fmt.Errorf("unable to make %d folds of %d samples", k, n)
	}

	byLabel := make(map[float64][]int)
	for i, label := range y {
		byLabel[label] = append(byLabel[label], i)
	}

	labels := make([]float64, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	fold := make([]int, n)
	next := 0
	for _, label := range labels {
		for _, i := range byLabel[label] {
			fold[i] = next % k
			next++
		}
	}

	out := make([][2][]int, k)
	for f := 0; f < k; f++ {
		var train, validate []int
		for i := 0; i < n; i++ {
			if fold[i] == f {
				validate = append(validate, i)
			} else {
				train = append(train, i)
			}
		}

		out[f] = [2][]int{train, validate}
	}

	return out, nil
}
