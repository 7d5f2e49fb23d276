package classify

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusters returns n points per label scattered around (label*10, label*10).
func clusters(n int, labels ...float64) Dataset {
	r := rand.New(rand.NewSource(1))

	var d Dataset
	for i := 0; i < n; i++ {
		for _, label := range labels {
			d.X = append(d.X, []float64{label*10 + r.Float64(), label*10 + r.Float64()})
			d.Y = append(d.Y, label)
		}
	}

	return d
}

func TestLoadMatrix(t *testing.T) {
	rows, err := LoadMatrix(strings.NewReader("B,G,R\n1,2,3\n4,5,6\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, rows)
}

func TestNewDataset(t *testing.T) {
	features := [][]float64{{1, 2, 3}, {4, 5, 6}}

	d, err := NewDataset(features, [][]float64{{0}, {1}}, []int{2})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3}, {6}}, d.X)
	assert.Equal(t, []float64{0, 1}, d.Y)

	d, err = NewDataset(features, [][]float64{{0, 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, features, d.X)
	assert.Equal(t, []float64{0, 1}, d.Y)

	_, err = NewDataset(features, [][]float64{{0}, {1}, {1}}, nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch{}))

	_, err = NewDataset(features, [][]float64{{0}, {1}}, []int{3})
	assert.Error(t, err)
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	fpath := filepath.Join(dir, "features.csv")
	lpath := filepath.Join(dir, "labels.csv")
	require.NoError(t, os.WriteFile(fpath, []byte("B,G,R,area,perimeter\n1,2,3,4,5\n6,7,8,9,10\n"), 0o644))
	require.NoError(t, os.WriteFile(lpath, []byte("0,1\n"), 0o644))

	d, err := LoadDataset(fpath, lpath, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {6, 7}}, d.X)

	require.NoError(t, os.WriteFile(lpath, []byte("0\n1\n1\n"), 0o644))
	_, err = LoadDataset(fpath, lpath, nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch{}))
}

func TestSplit(t *testing.T) {
	d := clusters(10, 0, 1)

	train, test, err := Split(d, 0.25, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, test.Len())
	assert.Equal(t, 15, train.Len())

	again, _, err := Split(d, 0.25, 0)
	require.NoError(t, err)
	assert.Equal(t, train, again)

	_, _, err = Split(d, 0, 0)
	assert.Error(t, err)
	_, _, err = Split(Dataset{X: [][]float64{{1}}, Y: []float64{1}}, 0.3, 0)
	assert.Error(t, err)
}

func TestFolds(t *testing.T) {
	splits, err := folds([]float64{0, 1, 0, 1, 0, 1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, splits, 3)

	covered := 0
	for _, s := range splits {
		assert.Equal(t, 7, len(s[0])+len(s[1]))
		covered += len(s[1])
	}
	assert.Equal(t, 7, covered)

	_, err = folds([]float64{0, 1}, 3)
	assert.Error(t, err)
}

func TestFoldsAreStratified(t *testing.T) {
	// the minority label sits at the end, contiguous folds would put it all
	// in the last one
	y := []float64{0, 0, 0, 0, 0, 0, 1, 1, 1}

	splits, err := folds(y, 3)
	require.NoError(t, err)

	for i, s := range splits {
		counts := map[float64]int{}
		for _, j := range s[1] {
			counts[y[j]]++
		}
		assert.Equal(t, map[float64]int{0: 2, 1: 1}, counts, "fold %d", i)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KNN, SVM, MLP} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("forest")
	assert.Error(t, err)
}

func TestSpacesStayInRange(t *testing.T) {
	r := rand.New(rand.NewSource(0))

	for i := 0; i < 200; i++ {
		knn := DefaultSpace(KNN).Sample(r).(KNNParams)
		assert.True(t, knn.Neighbors >= 1 && knn.Neighbors <= 20)
		assert.True(t, knn.P >= 2 && knn.P <= 4)

		svm := DefaultSpace(SVM).Sample(r).(SVMParams)
		assert.Contains(t, []string{"linear", "rbf", "poly"}, svm.Kernel)
		assert.True(t, svm.Degree >= 2 && svm.Degree <= 4)

		mlp := DefaultSpace(MLP).Sample(r).(MLPParams)
		assert.True(t, mlp.Hidden >= 8 && mlp.Hidden <= 31)
		assert.True(t, mlp.Alpha >= 1e-5 && mlp.Alpha <= 2.01e-3)
	}
}

func TestUnsupportedEstimators(t *testing.T) {
	_, err := NewEstimator(SVMParams{Kernel: "rbf", Degree: 3})
	assert.True(t, errors.Is(err, ErrUnsupportedEstimator{}))

	_, err = NewEstimator(MLPParams{Hidden: 10, Alpha: 1e-4})
	assert.True(t, errors.Is(err, ErrUnsupportedEstimator{}))

	_, err = RandomSearch(clusters(5, 0, 1), DefaultSpace(SVM), 2, 3, 0)
	assert.True(t, errors.Is(err, ErrUnsupportedEstimator{}))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(KNN))
	assert.False(t, Supported(SVM))
	assert.False(t, Supported(MLP))
}

func TestKNearest(t *testing.T) {
	x := [][]float64{{0, 0}, {0, 1}, {10, 10}, {10, 11}, {11, 10}}
	y := []float64{0, 0, 1, 1, 1}

	est, err := NewEstimator(KNNParams{Neighbors: 3, Weights: Uniform, P: 2})
	require.NoError(t, err)
	require.NoError(t, est.Fit(x, y))

	assert.Equal(t, []float64{0, 1}, est.Predict([][]float64{{1, 1}, {9, 9}}))

	// Uniform voting over all five would pick label 1.
	x = [][]float64{{0}, {0.5}, {5}, {5.5}, {6}}
	y = []float64{0, 0, 1, 1, 1}
	near, err := NewEstimator(KNNParams{Neighbors: 5, Weights: Distance, P: 2})
	require.NoError(t, err)
	require.NoError(t, near.Fit(x, y))
	assert.Equal(t, []float64{0}, near.Predict([][]float64{{0.1}}))

	// Exact matches win outright.
	assert.Equal(t, []float64{1}, near.Predict([][]float64{{5}}))

	// Ties go to the smaller label.
	tie, err := NewEstimator(KNNParams{Neighbors: 2, Weights: Uniform, P: 2})
	require.NoError(t, err)
	require.NoError(t, tie.Fit([][]float64{{0}, {2}}, []float64{1, 0}))
	assert.Equal(t, []float64{0}, tie.Predict([][]float64{{1}}))

	_, err = NewEstimator(KNNParams{Neighbors: 0, P: 2})
	assert.Error(t, err)
}

func TestRandomSearchAndEvaluate(t *testing.T) {
	d := clusters(15, 0, 1, 2)

	train, test, err := Split(d, 0.3, 0)
	require.NoError(t, err)

	space := KNNSpace{MinNeighbors: 1, MaxNeighbors: 5, Weights: []Weighting{Uniform, Distance}, MinP: 2, MaxP: 4}

	result, err := RandomSearch(train, space, 4, 3, 0)
	require.NoError(t, err)
	require.NotNil(t, result.Estimator)
	assert.Equal(t, KNN, result.Params.Kind())
	assert.InDelta(t, 1, result.Score, 1e-9)

	again, err := RandomSearch(train, space, 4, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, result.Params, again.Params)

	report := Evaluate(result.Estimator, train, test)
	assert.InDelta(t, 1, report.TrainAccuracy, 1e-9)
	assert.InDelta(t, 1, report.TestAccuracy, 1e-9)
	assert.InDelta(t, 1, report.F1, 1e-9)
}

func TestMacroScores(t *testing.T) {
	truth := []float64{0, 0, 1, 1}
	predicted := []float64{0, 1, 1, 1}

	p, r, f := MacroScores(truth, predicted)
	// label 0: p=1 r=0.5 f=2/3, label 1: p=2/3 r=1 f=0.8
	assert.InDelta(t, (1+2.0/3)/2, p, 1e-9)
	assert.InDelta(t, 0.75, r, 1e-9)
	assert.InDelta(t, (2.0/3+0.8)/2, f, 1e-9)

	assert.InDelta(t, 0.75, Accuracy(truth, predicted), 1e-9)
	assert.Zero(t, Accuracy(nil, nil))
}
