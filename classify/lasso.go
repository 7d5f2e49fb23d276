package classify

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Lasso is an L1 regularized linear regression of one feature, minimizing
//
//	1/(2n) * sum((y - w*x - b)^2) + Alpha*|w|
//
// With a single centered feature the minimizer is the soft-thresholded
// least squares slope, so no iterative solver is needed.
type Lasso struct {
	Alpha float64

	Weight    float64
	Intercept float64
}

func column(x [][]float64) ([]float64, error) {
	col := make([]float64, len(x))
	for i, row := range x {
		if len(row) != 1 {
			return nil, fmt.Errorf("lasso takes one feature, row %d has %d", i, len(row))
		}
		col[i] = row[0]
	}

	return col, nil
}

func softThreshold(v, alpha float64) float64 {
	if math.Abs(v) <= alpha {
		return 0
	}

	return v - math.Copysign(alpha, v)
}

func (l *Lasso) Fit(x [][]float64, y []float64) error {
	if l.Alpha < 0 {
		return fmt.Errorf("lasso alpha %v is negative", l.Alpha)
	}
	if len(x) != len(y) {
		return ErrShapeMismatch{Features: len(x), Labels: len(y)}
	}
	if len(y) < 2 {
		return errors.New("unable to fit lasso on fewer than two samples")
	}

	xs, err := column(x)
	if err != nil {
		return err
	}

	// gonum's moments are unbiased, the objective uses 1/n
	n := float64(len(xs))
	variance := stat.Variance(xs, nil) * (n - 1) / n
	covariance := stat.Covariance(xs, y, nil) * (n - 1) / n

	l.Weight = 0
	if variance > 0 {
		l.Weight = softThreshold(covariance, l.Alpha) / variance
	}
	l.Intercept = stat.Mean(y, nil) - l.Weight*stat.Mean(xs, nil)

	return nil
}

func (l *Lasso) Predict(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = l.Weight*row[0] + l.Intercept
	}

	return out
}

// Score is the coefficient of determination of the predictions for x.
func (l *Lasso) Score(x [][]float64, y []float64) float64 {
	return stat.RSquaredFrom(l.Predict(x), y, nil)
}

// RegressionDataset pairs one feature column of rows with a target column.
func RegressionDataset(rows [][]float64, featureCol, targetCol int) (Dataset, error) {
	d := Dataset{X: make([][]float64, len(rows)), Y: make([]float64, len(rows))}
	for i, row := range rows {
		if featureCol < 0 || featureCol >= len(row) || targetCol < 0 || targetCol >= len(row) {
			return Dataset{}, fmt.Errorf("columns %d and %d out of range, row %d has %d", featureCol, targetCol, i, len(row))
		}

		d.X[i] = []float64{row[featureCol]}
		d.Y[i] = row[targetCol]
	}

	return d, nil
}

// LoadRegression reads a CSV table and pairs featureCol with targetCol.
func LoadRegression(path string, featureCol, targetCol int) (Dataset, error) {
	rows, err := readCSVFile(path)
	if err != nil {
		return Dataset{}, err
	}

	return RegressionDataset(rows, featureCol, targetCol)
}

// RegressionReport is a fitted Lasso and its score on held out data.
type RegressionReport struct {
	Weight    float64 `json:"weight"`
	Intercept float64 `json:"intercept"`
	TrainR2   float64 `json:"trainR2"`
	TestR2    float64 `json:"testR2"`
}

// Regress fits a Lasso on train and scores it on both sets.
func Regress(alpha float64, train, test Dataset) (RegressionReport, error) {
	l := &Lasso{Alpha: alpha}
	if err := l.Fit(train.X, train.Y); err != nil {
		return RegressionReport{}, fmt.Errorf("unable to fit lasso: %w", err)
	}

	return RegressionReport{
		Weight:    l.Weight,
		Intercept: l.Intercept,
		TrainR2:   l.Score(train.X, train.Y),
		TestR2:    l.Score(test.X, test.Y),
	}, nil
}
