package classify

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Result is the outcome of a RandomSearch.
type Result struct {
	Params    Params
	Score     float64
	Estimator Estimator
}

// Search samples hyper-parameters from a Space and keeps the one with the best
// cross-validated accuracy.
type Search struct {
	Space      Space
	Iterations int
	Folds      int
	Seed       int64
	Logger     *logrus.Logger
}

func (s Search) logger() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

// RandomSearch is Search{...}.Run(train) without logging overrides.
func RandomSearch(train Dataset, space Space, iterations, folds int, seed int64) (Result, error) {
	return Search{Space: space, Iterations: iterations, Folds: folds, Seed: seed}.Run(train)
}

// Run scores every sampled candidate by k-fold accuracy and refits the best
// one on all of train. Ties keep the earliest candidate.
func (s Search) Run(train Dataset) (Result, error) {
	if s.Iterations < 1 {
		return Result{}, fmt.Errorf("random search needs at least one iteration, got %d", s.Iterations)
	}

	splits, err := folds(train.Y, s.Folds)
	if err != nil {
		return Result{}, err
	}

	r := rand.New(rand.NewSource(s.Seed))

	best := Result{Score: -1}
	for i := 0; i < s.Iterations; i++ {
		params := s.Space.Sample(r)

		score, err := crossValidate(train, params, splits)
		if err != nil {
			return Result{}, err
		}

		s.logger().WithFields(logrus.Fields{
			"iteration": i,
			"params":    params,
			"accuracy":  score,
		}).Debug("scored candidate")

		if score > best.Score {
			best = Result{Params: params, Score: score}
		}
	}

	est, err := NewEstimator(best.Params)
	if err != nil {
		return Result{}, err
	}
	if err := est.Fit(train.X, train.Y); err != nil {
		return Result{}, fmt.Errorf("unable to refit best estimator: %w", err)
	}
	best.Estimator = est

	return best, nil
}

func crossValidate(d Dataset, params Params, splits [][2][]int) (float64, error) {
	var total float64
	for _, split := range splits {
		est, err := NewEstimator(params)
		if err != nil {
			return 0, err
		}

		train, validate := d.subset(split[0]), d.subset(split[1])
		if err := est.Fit(train.X, train.Y); err != nil {
			return 0, fmt.Errorf("unable to fit fold: %w", err)
		}

		total += Accuracy(validate.Y, est.Predict(validate.X))
	}

	return total / float64(len(splits)), nil
}
