package classify

import (
	"fmt"
	"math/rand"
	"strings"
)

// Kind names a classifier family.
type Kind int

const (
	KNN Kind = iota
	SVM
	MLP
)

func (k Kind) String() string {
	switch k {
	case KNN:
		return "knn"
	case SVM:
		return "svm"
	case MLP:
		return "mlp"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "knn", "":
		return KNN, nil
	case "svm":
		return SVM, nil
	case "mlp":
		return MLP, nil
	default:
		return 0, fmt.Errorf("unknown estimator %q", s)
	}
}

// ErrUnsupportedEstimator is returned for a Kind that has no estimator.
type ErrUnsupportedEstimator struct {
	Kind Kind
}

func (err ErrUnsupportedEstimator) Error() string {
	return fmt.Sprintf("estimator %s is not supported", err.Kind)
}

func (err ErrUnsupportedEstimator) Is(target error) bool {
	_, ok := target.(ErrUnsupportedEstimator)
	return ok
}

// Estimator is a classifier over float labels.
type Estimator interface {
	Fit(x [][]float64, y []float64) error
	Predict(x [][]float64) []float64
}

// Params is one point of a search space.
type Params interface {
	Kind() Kind
}

// Space is a hyper-parameter search space for one Kind.
type Space interface {
	Kind() Kind
	Sample(r *rand.Rand) Params
}

type Weighting int

const (
	Uniform Weighting = iota
	Distance
)

func (w Weighting) String() string {
	if w == Distance {
		return "distance"
	}
	return "uniform"
}

type KNNParams struct {
	Neighbors int
	Weights   Weighting
	P         int
}

func (KNNParams) Kind() Kind { return KNN }

func (p KNNParams) String() string {
	return fmt.Sprintf("neighbors=%d weights=%s p=%d", p.Neighbors, p.Weights, p.P)
}

// KNNSpace ranges are inclusive.
type KNNSpace struct {
	MinNeighbors, MaxNeighbors int
	Weights                    []Weighting
	MinP, MaxP                 int
}

func (KNNSpace) Kind() Kind { return KNN }

func (s KNNSpace) Sample(r *rand.Rand) Params {
	return KNNParams{
		Neighbors: intBetween(r, s.MinNeighbors, s.MaxNeighbors),
		Weights:   s.Weights[r.Intn(len(s.Weights))],
		P:         intBetween(r, s.MinP, s.MaxP),
	}
}

type SVMParams struct {
	Kernel string
	Degree int
}

func (SVMParams) Kind() Kind { return SVM }

type SVMSpace struct {
	Kernels              []string
	MinDegree, MaxDegree int
}

func (SVMSpace) Kind() Kind { return SVM }

func (s SVMSpace) Sample(r *rand.Rand) Params {
	return SVMParams{
		Kernel: s.Kernels[r.Intn(len(s.Kernels))],
		Degree: intBetween(r, s.MinDegree, s.MaxDegree),
	}
}

type MLPParams struct {
	Hidden int
	Alpha  float64
}

func (MLPParams) Kind() Kind { return MLP }

type MLPSpace struct {
	MinHidden, MaxHidden int
	MinAlpha, MaxAlpha   float64
}

func (MLPSpace) Kind() Kind { return MLP }

func (s MLPSpace) Sample(r *rand.Rand) Params {
	return MLPParams{
		Hidden: intBetween(r, s.MinHidden, s.MaxHidden),
		Alpha:  s.MinAlpha + r.Float64()*(s.MaxAlpha-s.MinAlpha),
	}
}

func intBetween(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// DefaultSpace returns the search space used by the classify command.
func DefaultSpace(k Kind) Space {
	switch k {
	case SVM:
		return SVMSpace{Kernels: []string{"linear", "rbf", "poly"}, MinDegree: 2, MaxDegree: 4}
	case MLP:
		return MLPSpace{MinHidden: 8, MaxHidden: 31, MinAlpha: 1e-5, MaxAlpha: 2.01e-3}
	default:
		return KNNSpace{
			MinNeighbors: 1, MaxNeighbors: 20,
			Weights: []Weighting{Uniform, Distance},
			MinP:    2, MaxP: 4,
		}
	}
}

// Kinds lists every Kind.
var Kinds = []Kind{KNN, SVM, MLP}

// Supported reports whether NewEstimator can build an estimator of kind k.
func Supported(k Kind) bool {
	p := DefaultSpace(k).Sample(rand.New(rand.NewSource(0)))
	_, err := NewEstimator(p)
	return err == nil
}

// NewEstimator builds an unfitted estimator for p.
func NewEstimator(p Params) (Estimator, error) {
	if p == nil {
		return nil, fmt.Errorf("unable to build estimator without params")
	}

	switch p := p.(type) {
	case KNNParams:
		if p.Neighbors < 1 {
			return nil, fmt.Errorf("knn needs at least one neighbor, got %d", p.Neighbors)
		}
		if p.P < 1 {
			return nil, fmt.Errorf("knn minkowski p must be >= 1, got %d", p.P)
		}
		return &KNearest{Params: p}, nil
	default:
		return nil, ErrUnsupportedEstimator{Kind: p.Kind()}
	}
}
