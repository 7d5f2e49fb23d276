package pipeline

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSmoothingWindow is returned when a smoothing window can't be applied to a
// sequence, either because the window itself is malformed or because the
// sequence is shorter than the window.
type ErrSmoothingWindow struct {
	Window int
	Order  int
	Points int
}

func (err ErrSmoothingWindow) Error() string {
	switch {
	case err.Window < 1 || err.Window%2 == 0:
		return fmt.Sprintf("smoothing window %d must be a positive odd number", err.Window)
	case err.Window <= err.Order:
		return fmt.Sprintf("smoothing window %d must be larger than polynomial order %d", err.Window, err.Order)
	default:
		return fmt.Sprintf("smoothing window %d is larger than the %d points to smooth", err.Window, err.Points)
	}
}

func (err ErrSmoothingWindow) Is(target error) bool {
	_, ok := target.(ErrSmoothingWindow)
	return ok
}

// SmoothingWindow sizes the smoothing window from the image: the half width is
// fraction of the shorter side, rounded half to even.
func SmoothingWindow(rows, cols int, fraction float64) int {
	half := int(math.RoundToEven(float64(min(rows, cols)) * fraction))
	return 2*half + 1
}

// savgolProjection returns the (order+1) x window matrix mapping a window of
// samples centered on t=0 to the coefficients of its least-squares polynomial.
func savgolProjection(window, order int) (*mat.Dense, error) {
	half := window / 2

	vandermonde := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		t := float64(i - half)
		v := 1.0
		for j := 0; j <= order; j++ {
			vandermonde.Set(i, j, v)
			v *= t
		}
	}

	ones := make([]float64, window)
	for i := range ones {
		ones[i] = 1
	}

	var projection mat.Dense
	if err := projection.Solve(vandermonde, mat.NewDiagDense(window, ones)); err != nil {
		return nil, fmt.Errorf("unable to solve savitzky-golay system: %w", err)
	}

	return &projection, nil
}

func evalPolynomial(coeffs []float64, t float64) float64 {
	v := 0.0
	for j := len(coeffs) - 1; j >= 0; j-- {
		v = v*t + coeffs[j]
	}

	return v
}

// SavitzkyGolay fits a polynomial of the given order to every window of ys and
// evaluates it at the window center. The first and last window/2 samples are
// taken from the polynomial fitted to the first and last full window.
func SavitzkyGolay(ys []float64, window, order int) ([]float64, error) {
	if window < 1 || window%2 == 0 || window <= order || window > len(ys) {
		return nil, ErrSmoothingWindow{Window: window, Order: order, Points: len(ys)}
	}

	projection, err := savgolProjection(window, order)
	if err != nil {
		return nil, err
	}

	half := window / 2
	n := len(ys)
	out := make([]float64, n)

	center := projection.RawRowView(0)
	for k := half; k < n-half; k++ {
		v := 0.0
		for i, c := range center {
			v += c * ys[k-half+i]
		}
		out[k] = v
	}

	fit := func(samples []float64) []float64 {
		coeffs := mat.NewVecDense(order+1, nil)
		coeffs.MulVec(projection, mat.NewVecDense(window, samples))
		return coeffs.RawVector().Data
	}

	head := fit(ys[:window])
	for k := 0; k < half; k++ {
		out[k] = evalPolynomial(head, float64(k-half))
	}

	tail := fit(ys[n-window:])
	for k := n - half; k < n; k++ {
		out[k] = evalPolynomial(tail, float64(k-(n-1-half)))
	}

	return out, nil
}

// pixelSnap absorbs float error of the filter on already integral values.
const pixelSnap = 1e-6

// toPixel truncates a smoothed coordinate toward zero.
func toPixel(v float64) int {
	if r := math.Round(v); math.Abs(v-r) < pixelSnap {
		return int(r)
	}

	return int(v)
}

// SmoothContour smooths the x and y coordinates of c independently. The
// result has the same number of points in the same order.
func SmoothContour(c Contour, window, order int) (Contour, error) {
	xs := make([]float64, len(c))
	ys := make([]float64, len(c))
	for i, p := range c {
		xs[i] = float64(p.X)
		ys[i] = float64(p.Y)
	}

	sx, err := SavitzkyGolay(xs, window, order)
	if err != nil {
		return nil, err
	}

	sy, err := SavitzkyGolay(ys, window, order)
	if err != nil {
		return nil, err
	}

	smoothed := make(Contour, len(c))
	for i := range smoothed {
		smoothed[i] = image.Point{X: toPixel(sx[i]), Y: toPixel(sy[i])}
	}

	return smoothed, nil
}
