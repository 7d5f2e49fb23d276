package pipeline

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothingWindow(t *testing.T) {
	tests := []struct {
		rows, cols int
		fraction   float64
		want       int
	}{
		{100, 100, 0.05, 11},
		{100, 300, 0.05, 11},
		{50, 80, 0.05, 5}, // 2.5 rounds to even
		{70, 80, 0.05, 9}, // 3.5 rounds to even
		{10, 10, 0, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SmoothingWindow(tt.rows, tt.cols, tt.fraction), "%dx%d", tt.rows, tt.cols)
	}
}

func TestSavitzkyGolayKeepsCubics(t *testing.T) {
	ys := make([]float64, 30)
	for i := range ys {
		x := float64(i)
		ys[i] = 0.01*x*x*x - 0.3*x*x + 2*x - 5
	}

	smoothed, err := SavitzkyGolay(ys, 7, 3)
	require.NoError(t, err)
	require.Len(t, smoothed, len(ys))

	for i := range ys {
		assert.InDelta(t, ys[i], smoothed[i], 1e-6, "sample %d", i)
	}
}

func TestSavitzkyGolayDampsNoise(t *testing.T) {
	ys := make([]float64, 50)
	for i := range ys {
		if i%2 == 0 {
			ys[i] = 1
		} else {
			ys[i] = -1
		}
	}

	smoothed, err := SavitzkyGolay(ys, 11, 3)
	require.NoError(t, err)

	for i := 5; i < 45; i++ {
		assert.Less(t, math.Abs(smoothed[i]), 0.5, "sample %d", i)
	}
}

func TestSavitzkyGolayWindowErrors(t *testing.T) {
	ys := make([]float64, 10)

	tests := []struct {
		name          string
		window, order int
	}{
		{"longer than input", 11, 3},
		{"even", 6, 3},
		{"zero", 0, 0},
		{"not above order", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SavitzkyGolay(ys, tt.window, tt.order)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSmoothingWindow{}))
			assert.NotEmpty(t, err.Error())
		})
	}
}

func TestSmoothContourPreservesCardinality(t *testing.T) {
	var c Contour
	for x := 0; x < 40; x++ {
		c = append(c, image.Pt(x, 10+(x%3)))
	}
	for x := 39; x >= 0; x-- {
		c = append(c, image.Pt(x, 30-(x%2)))
	}

	for _, window := range []int{5, 11, 21} {
		smoothed, err := SmoothContour(c, window, 3)
		require.NoError(t, err)
		assert.Len(t, smoothed, len(c))
	}
}

func TestSmoothContourStraightLine(t *testing.T) {
	var c Contour
	for i := 0; i < 20; i++ {
		c = append(c, image.Pt(i, 2*i+1))
	}

	smoothed, err := SmoothContour(c, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, c, smoothed)
}

func TestToPixel(t *testing.T) {
	tests := []struct {
		v    float64
		want int
	}{
		{2.7, 2},
		{2.2, 2},
		{2.9999999999, 3},
		{3.0000000001, 3},
		{-0.4, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, toPixel(tt.v), "%v", tt.v)
	}
}

func TestSmoothContourTruncates(t *testing.T) {
	var c Contour
	for x := 0; x < 20; x++ {
		c = append(c, image.Pt(x, 10+x%2))
	}

	// window 5, order 1 is a moving average: 10.4 or 10.6 inside
	smoothed, err := SmoothContour(c, 5, 1)
	require.NoError(t, err)

	for i := 2; i < len(c)-2; i++ {
		assert.Equal(t, c[i].X, smoothed[i].X)
		assert.Equal(t, 10, smoothed[i].Y, "point %d", i)
	}
}

func TestSmoothContourTooShort(t *testing.T) {
	c := Contour{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	_, err := SmoothContour(c, 11, 3)
	assert.True(t, errors.Is(err, ErrSmoothingWindow{}))
}
