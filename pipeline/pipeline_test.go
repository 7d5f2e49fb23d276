package pipeline

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var (
	green = color.RGBA{G: 200, A: 255}
	black = color.RGBA{A: 255}
)

func blankImage(t *testing.T, rows, cols int) gocv.Mat {
	t.Helper()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { img.Close() })

	return img
}

func blankMask(t *testing.T, rows, cols int) gocv.Mat {
	t.Helper()

	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
	t.Cleanup(func() { mask.Close() })

	return mask
}

// fill paints the inclusive pixel rectangle from min to max.
func fill(m *gocv.Mat, minX, minY, maxX, maxY int, c color.RGBA) {
	gocv.Rectangle(m, image.Rect(minX, minY, maxX, maxY), c, -1)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"default", func(c *Config) {}, true},
		{"edge threshold of one", func(c *Config) { c.EdgeThreshold = 1 }, false},
		{"negative color threshold", func(c *Config) { c.ColorThreshold = -0.1 }, false},
		{"no ranges", func(c *Config) { c.Ranges = nil }, false},
		{"inverted range", func(c *Config) { c.Ranges[0].Min.H = 80 }, false},
		{"negative max size", func(c *Config) { c.MaxSize = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)

			err := config.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSignificantContoursThresholdIsStrict(t *testing.T) {
	mask := blankMask(t, 100, 100)
	// traced boundary runs through pixel centers 10..20, enclosing 10x10
	fill(&mask, 10, 10, 20, 20, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	assert.Empty(t, SignificantContours(mask, 0.01, gocv.ChainApproxSimple))

	contours := SignificantContours(mask, 0.0099, gocv.ChainApproxSimple)
	require.Len(t, contours, 1)
	assert.InDelta(t, 100, contours[0].Area(), 1e-9)
}

func TestSignificantContoursTopLevelOnly(t *testing.T) {
	mask := blankMask(t, 100, 100)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	// a ring with an island inside its hole
	fill(&mask, 10, 10, 70, 70, white)
	fill(&mask, 20, 20, 60, 60, black)
	fill(&mask, 30, 30, 50, 50, white)

	forest := FindForest(mask, gocv.ChainApproxSimple)
	require.Len(t, forest.Nodes, 3)

	roots := forest.Roots()
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	assert.False(t, roots[0].Children[0].TopLevel())
	assert.Len(t, roots[0].Children[0].Children, 1)

	contours := SignificantContours(mask, 0, gocv.ChainApproxSimple)
	require.Len(t, contours, 1)
	assert.InDelta(t, 3600, contours[0].Area(), 1e-9)
}

func TestSignificantContoursSortedAscending(t *testing.T) {
	mask := blankMask(t, 100, 100)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	fill(&mask, 5, 5, 45, 45, white)
	fill(&mask, 60, 60, 70, 70, white)
	fill(&mask, 60, 5, 85, 30, white)

	contours := SignificantContours(mask, 0.005, gocv.ChainApproxSimple)
	require.Len(t, contours, 3)

	for i := 1; i < len(contours); i++ {
		assert.LessOrEqual(t, contours[i-1].Area(), contours[i].Area())
	}
	for _, c := range contours {
		assert.Greater(t, c.Area(), 0.005*100*100)
	}
}

func TestSignificantContoursEmptyMask(t *testing.T) {
	mask := blankMask(t, 40, 40)
	assert.Empty(t, SignificantContours(mask, 0.05, gocv.ChainApproxSimple))
}

func TestContourPerimeter(t *testing.T) {
	square := Contour{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	assert.InDelta(t, 40, square.Perimeter(), 1e-9)
	assert.InDelta(t, 100, square.Area(), 1e-9)
	assert.Zero(t, Contour{}.Area())
	assert.Zero(t, Contour{{3, 3}}.Perimeter())
}

func TestFillContoursAndApplyMask(t *testing.T) {
	img := blankImage(t, 30, 40)
	fill(&img, 0, 0, 39, 29, green)

	region := FillContours(30, 40, []Contour{{{5, 5}, {14, 5}, {14, 14}, {5, 14}}})
	defer region.Close()

	assert.Equal(t, 30, region.Rows())
	assert.Equal(t, 40, region.Cols())
	assert.Equal(t, 100, gocv.CountNonZero(region))

	masked := ApplyMask(img, region)
	defer masked.Close()

	assert.Equal(t, uint8(200), masked.GetVecbAt(10, 10)[1])
	assert.Equal(t, uint8(0), masked.GetVecbAt(20, 20)[1])
	// input untouched
	assert.Equal(t, uint8(200), img.GetVecbAt(20, 20)[1])
}

func TestColorMask(t *testing.T) {
	hsv := blankImage(t, 1, 4)
	hsv.SetUCharAt(0, 0*3+0, 50) // green
	hsv.SetUCharAt(0, 0*3+1, 200)
	hsv.SetUCharAt(0, 0*3+2, 200)
	hsv.SetUCharAt(0, 1*3+0, 170) // red across the hue wrap
	hsv.SetUCharAt(0, 1*3+1, 200)
	hsv.SetUCharAt(0, 1*3+2, 200)
	hsv.SetUCharAt(0, 2*3+0, 10) // red, too bright for the lower range
	hsv.SetUCharAt(0, 2*3+1, 200)
	hsv.SetUCharAt(0, 2*3+2, 250)
	hsv.SetUCharAt(0, 3*3+0, 110) // blue

	mask := ColorMask(hsv, DefaultConfig().Ranges)
	defer mask.Close()

	assert.Equal(t, uint8(255), mask.GetUCharAt(0, 0))
	assert.Equal(t, uint8(255), mask.GetUCharAt(0, 1))
	assert.Equal(t, uint8(0), mask.GetUCharAt(0, 2))
	assert.Equal(t, uint8(0), mask.GetUCharAt(0, 3))
}

func TestEdgeSegmentBlackImage(t *testing.T) {
	img := blankImage(t, 60, 80)

	seg, err := New(DefaultConfig()).EdgeSegment(img)
	require.NoError(t, err)
	defer seg.Close()

	assert.Empty(t, seg.Contours)
	assert.Equal(t, 0, gocv.CountNonZero(seg.Region))
	for _, m := range []gocv.Mat{seg.Image, seg.Mask, seg.Region} {
		assert.Equal(t, img.Rows(), m.Rows())
		assert.Equal(t, img.Cols(), m.Cols())
	}
}

func TestEdgeSegmentKeepsOutlinedRegion(t *testing.T) {
	img := blankImage(t, 100, 100)
	fill(&img, 25, 25, 74, 74, green)

	seg, err := New(DefaultConfig()).EdgeSegment(img)
	require.NoError(t, err)
	defer seg.Close()

	require.Len(t, seg.Contours, 1)
	assert.Greater(t, seg.Contours[0].Area(), 2401.0)
	assert.Equal(t, uint8(200), seg.Image.GetVecbAt(50, 50)[1])
	assert.Equal(t, uint8(200), seg.Image.GetVecbAt(25, 25)[1])
}

func TestSegmentSquare(t *testing.T) {
	img := blankImage(t, 100, 100)
	fill(&img, 25, 25, 74, 74, green)

	seg, err := New(DefaultConfig()).Segment(img)
	require.NoError(t, err)
	defer seg.Close()

	require.Len(t, seg.Contours, 1)
	assert.InDelta(t, 2500, seg.Contours[0].Area(), 300)

	for _, m := range []gocv.Mat{seg.Image, seg.Mask, seg.Region} {
		assert.Equal(t, 100, m.Rows())
		assert.Equal(t, 100, m.Cols())
	}

	assert.Equal(t, uint8(0), seg.Image.GetVecbAt(5, 5)[1])
	assert.Equal(t, uint8(200), seg.Image.GetVecbAt(50, 50)[1])

	center, ok := seg.Centroid()
	require.True(t, ok)
	assert.InDelta(t, 49, center.X, 2)
	assert.InDelta(t, 49, center.Y, 2)

	// the input is never written to
	assert.Equal(t, uint8(200), img.GetVecbAt(50, 50)[1])
}

func TestSegmentBlackImage(t *testing.T) {
	img := blankImage(t, 100, 100)

	seg, err := New(DefaultConfig()).Segment(img)
	require.NoError(t, err)
	defer seg.Close()

	assert.Empty(t, seg.Contours)
	assert.Equal(t, 0, gocv.CountNonZero(seg.Region))

	_, ok := seg.Centroid()
	assert.False(t, ok)
}

func TestSegmentRejectsBadInput(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	_, err := New(DefaultConfig()).Segment(empty)
	assert.Error(t, err)

	gray := blankMask(t, 10, 10)
	_, err = New(DefaultConfig()).Segment(gray)
	assert.Error(t, err)
}

func TestSegmentDownscales(t *testing.T) {
	img := blankImage(t, 400, 200)
	fill(&img, 50, 100, 149, 299, green)

	config := DefaultConfig()
	config.MaxSize = 100

	seg, err := New(config).Segment(img)
	require.NoError(t, err)
	defer seg.Close()

	assert.Equal(t, 100, seg.Image.Rows())
	assert.Equal(t, 50, seg.Image.Cols())
	require.Len(t, seg.Contours, 1)
	assert.InDelta(t, 1250, seg.Contours[0].Area(), 250)
}

func TestDownscaleKeepsThinSides(t *testing.T) {
	img := blankImage(t, 1000, 1)

	out := Downscale(img, 100)
	defer out.Close()

	require.False(t, out.Empty())
	assert.Equal(t, 100, out.Rows())
	assert.Equal(t, 1, out.Cols())

	same := Downscale(img, 0)
	defer same.Close()
	assert.Equal(t, 1000, same.Rows())
}
