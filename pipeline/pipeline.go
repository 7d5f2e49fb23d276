package pipeline

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

type Pipeline struct {
	Config Config
}

func New(config Config) Pipeline {
	return Pipeline{
		Config: config,
	}
}

// Segment is the output of one segmentation stage. All Mats share the
// dimensions of the stage input and are owned by the caller.
type Segment struct {
	// Image is the stage input with everything outside Region zeroed.
	Image gocv.Mat
	// Mask is the raw mask the stage traced contours in: the edge map for the
	// edge stage, the combined color mask for the color stage.
	Mask gocv.Mat
	// Region is the filled interior of Contours.
	Region gocv.Mat

	Contours []Contour
}

func (s *Segment) Close() error {
	for _, m := range []*gocv.Mat{&s.Image, &s.Mask, &s.Region} {
		if m.Ptr() == nil {
			continue
		}
		if err := m.Close(); err != nil {
			return fmt.Errorf("unable to close segment mat: %w", err)
		}
	}

	return nil
}

// Centroid returns the center of mass of Region, or false if it is empty.
func (s Segment) Centroid() (image.Point, bool) {
	moments := gocv.Moments(s.Region, true)
	if moments["m00"] == 0 {
		return image.Point{}, false
	}

	x := int(moments["m10"] / moments["m00"])
	y := int(moments["m01"] / moments["m00"])

	return image.Point{X: x, Y: y}, true
}

// Downscale returns a copy of img whose longer side is at most maxSize.
func Downscale(img gocv.Mat, maxSize int) gocv.Mat {
	longer := max(img.Rows(), img.Cols())
	if maxSize <= 0 || longer <= maxSize {
		return img.Clone()
	}

	scale := float64(maxSize) / float64(longer)
	size := image.Pt(
		max(1, int(float64(img.Cols())*scale)),
		max(1, int(float64(img.Rows())*scale)),
	)

	out := gocv.NewMat()
	gocv.Resize(img, &out, size, 0, 0, gocv.InterpolationArea)

	return out
}

// Segment separates the foreground of a BGR image: the edge stage cuts the
// image down to large outlined regions, then the color stage keeps the parts
// of those regions within the foreground ranges. img is not modified.
func (p Pipeline) Segment(img gocv.Mat) (Segment, error) {
	if img.Empty() {
		return Segment{}, fmt.Errorf("unable to segment an empty image")
	}
	if img.Channels() != 3 {
		return Segment{}, fmt.Errorf("unable to segment image with %d channels, want 3", img.Channels())
	}

	scaled := Downscale(img, p.Config.MaxSize)
	defer scaled.Close()

	edge, err := p.EdgeSegment(scaled)
	if err != nil {
		return Segment{}, fmt.Errorf("unable to segment by edge: %w", err)
	}
	defer edge.Close()

	color, err := p.ColorSegment(edge.Image)
	if err != nil {
		return Segment{}, fmt.Errorf("unable to segment by color: %w", err)
	}

	return color, nil
}
