package pipeline

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// FillContours returns a rows x cols mask with the interiors of contours set
// to 255 and everything else 0.
func FillContours(rows, cols int, contours []Contour) gocv.Mat {
	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
	if len(contours) == 0 {
		return mask
	}

	points := make([][]image.Point, len(contours))
	for i, c := range contours {
		points[i] = c
	}

	pv := gocv.NewPointsVectorFromPoints(points)
	defer pv.Close()

	gocv.FillPoly(&mask, pv, white)

	return mask
}

// ApplyMask returns a copy of img with every pixel outside mask set to zero.
func ApplyMask(img, mask gocv.Mat) gocv.Mat {
	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), img.Rows(), img.Cols(), img.Type())
	img.CopyToWithMask(&out, mask)

	return out
}
