package pipeline

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ColorMask thresholds an HSV image against every range and combines the
// results with saturating addition, so a pixel is set if any range holds it.
func ColorMask(hsv gocv.Mat, ranges []Range) gocv.Mat {
	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8UC1)

	for _, r := range ranges {
		part := gocv.NewMat()
		gocv.InRangeWithScalar(hsv, r.Min.scalar(), r.Max.scalar(), &part)
		gocv.Add(mask, part, &mask)
		part.Close()
	}

	return mask
}

// ColorSegment keeps the large regions whose color falls in the configured
// foreground ranges, with their boundaries smoothed.
func (p Pipeline) ColorSegment(img gocv.Mat) (Segment, error) {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(img, &blurred, 3)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(blurred, &hsv, gocv.ColorBGRToHSV)

	mask := ColorMask(hsv, p.Config.Ranges)

	// dense tracing keeps the boundary samples evenly spaced for the smoother
	contours := SignificantContours(mask, p.Config.ColorThreshold, gocv.ChainApproxNone)

	window := SmoothingWindow(img.Rows(), img.Cols(), p.Config.SmoothingWindow)
	for i, c := range contours {
		smoothed, err := SmoothContour(c, window, p.Config.SmoothingOrder)
		if err != nil {
			mask.Close()
			return Segment{}, fmt.Errorf("unable to smooth contour %d: %w", i, err)
		}

		contours[i] = smoothed
	}

	region := FillContours(img.Rows(), img.Cols(), contours)

	return Segment{
		Image:    ApplyMask(blurred, region),
		Mask:     mask,
		Region:   region,
		Contours: contours,
	}, nil
}
