package pipeline

import (
	"image"

	"gocv.io/x/gocv"
)

// sobelMagnitude is the gradient magnitude of a single channel, clipped to 255.
func sobelMagnitude(channel gocv.Mat) gocv.Mat {
	gradX := gocv.NewMat()
	defer gradX.Close()
	gradY := gocv.NewMat()
	defer gradY.Close()

	gocv.Sobel(channel, &gradX, gocv.MatTypeCV16S, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(channel, &gradY, gocv.MatTypeCV16S, 0, 1, 3, 1, 0, gocv.BorderDefault)

	floatX := gocv.NewMat()
	defer floatX.Close()
	floatY := gocv.NewMat()
	defer floatY.Close()

	gradX.ConvertTo(&floatX, gocv.MatTypeCV32F)
	gradY.ConvertTo(&floatY, gocv.MatTypeCV32F)

	magnitude := gocv.NewMat()
	gocv.Magnitude(floatX, floatY, &magnitude)
	gocv.Threshold(magnitude, &magnitude, 255, 255, gocv.ThresholdTrunc)

	return magnitude
}

// EdgeMap returns the 8-bit edge map of a BGR image: the strongest channel
// gradient per pixel, with everything at or below the map's mean zeroed.
func EdgeMap(img gocv.Mat) gocv.Mat {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(img, &blurred, image.Pt(3, 3), 0, 0, gocv.BorderDefault)

	channels := gocv.Split(blurred)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	edges := gocv.NewMat()
	defer edges.Close()

	for i, channel := range channels {
		magnitude := sobelMagnitude(channel)
		if i == 0 {
			magnitude.CopyTo(&edges)
		} else {
			gocv.Max(edges, magnitude, &edges)
		}
		magnitude.Close()
	}

	mean := edges.Mean().Val1
	gocv.Threshold(edges, &edges, float32(mean), 255, gocv.ThresholdToZero)

	out := gocv.NewMat()
	edges.ConvertTo(&out, gocv.MatTypeCV8U)

	return out
}

// EdgeSegment keeps the interior of every large region outlined by strong
// edges. An image without such a region comes back all black.
func (p Pipeline) EdgeSegment(img gocv.Mat) (Segment, error) {
	edges := EdgeMap(img)
	contours := SignificantContours(edges, p.Config.EdgeThreshold, gocv.ChainApproxSimple)

	region := FillContours(img.Rows(), img.Cols(), contours)

	return Segment{
		Image:    ApplyMask(img, region),
		Mask:     edges,
		Region:   region,
		Contours: contours,
	}, nil
}
