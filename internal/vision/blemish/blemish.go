// Package blemish turns an aligned face frame into a binary blemish mask
// and the KPI numbers derived from it.
package blemish

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Accepted contour pixel areas in the canonical 300x300 frame. Below the
// floor is sensor noise; above the ceiling is regional lighting, not a
// focal lesion. These bounds are the canonical definition of "blemish"
// for stored KPIs and must not be recomputed per image.
const (
	MinContourArea = 50
	MaxContourArea = 2000
)

const blurKernel = 7

// Result carries the segmentation output. The caller owns Mask and must
// Close it.
type Result struct {
	Mask             gocv.Mat
	BlemishAreaPx    int
	FaceAreaPx       int
	PercentBlemished float64
}

func (r *Result) Close() {
	r.Mask.Close()
}

// Segment thresholds dark focal regions inside the face mask. Pure
// function over its inputs: no I/O, no shared state.
//
// frame must be a BGR Mat and faceMask a single-channel {0,255} Mat of
// the same size.
func Segment(frame gocv.Mat, faceMask gocv.Mat) Result {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	masked := gocv.NewMat()
	defer masked.Close()
	gocv.BitwiseAnd(gray, faceMask, &masked)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(masked, &blurred, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(blurred, &thresh, 0, 255, gocv.ThresholdBinaryInv+gocv.ThresholdOtsu)

	// Otsu can mark the zeroed region outside the mask as foreground.
	gocv.BitwiseAnd(thresh, faceMask, &thresh)

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	blemishMask := gocv.NewMatWithSize(frame.Rows(), frame.Cols(), gocv.MatTypeCV8UC1)
	blemishMask.SetTo(gocv.NewScalar(0, 0, 0, 0))

	var blemishArea float64
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area < MinContourArea || area > MaxContourArea {
			continue
		}
		blemishArea += area
		gocv.DrawContours(&blemishMask, contours, i, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
	}

	faceArea := gocv.CountNonZero(faceMask)

	var percent float64
	if faceArea > 0 {
		percent = blemishArea / float64(faceArea) * 100
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	return Result{
		Mask:             blemishMask,
		BlemishAreaPx:    int(blemishArea),
		FaceAreaPx:       faceArea,
		PercentBlemished: percent,
	}
}
