package align

import (
	"errors"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"DermaTrack/internal/vision/detector"
)

// FrameSize is the canonical aligned face frame edge in pixels. All
// downstream blemish constants assume this frame.
const FrameSize = 300

// maxExpectedAngle is the eye-line tilt beyond which we still align but
// flag the input for diagnostics.
const maxExpectedAngle = 45.0

var ErrZeroAreaBox = errors.New("zero-area bounding box")

// MaskVersion selects how the face mask is derived.
type MaskVersion int

const (
	// MaskUniform marks the whole 300x300 frame as face. Historical KPI
	// rows were produced this way; it stays the default so old and new
	// percent_blemished values remain comparable.
	MaskUniform MaskVersion = 1

	// MaskConvexHull fills the convex hull of the transformed landmarks.
	MaskConvexHull MaskVersion = 2
)

// Result is one aligned face: the canonical frame, the landmarks
// transformed into it and the face mask. Close releases both Mats.
type Result struct {
	Frame     gocv.Mat
	Landmarks detector.Landmarks
	Mask      gocv.Mat
}

func (r *Result) Close() {
	r.Frame.Close()
	r.Mask.Close()
}

// Aligner rotates a detected face upright and crops it to the canonical
// frame. Pure per-call state; safe for concurrent use.
type Aligner struct {
	maskVersion MaskVersion
	log         *logrus.Logger
}

func New(maskVersion MaskVersion, log *logrus.Logger) *Aligner {
	return &Aligner{
		maskVersion: maskVersion,
		log:         log,
	}
}

func (a *Aligner) MaskVersion() MaskVersion {
	return a.maskVersion
}

// Align rotates img about the face box centroid so the eye line is
// horizontal, crops the box and resizes it to FrameSize x FrameSize with
// Lanczos interpolation. Landmarks are carried through the same
// transform. img must be the frame the face coordinates refer to.
func (a *Aligner) Align(img gocv.Mat, face detector.Face) (*Result, error) {
	box := face.BoundingBox
	if box.Width() <= 0 || box.Height() <= 0 {
		return nil, ErrZeroAreaBox
	}

	lm := face.Landmarks
	angle := math.Atan2(
		float64(lm.RightEye.Y-lm.LeftEye.Y),
		float64(lm.RightEye.X-lm.LeftEye.X),
	) * 180 / math.Pi

	if math.Abs(angle) > maxExpectedAngle {
		a.log.WithFields(logrus.Fields{
			"angle": angle,
		}).Warn("Unusually large eye-line tilt")
	}

	center := box.Center()
	rotMatrix := gocv.GetRotationMatrix2D(
		image.Pt(int(center.X), int(center.Y)), angle, 1.0)
	defer rotMatrix.Close()

	rotated := gocv.NewMat()
	defer rotated.Close()
	gocv.WarpAffine(img, &rotated, rotMatrix, image.Pt(img.Cols(), img.Rows()))

	points := applyAffine(rotMatrix, lm)

	// Crop to the original box, clamped to the rotated frame.
	x1 := clampInt(int(box.X1), 0, rotated.Cols())
	y1 := clampInt(int(box.Y1), 0, rotated.Rows())
	x2 := clampInt(int(box.X2), 0, rotated.Cols())
	y2 := clampInt(int(box.Y2), 0, rotated.Rows())
	if x2 <= x1 || y2 <= y1 {
		return nil, ErrZeroAreaBox
	}

	roi := rotated.Region(image.Rect(x1, y1, x2, y2))
	crop := roi.Clone()
	roi.Close()
	defer crop.Close()

	frame := gocv.NewMat()
	gocv.Resize(crop, &frame, image.Pt(FrameSize, FrameSize), 0, 0, gocv.InterpolationLanczos4)

	scaleX := float32(FrameSize) / float32(x2-x1)
	scaleY := float32(FrameSize) / float32(y2-y1)
	for i := range points {
		points[i].X = (points[i].X - float32(x1)) * scaleX
		points[i].Y = (points[i].Y - float32(y1)) * scaleY
	}

	result := &Result{
		Frame: frame,
		Landmarks: detector.Landmarks{
			LeftEye:    points[0],
			RightEye:   points[1],
			Nose:       points[2],
			LeftMouth:  points[3],
			RightMouth: points[4],
		},
	}
	result.Mask = a.buildMask(result.Landmarks)

	return result, nil
}

// applyAffine runs the five landmarks through a 2x3 rotation matrix.
func applyAffine(m gocv.Mat, lm detector.Landmarks) []detector.Point {
	m00 := m.GetDoubleAt(0, 0)
	m01 := m.GetDoubleAt(0, 1)
	m02 := m.GetDoubleAt(0, 2)
	m10 := m.GetDoubleAt(1, 0)
	m11 := m.GetDoubleAt(1, 1)
	m12 := m.GetDoubleAt(1, 2)

	src := []detector.Point{lm.LeftEye, lm.RightEye, lm.Nose, lm.LeftMouth, lm.RightMouth}
	dst := make([]detector.Point, len(src))
	for i, p := range src {
		x := float64(p.X)
		y := float64(p.Y)
		dst[i] = detector.Point{
			X: float32(m00*x + m01*y + m02),
			Y: float32(m10*x + m11*y + m12),
		}
	}
	return dst
}

func (a *Aligner) buildMask(lm detector.Landmarks) gocv.Mat {
	mask := gocv.NewMatWithSize(FrameSize, FrameSize, gocv.MatTypeCV8UC1)

	if a.maskVersion == MaskConvexHull {
		mask.SetTo(gocv.NewScalar(0, 0, 0, 0))
		hull := convexHull([]detector.Point{
			lm.LeftEye, lm.RightEye, lm.Nose, lm.LeftMouth, lm.RightMouth,
		})
		pts := gocv.NewPointsVectorFromPoints([][]image.Point{hull})
		defer pts.Close()
		gocv.FillPoly(&mask, pts, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		return mask
	}

	mask.SetTo(gocv.NewScalar(255, 0, 0, 0))
	return mask
}

// convexHull computes the hull of a small point set (monotone chain).
// gocv's ConvexHull returns an index Mat that would immediately need
// decoding back into points; for five landmarks this is simpler.
func convexHull(points []detector.Point) []image.Point {
	pts := make([]image.Point, len(points))
	for i, p := range points {
		pts[i] = image.Pt(int(p.X), int(p.Y))
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var hull []image.Point
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	return hull[:len(hull)-1]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
