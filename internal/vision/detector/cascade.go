package detector

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// cascadeScore is reported for every cascade hit; the classifier has no
// calibrated confidence output.
const cascadeScore float32 = 0.8

// Cascade is the lightweight fallback backend built on a Haar frontal-face
// classifier. It regresses no landmarks, so the 5 points are estimated at
// fixed fractions of the detected box. Good enough to keep the pipeline
// alive when the ONNX model is unavailable.
type Cascade struct {
	classifier gocv.CascadeClassifier

	// detectMultiScale mutates classifier-internal buffers.
	mu sync.Mutex
}

// NewCascade loads the Haar cascade definition from the given XML file.
func NewCascade(cascadePath string) (*Cascade, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade file %s", cascadePath)
	}

	return &Cascade{classifier: classifier}, nil
}

// Detect finds faces in a BGR image.
func (c *Cascade) Detect(img gocv.Mat) ([]Face, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	c.mu.Lock()
	rects := c.classifier.DetectMultiScale(gray)
	c.mu.Unlock()

	faces := make([]Face, 0, len(rects))
	for _, r := range rects {
		box := BoundingBox{
			X1: float32(r.Min.X),
			Y1: float32(r.Min.Y),
			X2: float32(r.Max.X),
			Y2: float32(r.Max.Y),
		}
		faces = append(faces, Face{
			BoundingBox: box,
			Landmarks:   estimateLandmarks(box),
			Score:       cascadeScore,
		})
	}

	return faces, nil
}

// Close releases the classifier.
func (c *Cascade) Close() error {
	return c.classifier.Close()
}

// estimateLandmarks places the 5 points at fixed fractions of the box,
// matching the average frontal-face geometry.
func estimateLandmarks(b BoundingBox) Landmarks {
	at := func(fx, fy float32) Point {
		return Point{
			X: b.X1 + fx*b.Width(),
			Y: b.Y1 + fy*b.Height(),
		}
	}

	return Landmarks{
		LeftEye:    at(0.30, 0.38),
		RightEye:   at(0.70, 0.38),
		Nose:       at(0.50, 0.55),
		LeftMouth:  at(0.35, 0.72),
		RightMouth: at(0.65, 0.72),
	}
}
