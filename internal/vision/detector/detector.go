package detector

import (
	"errors"
	"image"
	"os"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// maxDetectionSide caps the longest image side before detection. Detection
// coordinates live in the capped frame, never the original.
const maxDetectionSide = 1280

const (
	defaultModelPath   = "models/scrfd_2.5g.onnx"
	defaultCascadePath = "models/haarcascade_frontalface_default.xml"

	scrfdInputSize     = 640
	scrfdConfThreshold = 0.5
	scrfdNMSThreshold  = 0.4
)

var ErrNoBackend = errors.New("no detection backend available")

// Backend is the capability contract a detection implementation must
// satisfy. Implementations must be safe for concurrent Detect calls.
type Backend interface {
	Detect(img gocv.Mat) ([]Face, error)
}

// Detector wraps a Backend with the pipeline's preprocessing and ordering
// contract. It holds no per-call state and is safe to share.
type Detector struct {
	backend Backend
	log     *logrus.Logger
}

func New(backend Backend, log *logrus.Logger) *Detector {
	return &Detector{
		backend: backend,
		log:     log,
	}
}

// Detect downscales img so its longest side is at most 1280 px, runs the
// backend and returns faces sorted by score descending, ties broken by the
// larger box. The returned frame is the one the coordinates refer to; the
// caller owns it and must Close it. An empty slice means no face, not an
// error. On error the returned frame is the zero Mat, which holds no
// native allocation.
func (d *Detector) Detect(img gocv.Mat) ([]Face, gocv.Mat, error) {
	frame := resizeToLimit(img)

	faces, err := d.backend.Detect(frame)
	if err != nil {
		frame.Close()
		return nil, gocv.Mat{}, err
	}

	sort.SliceStable(faces, func(i, j int) bool {
		if faces[i].Score != faces[j].Score {
			return faces[i].Score > faces[j].Score
		}
		return faces[i].BoundingBox.Area() > faces[j].BoundingBox.Area()
	})

	return faces, frame, nil
}

// resizeToLimit returns a copy of img scaled so max(H, W) <= 1280 using
// bilinear interpolation, or an unscaled copy when already within bounds.
func resizeToLimit(img gocv.Mat) gocv.Mat {
	height := img.Rows()
	width := img.Cols()

	longest := height
	if width > longest {
		longest = width
	}

	if longest <= maxDetectionSide {
		return img.Clone()
	}

	scale := float64(maxDetectionSide) / float64(longest)
	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)

	resized := gocv.NewMat()
	gocv.Resize(img, &resized, image.Pt(newWidth, newHeight), 0, 0, gocv.InterpolationLinear)
	return resized
}

var (
	sharedDetector *Detector
	sharedErr      error
	loadOnce       sync.Once
)

// Shared returns the process-wide detector, loading the model on first use.
// The model is large; it is never reloaded per request.
func Shared(log *logrus.Logger) (*Detector, error) {
	loadOnce.Do(func() {
		backend, err := loadBackend(log)
		if err != nil {
			sharedErr = err
			return
		}
		sharedDetector = New(backend, log)
	})

	return sharedDetector, sharedErr
}

func loadBackend(log *logrus.Logger) (Backend, error) {
	modelPath := os.Getenv("SKIN_DETECTOR_MODEL")
	if modelPath == "" {
		modelPath = defaultModelPath
	}

	if os.Getenv("SKIN_DETECTOR_BACKEND") != "cascade" {
		scrfd, err := NewSCRFD(modelPath, scrfdInputSize, scrfdConfThreshold, scrfdNMSThreshold)
		if err == nil {
			return scrfd, nil
		}
		log.WithFields(logrus.Fields{
			"model": modelPath,
			"error": err.Error(),
		}).Warn("SCRFD backend unavailable, falling back to cascade")
	}

	cascadePath := os.Getenv("SKIN_CASCADE_FILE")
	if cascadePath == "" {
		cascadePath = defaultCascadePath
	}

	cascade, err := NewCascade(cascadePath)
	if err != nil {
		log.WithFields(logrus.Fields{
			"cascade": cascadePath,
			"error":   err.Error(),
		}).Error("Cascade backend unavailable")
		return nil, ErrNoBackend
	}

	return cascade, nil
}
