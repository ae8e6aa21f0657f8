package analysisService

import (
	"DermaTrack/internal/api/analysis"
	"DermaTrack/internal/entity"
	"DermaTrack/internal/vision/align"
	"DermaTrack/internal/vision/blemish"
	"DermaTrack/internal/vision/detector"
	"DermaTrack/internal/vision/render"
	contextPkg "DermaTrack/pkg/context"
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"golang.org/x/net/context"
)

// Per-step time budgets. A step that overruns fails the pipeline with
// ErrTimeout and never leaves a partial row behind; the reconciler
// sweeps any artifacts that were already uploaded.
const (
	detectTimeout = 10 * time.Second
	uploadTimeout = 30 * time.Second
	insertTimeout = 10 * time.Second

	uploadAttempts = 3
)

// Analyze runs the full per-image pipeline: decode, detect, align,
// segment, render, persist. It returns (nil, nil) when no face is
// detected; in that case nothing is written anywhere.
func (s *analysisService) Analyze(ctx context.Context, imagePath string, userID string, imageID string) (*entity.SkinKPI, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if !isValidIdentifier(userID) || !isValidIdentifier(imageID) {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"image_id":   imageID,
		}).Warn("Invalid analysis identifiers")
		return nil, analysis.ErrInvalidInput
	}

	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"image_path": imagePath,
		}).Warn("Uploaded image could not be decoded")
		return nil, analysis.ErrImageUnreadable
	}
	defer img.Close()

	faces, frame, err := s.detect(ctx, img)
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	if len(faces) == 0 {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"image_id":   imageID,
		}).Info("No face detected")
		return nil, nil
	}

	aligned, err := s.aligner.Align(frame, faces[0])
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"image_id":   imageID,
			"error":      err.Error(),
		}).Warn("Face alignment failed")
		return nil, analysis.ErrAlignmentFailed
	}
	defer aligned.Close()

	seg := blemish.Segment(aligned.Frame, aligned.Mask)
	defer seg.Close()

	artifacts, err := s.renderer.Render(aligned.Frame, aligned.Landmarks, seg.Mask, userID, imageID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"image_id":   imageID,
			"error":      err.Error(),
		}).Error("Failed to render artifacts")
		return nil, analysis.ErrRenderFailed
	}
	// Temp files are reaped regardless of outcome; the object store
	// holds the durable copies.
	defer artifacts.Remove()

	keys := analysis.ArtifactKeys(userID, imageID)
	kpi := entity.SkinKPI{
		UserID:           userID,
		ImageID:          imageID,
		Timestamp:        time.Now().UTC(),
		FaceAreaPx:       seg.FaceAreaPx,
		BlemishAreaPx:    seg.BlemishAreaPx,
		PercentBlemished: seg.PercentBlemished,
		MaskVersion:      int(s.aligner.MaskVersion()),
		FaceImagePath:    keys[0],
		BlemishImagePath: keys[1],
		OverlayImagePath: keys[2],
	}

	if err := kpi.Validate(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":        requestID,
			"image_id":          imageID,
			"face_area_px":      kpi.FaceAreaPx,
			"blemish_area_px":   kpi.BlemishAreaPx,
			"percent_blemished": kpi.PercentBlemished,
		}).Error("Pipeline produced an invalid KPI record")
		return nil, err
	}

	if err := s.persist(ctx, kpi, artifacts); err != nil {
		return nil, err
	}

	if err := s.redis.BumpInsightVersion(ctx, userID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
		}).Warn("Failed to invalidate cached insights")
	}

	s.log.WithFields(logrus.Fields{
		"request_id":        requestID,
		"user_id":           userID,
		"image_id":          imageID,
		"percent_blemished": kpi.PercentBlemished,
	}).Info("Skin analysis persisted")

	return &kpi, nil
}

type detection struct {
	faces []detector.Face
	frame gocv.Mat
	err   error
}

// detect runs the CPU-bound detection off the caller's goroutine under
// the detection budget, retrying the backend once before giving up.
func (s *analysisService) detect(ctx context.Context, img gocv.Mat) ([]detector.Face, gocv.Mat, error) {
	c, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	// The goroutine works on its own copy so a timed-out caller can
	// release the original safely.
	local := img.Clone()

	ch := make(chan detection, 1)
	go func() {
		defer local.Close()

		faces, frame, err := s.detector.Detect(local)
		if err != nil {
			faces, frame, err = s.detector.Detect(local)
		}
		ch <- detection{faces: faces, frame: frame, err: err}
	}()

	select {
	case <-c.Done():
		// The late result's frame still needs release. Closing the
		// zero Mat an errored Detect returns is a no-op.
		go func() {
			d := <-ch
			d.frame.Close()
		}()
		return nil, gocv.Mat{}, analysis.ErrTimeout
	case d := <-ch:
		if d.err != nil {
			s.log.WithFields(logrus.Fields{
				"error": d.err.Error(),
			}).Error("Detection backend failed twice")
			return nil, gocv.Mat{}, analysis.ErrDetectorUnavailable
		}
		return d.faces, d.frame, nil
	}
}

// persist uploads the three artifacts first and writes the row last.
// Any failure after a partial upload deletes what was uploaded, so a
// queryable row always has all three artifacts behind it.
func (s *analysisService) persist(ctx context.Context, kpi entity.SkinKPI, artifacts render.Artifacts) error {
	requestID := contextPkg.GetRequestID(ctx)
	keys := analysis.ArtifactKeys(kpi.UserID, kpi.ImageID)
	paths := artifacts.Paths()

	uploaded := make([]string, 0, len(keys))
	for i, key := range keys {
		if err := s.uploadWithRetry(ctx, key, paths[i]); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"key":        key,
				"error":      err.Error(),
			}).Error("Artifact upload failed")
			s.deleteObjects(uploaded)
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return analysis.ErrTimeout
			}
			return analysis.ErrUploadFailed
		}
		uploaded = append(uploaded, key)
	}

	repo, err := s.analysisRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		s.deleteObjects(uploaded)
		return err
	}

	c, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	if err := repo.KPI.UpsertKPI(c, kpi); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"image_id":   kpi.ImageID,
			"error":      err.Error(),
		}).Error("Failed to upsert KPI row, deleting artifacts")
		s.deleteObjects(uploaded)
		if c.Err() != nil {
			return analysis.ErrTimeout
		}
		return err
	}

	return nil
}

func (s *analysisService) uploadWithRetry(ctx context.Context, key string, path string) error {
	var lastErr error

	for attempt := 0; attempt < uploadAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}

		c, cancel := context.WithTimeout(ctx, uploadTimeout)
		err = s.s3.UploadObject(c, key, f, "image/png")
		cancel()
		f.Close()

		if err == nil {
			return nil
		}
		lastErr = err

		s.log.WithFields(logrus.Fields{
			"key":     key,
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("Artifact upload attempt failed")

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return lastErr
}

// deleteObjects best-effort removes uploaded artifacts after a failed
// persist. Runs on a fresh context; the caller's may already be dead.
func (s *analysisService) deleteObjects(keys []string) {
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, key := range keys {
		if err := s.s3.DeleteObject(ctx, key); err != nil {
			s.log.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Error("Failed to delete orphan artifact, reconciler will retry")
		}
	}
}

func isValidIdentifier(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
