// Package render produces the three derivative PNGs stored with every
// KPI record.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"DermaTrack/internal/vision/detector"
)

var ErrWriteFailed = errors.New("failed to write artifact image")

// Artifacts holds the on-disk locations of one render run. All three
// exist, or Render failed and none do.
type Artifacts struct {
	FacePath    string
	BlemishPath string
	OverlayPath string
}

func (a Artifacts) Paths() []string {
	return []string{a.FacePath, a.BlemishPath, a.OverlayPath}
}

// Remove deletes whichever artifact files exist. Used after persist and
// on any pipeline failure.
func (a Artifacts) Remove() {
	for _, p := range a.Paths() {
		if p != "" {
			os.Remove(p)
		}
	}
}

// Renderer writes derivative images into a working directory under
// deterministic names derived from (user_id, image_id), so re-running
// the same image overwrites rather than accumulates.
type Renderer struct {
	dir string
	log *logrus.Logger
}

func New(dir string, log *logrus.Logger) *Renderer {
	return &Renderer{
		dir: dir,
		log: log,
	}
}

// Render writes the landmark overlay, the blemish-only frame and the
// combined overlay. Either all three files are written or none remain.
func (r *Renderer) Render(frame gocv.Mat, lm detector.Landmarks, blemishMask gocv.Mat, userID, imageID string) (Artifacts, error) {
	base := fmt.Sprintf("%s_%s", userID, imageID)
	artifacts := Artifacts{
		FacePath:    filepath.Join(r.dir, base+"_face.png"),
		BlemishPath: filepath.Join(r.dir, base+"_blemishes.png"),
		OverlayPath: filepath.Join(r.dir, base+"_overlay.png"),
	}

	landmarkImg := frame.Clone()
	defer landmarkImg.Close()
	green := color.RGBA{G: 255, A: 255}
	for _, p := range landmarkPoints(lm) {
		gocv.Circle(&landmarkImg, image.Pt(int(p.X), int(p.Y)), 1, green, -1)
	}

	red := gocv.NewMatWithSize(frame.Rows(), frame.Cols(), gocv.MatTypeCV8UC3)
	defer red.Close()
	red.SetTo(gocv.NewScalar(0, 0, 255, 0))

	blemishImg := gocv.NewMatWithSize(frame.Rows(), frame.Cols(), gocv.MatTypeCV8UC3)
	defer blemishImg.Close()
	blemishImg.SetTo(gocv.NewScalar(0, 0, 0, 0))
	red.CopyToWithMask(&blemishImg, blemishMask)

	overlayImg := frame.Clone()
	defer overlayImg.Close()
	red.CopyToWithMask(&overlayImg, blemishMask)

	writes := []struct {
		path string
		img  gocv.Mat
	}{
		{artifacts.FacePath, landmarkImg},
		{artifacts.BlemishPath, blemishImg},
		{artifacts.OverlayPath, overlayImg},
	}

	for _, w := range writes {
		if !gocv.IMWrite(w.path, w.img) {
			r.log.WithFields(logrus.Fields{
				"path": w.path,
			}).Error("Failed to write artifact image")
			artifacts.Remove()
			return Artifacts{}, ErrWriteFailed
		}
	}

	return artifacts, nil
}

func landmarkPoints(lm detector.Landmarks) []detector.Point {
	return []detector.Point{lm.LeftEye, lm.RightEye, lm.Nose, lm.LeftMouth, lm.RightMouth}
}
