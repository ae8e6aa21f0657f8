package render_test

import (
	"DermaTrack/internal/vision/detector"
	"DermaTrack/internal/vision/render"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testInputs() (gocv.Mat, detector.Landmarks, gocv.Mat) {
	frame := gocv.NewMatWithSize(300, 300, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(128, 128, 128, 0))

	mask := gocv.NewMatWithSize(300, 300, gocv.MatTypeCV8UC1)
	mask.SetTo(gocv.NewScalar(0, 0, 0, 0))
	gocv.Circle(&mask, image.Pt(150, 150), 10, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)

	lm := detector.Landmarks{
		LeftEye:    detector.Point{X: 90, Y: 105},
		RightEye:   detector.Point{X: 210, Y: 105},
		Nose:       detector.Point{X: 150, Y: 165},
		LeftMouth:  detector.Point{X: 105, Y: 225},
		RightMouth: detector.Point{X: 195, Y: 225},
	}

	return frame, lm, mask
}

func TestRenderWritesAllThree(t *testing.T) {
	dir := t.TempDir()
	r := render.New(dir, testLogger())

	frame, lm, mask := testInputs()
	defer frame.Close()
	defer mask.Close()

	artifacts, err := r.Render(frame, lm, mask, "u1", "img1")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	defer artifacts.Remove()

	want := []string{
		filepath.Join(dir, "u1_img1_face.png"),
		filepath.Join(dir, "u1_img1_blemishes.png"),
		filepath.Join(dir, "u1_img1_overlay.png"),
	}

	paths := artifacts.Paths()
	for i, p := range paths {
		if p != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, p, want[i])
		}
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("artifact %q missing: %v", p, err)
		}
		if info.Size() == 0 {
			t.Errorf("artifact %q is empty", p)
		}
	}
}

func TestRenderDeterministicOverwrite(t *testing.T) {
	dir := t.TempDir()
	r := render.New(dir, testLogger())

	frame, lm, mask := testInputs()
	defer frame.Close()
	defer mask.Close()

	first, err := r.Render(frame, lm, mask, "u1", "img1")
	if err != nil {
		t.Fatalf("first Render() error = %v", err)
	}
	second, err := r.Render(frame, lm, mask, "u1", "img1")
	if err != nil {
		t.Fatalf("second Render() error = %v", err)
	}
	defer second.Remove()

	if first != second {
		t.Errorf("paths changed between runs: %+v vs %+v", first, second)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("%d files in dir, want 3", len(entries))
	}
}

func TestRenderFailureLeavesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing-subdir")
	r := render.New(dir, testLogger())

	frame, lm, mask := testInputs()
	defer frame.Close()
	defer mask.Close()

	if _, err := r.Render(frame, lm, mask, "u1", "img1"); err == nil {
		t.Fatal("Render() into a missing directory must fail")
	}

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("%d files left behind after failed render", len(entries))
		}
	}
}

func TestArtifactsRemove(t *testing.T) {
	dir := t.TempDir()
	r := render.New(dir, testLogger())

	frame, lm, mask := testInputs()
	defer frame.Close()
	defer mask.Close()

	artifacts, err := r.Render(frame, lm, mask, "u1", "img1")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	artifacts.Remove()

	for _, p := range artifacts.Paths() {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("artifact %q still exists after Remove", p)
		}
	}
}
