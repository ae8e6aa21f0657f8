package detector

import "testing"

func box(x1, y1, x2, y2 float32) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func TestIOU(t *testing.T) {
	tests := []struct {
		name string
		a, b BoundingBox
		want float32
	}{
		{"identical", box(0, 0, 10, 10), box(0, 0, 10, 10), 1.0},
		{"disjoint", box(0, 0, 10, 10), box(20, 20, 30, 30), 0.0},
		{"touching edges", box(0, 0, 10, 10), box(10, 0, 20, 10), 0.0},
		{"half overlap", box(0, 0, 10, 10), box(5, 0, 15, 10), 50.0 / 150.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := iou(tt.a, tt.b); got != tt.want {
				t.Errorf("iou = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNMSSuppressesOverlaps(t *testing.T) {
	faces := []Face{
		{BoundingBox: box(0, 0, 100, 100), Score: 0.6},
		{BoundingBox: box(5, 5, 105, 105), Score: 0.9},
		{BoundingBox: box(300, 300, 400, 400), Score: 0.7},
	}

	kept := nms(faces, 0.4)

	if len(kept) != 2 {
		t.Fatalf("kept %d faces, want 2", len(kept))
	}
	if kept[0].Score != 0.9 {
		t.Errorf("first kept score = %v, want the overlap winner 0.9", kept[0].Score)
	}
	if kept[1].Score != 0.7 {
		t.Errorf("second kept score = %v, want 0.7", kept[1].Score)
	}
}

func TestNMSKeepsDistinctFaces(t *testing.T) {
	faces := []Face{
		{BoundingBox: box(0, 0, 50, 50), Score: 0.8},
		{BoundingBox: box(100, 0, 150, 50), Score: 0.75},
		{BoundingBox: box(0, 100, 50, 150), Score: 0.7},
	}

	if kept := nms(faces, 0.4); len(kept) != 3 {
		t.Errorf("kept %d faces, want all 3", len(kept))
	}
}

func TestBoundingBoxHelpers(t *testing.T) {
	b := box(10, 20, 30, 60)

	if b.Width() != 20 || b.Height() != 40 {
		t.Errorf("width/height = %v/%v, want 20/40", b.Width(), b.Height())
	}
	if b.Area() != 800 {
		t.Errorf("area = %v, want 800", b.Area())
	}
	if c := b.Center(); c.X != 20 || c.Y != 40 {
		t.Errorf("center = %+v, want (20, 40)", c)
	}
}

func TestLandmarksAsSlice(t *testing.T) {
	lm := Landmarks{
		LeftEye:    Point{1, 2},
		RightEye:   Point{3, 4},
		Nose:       Point{5, 6},
		LeftMouth:  Point{7, 8},
		RightMouth: Point{9, 10},
	}

	got := lm.AsSlice()
	want := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AsSlice[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
