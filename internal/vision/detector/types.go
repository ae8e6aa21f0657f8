package detector

// Point is a 2D pixel coordinate in the frame the detector ran on.
type Point struct {
	X, Y float32
}

// BoundingBox is an axis-aligned face box in xyxy order.
type BoundingBox struct {
	X1, Y1 float32
	X2, Y2 float32
}

func (b BoundingBox) Width() float32 {
	return b.X2 - b.X1
}

func (b BoundingBox) Height() float32 {
	return b.Y2 - b.Y1
}

func (b BoundingBox) Center() Point {
	return Point{
		X: (b.X1 + b.X2) / 2,
		Y: (b.Y1 + b.Y2) / 2,
	}
}

func (b BoundingBox) Area() float32 {
	return b.Width() * b.Height()
}

// Landmarks holds the 5-point landmark set in the canonical order
// (left eye, right eye, nose, left mouth corner, right mouth corner).
type Landmarks struct {
	LeftEye    Point
	RightEye   Point
	Nose       Point
	LeftMouth  Point
	RightMouth Point
}

// AsSlice flattens the landmarks to [x0,y0,...,x4,y4].
func (l Landmarks) AsSlice() []float32 {
	return []float32{
		l.LeftEye.X, l.LeftEye.Y,
		l.RightEye.X, l.RightEye.Y,
		l.Nose.X, l.Nose.Y,
		l.LeftMouth.X, l.LeftMouth.Y,
		l.RightMouth.X, l.RightMouth.Y,
	}
}

// Face is one detection: box, 5-point landmarks and a score in [0,1].
// Coordinates are in the resized frame handed to the backend; callers
// must not mix them with the original image's coordinate system.
type Face struct {
	BoundingBox BoundingBox
	Landmarks   Landmarks
	Score       float32
}
