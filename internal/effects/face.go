package effects

import "image"

// Landmark names a facial feature region reported by a detector.
type Landmark string

const (
	LandmarkContour    Landmark = "contour"
	LandmarkLips       Landmark = "lips"
	LandmarkInnerLips  Landmark = "inner_lips"
	LandmarkLeftEye    Landmark = "left_eye"
	LandmarkRightEye   Landmark = "right_eye"
	LandmarkLeftBrow   Landmark = "left_brow"
	LandmarkRightBrow  Landmark = "right_brow"
	LandmarkNose       Landmark = "nose"
	LandmarkMedianLine Landmark = "median_line"
)

// Closed reports whether consecutive points of the region wrap around
// (last point connects back to the first) when drawn as a mesh.
func (l Landmark) Closed() bool {
	switch l {
	case LandmarkLips, LandmarkInnerLips, LandmarkLeftEye, LandmarkRightEye, LandmarkNose:
		return true
	}
	return false
}

// Point is a 2D point in normalized image coordinates, origin top-left.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box in normalized image coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Pixels converts the normalized rect to pixel coordinates for a frame of
// the given extent.
func (r Rect) Pixels(w, h int) image.Rectangle {
	fw, fh := float64(w), float64(h)
	return image.Rect(
		int(r.X*fw),
		int(r.Y*fh),
		int((r.X+r.Width)*fw),
		int((r.Y+r.Height)*fh),
	)
}

// FaceRegion is one detected face: a bounding box plus optional named
// landmark point sets. Produced fresh every frame by the detector; the
// processor only reads it.
type FaceRegion struct {
	Bounds    Rect                 `json:"bounds"`
	Landmarks map[Landmark][]Point `json:"landmarks,omitempty"`
}

// Region returns the named landmark point set, or nil if the detector did
// not report it.
func (f FaceRegion) Region(l Landmark) []Point {
	if f.Landmarks == nil {
		return nil
	}
	return f.Landmarks[l]
}

// pointsBox returns the pixel-space bounding box of a landmark point set.
func pointsBox(pts []Point, w, h int) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	fw, fh := float64(w), float64(h)
	return image.Rect(int(minX*fw), int(minY*fh), int(maxX*fw), int(maxY*fh))
}
