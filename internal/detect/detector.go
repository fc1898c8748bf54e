package detect

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/rs/zerolog"

	"github.com/kmswan/glowcast/internal/effects"
	"github.com/kmswan/glowcast/internal/logger"
)

// Params tunes the cascade run. Zero values fall back to defaults suited
// to a single face filling a webcam frame.
type Params struct {
	MinSize     int     `json:"min_size" yaml:"min_size"`
	MaxSize     int     `json:"max_size" yaml:"max_size"`
	ShiftFactor float64 `json:"shift_factor" yaml:"shift_factor"`
	ScaleFactor float64 `json:"scale_factor" yaml:"scale_factor"`
	MinQuality  float64 `json:"min_quality" yaml:"min_quality"`
}

func (p *Params) applyDefaults() {
	if p.MinSize == 0 {
		p.MinSize = 100
	}
	if p.MaxSize == 0 {
		p.MaxSize = 600
	}
	if p.ShiftFactor == 0 {
		p.ShiftFactor = 0.15
	}
	if p.ScaleFactor == 0 {
		p.ScaleFactor = 1.1
	}
	if p.MinQuality == 0 {
		p.MinQuality = 5.0
	}
}

// Detector wraps a pigo cascade classifier and maps its detections to
// normalized FaceRegions with estimated landmark geometry.
type Detector struct {
	classifier *pigo.Pigo
	params     Params
	gray       []uint8 // resident grayscale buffer, grown on demand
	log        zerolog.Logger
}

// New loads and unpacks the cascade file.
func New(cascadePath string, params Params) (*Detector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade file: %w", err)
	}
	params.applyDefaults()
	return &Detector{
		classifier: classifier,
		params:     params,
		log:        *logger.WithComponent("detect"),
	}, nil
}

// Detect runs the cascade over one frame and returns the detected faces.
// The result is empty (non-nil) when the detector ran and found nothing,
// so callers can distinguish "no faces" from "no detector".
func (d *Detector) Detect(frame *image.RGBA) []effects.FaceRegion {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	d.grayscale(frame, w, h)

	cParams := pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     d.params.MaxSize,
		ShiftFactor: d.params.ShiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: d.gray,
			Rows:   h,
			Cols:   w,
			Dim:    w,
		},
	}

	dets := d.classifier.RunCascade(cParams, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	faces := make([]effects.FaceRegion, 0, len(dets))
	for _, det := range dets {
		if float64(det.Q) < d.params.MinQuality {
			continue
		}
		faces = append(faces, toFaceRegion(det, w, h))
	}
	return faces
}

// grayscale converts the frame into the resident luma buffer.
func (d *Detector) grayscale(frame *image.RGBA, w, h int) {
	if len(d.gray) < w*h {
		d.gray = make([]uint8, w*h)
	}
	for y := 0; y < h; y++ {
		row := frame.Pix[y*frame.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			r := uint32(row[i])
			g := uint32(row[i+1])
			bb := uint32(row[i+2])
			// BT.601 luma.
			d.gray[y*w+x] = uint8((299*r + 587*g + 114*bb) / 1000)
		}
	}
}

// toFaceRegion converts a pigo detection (row/col center plus scale) into
// a normalized FaceRegion with proportionally estimated landmark regions.
// The cascade reports only a box; the landmark geometry is coarse facial
// proportion, good enough to anchor the warp center, the mesh and the
// mouth heuristic. The synthesized inner-lips box is wider than tall, so
// the mascot's open-mouth gate stays closed unless a richer detector
// supplies real lip geometry.
func toFaceRegion(det pigo.Detection, w, h int) effects.FaceRegion {
	fw, fh := float64(w), float64(h)
	size := float64(det.Scale)
	cx := float64(det.Col) / fw
	cy := float64(det.Row) / fh
	halfW := size / 2 / fw
	halfH := size / 2 / fh

	bounds := effects.Rect{
		X:      cx - halfW,
		Y:      cy - halfH,
		Width:  size / fw,
		Height: size / fh,
	}

	faceW := bounds.Width
	faceH := bounds.Height

	pt := func(dx, dy float64) effects.Point {
		return effects.Point{X: cx + dx*faceW, Y: cy + dy*faceH}
	}

	landmarks := map[effects.Landmark][]effects.Point{
		effects.LandmarkMedianLine: {
			pt(0, -0.45), pt(0, -0.2), pt(0, 0.05), pt(0, 0.3), pt(0, 0.45),
		},
		effects.LandmarkLeftEye: {
			pt(-0.28, -0.14), pt(-0.18, -0.18), pt(-0.1, -0.14), pt(-0.18, -0.1),
		},
		effects.LandmarkRightEye: {
			pt(0.1, -0.14), pt(0.18, -0.18), pt(0.28, -0.14), pt(0.18, -0.1),
		},
		effects.LandmarkNose: {
			pt(-0.06, 0.08), pt(0, 0.14), pt(0.06, 0.08),
		},
		effects.LandmarkInnerLips: {
			pt(-0.14, 0.28), pt(0, 0.25), pt(0.14, 0.28), pt(0, 0.31),
		},
		effects.LandmarkContour: {
			pt(-0.42, -0.2), pt(-0.4, 0.1), pt(-0.28, 0.34),
			pt(0, 0.46), pt(0.28, 0.34), pt(0.4, 0.1), pt(0.42, -0.2),
		},
	}

	return effects.FaceRegion{Bounds: bounds, Landmarks: landmarks}
}
