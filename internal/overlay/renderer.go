package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	lineHeight  = 13 // basicfont.Face7x13
	textPadding = 5

	// renderInterval gates content-driven re-renders; text content rarely
	// needs sub-second refresh. Position changes bypass the gate.
	renderInterval = time.Second
)

var (
	textColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	backColor = color.RGBA{R: 20, G: 20, B: 30, A: 180}
)

// Renderer turns a compiled token list plus current telemetry into a
// positioned overlay image without ever blocking the frame thread.
// Rasterization runs on a background goroutine and lands in a single-slot
// mailbox; Composite adopts whatever finished last.
//
// Each backend keeps an independent pipeline (cached position, cached
// formatted text, mailbox) because the two backends consume their overlay
// representations independently; invalidation on one never disturbs the
// other.
type Renderer struct {
	tokens    []Token
	telemetry *Telemetry
	delay     time.Duration

	mu   sync.Mutex
	x, y float64

	pipelines map[string]*pipeline
}

type pipeline struct {
	box        mailbox
	mu         sync.Mutex
	cachedText string
	cachedX    float64
	cachedY    float64
	posDirty   bool
	lastKick   time.Time
	inflight   atomic.Bool
}

// NewRenderer compiles the template once and prepares one pipeline per
// backend name. The template is fixed for the renderer's lifetime;
// changing it means constructing a new renderer.
func NewRenderer(template string, telemetry *Telemetry, delay time.Duration, backends ...string) *Renderer {
	r := &Renderer{
		tokens:    ParseFormat(template),
		telemetry: telemetry,
		delay:     delay,
		pipelines: make(map[string]*pipeline, len(backends)),
	}
	for _, name := range backends {
		r.pipelines[name] = &pipeline{}
	}
	return r
}

// SetPosition moves the overlay. x and y are normalized [0,1]; the
// overlay's bottom-left lands at that position scaled by the frame height.
// Callable from the control thread at any time; invalidates every
// pipeline's cached text so the next tick re-renders immediately.
func (r *Renderer) SetPosition(x, y float64) {
	r.mu.Lock()
	r.x, r.y = x, y
	r.mu.Unlock()

	for _, p := range r.pipelines {
		p.mu.Lock()
		p.posDirty = true
		p.cachedText = ""
		p.mu.Unlock()
	}
}

// Position returns the current normalized overlay position.
func (r *Renderer) Position() (x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.x, r.y
}

// Composite draws the latest completed overlay for the named backend onto
// the frame and, when due, kicks off the next background render. It never
// blocks: before the first render completes the frame passes through
// untouched.
func (r *Renderer) Composite(backend string, frame *image.RGBA, now time.Time) {
	p, ok := r.pipelines[backend]
	if !ok {
		return
	}

	text := r.format(now)
	x, y := r.Position()

	p.mu.Lock()
	due := p.posDirty || (now.Sub(p.lastKick) >= renderInterval && text != p.cachedText)
	if due && p.inflight.CompareAndSwap(false, true) {
		p.cachedText = text
		p.cachedX, p.cachedY = x, y
		p.posDirty = false
		p.lastKick = now
		go func(text string) {
			img := rasterize(text)
			p.box.publish(img)
			p.inflight.Store(false)
		}(text)
	}
	p.mu.Unlock()

	img, _ := p.box.take()
	if img == nil {
		return
	}

	h := frame.Bounds().Dy()
	px := int(x * float64(h))
	py := int(y*float64(h)) - img.Bounds().Dy()
	blendAt(frame, img, px, py)
}

// format expands the token list against the currently selected telemetry
// sample. With an empty history every substitution is the empty string.
func (r *Renderer) format(now time.Time) string {
	sample, _ := r.telemetry.Select(now, r.delay)

	var b strings.Builder
	for _, tok := range r.tokens {
		switch tok.Kind {
		case TokenText:
			b.WriteString(tok.Text)
		case TokenClock:
			if !sample.Date.IsZero() {
				b.WriteString(sample.Date.Format("15:04:05"))
			}
		case TokenBitrateAndTotal:
			b.WriteString(sample.BitrateAndTotal)
		case TokenDebugOverlay:
			b.WriteString(strings.Join(sample.DebugLines, "\n"))
		case TokenSpeed:
			b.WriteString(sample.Speed)
		case TokenAltitude:
			b.WriteString(sample.Altitude)
		case TokenDistance:
			b.WriteString(sample.Distance)
		}
	}
	return b.String()
}

// rasterize shapes the formatted text into an overlay image: padded dark
// background, one basicfont line per newline. Empty text yields nil so
// nothing is composited.
func rasterize(text string) *image.RGBA {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}

	maxWidth := 0
	for _, line := range lines {
		w := int(d.MeasureString(line) >> 6)
		if w > maxWidth {
			maxWidth = w
		}
	}

	width := maxWidth + textPadding*2
	height := lineHeight*len(lines) + textPadding*2
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backColor}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: face,
	}
	for i, line := range lines {
		drawer.Dot = fixed.Point26_6{
			X: fixed.I(textPadding),
			Y: fixed.I(textPadding + lineHeight*(i+1) - 3),
		}
		drawer.DrawString(line)
	}
	return img
}

// blendAt alpha-composites src onto dst at (x, y), clipping to the dst
// extent. The overlay may be partially or fully off-frame without error.
func blendAt(dst *image.RGBA, src *image.RGBA, x, y int) {
	sb := src.Bounds()
	db := dst.Bounds()
	for sy := sb.Min.Y; sy < sb.Max.Y; sy++ {
		dy := y + sy - sb.Min.Y
		if dy < db.Min.Y || dy >= db.Max.Y {
			continue
		}
		for sx := sb.Min.X; sx < sb.Max.X; sx++ {
			dx := x + sx - sb.Min.X
			if dx < db.Min.X || dx >= db.Max.X {
				continue
			}
			si := src.PixOffset(sx, sy)
			a := uint32(src.Pix[si+3])
			if a == 0 {
				continue
			}
			di := dst.PixOffset(dx, dy)
			for c := 0; c < 3; c++ {
				s := uint32(src.Pix[si+c])
				o := uint32(dst.Pix[di+c])
				dst.Pix[di+c] = uint8((s*a + o*(255-a)) / 255)
			}
			da := uint32(dst.Pix[di+3])
			dst.Pix[di+3] = uint8(a + da*(255-a)/255)
		}
	}
}
