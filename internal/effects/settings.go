package effects

import "sync"

// Settings is a value snapshot of the effect configuration. The control
// thread writes it through the Store; the frame thread copies it out once
// per frame and treats it as immutable for the frame's duration.
//
// Scalar ranges are the caller's responsibility (SmoothAmount in [0,1],
// finite values everywhere); the processor does not clamp, except for the
// fade applied to the surface-path shape scale.
type Settings struct {
	// Whole-frame color adjustment.
	ColorAdjust bool    `json:"color_adjust"`
	Brightness  float64 `json:"brightness"`
	Contrast    float64 `json:"contrast"`
	Saturation  float64 `json:"saturation"`

	// Global gaussian blur, masked to faces together with color adjust.
	Blur bool `json:"blur"`

	// Decorative mouth overlay.
	Mascot bool `json:"mascot"`

	// Landmark mesh debug visualization.
	Mesh bool `json:"mesh"`

	// Beautify chain: shape warp + skin smoothing.
	Beautify     bool    `json:"beautify"`
	ShapeRadius  float64 `json:"shape_radius"`
	ShapeScale   float64 `json:"shape_scale"`
	ShapeOffset  float64 `json:"shape_offset"`
	SmoothAmount float64 `json:"smooth_amount"`
	SmoothRadius float64 `json:"smooth_radius"`

	// Centered crop/zoom framing, applied last.
	Crop bool `json:"crop"`
}

// Store is the thread-safe holder for Settings. Writes take the exclusive
// lock; the per-frame read takes the shared lock only long enough to copy
// the value out, so the frame chain never runs under the lock.
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

// NewStore creates a store seeded with the given settings.
func NewStore(initial Settings) *Store {
	return &Store{settings: initial}
}

// Update replaces the current settings. Control thread only.
func (s *Store) Update(settings Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// Patch applies a mutation to the current settings under the write lock.
func (s *Store) Patch(fn func(*Settings)) {
	s.mu.Lock()
	fn(&s.settings)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}
