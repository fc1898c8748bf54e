package overlay

import (
	"sync"
	"time"
)

// historyLimit bounds the telemetry sample history; the oldest sample is
// evicted first.
const historyLimit = 10

// Sample is one timestamped telemetry record pushed by the control
// collaborator, observed roughly once per second.
type Sample struct {
	Timestamp       time.Time `json:"timestamp"`
	BitrateAndTotal string    `json:"bitrate_and_total"`
	Date            time.Time `json:"date"`
	DebugLines      []string  `json:"debug_lines"`
	Speed           string    `json:"speed"`
	Altitude        string    `json:"altitude"`
	Distance        string    `json:"distance"`
}

// Telemetry keeps a bounded history of samples and selects the one to
// render given a display delay.
type Telemetry struct {
	mu      sync.Mutex
	samples []Sample
}

// NewTelemetry creates an empty telemetry history.
func NewTelemetry() *Telemetry {
	return &Telemetry{}
}

// Push appends a sample, evicting the oldest once the history is full.
func (t *Telemetry) Push(s Sample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = append(t.samples, s)
	if len(t.samples) > historyLimit {
		t.samples = t.samples[len(t.samples)-historyLimit:]
	}
}

// Len returns the number of retained samples.
func (t *Telemetry) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.samples)
}

// Select picks the sample to display at the given instant: the latest
// sample older than the delay-1s margin, else the earliest sample, else
// the zero Sample with ok=false.
func (t *Telemetry) Select(now time.Time, delay time.Duration) (Sample, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.samples) == 0 {
		return Sample{}, false
	}
	margin := delay - time.Second
	for i := len(t.samples) - 1; i >= 0; i-- {
		if t.samples[i].Timestamp.Add(margin).Before(now) {
			return t.samples[i], true
		}
	}
	return t.samples[0], true
}
