// Package effects carries the visual-effect descriptors the engine emits on
// clicks (floating numbers, crit bursts, coin sparks). Rendering is someone
// else's job; this package only bounds and forwards the descriptors.
package effects

import (
	"sync"
	"time"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Effect describes one floating-text/particle burst.
type Effect struct {
	ID        string    `json:"id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Value     float64   `json:"value"`
	Critical  bool      `json:"critical"`
	Combo     bool      `json:"combo"`
	Coins     bool      `json:"coins"`
	DriftX    float64   `json:"drift_x"` // Unit-ish drift direction for the floating text.
	DriftY    float64   `json:"drift_y"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink receives effects as they are emitted. Implementations must not block.
type Sink interface {
	Publish(Effect)
}

// Buffer is a bounded queue of recent effects, pruned by age.
type Buffer struct {
	mu    sync.Mutex
	items []Effect
	max   int
	sink  Sink
	noise opensimplex.Noise
}

// NewBuffer creates a buffer holding at most size effects.
func NewBuffer(size int, seed int64) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{
		items: make([]Effect, 0, size),
		max:   size,
		noise: opensimplex.New(seed),
	}
}

// SetSink attaches an external consumer. Nil detaches.
func (b *Buffer) SetSink(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = s
}

// Emit stamps e with an id and drift, stores it, and forwards it to the sink.
// The oldest entry is dropped when the buffer is full.
func (b *Buffer) Emit(e Effect) Effect {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	b.mu.Lock()
	e.DriftX, e.DriftY = b.drift(e.X, e.Y, e.CreatedAt)
	if len(b.items) >= b.max {
		copy(b.items, b.items[1:])
		b.items = b.items[:len(b.items)-1]
	}
	b.items = append(b.items, e)
	sink := b.sink
	b.mu.Unlock()

	if sink != nil {
		sink.Publish(e)
	}
	return e
}

// Prune removes effects older than ttl relative to now. Returns the number removed.
func (b *Buffer) Prune(now time.Time, ttl time.Duration) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := now.Add(-ttl)
	kept := b.items[:0]
	for _, e := range b.items {
		if e.CreatedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(b.items) - len(kept)
	b.items = kept
	return removed
}

// Snapshot returns a copy of the live effects, oldest first.
func (b *Buffer) Snapshot() []Effect {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Effect, len(b.items))
	copy(out, b.items)
	return out
}

// Len returns the number of live effects.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// drift samples two decorrelated noise fields so bursts near each other in
// space and time float in similar directions.
func (b *Buffer) drift(x, y float64, at time.Time) (float64, float64) {
	t := float64(at.UnixMilli()%100_000) / 1000
	dx := octaveNoise(b.noise, x/200+t, y/200, 3, 1.0, 0.5)
	dy := octaveNoise(b.noise, x/200+97.3, y/200+t, 3, 1.0, 0.5)
	// Floating text always rises.
	if dy > 0 {
		dy = -dy
	}
	return dx, dy - 0.5
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
