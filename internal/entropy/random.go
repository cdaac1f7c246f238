// Package entropy provides the random sources behind critical-hit rolls.
// Every roll is an independent draw in [0, 1); no source shares state with
// another.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float() float64
}

// Crypto draws from crypto/rand. It is the default source.
type Crypto struct{}

// Float implements Source.
func (Crypto) Float() float64 {
	return cryptoRandFloat()
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Seeded is a reproducible source for replays and balance simulations.
type Seeded struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeeded creates a seeded source.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

// Float implements Source.
func (s *Seeded) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Fixed replays a scripted sequence, cycling when exhausted.
// An empty sequence always returns 0.999 (never a crit).
type Fixed struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewFixed creates a scripted source.
func NewFixed(values ...float64) *Fixed {
	return &Fixed{values: values}
}

// Float implements Source.
func (f *Fixed) Float() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.values) == 0 {
		return 0.999
	}
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}

// FloatFromSource returns a draw from src, or crypto/rand when src is nil.
func FloatFromSource(src Source) float64 {
	if src != nil {
		return src.Float()
	}
	return cryptoRandFloat()
}
