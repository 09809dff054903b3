// Package jitter draws the randomized multipliers and intervals used to keep fee
// headroom, gas headroom and poll timing from settling on fixed values.
package jitter

import (
	"math/big"
	"math/rand"
	"sync"
	"time"
)

// Source yields uniformly distributed values in [0, 1).
type Source interface {
	Float64() float64
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSource returns a goroutine-safe Source seeded from the clock.
func NewSource() Source {
	return NewSeededSource(time.Now().UnixNano())
}

func NewSeededSource(seed int64) Source {
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// Fixed always returns the same value. Tests use it to pin draws.
type Fixed float64

func (f Fixed) Float64() float64 { return float64(f) }

// Band is a closed range of multipliers, e.g. 1.15-1.30.
type Band struct {
	Min float64
	Max float64
}

// DefaultHeadroom is the fee and gas safety margin band.
var DefaultHeadroom = Band{Min: 1.15, Max: 1.30}

func (b Band) Draw(src Source) float64 {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + src.Float64()*(b.Max-b.Min)
}

// Interval is a range of durations a poll loop sleeps between attempts.
type Interval struct {
	Min time.Duration
	Max time.Duration
}

func (i Interval) Draw(src Source) time.Duration {
	if i.Max <= i.Min {
		return i.Min
	}
	return i.Min + time.Duration(src.Float64()*float64(i.Max-i.Min))
}

// MulBig multiplies v by f and truncates toward zero.
func MulBig(v *big.Int, f float64) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	if f == 1.0 {
		return new(big.Int).Set(v)
	}
	r := new(big.Rat).SetInt(v)
	r.Mul(r, new(big.Rat).SetFloat64(f))
	out := new(big.Int)
	out.Quo(r.Num(), r.Denom())
	return out
}

// MulUint64 scales gas by f, never returning less than gas.
func MulUint64(gas uint64, f float64) uint64 {
	if f <= 0 {
		return gas
	}
	adjusted := uint64(float64(gas) * f)
	if adjusted < gas {
		return gas
	}
	return adjusted
}
