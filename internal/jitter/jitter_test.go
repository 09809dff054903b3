package jitter

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBandDraw(t *testing.T) {
	assert.Equal(t, 1.15, DefaultHeadroom.Draw(Fixed(0)))
	assert.InDelta(t, 1.225, DefaultHeadroom.Draw(Fixed(0.5)), 1e-9)
	assert.Equal(t, 2.0, Band{Min: 2, Max: 1}.Draw(Fixed(0.9)))

	src := NewSeededSource(42)
	for i := 0; i < 1000; i++ {
		v := DefaultHeadroom.Draw(src)
		assert.GreaterOrEqual(t, v, 1.15)
		assert.LessOrEqual(t, v, 1.30)
	}
}

func TestIntervalDraw(t *testing.T) {
	iv := Interval{Min: 3 * time.Second, Max: 5 * time.Second}
	assert.Equal(t, 3*time.Second, iv.Draw(Fixed(0)))
	assert.Equal(t, 4*time.Second, iv.Draw(Fixed(0.5)))
	assert.Equal(t, time.Second, Interval{Min: time.Second}.Draw(Fixed(0.7)))
}

func TestMulBig(t *testing.T) {
	assert.Equal(t, "139", MulBig(big.NewInt(116), 1.2).String())
	assert.Equal(t, "116", MulBig(big.NewInt(116), 1.0).String())
	assert.Equal(t, "0", MulBig(nil, 1.2).String())
}

func TestMulUint64(t *testing.T) {
	assert.Equal(t, uint64(25200), MulUint64(21000, 1.2))
	assert.Equal(t, uint64(21000), MulUint64(21000, 0))
	assert.Equal(t, uint64(21000), MulUint64(21000, 0.5))
}
