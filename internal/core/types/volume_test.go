package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExceedsCeiling(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		ceiling string
		exceeds bool
	}{
		{"well under", "900", "1000", false},
		{"exact", "1000", "1000", false},
		{"within tolerance", "1000.01", "1000", false},
		{"just over tolerance", "1000.02", "1000", true},
		{"far over", "1050", "1000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExceedsCeiling(MustVolume(tt.total), MustVolume(tt.ceiling))
			assert.Equal(t, tt.exceeds, got)
		})
	}
}

func TestIsEffectivelyZero(t *testing.T) {
	assert.True(t, IsEffectivelyZero(Zero()))
	assert.True(t, IsEffectivelyZero(MustVolume("0.01")))
	assert.True(t, IsEffectivelyZero(MustVolume("-0.01")))
	assert.False(t, IsEffectivelyZero(MustVolume("0.02")))
	assert.False(t, IsEffectivelyZero(MustVolume("-100")))
}

func TestWithinEpsilon(t *testing.T) {
	assert.True(t, WithinEpsilon(MustVolume("999.995"), MustVolume("1000")))
	assert.False(t, WithinEpsilon(MustVolume("999.9"), MustVolume("1000")))
}
