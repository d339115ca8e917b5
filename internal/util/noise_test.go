package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sample(n *Noise) []float64 {
	out := make([]float64, 0, 300)
	for i := 0; i < 100; i++ {
		x := float64(i)*0.37 + 0.11
		y := float64(i)*0.73 - 5.3
		out = append(out, n.Perlin2D(x, y), n.Simplex2D(x, y), n.Simplex3D(x, y, x*0.5))
	}
	return out
}

func TestNoiseSameSeedIsDeterministic(t *testing.T) {
	a := sample(NewNoise(12345))
	b := sample(NewNoise(12345))
	assert.Equal(t, a, b, "один сид должен давать одинаковую последовательность")
}

func TestNoiseDifferentSeedDiffers(t *testing.T) {
	a := sample(NewNoise(1))
	b := sample(NewNoise(2))
	assert.NotEqual(t, a, b, "разные сиды должны давать разный шум")
}

func TestNoiseRanges(t *testing.T) {
	n := NewNoise(42)
	for i := -200; i < 200; i++ {
		x := float64(i) * 0.173
		y := float64(i) * -0.291
		p := n.Perlin2D(x, y)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)

		s := n.Simplex3D(x, y, x+y)
		assert.GreaterOrEqual(t, s, -1.0)
		assert.LessOrEqual(t, s, 1.0)

		f := n.Fractal2D(x, y, 4, 2.0, 0.5)
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
	}
	assert.Equal(t, int64(42), n.Seed())
}
