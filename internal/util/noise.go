package util

import (
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Параметры шума Перлина
const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав
)

// Noise детерминированный источник шума для генерации мира.
// Один и тот же сид всегда даёт одну и ту же последовательность значений.
// После создания только читается, поэтому безопасен для параллельной генерации.
type Noise struct {
	seed    int64
	perlin  *perlin.Perlin
	simplex opensimplex.Noise
}

// NewNoise создаёт источник шума с указанным сидом
func NewNoise(seed int64) *Noise {
	return &Noise{
		seed:    seed,
		perlin:  perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed),
		simplex: opensimplex.New(seed),
	}
}

// Seed возвращает сид
func (n *Noise) Seed() int64 {
	return n.seed
}

// Perlin2D возвращает значение шума Перлина в диапазоне [0, 1]
func (n *Noise) Perlin2D(x, y float64) float64 {
	// Шум лежит примерно в [-1, 1], переводим в [0, 1]
	return clamp((n.perlin.Noise2D(x, y)+1.0)/2.0, 0, 1)
}

// Simplex2D возвращает значение OpenSimplex в диапазоне [-1, 1]
func (n *Noise) Simplex2D(x, y float64) float64 {
	return clamp(n.simplex.Eval2(x, y), -1, 1)
}

// Simplex3D возвращает значение OpenSimplex в диапазоне [-1, 1]
func (n *Noise) Simplex3D(x, y, z float64) float64 {
	return clamp(n.simplex.Eval3(x, y, z), -1, 1)
}

// Fractal2D сумма октав Perlin2D, нормированная обратно в [0, 1]
func (n *Noise) Fractal2D(x, y float64, octaves int, lacunarity, persistence float64) float64 {
	if octaves < 1 {
		octaves = 1
	}
	sum, norm, amplitude := 0.0, 0.0, 1.0
	for i := 0; i < octaves; i++ {
		sum += n.Perlin2D(x, y) * amplitude
		norm += amplitude
		x *= lacunarity
		y *= lacunarity
		amplitude *= persistence
	}
	return clamp(sum/norm, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
