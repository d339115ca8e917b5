package world

import (
	"math/rand"

	"github.com/annel0/voxelcore/internal/util"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
)

// GeneratorOptions параметры ландшафта
type GeneratorOptions struct {
	SeaLevel      int     // Уровень воды
	BaseHeight    int     // Минимальная высота поверхности
	HeightRange   int     // Амплитуда рельефа над BaseHeight
	SnowLine      int     // Выше: снег вместо травы
	NoiseScale    float64 // Масштаб шума высот
	CaveScale     float64 // Масштаб шума пещер
	CaveThreshold float64 // Порог simplex, выше которого пещера
	TreeDensity   float64 // Шанс дерева на клетке травы
	GlowChance    float64 // Шанс светящегося камня на стенке пещеры
}

// DefaultGeneratorOptions настройки по умолчанию
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		SeaLevel:      62,
		BaseHeight:    50,
		HeightRange:   40,
		SnowLine:      84,
		NoiseScale:    0.01,
		CaveScale:     0.06,
		CaveThreshold: 0.55,
		TreeDensity:   0.01,
		GlowChance:    0.02,
	}
}

// Generator генерирует ландшафт мира
type Generator struct {
	Seed  int64
	opts  GeneratorOptions
	noise *util.Noise
}

// NewGenerator создаёт новый генератор мира
func NewGenerator(seed int64, opts GeneratorOptions) *Generator {
	return &Generator{
		Seed:  seed,
		opts:  opts,
		noise: util.NewNoise(seed),
	}
}

// Options возвращает параметры генератора
func (g *Generator) Options() GeneratorOptions {
	return g.opts
}

// HeightAt высота поверхности в мировой колонне (wx, wz)
func (g *Generator) HeightAt(worldX, worldZ int) int {
	n := g.noise.Fractal2D(float64(worldX)*g.opts.NoiseScale, float64(worldZ)*g.opts.NoiseScale, 4, 2.0, 0.5)
	h := g.opts.BaseHeight + int(n*float64(g.opts.HeightRange))
	if h < 1 {
		h = 1
	}
	if h > ChunkHeight-8 {
		h = ChunkHeight - 8
	}
	return h
}

// GenerateChunk создаёт и заполняет чанк по его координатам
func (g *Generator) GenerateChunk(coords vec.Vec2) *Chunk {
	c := NewChunk(coords.X, coords.Z)
	g.Generate(c)
	return c
}

// Generate заполняет чанк: missing -> generating -> generated.
func (g *Generator) Generate(c *Chunk) {
	c.SetState(StateGenerating)

	// Локальный генератор случайных чисел для детерминированности:
	// сид зависит от глобального сида и координат чанка
	rng := rand.New(rand.NewSource(g.chunkSeed(c.Coords)))

	c.FillLayer(0, block.BedrockBlockID)

	baseX, baseZ := c.WorldX(), c.WorldZ()
	for z := 0; z < ChunkDepth; z++ {
		for x := 0; x < ChunkWidth; x++ {
			wx, wz := baseX+x, baseZ+z
			height := g.HeightAt(wx, wz)
			g.fillColumn(c, x, z, wx, wz, height, rng)
		}
	}

	g.placeTrees(c, rng)

	Relight(c)
	c.SetState(StateGenerated)
}

func (g *Generator) chunkSeed(coords vec.Vec2) int64 {
	return g.Seed ^ int64(coords.X)*341873128712 ^ int64(coords.Z)*132897987541
}

// fillColumn заполняет одну колонну от y=1 до поверхности и воду до уровня моря
func (g *Generator) fillColumn(c *Chunk, x, z, wx, wz, height int, rng *rand.Rand) {
	top := g.surfaceBlock(height)
	for y := 1; y <= height; y++ {
		var id block.BlockID
		switch {
		case y == height:
			id = top
		case y >= height-3:
			if top == block.SandBlockID {
				id = block.SandBlockID
			} else {
				id = block.DirtBlockID
			}
		default:
			id = block.StoneBlockID
		}

		// Пещеры только в камне, не у самой поверхности
		if id == block.StoneBlockID && y > 2 {
			switch v := g.caveNoise(wx, y, wz); {
			case v > g.opts.CaveThreshold:
				id = block.AirBlockID
			case v > g.opts.CaveThreshold-0.05 && rng.Float64() < g.opts.GlowChance:
				// Стенка пещеры
				id = block.GlowstoneBlockID
			}
		}
		c.SetBlock(x, y, z, id)
	}

	for y := height + 1; y <= g.opts.SeaLevel && y < ChunkHeight; y++ {
		c.SetBlock(x, y, z, block.WaterBlockID)
	}
}

func (g *Generator) surfaceBlock(height int) block.BlockID {
	switch {
	case height <= g.opts.SeaLevel+1:
		return block.SandBlockID
	case height >= g.opts.SnowLine:
		return block.SnowBlockID
	default:
		return block.GrassBlockID
	}
}

func (g *Generator) caveNoise(wx, y, wz int) float64 {
	s := g.opts.CaveScale
	return g.noise.Simplex3D(float64(wx)*s, float64(y)*s, float64(wz)*s)
}

// placeTrees ставит деревья на траву. Крона целиком внутри чанка.
func (g *Generator) placeTrees(c *Chunk, rng *rand.Rand) {
	for z := 2; z < ChunkDepth-2; z++ {
		for x := 2; x < ChunkWidth-2; x++ {
			if rng.Float64() >= g.opts.TreeDensity {
				continue
			}
			y := c.HighestNonAir(x, z)
			if y < 0 || c.GetBlock(x, y, z) != block.GrassBlockID {
				continue
			}
			trunk := 4 + rng.Intn(3) // Высота ствола 4-6 блоков
			if y+trunk+2 >= ChunkHeight {
				continue
			}
			g.placeTree(c, x, y+1, z, trunk)
		}
	}
}

func (g *Generator) placeTree(c *Chunk, x, baseY, z, trunk int) {
	c.SetBlock(x, baseY-1, z, block.DirtBlockID)
	for dy := 0; dy < trunk; dy++ {
		c.SetBlock(x, baseY+dy, z, block.LogBlockID)
	}

	top := baseY + trunk - 1
	for dy := -2; dy <= 1; dy++ {
		radius := 2
		if dy == 1 {
			radius = 1
		}
		for dz := -radius; dz <= radius; dz++ {
			for dx := -radius; dx <= radius; dx++ {
				lx, ly, lz := x+dx, top+dy, z+dz
				if !InBounds(lx, ly, lz) || !c.GetBlock(lx, ly, lz).IsAir() {
					continue
				}
				c.SetBlock(lx, ly, lz, block.LeavesBlockID)
			}
		}
	}
	if ly := top + 2; ly < ChunkHeight {
		c.SetBlock(x, ly, z, block.LeavesBlockID)
	}
}
