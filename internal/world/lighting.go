package world

import "github.com/annel0/voxelcore/internal/world/light"

// шесть соседей клетки
var lightSteps = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Relight пересчитывает оба канала освещения внутри одного чанка.
//
// Небесный свет идёт сверху вниз по каждой колонне до первого непрозрачного
// блока и ослабляется прозрачными блоками, затем растекается в стороны
// с потерей 1 уровня за шаг. Свет блоков растекается от источников так же.
// Свет через границу чанка не переносится.
func Relight(c *Chunk) {
	queue := make([]int, 0, ChunkArea*4)

	// Небесный свет: колонны
	for z := 0; z < ChunkDepth; z++ {
		for x := 0; x < ChunkWidth; x++ {
			level := uint8(light.MaxLevel)
			for y := ChunkHeight - 1; y >= 0; y-- {
				i := Index(x, y, z)
				id := c.blocks[i]
				if id.IsOpaque() {
					level = 0
				} else {
					level = attenuate(level, id.LightFilter())
				}
				c.light[i] = light.New(level, 0)
				if level > 1 {
					queue = append(queue, i)
				}
			}
		}
	}
	spread(c, queue, skyChannel)

	// Свет блоков: источники
	queue = queue[:0]
	for i, id := range c.blocks {
		if e := id.LightEmission(); e > 0 {
			c.light[i].SetBlock(e)
			queue = append(queue, i)
		}
	}
	spread(c, queue, blockChannel)

	c.dirty.Store(true)
}

type lightChannel int

const (
	skyChannel lightChannel = iota
	blockChannel
)

func (ch lightChannel) get(p light.Packed) uint8 {
	if ch == skyChannel {
		return p.Sky()
	}
	return p.Block()
}

func (ch lightChannel) set(p *light.Packed, v uint8) {
	if ch == skyChannel {
		p.SetSky(v)
		return
	}
	p.SetBlock(v)
}

// spread BFS по непрозрачным для света клеткам
func spread(c *Chunk, queue []int, ch lightChannel) {
	for head := 0; head < len(queue); head++ {
		i := queue[head]
		level := ch.get(c.light[i])
		if level <= 1 {
			continue
		}
		x, y, z := IndexToLocal(i)
		for _, s := range lightSteps {
			nx, ny, nz := x+s[0], y+s[1], z+s[2]
			if !InBounds(nx, ny, nz) {
				continue
			}
			ni := Index(nx, ny, nz)
			id := c.blocks[ni]
			if id.IsOpaque() {
				continue
			}
			next := attenuate(level-1, id.LightFilter())
			if next > ch.get(c.light[ni]) {
				ch.set(&c.light[ni], next)
				queue = append(queue, ni)
			}
		}
	}
}

func attenuate(level, filter uint8) uint8 {
	if filter >= level {
		return 0
	}
	return level - filter
}
