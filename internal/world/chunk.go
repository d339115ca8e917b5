package world

import (
	"sync"
	"sync/atomic"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/annel0/voxelcore/internal/world/light"
)

// Размеры чанка. Ширина и глубина равны, высота покрывает весь мир.
const (
	ChunkWidth  = 16
	ChunkHeight = 256
	ChunkDepth  = 16

	ChunkArea   = ChunkWidth * ChunkDepth
	ChunkVolume = ChunkArea * ChunkHeight
)

// ChunkState стадия жизненного цикла чанка
type ChunkState int32

const (
	StateMissing    ChunkState = iota // создан, не заполнен
	StateGenerating                   // генератор пишет блоки
	StateGenerated                    // готов к мешингу
)

// String возвращает строковое представление состояния
func (s ChunkState) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateGenerating:
		return "generating"
	case StateGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

// Chunk представляет колонну мира 16x256x16 блоков.
//
// Блоки и освещение лежат в двух плоских массивах одинаковой длины,
// индекс = x + z*ChunkWidth + y*ChunkWidth*ChunkDepth.
//
// Мутирующие методы не берут блокировок: писатель должен держать Mu на запись,
// читатели (мешинг): на чтение. Соседние чанки никогда не хранятся внутри Chunk,
// они передаются в построитель меша через NeighborView.
type Chunk struct {
	Coords vec.Vec2 // Координаты чанка в мире

	blocks [ChunkVolume]block.BlockID
	light  [ChunkVolume]light.Packed

	state           atomic.Int32
	dirty           atomic.Bool
	pins            atomic.Int32
	unmatchedUnpins atomic.Uint64

	Mu sync.RWMutex // Эксклюзивный доступ для писателя
}

// NewChunk создаёт пустой чанк: воздух, нулевой свет, state=missing, dirty=true.
func NewChunk(chunkX, chunkZ int) *Chunk {
	c := &Chunk{Coords: vec.Vec2{X: chunkX, Z: chunkZ}}
	c.dirty.Store(true)
	return c
}

// Index переводит локальные координаты в индекс массива.
func Index(x, y, z int) int {
	return x + z*ChunkWidth + y*ChunkArea
}

// IndexToLocal обратное преобразование к Index.
func IndexToLocal(i int) (x, y, z int) {
	y = i / ChunkArea
	rem := i % ChunkArea
	z = rem / ChunkWidth
	x = rem % ChunkWidth
	return x, y, z
}

// InBounds проверяет, что локальные координаты лежат внутри чанка.
func InBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkWidth &&
		y >= 0 && y < ChunkHeight &&
		z >= 0 && z < ChunkDepth
}

// GetBlock возвращает блок без проверки границ.
// Вызывающий гарантирует, что координаты внутри чанка.
func (c *Chunk) GetBlock(x, y, z int) block.BlockID {
	return c.blocks[Index(x, y, z)]
}

// SetBlock устанавливает блок без проверки границ и помечает чанк грязным.
func (c *Chunk) SetBlock(x, y, z int, id block.BlockID) {
	c.blocks[Index(x, y, z)] = id
	c.dirty.Store(true)
}

// GetBlockSafe возвращает воздух для любых координат вне чанка.
// Соседние чанки этим методом не опрашиваются.
func (c *Chunk) GetBlockSafe(x, y, z int) block.BlockID {
	if !InBounds(x, y, z) {
		return block.AirBlockID
	}
	return c.blocks[Index(x, y, z)]
}

// FillLayer заполняет весь горизонтальный слой y одним типом блока.
func (c *Chunk) FillLayer(y int, id block.BlockID) {
	if y < 0 || y >= ChunkHeight {
		return
	}
	start := y * ChunkArea
	layer := c.blocks[start : start+ChunkArea]
	for i := range layer {
		layer[i] = id
	}
	c.dirty.Store(true)
}

// GetLight возвращает упакованный свет без проверки границ.
func (c *Chunk) GetLight(x, y, z int) light.Packed {
	return c.light[Index(x, y, z)]
}

// SetLight записывает упакованный свет без проверки границ.
func (c *Chunk) SetLight(x, y, z int, p light.Packed) {
	c.light[Index(x, y, z)] = p
	c.dirty.Store(true)
}

// GetLightSafe над чанком отдаёт полный небесный свет, в остальных случаях вне
// границ темноту.
func (c *Chunk) GetLightSafe(x, y, z int) light.Packed {
	if !InBounds(x, y, z) {
		if y >= ChunkHeight {
			return light.FullSky
		}
		return 0
	}
	return c.light[Index(x, y, z)]
}

func (c *Chunk) GetSkyLight(x, y, z int) uint8 {
	return c.light[Index(x, y, z)].Sky()
}

func (c *Chunk) SetSkyLight(x, y, z int, v uint8) {
	c.light[Index(x, y, z)].SetSky(v)
	c.dirty.Store(true)
}

func (c *Chunk) GetBlockLight(x, y, z int) uint8 {
	return c.light[Index(x, y, z)].Block()
}

func (c *Chunk) SetBlockLight(x, y, z int, v uint8) {
	c.light[Index(x, y, z)].SetBlock(v)
	c.dirty.Store(true)
}

// WorldX мировая координата X локального нуля.
func (c *Chunk) WorldX() int {
	return c.Coords.X * ChunkWidth
}

// WorldZ мировая координата Z локального нуля.
func (c *Chunk) WorldZ() int {
	return c.Coords.Z * ChunkDepth
}

// State возвращает текущую стадию
func (c *Chunk) State() ChunkState {
	return ChunkState(c.state.Load())
}

// SetState переводит чанк вперёд по жизненному циклу.
// Переход назад игнорируется и возвращает false.
func (c *Chunk) SetState(s ChunkState) bool {
	for {
		cur := c.state.Load()
		if int32(s) < cur {
			return false
		}
		if c.state.CompareAndSwap(cur, int32(s)) {
			return true
		}
	}
}

// IsDirty возвращает true, если данные менялись с последнего построения меша
func (c *Chunk) IsDirty() bool {
	return c.dirty.Load()
}

// MarkDirty помечает чанк для перестроения (например, изменился сосед)
func (c *Chunk) MarkDirty() {
	c.dirty.Store(true)
}

// ClearDirty вызывается после загрузки меша на GPU
func (c *Chunk) ClearDirty() {
	c.dirty.Store(false)
}

// Pin защищает чанк от выгрузки. Вызовы могут идти из разных горутин.
func (c *Chunk) Pin() {
	c.pins.Add(1)
}

// Unpin снимает одну защиту. Unpin на незакреплённом чанке ничего не делает:
// счётчик не уходит в минус, лишний вызов учитывается в UnmatchedUnpins.
func (c *Chunk) Unpin() {
	for {
		cur := c.pins.Load()
		if cur <= 0 {
			n := c.unmatchedUnpins.Add(1)
			logging.Debug("unpin без pin для чанка (%d,%d), всего %d", c.Coords.X, c.Coords.Z, n)
			return
		}
		if c.pins.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// IsPinned сообщает, защищён ли чанк от выгрузки
func (c *Chunk) IsPinned() bool {
	return c.pins.Load() > 0
}

// PinCount текущее значение счётчика
func (c *Chunk) PinCount() int {
	return int(c.pins.Load())
}

// UnmatchedUnpins сколько раз Unpin вызывался без парного Pin
func (c *Chunk) UnmatchedUnpins() uint64 {
	return c.unmatchedUnpins.Load()
}

// CountNonAir считает непустые блоки
func (c *Chunk) CountNonAir() int {
	n := 0
	for _, id := range c.blocks {
		if !id.IsAir() {
			n++
		}
	}
	return n
}

// HighestNonAir возвращает высоту верхнего непустого блока колонны или -1.
func (c *Chunk) HighestNonAir(x, z int) int {
	for y := ChunkHeight - 1; y >= 0; y-- {
		if !c.blocks[Index(x, y, z)].IsAir() {
			return y
		}
	}
	return -1
}
