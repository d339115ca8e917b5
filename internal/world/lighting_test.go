package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/voxelcore/internal/world/block"
)

func TestRelightOpenSky(t *testing.T) {
	chunk := NewChunk(0, 0)
	Relight(chunk)

	for _, y := range []int{0, 64, 255} {
		assert.Equal(t, uint8(15), chunk.GetSkyLight(5, y, 5), "y=%d", y)
		assert.Equal(t, uint8(0), chunk.GetBlockLight(5, y, 5), "y=%d", y)
	}
}

func TestRelightSlabWithHole(t *testing.T) {
	chunk := NewChunk(0, 0)
	chunk.FillLayer(10, block.StoneBlockID)
	chunk.SetBlock(8, 10, 8, block.AirBlockID)
	Relight(chunk)

	// Над плитой свет полный, в камне тёмно
	assert.Equal(t, uint8(15), chunk.GetSkyLight(0, 11, 0))
	assert.Equal(t, uint8(0), chunk.GetSkyLight(0, 10, 0))

	// Колонна под дырой освещена, свет расходится с шагом 1
	assert.Equal(t, uint8(15), chunk.GetSkyLight(8, 9, 8))
	assert.Equal(t, uint8(15), chunk.GetSkyLight(8, 0, 8))
	assert.Equal(t, uint8(14), chunk.GetSkyLight(9, 9, 8))
	assert.Equal(t, uint8(13), chunk.GetSkyLight(10, 9, 8))
	assert.Equal(t, uint8(11), chunk.GetSkyLight(10, 9, 10))
	assert.Equal(t, uint8(0), chunk.GetSkyLight(0, 9, 0), "дальний угол вне досягаемости")
}

func TestRelightWaterFilter(t *testing.T) {
	chunk := NewChunk(0, 0)
	chunk.SetBlock(0, 100, 0, block.WaterBlockID)
	Relight(chunk)

	assert.Equal(t, uint8(13), chunk.GetSkyLight(0, 100, 0))
	// Под водой свет восстанавливается соседними колоннами
	assert.Equal(t, uint8(14), chunk.GetSkyLight(0, 99, 0))
}

func TestRelightBlockLight(t *testing.T) {
	chunk := NewChunk(0, 0)
	chunk.SetBlock(8, 100, 8, block.GlowstoneBlockID)
	chunk.SetBlock(8, 100, 10, block.StoneBlockID)
	chunk.ClearDirty()
	Relight(chunk)

	assert.True(t, chunk.IsDirty())
	assert.Equal(t, uint8(15), chunk.GetBlockLight(8, 100, 8))
	assert.Equal(t, uint8(14), chunk.GetBlockLight(9, 100, 8))
	assert.Equal(t, uint8(11), chunk.GetBlockLight(12, 100, 8))
	assert.Equal(t, uint8(14), chunk.GetBlockLight(8, 101, 8))
	assert.Equal(t, uint8(0), chunk.GetBlockLight(8, 100, 10), "камень свет не пропускает")
	assert.Equal(t, uint8(10), chunk.GetBlockLight(8, 100, 11), "обход вокруг камня")
	assert.Equal(t, uint8(0), chunk.GetSkyLight(8, 100, 8))
}
