package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/voxelcore/internal/vec"
)

func TestWorldToChunk(t *testing.T) {
	tests := []struct {
		world int
		chunk int
		local int
	}{
		{0, 0, 0},
		{15, 0, 15},
		{16, 1, 0},
		{32, 2, 0},
		{35, 2, 3},
		{-1, -1, 15},
		{-16, -1, 0},
		{-17, -2, 15},
		{-32, -2, 0},
	}

	for _, tt := range tests {
		cx, cz := WorldToChunk(tt.world, tt.world)
		lx, lz := WorldToLocal(tt.world, tt.world)
		assert.Equal(t, tt.chunk, cx, "chunk x для %d", tt.world)
		assert.Equal(t, tt.chunk, cz, "chunk z для %d", tt.world)
		assert.Equal(t, tt.local, lx, "local x для %d", tt.world)
		assert.Equal(t, tt.local, lz, "local z для %d", tt.world)
	}
}

func TestWorldToChunkRoundTrip(t *testing.T) {
	for w := -1000; w <= 1000; w++ {
		cx, _ := WorldToChunk(w, 0)
		lx, _ := WorldToLocal(w, 0)
		if lx < 0 || lx >= ChunkWidth {
			t.Fatalf("локальная координата %d вне [0,16) для %d", lx, w)
		}
		if cx*ChunkWidth+lx != w {
			t.Fatalf("%d*16+%d != %d", cx, lx, w)
		}
	}
}

func TestBlockToChunk(t *testing.T) {
	chunk, local := BlockToChunk(vec.Vec3{X: -1, Y: 70, Z: 33})
	assert.Equal(t, vec.Vec2{X: -1, Z: 2}, chunk)
	assert.Equal(t, vec.Vec3{X: 15, Y: 70, Z: 1}, local)

	origin := ChunkOrigin(chunk)
	assert.Equal(t, vec.Vec3{X: -1, Y: 70, Z: 33}, origin.Add(local))
}
