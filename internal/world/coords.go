package world

import "github.com/annel0/voxelcore/internal/vec"

// WorldToChunk возвращает координаты чанка, содержащего мировой блок.
// Деление с округлением вниз: -1 -> -1, -17 -> -2.
func WorldToChunk(worldX, worldZ int) (chunkX, chunkZ int) {
	return vec.FloorDiv(worldX, ChunkWidth), vec.FloorDiv(worldZ, ChunkDepth)
}

// WorldToLocal возвращает локальные координаты внутри чанка, всегда в [0, 16).
func WorldToLocal(worldX, worldZ int) (localX, localZ int) {
	return vec.Mod(worldX, ChunkWidth), vec.Mod(worldZ, ChunkDepth)
}

// BlockToChunk разбивает мировую позицию блока на чанк и локальную позицию.
// Высота не меняется.
func BlockToChunk(pos vec.Vec3) (vec.Vec2, vec.Vec3) {
	cx, cz := WorldToChunk(pos.X, pos.Z)
	lx, lz := WorldToLocal(pos.X, pos.Z)
	return vec.Vec2{X: cx, Z: cz}, vec.Vec3{X: lx, Y: pos.Y, Z: lz}
}

// ChunkOrigin мировая позиция локального (0,0,0) чанка.
func ChunkOrigin(c vec.Vec2) vec.Vec3 {
	return vec.Vec3{X: c.X * ChunkWidth, Y: 0, Z: c.Z * ChunkDepth}
}
