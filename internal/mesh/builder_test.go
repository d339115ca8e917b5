package mesh

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/annel0/voxelcore/internal/world/light"
)

func buildMesh(t *testing.T, c *world.Chunk, view world.NeighborView, opts Options) *ChunkMesh {
	t.Helper()
	m, err := NewBuilder(opts).Build(c, view)
	require.NoError(t, err)
	require.NotNil(t, m)
	assertWinding(t, m)
	return m
}

// assertWinding каждый треугольник обходится против часовой стрелки относительно нормали
func assertWinding(t *testing.T, m *ChunkMesh) {
	t.Helper()
	for _, stream := range [][]Vertex{m.Solid, m.Fluid} {
		require.Zero(t, len(stream)%3)
		for i := 0; i < len(stream); i += 3 {
			a, b, c := stream[i], stream[i+1], stream[i+2]
			n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
			if n.Dot(a.Normal) <= 0 {
				t.Fatalf("треугольник %d обходится по часовой: %v %v %v нормаль %v", i/3, a.Position, b.Position, c.Position, a.Normal)
			}
		}
	}
}

// faceVertices вершины граней с нормалью normal, у которых координата оси нормали равна level
func faceVertices(vs []Vertex, normal mgl32.Vec3, axis int, level float32) []Vertex {
	var out []Vertex
	for _, v := range vs {
		if v.Normal == normal && v.Position[axis] == level {
			out = append(out, v)
		}
	}
	return out
}

func TestBuildIsolatedBlock(t *testing.T) {
	c := world.NewChunk(0, 0)
	c.SetBlock(8, 100, 8, block.StoneBlockID)

	m := buildMesh(t, c, world.NeighborView{}, DefaultOptions())
	assert.Equal(t, 36, m.VertexCount())
	assert.Equal(t, 6, m.FaceCount())
	assert.Len(t, m.Solid, 36)
	assert.Empty(t, m.Fluid)
	assert.False(t, m.Empty())
}

func TestBuildEmptyChunk(t *testing.T) {
	m := buildMesh(t, world.NewChunk(3, 3), world.NeighborView{}, DefaultOptions())
	assert.True(t, m.Empty())
	assert.Equal(t, vec.Vec2{X: 3, Z: 3}, m.Coords)
}

func TestBuildAdjacentBlocksShareNoFace(t *testing.T) {
	tests := []struct {
		name   string
		id     block.BlockID
		fluid  bool
		expect int
	}{
		{"stone", block.StoneBlockID, false, 60},
		{"water", block.WaterBlockID, true, 60},
		{"glass", block.GlassBlockID, true, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := world.NewChunk(0, 0)
			c.SetBlock(8, 100, 8, tt.id)
			c.SetBlock(9, 100, 8, tt.id)

			m := buildMesh(t, c, world.NeighborView{}, DefaultOptions())
			assert.Less(t, m.VertexCount(), 72)
			assert.Equal(t, tt.expect, m.VertexCount())
			if tt.fluid {
				assert.Empty(t, m.Solid)
			} else {
				assert.Empty(t, m.Fluid)
			}
		})
	}
}

func TestBuildStreamSplit(t *testing.T) {
	c := world.NewChunk(0, 0)
	c.SetBlock(8, 100, 8, block.StoneBlockID)
	c.SetBlock(9, 100, 8, block.WaterBlockID)

	m := buildMesh(t, c, world.NeighborView{}, DefaultOptions())
	// Камень видит воду и строит все 6 граней, вода к камню грань не строит
	assert.Len(t, m.Solid, 36)
	assert.Len(t, m.Fluid, 30)

	for _, v := range m.Fluid {
		assert.Equal(t, block.WaterBlockID.Tint(), v.Color)
	}

	// Разные прозрачные блоки рисуют грань между собой
	c = world.NewChunk(0, 0)
	c.SetBlock(8, 100, 8, block.GlassBlockID)
	c.SetBlock(9, 100, 8, block.WaterBlockID)
	m = buildMesh(t, c, world.NeighborView{}, DefaultOptions())
	assert.Empty(t, m.Solid)
	assert.Len(t, m.Fluid, 72)
}

func TestBuildWorldVerticalBounds(t *testing.T) {
	c := world.NewChunk(0, 0)
	c.SetBlock(8, 0, 8, block.BedrockBlockID)
	c.SetBlock(4, world.ChunkHeight-1, 4, block.StoneBlockID)

	m := buildMesh(t, c, world.NeighborView{}, DefaultOptions())
	// Над и под миром воздух: грани строятся
	assert.Equal(t, 72, m.VertexCount())

	top := faceVertices(m.Solid, mgl32.Vec3{0, 1, 0}, 1, world.ChunkHeight)
	require.Len(t, top, 6)
	for _, v := range top {
		assert.Equal(t, float32(1), v.SkyLight, "над миром полное небо")
	}
	bottom := faceVertices(m.Solid, mgl32.Vec3{0, -1, 0}, 1, 0)
	require.Len(t, bottom, 6)
	for _, v := range bottom {
		assert.Equal(t, float32(0), v.SkyLight)
	}
}

func TestBuildMissingNeighborPolicy(t *testing.T) {
	c := world.NewChunk(0, 0)
	c.SetBlock(0, 100, 8, block.StoneBlockID)   // у западной границы
	c.SetBlock(15, 100, 15, block.StoneBlockID) // угол: восток и юг

	occlude := buildMesh(t, c, world.NeighborView{}, Options{MissingNeighbor: MissingOccludes})
	assert.Equal(t, 30+24, occlude.VertexCount())

	open := buildMesh(t, c, world.NeighborView{}, Options{MissingNeighbor: MissingOpen})
	assert.Equal(t, 72, open.VertexCount())

	// Незагруженный сосед при открытой политике светит как небо
	west := faceVertices(open.Solid, mgl32.Vec3{-1, 0, 0}, 0, 0)
	require.Len(t, west, 6)
	assert.Equal(t, float32(1), west[0].SkyLight)
}

func TestBuildCrossChunkCulling(t *testing.T) {
	c := world.NewChunk(0, 0)
	east := world.NewChunk(1, 0)
	c.SetBlock(15, 100, 8, block.StoneBlockID)
	view := world.NeighborView{East: east}

	for _, policy := range []Policy{MissingOccludes, MissingOpen} {
		opts := Options{MissingNeighbor: policy}

		// Сосед загружен и пуст: грань видна при любой политике
		east.SetBlock(0, 100, 8, block.AirBlockID)
		m := buildMesh(t, c, view, opts)
		assert.Equal(t, 36, m.VertexCount(), "policy=%s", policy)

		// Камень у соседа закрывает грань
		east.SetBlock(0, 100, 8, block.StoneBlockID)
		m = buildMesh(t, c, view, opts)
		assert.Equal(t, 30, m.VertexCount(), "policy=%s", policy)
		assert.Empty(t, faceVertices(m.Solid, mgl32.Vec3{1, 0, 0}, 0, 16))
	}

	// Вода по обе стороны границы: одна водная масса
	w := world.NewChunk(0, 0)
	north := world.NewChunk(0, -1)
	w.SetBlock(4, 60, 0, block.WaterBlockID)
	north.SetBlock(4, 60, 15, block.WaterBlockID)
	m := buildMesh(t, w, world.NeighborView{North: north}, DefaultOptions())
	assert.Equal(t, 30, m.VertexCount())
	assert.Len(t, m.Fluid, 30)
}

func TestBuildFaceLightFromFacingCell(t *testing.T) {
	c := world.NewChunk(0, 0)
	c.SetBlock(8, 100, 8, block.StoneBlockID)
	c.SetLight(9, 100, 8, light.New(12, 5))
	c.SetLight(8, 100, 8, light.New(1, 1)) // свой свет блока не используется

	m := buildMesh(t, c, world.NeighborView{}, DefaultOptions())

	eastFace := faceVertices(m.Solid, mgl32.Vec3{1, 0, 0}, 0, 9)
	require.Len(t, eastFace, 6)
	for _, v := range eastFace {
		assert.InDelta(t, 12.0/15.0, v.SkyLight, 1e-6)
		assert.InDelta(t, 5.0/15.0, v.BlockLight, 1e-6)
	}

	westFace := faceVertices(m.Solid, mgl32.Vec3{-1, 0, 0}, 0, 8)
	require.Len(t, westFace, 6)
	assert.Equal(t, float32(0), westFace[0].SkyLight)

	// Свет через границу берётся у соседа
	edge := world.NewChunk(0, 0)
	edge.SetBlock(15, 100, 8, block.StoneBlockID)
	east := world.NewChunk(1, 0)
	east.SetLight(0, 100, 8, light.New(7, 3))
	m = buildMesh(t, edge, world.NeighborView{East: east}, DefaultOptions())
	eastFace = faceVertices(m.Solid, mgl32.Vec3{1, 0, 0}, 0, 16)
	require.Len(t, eastFace, 6)
	assert.InDelta(t, 7.0/15.0, eastFace[0].SkyLight, 1e-6)
	assert.InDelta(t, 3.0/15.0, eastFace[0].BlockLight, 1e-6)
}

func TestBuildAmbientOcclusion(t *testing.T) {
	topOf := func(t *testing.T, m *ChunkMesh) map[mgl32.Vec3]float32 {
		t.Helper()
		face := faceVertices(m.Solid, mgl32.Vec3{0, 1, 0}, 1, 11)
		require.Len(t, face, 6)
		ao := make(map[mgl32.Vec3]float32)
		for _, v := range face {
			ao[v.Position] = v.AO
		}
		require.Len(t, ao, 4)
		return ao
	}

	t.Run("open", func(t *testing.T) {
		c := world.NewChunk(0, 0)
		c.SetBlock(8, 10, 8, block.StoneBlockID)
		ao := topOf(t, buildMesh(t, c, world.NeighborView{}, DefaultOptions()))
		for pos, v := range ao {
			assert.Equal(t, float32(1), v, "угол %v", pos)
		}
	})

	t.Run("wall", func(t *testing.T) {
		c := world.NewChunk(0, 0)
		c.SetBlock(8, 10, 8, block.StoneBlockID)
		c.SetBlock(9, 11, 8, block.StoneBlockID)
		ao := topOf(t, buildMesh(t, c, world.NeighborView{}, DefaultOptions()))
		assert.InDelta(t, 2.0/3.0, ao[mgl32.Vec3{9, 11, 9}], 1e-6)
		assert.InDelta(t, 2.0/3.0, ao[mgl32.Vec3{9, 11, 8}], 1e-6)
		assert.Equal(t, float32(1), ao[mgl32.Vec3{8, 11, 9}])
		assert.Equal(t, float32(1), ao[mgl32.Vec3{8, 11, 8}])
	})

	t.Run("two sides", func(t *testing.T) {
		c := world.NewChunk(0, 0)
		c.SetBlock(8, 10, 8, block.StoneBlockID)
		c.SetBlock(9, 11, 8, block.StoneBlockID)
		c.SetBlock(8, 11, 9, block.StoneBlockID)
		ao := topOf(t, buildMesh(t, c, world.NeighborView{}, DefaultOptions()))
		// Два боковых соседа закрывают угол полностью
		assert.Equal(t, float32(0), ao[mgl32.Vec3{9, 11, 9}])
		assert.InDelta(t, 2.0/3.0, ao[mgl32.Vec3{9, 11, 8}], 1e-6)
		assert.InDelta(t, 2.0/3.0, ao[mgl32.Vec3{8, 11, 9}], 1e-6)
		assert.Equal(t, float32(1), ao[mgl32.Vec3{8, 11, 8}])
	})

	t.Run("flip", func(t *testing.T) {
		c := world.NewChunk(0, 0)
		c.SetBlock(8, 10, 8, block.StoneBlockID)
		c.SetBlock(7, 11, 9, block.StoneBlockID) // только диагональ угла (8,11,9)
		m := buildMesh(t, c, world.NeighborView{}, DefaultOptions())
		ao := topOf(t, m)
		assert.InDelta(t, 2.0/3.0, ao[mgl32.Vec3{8, 11, 9}], 1e-6)

		// Квад разбит по другой диагонали: первая вершина в углу (9,11,9)
		face := faceVertices(m.Solid, mgl32.Vec3{0, 1, 0}, 1, 11)
		assert.Equal(t, mgl32.Vec3{9, 11, 9}, face[0].Position)
	})

	t.Run("missing diagonal chunk", func(t *testing.T) {
		c := world.NewChunk(0, 0)
		c.SetBlock(15, 10, 15, block.StoneBlockID)
		east := world.NewChunk(1, 0)
		south := world.NewChunk(0, 1)
		view := world.NeighborView{East: east, South: south}
		m := buildMesh(t, c, view, DefaultOptions())

		face := faceVertices(m.Solid, mgl32.Vec3{0, 1, 0}, 1, 11)
		require.Len(t, face, 6)
		for _, v := range face {
			assert.Equal(t, float32(1), v.AO)
		}

		// Сосед по стороне затеняет угол через границу
		east.SetBlock(0, 11, 15, block.StoneBlockID)
		m = buildMesh(t, c, view, DefaultOptions())
		ao := make(map[mgl32.Vec3]float32)
		for _, v := range faceVertices(m.Solid, mgl32.Vec3{0, 1, 0}, 1, 11) {
			ao[v.Position] = v.AO
		}
		assert.InDelta(t, 2.0/3.0, ao[mgl32.Vec3{16, 11, 16}], 1e-6)
		assert.InDelta(t, 2.0/3.0, ao[mgl32.Vec3{16, 11, 15}], 1e-6)
	})
}

func TestBuildTintAndUV(t *testing.T) {
	c := world.NewChunk(0, 0)
	c.SetBlock(8, 100, 8, block.GrassBlockID)
	c.SetBlock(2, 100, 2, block.StoneBlockID)

	m := buildMesh(t, c, world.NeighborView{}, Options{AtlasColumns: 16})

	top := faceVertices(m.Solid, mgl32.Vec3{0, 1, 0}, 1, 101)
	require.Len(t, top, 12)
	for _, v := range top {
		if v.Position[0] >= 8 {
			assert.Equal(t, block.GrassBlockID.TintFor(block.FaceTop), v.Color)
			assert.Equal(t, block.GrassBlockID.Tile(block.FaceTop), v.Tile)
		}
	}
	for _, v := range faceVertices(m.Solid, mgl32.Vec3{1, 0, 0}, 0, 9) {
		assert.Equal(t, mgl32.Vec3{1, 1, 1}, v.Color, "бок травы без тонировки")
		assert.Equal(t, block.GrassBlockID.Tile(block.FaceEast), v.Tile)
	}

	// UV камня лежат внутри его тайла атласа
	tile := block.StoneBlockID.Tile(block.FaceEast)
	col, row := float32(tile%16), float32(tile/16)
	for _, v := range faceVertices(m.Solid, mgl32.Vec3{1, 0, 0}, 0, 3) {
		assert.GreaterOrEqual(t, v.UV[0], col/16)
		assert.LessOrEqual(t, v.UV[0], (col+1)/16)
		assert.GreaterOrEqual(t, v.UV[1], row/16)
		assert.LessOrEqual(t, v.UV[1], (row+1)/16)
	}
}

func TestBuildVertexBudget(t *testing.T) {
	c := world.NewChunk(0, 0)
	c.SetBlock(8, 100, 8, block.StoneBlockID)

	b := NewBuilder(Options{MaxVertices: 35})
	m, err := b.Build(c, world.NeighborView{})
	assert.ErrorIs(t, err, ErrVertexBudgetExceeded)
	assert.Nil(t, m)

	b = NewBuilder(Options{MaxVertices: 36})
	m, err = b.Build(c, world.NeighborView{})
	require.NoError(t, err)
	assert.Equal(t, 36, m.VertexCount())
}

func TestBuildNilChunk(t *testing.T) {
	_, err := NewBuilder(DefaultOptions()).Build(nil, world.NeighborView{})
	assert.ErrorIs(t, err, ErrNilChunk)
}

func TestBuildDoesNotMutateChunk(t *testing.T) {
	gen := world.NewGenerator(5, world.DefaultGeneratorOptions())
	c := gen.GenerateChunk(vec.Vec2{})
	c.ClearDirty()

	before := make([]block.BlockID, 0, world.ChunkVolume)
	lights := make([]light.Packed, 0, world.ChunkVolume)
	for i := 0; i < world.ChunkVolume; i++ {
		x, y, z := world.IndexToLocal(i)
		before = append(before, c.GetBlock(x, y, z))
		lights = append(lights, c.GetLight(x, y, z))
	}

	buildMesh(t, c, world.NeighborView{}, DefaultOptions())

	assert.False(t, c.IsDirty())
	for i := 0; i < world.ChunkVolume; i++ {
		x, y, z := world.IndexToLocal(i)
		require.Equal(t, before[i], c.GetBlock(x, y, z))
		require.Equal(t, lights[i], c.GetLight(x, y, z))
	}
}

func TestBuilderReusesScratch(t *testing.T) {
	a := world.NewChunk(0, 0)
	a.SetBlock(1, 1, 1, block.StoneBlockID)
	b := world.NewChunk(1, 0)
	b.SetBlock(1, 1, 1, block.StoneBlockID)
	b.SetBlock(5, 1, 5, block.WaterBlockID)

	builder := NewBuilder(DefaultOptions())
	first, err := builder.Build(a, world.NeighborView{})
	require.NoError(t, err)
	second, err := builder.Build(b, world.NeighborView{})
	require.NoError(t, err)

	assert.Len(t, first.Solid, 36, "результат не зависит от следующего вызова")
	assert.Len(t, builder.PendingSolid(), 36)
	assert.Len(t, builder.PendingFluid(), 36)
	assert.Equal(t, second.Fluid, builder.PendingFluid())
}

func TestBuildGeneratedArea(t *testing.T) {
	mgr := world.NewManager(world.NewGenerator(11, world.DefaultGeneratorOptions()), nil, 0)
	require.NoError(t, mgr.GenerateArea(context.Background(), vec.Vec2{}, 1))

	c := mgr.Get(vec.Vec2{})
	view := mgr.Neighbors(vec.Vec2{})
	require.Equal(t, 4, view.Count())

	m := buildMesh(t, c, view, DefaultOptions())
	assert.False(t, m.Empty())
	assert.Zero(t, m.VertexCount()%VerticesPerFace)
	for _, v := range append(m.Solid, m.Fluid...) {
		require.True(t, v.Position[0] >= 0 && v.Position[0] <= world.ChunkWidth)
		require.True(t, v.Position[2] >= 0 && v.Position[2] <= world.ChunkDepth)
		require.True(t, v.AO >= 0 && v.AO <= 1)
	}

	// Соседи закрывают больше граней, чем пустой вид с открытой политикой
	open := buildMesh(t, c, world.NeighborView{}, Options{MissingNeighbor: MissingOpen})
	assert.Greater(t, open.VertexCount(), m.VertexCount())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("open")
	require.NoError(t, err)
	assert.Equal(t, MissingOpen, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, MissingOccludes, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
	assert.Equal(t, "occlude", MissingOccludes.String())
}

func BenchmarkBuildGeneratedChunk(b *testing.B) {
	mgr := world.NewManager(world.NewGenerator(11, world.DefaultGeneratorOptions()), nil, 0)
	if err := mgr.GenerateArea(context.Background(), vec.Vec2{}, 1); err != nil {
		b.Fatal(err)
	}
	c := mgr.Get(vec.Vec2{})
	view := mgr.Neighbors(vec.Vec2{})
	builder := NewBuilder(DefaultOptions())

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Build(c, view); err != nil {
			b.Fatal(err)
		}
	}
}
