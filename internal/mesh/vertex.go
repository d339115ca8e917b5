package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxelcore/internal/vec"
)

// Stride число float32 на вершину в чередующемся буфере:
// pos3 | color3 | normal3 | uv2 | tile1 | sky1 | block1 | ao1
const Stride = 15

// Смещения атрибутов внутри вершины (в float32)
const (
	OffsetPosition   = 0
	OffsetColor      = 3
	OffsetNormal     = 6
	OffsetUV         = 9
	OffsetTile       = 11
	OffsetSkyLight   = 12
	OffsetBlockLight = 13
	OffsetAO         = 14
)

// VerticesPerFace каждая видимая грань: два треугольника
const VerticesPerFace = 6

// Vertex одна вершина меша чанка. Позиция в локальных координатах чанка.
type Vertex struct {
	Position   mgl32.Vec3
	Normal     mgl32.Vec3
	Color      mgl32.Vec3
	UV         mgl32.Vec2
	Tile       uint16
	SkyLight   float32 // 0..1
	BlockLight float32 // 0..1
	AO         float32 // 0..1, 1: без затенения
}

// AppendFloats дописывает вершины в dst в формате Stride.
func AppendFloats(dst []float32, vs []Vertex) []float32 {
	for i := range vs {
		v := &vs[i]
		dst = append(dst,
			v.Position[0], v.Position[1], v.Position[2],
			v.Color[0], v.Color[1], v.Color[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.UV[0], v.UV[1],
			float32(v.Tile),
			v.SkyLight, v.BlockLight, v.AO,
		)
	}
	return dst
}

// Interleave упаковывает вершины в новый буфер float32.
func Interleave(vs []Vertex) []float32 {
	return AppendFloats(make([]float32, 0, len(vs)*Stride), vs)
}

// ChunkMesh результат построения меша одного чанка.
// Непрозрачные грани и прозрачные (вода, стекло, листва) лежат в разных потоках:
// рендерер рисует Solid с записью глубины, затем Fluid со смешиванием.
type ChunkMesh struct {
	Coords vec.Vec2
	Solid  []Vertex
	Fluid  []Vertex
}

// VertexCount общее число вершин в обоих потоках
func (m *ChunkMesh) VertexCount() int {
	return len(m.Solid) + len(m.Fluid)
}

// FaceCount число граней (квадов)
func (m *ChunkMesh) FaceCount() int {
	return m.VertexCount() / VerticesPerFace
}

// Empty true, если у чанка нет видимой геометрии
func (m *ChunkMesh) Empty() bool {
	return m.VertexCount() == 0
}

// SolidFloats чередующийся буфер непрозрачного потока
func (m *ChunkMesh) SolidFloats() []float32 {
	return Interleave(m.Solid)
}

// FluidFloats чередующийся буфер прозрачного потока
func (m *ChunkMesh) FluidFloats() []float32 {
	return Interleave(m.Fluid)
}

// SizeBytes размер обоих потоков после упаковки
func (m *ChunkMesh) SizeBytes() int {
	return m.VertexCount() * Stride * 4
}
