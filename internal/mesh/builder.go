package mesh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/annel0/voxelcore/internal/world/light"
)

// Ошибки построения меша
var (
	ErrNilChunk             = errors.New("mesh: nil chunk")
	ErrVertexBudgetExceeded = errors.New("mesh: vertex budget exceeded")
)

// Policy как трактовать соседний чанк, который не загружен.
type Policy uint8

const (
	// MissingOccludes граница с незагруженным чанком считается закрытой:
	// грани в неизвестность не строятся, швов при подгрузке не видно.
	MissingOccludes Policy = iota
	// MissingOpen незагруженный сосед считается воздухом, грани строятся.
	MissingOpen
)

func (p Policy) String() string {
	switch p {
	case MissingOccludes:
		return "occlude"
	case MissingOpen:
		return "open"
	}
	return "unknown"
}

// ParsePolicy разбирает строку из конфигурации
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "occlude", "occludes", "opaque":
		return MissingOccludes, nil
	case "open", "air":
		return MissingOpen, nil
	}
	return MissingOccludes, fmt.Errorf("mesh: unknown missing-neighbor policy %q", s)
}

// Options параметры построителя
type Options struct {
	MissingNeighbor Policy
	MaxVertices     int // Лимит вершин на оба потока, 0: без лимита
	AtlasColumns    int // Тайлов в строке атласа, 0 или 1: UV внутри одного тайла
}

// DefaultOptions настройки по умолчанию
func DefaultOptions() Options {
	return Options{
		MissingNeighbor: MissingOccludes,
		AtlasColumns:    16,
	}
}

// Builder строит меш чанка по граням: каждая видимая грань блока становится отдельным квадом.
//
// Между вызовами хранит только буферы; Build полностью их перезаписывает.
// Builder не потокобезопасен: один экземпляр на воркер.
type Builder struct {
	opts  Options
	solid []Vertex
	fluid []Vertex
}

// NewBuilder создаёт построитель
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Options возвращает параметры построителя
func (b *Builder) Options() Options {
	return b.opts
}

// PendingSolid буфер непрозрачных вершин последнего Build.
// Действителен до следующего вызова.
func (b *Builder) PendingSolid() []Vertex {
	return b.solid
}

// PendingFluid буфер прозрачных вершин последнего Build.
func (b *Builder) PendingFluid() []Vertex {
	return b.fluid
}

// Build строит меш чанка c с учётом соседей.
//
// Вызывающий держит c и соседей на чтение; Build их не меняет.
// При превышении MaxVertices возвращает ErrVertexBudgetExceeded и не возвращает меш.
func (b *Builder) Build(c *world.Chunk, neighbors world.NeighborView) (*ChunkMesh, error) {
	if c == nil {
		return nil, ErrNilChunk
	}
	b.solid = b.solid[:0]
	b.fluid = b.fluid[:0]

	v := volume{chunk: c, neighbors: neighbors}
	total := 0

	for y := 0; y < world.ChunkHeight; y++ {
		for z := 0; z < world.ChunkDepth; z++ {
			for x := 0; x < world.ChunkWidth; x++ {
				id := c.GetBlock(x, y, z)
				if id.IsAir() {
					continue
				}
				for fi := range faces {
					f := &faces[fi]
					nx, ny, nz := x+f.dir[0], y+f.dir[1], z+f.dir[2]
					if !b.faceVisible(id, &v, nx, ny, nz) {
						continue
					}
					if b.opts.MaxVertices > 0 && total+VerticesPerFace > b.opts.MaxVertices {
						return nil, fmt.Errorf("%w: chunk (%d,%d) needs more than %d vertices",
							ErrVertexBudgetExceeded, c.Coords.X, c.Coords.Z, b.opts.MaxVertices)
					}
					b.emitFace(&v, id, f, x, y, z)
					total += VerticesPerFace
				}
			}
		}
	}

	return &ChunkMesh{
		Coords: c.Coords,
		Solid:  append([]Vertex(nil), b.solid...),
		Fluid:  append([]Vertex(nil), b.fluid...),
	}, nil
}

// faceVisible грань строится, если сосед её не закрывает
func (b *Builder) faceVisible(id block.BlockID, v *volume, nx, ny, nz int) bool {
	neighbor, loaded := v.block(nx, ny, nz)
	if !loaded {
		return b.opts.MissingNeighbor == MissingOpen
	}
	return !block.Occludes(id, neighbor)
}

func (b *Builder) emitFace(v *volume, id block.BlockID, f *faceDef, x, y, z int) {
	// Свет берётся из клетки, в которую смотрит грань
	lp := v.light(x+f.dir[0], y+f.dir[1], z+f.dir[2])
	sky := float32(lp.Sky()) / light.MaxLevel
	blk := float32(lp.Block()) / light.MaxLevel

	color := id.TintFor(f.face)
	tile := id.Tile(f.face)

	var ao [4]int
	for c := 0; c < 4; c++ {
		s1, s2, cr := aoOffsets(f, c)
		ao[c] = vertexAO(
			v.occludesAO(x+s1[0], y+s1[1], z+s1[2]),
			v.occludesAO(x+s2[0], y+s2[1], z+s2[2]),
			v.occludesAO(x+cr[0], y+cr[1], z+cr[2]),
		)
	}

	// Анизотропное затенение: разбиваем квад по другой диагонали
	order := &quadOrder
	if ao[0]+ao[2] < ao[1]+ao[3] {
		order = &quadOrderFlipped
	}

	base := mgl32.Vec3{float32(x), float32(y), float32(z)}
	var quad [4]Vertex
	for c := 0; c < 4; c++ {
		k := f.corners[c]
		quad[c] = Vertex{
			Position:   base.Add(mgl32.Vec3{float32(k[0]), float32(k[1]), float32(k[2])}),
			Normal:     f.normal,
			Color:      color,
			UV:         tileUV(tile, cornerUV[c], b.opts.AtlasColumns),
			Tile:       tile,
			SkyLight:   sky,
			BlockLight: blk,
			AO:         float32(ao[c]) / 3,
		}
	}

	dst := &b.solid
	if id.IsTransparent() {
		dst = &b.fluid
	}
	for _, i := range order {
		*dst = append(*dst, quad[i])
	}
}

// volume чтение блоков и света вокруг чанка через NeighborView
type volume struct {
	chunk     *world.Chunk
	neighbors world.NeighborView
}

// resolve находит чанк и локальные координаты для клетки, выходящей за границу
// не более чем на один блок. Диагональные чанки вид не содержит.
func (v *volume) resolve(x, z int) (*world.Chunk, int, int, bool) {
	inX := x >= 0 && x < world.ChunkWidth
	inZ := z >= 0 && z < world.ChunkDepth
	switch {
	case inX && inZ:
		return v.chunk, x, z, true
	case !inX && !inZ:
		return nil, 0, 0, false
	case x < 0:
		return v.neighbors.West, x + world.ChunkWidth, z, v.neighbors.West != nil
	case x >= world.ChunkWidth:
		return v.neighbors.East, x - world.ChunkWidth, z, v.neighbors.East != nil
	case z < 0:
		return v.neighbors.North, x, z + world.ChunkDepth, v.neighbors.North != nil
	default:
		return v.neighbors.South, x, z - world.ChunkDepth, v.neighbors.South != nil
	}
}

// block возвращает блок и признак того, что клетка известна.
// Выше и ниже мира: воздух.
func (v *volume) block(x, y, z int) (block.BlockID, bool) {
	if y < 0 || y >= world.ChunkHeight {
		return block.AirBlockID, true
	}
	c, lx, lz, ok := v.resolve(x, z)
	if !ok {
		return block.AirBlockID, false
	}
	return c.GetBlock(lx, y, lz), true
}

// light над миром даёт полное небо, под миром темноту.
// Незагруженный сосед считается открытым небом.
func (v *volume) light(x, y, z int) light.Packed {
	if y >= world.ChunkHeight {
		return light.FullSky
	}
	if y < 0 {
		return 0
	}
	c, lx, lz, ok := v.resolve(x, z)
	if !ok {
		return light.FullSky
	}
	return c.GetLight(lx, y, lz)
}

// occludesAO неизвестные клетки угол не затеняют
func (v *volume) occludesAO(x, y, z int) bool {
	id, ok := v.block(x, y, z)
	return ok && id.IsSolid()
}
