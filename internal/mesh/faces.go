package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxelcore/internal/world/block"
)

// faceDef геометрия одной грани единичного куба.
//
// Углы перечислены против часовой стрелки, если смотреть снаружи:
// нижний левый, нижний правый, верхний правый, верхний левый.
type faceDef struct {
	face    block.Face
	dir     [3]int // смещение к соседней клетке
	axis    int    // ось нормали: 0=X, 1=Y, 2=Z
	normal  mgl32.Vec3
	corners [4][3]int // углы куба, каждая координата 0 или 1
}

var faces = [block.FaceCount]faceDef{
	{
		face: block.FaceEast, dir: [3]int{1, 0, 0}, axis: 0,
		normal:  mgl32.Vec3{1, 0, 0},
		corners: [4][3]int{{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}},
	},
	{
		face: block.FaceWest, dir: [3]int{-1, 0, 0}, axis: 0,
		normal:  mgl32.Vec3{-1, 0, 0},
		corners: [4][3]int{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	},
	{
		face: block.FaceTop, dir: [3]int{0, 1, 0}, axis: 1,
		normal:  mgl32.Vec3{0, 1, 0},
		corners: [4][3]int{{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}},
	},
	{
		face: block.FaceBottom, dir: [3]int{0, -1, 0}, axis: 1,
		normal:  mgl32.Vec3{0, -1, 0},
		corners: [4][3]int{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	},
	{
		face: block.FaceSouth, dir: [3]int{0, 0, 1}, axis: 2,
		normal:  mgl32.Vec3{0, 0, 1},
		corners: [4][3]int{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	},
	{
		face: block.FaceNorth, dir: [3]int{0, 0, -1}, axis: 2,
		normal:  mgl32.Vec3{0, 0, -1},
		corners: [4][3]int{{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 1, 0}},
	},
}

// cornerUV текстурные координаты углов внутри тайла (v растёт вниз)
var cornerUV = [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

// Порядок вершин двух треугольников квада.
// Обычное разбиение по диагонали 0-2, перевёрнутое: по 1-3. Оба сохраняют обход.
var (
	quadOrder        = [VerticesPerFace]int{0, 1, 2, 0, 2, 3}
	quadOrderFlipped = [VerticesPerFace]int{1, 2, 3, 1, 3, 0}
)

// aoOffsets для угла c грани f возвращает смещения двух боковых клеток и диагональной
// в слое перед гранью (относительно блока).
func aoOffsets(f *faceDef, c int) (side1, side2, corner [3]int) {
	side1, side2 = f.dir, f.dir
	first := true
	for a := 0; a < 3; a++ {
		if a == f.axis {
			continue
		}
		s := f.corners[c][a]*2 - 1
		if first {
			side1[a] += s
			first = false
		} else {
			side2[a] += s
		}
	}
	for a := 0; a < 3; a++ {
		corner[a] = side1[a] + side2[a] - f.dir[a]
	}
	return side1, side2, corner
}

// vertexAO классическая формула: два бока перекрывают угол полностью.
// Возвращает уровень 0..3, 3: без затенения.
func vertexAO(side1, side2, corner bool) int {
	if side1 && side2 {
		return 0
	}
	return 3 - (b2i(side1) + b2i(side2) + b2i(corner))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// tileUV переводит угол тайла в координаты атласа из cols×cols тайлов
func tileUV(tile uint16, uv mgl32.Vec2, cols int) mgl32.Vec2 {
	if cols <= 1 {
		return uv
	}
	size := 1 / float32(cols)
	col := float32(int(tile) % cols)
	row := float32(int(tile) / cols)
	return mgl32.Vec2{(col + uv[0]) * size, (row + uv[1]) * size}
}
