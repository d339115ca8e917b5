package world

import "github.com/annel0/voxelcore/internal/vec"

// Direction горизонтальное направление к соседнему чанку
type Direction uint8

const (
	East  Direction = iota // +X
	West                   // -X
	South                  // +Z
	North                  // -Z
)

// Directions все четыре направления
var Directions = [...]Direction{East, West, South, North}

// Offset смещение в координатах чанков
func (d Direction) Offset() vec.Vec2 {
	switch d {
	case East:
		return vec.Vec2{X: 1}
	case West:
		return vec.Vec2{X: -1}
	case South:
		return vec.Vec2{Z: 1}
	default:
		return vec.Vec2{Z: -1}
	}
}

// Opposite противоположное направление
func (d Direction) Opposite() Direction {
	switch d {
	case East:
		return West
	case West:
		return East
	case South:
		return North
	default:
		return South
	}
}

func (d Direction) String() string {
	switch d {
	case East:
		return "east"
	case West:
		return "west"
	case South:
		return "south"
	case North:
		return "north"
	}
	return "unknown"
}

// NeighborView набор соседей чанка на время одного построения меша.
// nil означает, что сосед не загружен.
type NeighborView struct {
	East, West, South, North *Chunk
}

// Get возвращает соседа в направлении d
func (v NeighborView) Get(d Direction) *Chunk {
	switch d {
	case East:
		return v.East
	case West:
		return v.West
	case South:
		return v.South
	case North:
		return v.North
	}
	return nil
}

// Set заменяет соседа в направлении d
func (v *NeighborView) Set(d Direction, c *Chunk) {
	switch d {
	case East:
		v.East = c
	case West:
		v.West = c
	case South:
		v.South = c
	case North:
		v.North = c
	}
}

// Count количество загруженных соседей
func (v NeighborView) Count() int {
	n := 0
	for _, d := range Directions {
		if v.Get(d) != nil {
			n++
		}
	}
	return n
}

// Chunks загруженные соседи в порядке Directions
func (v NeighborView) Chunks() []*Chunk {
	out := make([]*Chunk, 0, 4)
	for _, d := range Directions {
		if c := v.Get(d); c != nil {
			out = append(out, c)
		}
	}
	return out
}
