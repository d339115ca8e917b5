package world

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
)

// Ошибки операций с миром
var (
	ErrOutOfWorld     = errors.New("world: position outside world height")
	ErrChunkNotLoaded = errors.New("world: chunk not loaded")
	ErrUnknownBlock   = errors.New("world: unknown block id")
)

const eventSource = "world"

// Manager владеет загруженными чанками.
//
// Карта чанков защищена mu. Содержимое каждого чанка защищено его Chunk.Mu:
// Manager берёт его на запись при изменениях, построитель меша: на чтение.
type Manager struct {
	mu     sync.RWMutex
	chunks map[vec.Vec2]*Chunk

	gen     *Generator
	bus     eventbus.EventBus
	workers int
	logger  *logging.Logger
}

// NewManager создаёт менеджер. bus может быть nil, тогда события не публикуются.
// workers ограничивает параллельную генерацию в GenerateArea (0: без ограничения).
func NewManager(gen *Generator, bus eventbus.EventBus, workers int) *Manager {
	return &Manager{
		chunks:  make(map[vec.Vec2]*Chunk),
		gen:     gen,
		bus:     bus,
		workers: workers,
		logger:  logging.GetWorldLogger(),
	}
}

// Generator возвращает генератор мира
func (m *Manager) Generator() *Generator {
	return m.gen
}

// Get возвращает загруженный чанк или nil.
func (m *Manager) Get(coords vec.Vec2) *Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chunks[coords]
}

// Put добавляет (или заменяет) чанк и помечает соседей грязными:
// их граничные грани могли стать скрытыми.
func (m *Manager) Put(c *Chunk) {
	m.mu.Lock()
	m.chunks[c.Coords] = c
	m.markNeighborsDirtyLocked(c.Coords)
	m.mu.Unlock()
}

// GetOrGenerate возвращает чанк, генерируя его при отсутствии.
// Генерация идёт вне блокировки карты; при гонке побеждает первый вставленный.
func (m *Manager) GetOrGenerate(ctx context.Context, coords vec.Vec2) (*Chunk, error) {
	if c := m.Get(coords); c != nil {
		return c, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.gen == nil {
		return nil, fmt.Errorf("%w: (%d,%d) and no generator", ErrChunkNotLoaded, coords.X, coords.Z)
	}

	c := m.gen.GenerateChunk(coords)

	m.mu.Lock()
	if existing, ok := m.chunks[coords]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.chunks[coords] = c
	m.markNeighborsDirtyLocked(coords)
	m.mu.Unlock()

	m.logger.Trace("чанк (%d,%d) сгенерирован, блоков: %d", coords.X, coords.Z, c.CountNonAir())
	m.publish(ctx, eventbus.TypeChunkGenerated, coords)
	return c, nil
}

// GenerateArea загружает квадрат чанков радиуса radius вокруг center параллельно.
func (m *Manager) GenerateArea(ctx context.Context, center vec.Vec2, radius int) error {
	if radius < 0 {
		return fmt.Errorf("world: negative radius %d", radius)
	}

	g, gctx := errgroup.WithContext(ctx)
	if m.workers > 0 {
		g.SetLimit(m.workers)
	}
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			coords := center.Add(vec.Vec2{X: dx, Z: dz})
			g.Go(func() error {
				_, err := m.GetOrGenerate(gctx, coords)
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("generate area around (%d,%d): %w", center.X, center.Z, err)
	}
	m.logger.Debug("область r=%d вокруг (%d,%d) загружена, чанков в памяти: %d", radius, center.X, center.Z, m.Len())
	return nil
}

// Neighbors собирает вид на четырёх соседей. Незагруженные остаются nil.
func (m *Manager) Neighbors(coords vec.Vec2) NeighborView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.neighborsLocked(coords)
}

func (m *Manager) neighborsLocked(coords vec.Vec2) NeighborView {
	var view NeighborView
	for _, d := range Directions {
		view.Set(d, m.chunks[coords.Add(d.Offset())])
	}
	return view
}

// Acquire закрепляет чанк и его загруженных соседей и возвращает функцию
// освобождения. Закрепление идёт под блокировкой карты, поэтому Evict
// не может выгрузить их между поиском и Pin.
func (m *Manager) Acquire(coords vec.Vec2) (*Chunk, NeighborView, func(), error) {
	m.mu.RLock()
	c := m.chunks[coords]
	if c == nil {
		m.mu.RUnlock()
		return nil, NeighborView{}, nil, fmt.Errorf("%w: (%d,%d)", ErrChunkNotLoaded, coords.X, coords.Z)
	}
	view := m.neighborsLocked(coords)
	c.Pin()
	for _, n := range view.Chunks() {
		n.Pin()
	}
	m.mu.RUnlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			for _, n := range view.Chunks() {
				n.Unpin()
			}
			c.Unpin()
		})
	}
	return c, view, release, nil
}

// GetBlockWorld возвращает блок по мировой позиции.
func (m *Manager) GetBlockWorld(pos vec.Vec3) (block.BlockID, error) {
	if pos.Y < 0 || pos.Y >= ChunkHeight {
		return block.AirBlockID, ErrOutOfWorld
	}
	coords, local := BlockToChunk(pos)
	c := m.Get(coords)
	if c == nil {
		return block.AirBlockID, fmt.Errorf("%w: (%d,%d)", ErrChunkNotLoaded, coords.X, coords.Z)
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.GetBlock(local.X, local.Y, local.Z), nil
}

// SetBlockWorld ставит блок по мировой позиции, пересчитывает свет чанка
// и помечает грязными соседей, если блок лежит на границе.
func (m *Manager) SetBlockWorld(ctx context.Context, pos vec.Vec3, id block.BlockID) error {
	if pos.Y < 0 || pos.Y >= ChunkHeight {
		return ErrOutOfWorld
	}
	if !block.IsValid(id) {
		return fmt.Errorf("%w: %d", ErrUnknownBlock, id)
	}
	coords, local := BlockToChunk(pos)

	err := m.Edit(ctx, coords, func(c *Chunk) {
		c.SetBlock(local.X, local.Y, local.Z, id)
	})
	if err != nil {
		return err
	}

	for _, d := range borderDirections(local.X, local.Z) {
		nc := coords.Add(d.Offset())
		if n := m.Get(nc); n != nil {
			n.MarkDirty()
			m.publish(ctx, eventbus.TypeChunkDirty, nc)
		}
	}
	return nil
}

// Edit выполняет fn под эксклюзивной блокировкой чанка, затем пересчитывает свет
// и публикует chunk.dirty.
func (m *Manager) Edit(ctx context.Context, coords vec.Vec2, fn func(c *Chunk)) error {
	c := m.Get(coords)
	if c == nil {
		return fmt.Errorf("%w: (%d,%d)", ErrChunkNotLoaded, coords.X, coords.Z)
	}

	c.Mu.Lock()
	fn(c)
	Relight(c)
	c.Mu.Unlock()

	m.publish(ctx, eventbus.TypeChunkDirty, coords)
	return nil
}

// borderDirections направления соседей, чьи грани касаются клетки (x, z)
func borderDirections(x, z int) []Direction {
	var dirs []Direction
	if x == 0 {
		dirs = append(dirs, West)
	}
	if x == ChunkWidth-1 {
		dirs = append(dirs, East)
	}
	if z == 0 {
		dirs = append(dirs, North)
	}
	if z == ChunkDepth-1 {
		dirs = append(dirs, South)
	}
	return dirs
}

// Evict выгружает чанки дальше radius (по Чебышёву) от center.
// Закреплённые чанки остаются. Возвращает выгруженные координаты.
func (m *Manager) Evict(ctx context.Context, center vec.Vec2, radius int) []vec.Vec2 {
	var evicted []vec.Vec2
	kept := 0

	m.mu.Lock()
	for coords, c := range m.chunks {
		if coords.ChebyshevTo(center) <= radius {
			continue
		}
		if c.IsPinned() {
			kept++
			continue
		}
		delete(m.chunks, coords)
		evicted = append(evicted, coords)
	}
	m.mu.Unlock()

	sortCoords(evicted)
	for _, coords := range evicted {
		m.publish(ctx, eventbus.TypeChunkEvicted, coords)
	}
	if len(evicted) > 0 || kept > 0 {
		m.logger.Debug("выгружено чанков: %d, закреплённых оставлено: %d", len(evicted), kept)
	}
	return evicted
}

// DirtyChunks координаты загруженных грязных чанков
func (m *Manager) DirtyChunks() []vec.Vec2 {
	m.mu.RLock()
	out := make([]vec.Vec2, 0)
	for coords, c := range m.chunks {
		if c.IsDirty() {
			out = append(out, coords)
		}
	}
	m.mu.RUnlock()
	sortCoords(out)
	return out
}

// LoadedCoords координаты всех загруженных чанков
func (m *Manager) LoadedCoords() []vec.Vec2 {
	m.mu.RLock()
	out := make([]vec.Vec2, 0, len(m.chunks))
	for coords := range m.chunks {
		out = append(out, coords)
	}
	m.mu.RUnlock()
	sortCoords(out)
	return out
}

// Len количество загруженных чанков
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// PinnedCount количество закреплённых чанков
func (m *Manager) PinnedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.chunks {
		if c.IsPinned() {
			n++
		}
	}
	return n
}

func (m *Manager) markNeighborsDirtyLocked(coords vec.Vec2) {
	for _, d := range Directions {
		if n := m.chunks[coords.Add(d.Offset())]; n != nil {
			n.MarkDirty()
		}
	}
}

func (m *Manager) publish(ctx context.Context, eventType string, coords vec.Vec2) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(ctx, eventbus.NewEnvelope(eventSource, eventType, coords)); err != nil {
		m.logger.Warn("не удалось опубликовать %s для (%d,%d): %v", eventType, coords.X, coords.Z, err)
	}
}

// sortCoords сортирует по Z, затем по X
func sortCoords(cs []vec.Vec2) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Z != cs[j].Z {
			return cs[i].Z < cs[j].Z
		}
		return cs[i].X < cs[j].X
	})
}
