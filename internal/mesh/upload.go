package mesh

import (
	"sync"

	"github.com/annel0/voxelcore/internal/vec"
)

// Uploader принимает готовые буферы вершин (формат Stride) для передачи на GPU.
// Реализация не должна хранить переданные срезы после возврата, если планирует их менять.
type Uploader interface {
	Upload(coords vec.Vec2, solid, fluid []float32) error
}

// Releaser освобождает буферы выгруженного чанка. Реализуется по желанию.
type Releaser interface {
	Release(coords vec.Vec2)
}

// Buffers загруженные потоки одного чанка
type Buffers struct {
	Solid []float32
	Fluid []float32
}

// Vertices число вершин в обоих буферах
func (b Buffers) Vertices() int {
	return (len(b.Solid) + len(b.Fluid)) / Stride
}

// MemoryUploader хранит последние загруженные буферы в памяти.
// Используется в демо и тестах вместо GPU.
type MemoryUploader struct {
	mu      sync.RWMutex
	buffers map[vec.Vec2]Buffers
	uploads uint64
}

// NewMemoryUploader создаёт пустой загрузчик
func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{buffers: make(map[vec.Vec2]Buffers)}
}

// Upload заменяет буферы чанка
func (u *MemoryUploader) Upload(coords vec.Vec2, solid, fluid []float32) error {
	u.mu.Lock()
	u.buffers[coords] = Buffers{Solid: solid, Fluid: fluid}
	u.uploads++
	u.mu.Unlock()
	return nil
}

// Release удаляет буферы чанка
func (u *MemoryUploader) Release(coords vec.Vec2) {
	u.mu.Lock()
	delete(u.buffers, coords)
	u.mu.Unlock()
}

// Get возвращает буферы чанка
func (u *MemoryUploader) Get(coords vec.Vec2) (Buffers, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	b, ok := u.buffers[coords]
	return b, ok
}

// Len количество чанков с буферами
func (u *MemoryUploader) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.buffers)
}

// Uploads сколько раз вызывался Upload
func (u *MemoryUploader) Uploads() uint64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.uploads
}

// TotalBytes суммарный размер хранимых буферов
func (u *MemoryUploader) TotalBytes() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	n := 0
	for _, b := range u.buffers {
		n += (len(b.Solid) + len(b.Fluid)) * 4
	}
	return n
}
