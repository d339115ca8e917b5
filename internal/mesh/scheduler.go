package mesh

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/observability"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
)

const eventSource = "mesh"

// ErrSchedulerStopped задача отправлена после Stop
var ErrSchedulerStopped = errors.New("mesh: scheduler stopped")

// SchedulerConfig параметры планировщика
type SchedulerConfig struct {
	Workers int     // Размер пула, 0: по числу CPU
	Builder Options // Параметры построителя для каждого воркера
	Tracer  trace.Tracer
}

// Scheduler строит меши грязных чанков в пуле воркеров.
//
// Задача закрепляет чанк и соседей через Manager.Acquire, берёт их на чтение
// в фиксированном порядке, строит меш, отдаёт буферы Uploader и публикует chunk.meshed.
type Scheduler struct {
	manager  *world.Manager
	uploader Uploader
	bus      eventbus.EventBus
	metrics  *Metrics
	tracer   trace.Tracer
	pool     pond.Pool
	builders sync.Pool
	logger   *logging.Logger

	mu      sync.RWMutex
	stopped bool
}

// NewScheduler создаёт планировщик. bus и metrics могут быть nil.
func NewScheduler(mgr *world.Manager, up Uploader, bus eventbus.EventBus, metrics *Metrics, cfg SchedulerConfig) *Scheduler {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = observability.Tracer("voxelcore/mesh")
	}
	opts := cfg.Builder

	s := &Scheduler{
		manager:  mgr,
		uploader: up,
		bus:      bus,
		metrics:  metrics,
		tracer:   tracer,
		pool:     pond.NewPool(workers),
		logger:   logging.GetMeshLogger(),
	}
	s.builders.New = func() any { return NewBuilder(opts) }
	return s
}

// Job поставленная задача мешинга
type Job interface {
	Wait() error
}

type failedJob struct{ err error }

func (j failedJob) Wait() error { return j.err }

// Submit ставит построение меша чанка в очередь.
// Чистый к моменту выполнения чанк пропускается.
func (s *Scheduler) Submit(ctx context.Context, coords vec.Vec2) Job {
	return s.submit(ctx, coords, false)
}

// Remesh строит меш чанка независимо от флага dirty и ждёт результата.
func (s *Scheduler) Remesh(ctx context.Context, coords vec.Vec2) error {
	return s.submit(ctx, coords, true).Wait()
}

func (s *Scheduler) submit(ctx context.Context, coords vec.Vec2, force bool) Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return failedJob{ErrSchedulerStopped}
	}
	s.metrics.jobQueued()
	return s.pool.SubmitErr(func() error {
		defer s.metrics.jobDone()
		return s.run(ctx, coords, force)
	})
}

// RemeshDirty строит меши всех грязных чанков менеджера и ждёт завершения.
// Возвращает число поставленных задач и объединённую ошибку.
func (s *Scheduler) RemeshDirty(ctx context.Context) (int, error) {
	dirty := s.manager.DirtyChunks()
	jobs := make([]Job, 0, len(dirty))
	for _, coords := range dirty {
		jobs = append(jobs, s.Submit(ctx, coords))
	}

	var errs []error
	for _, j := range jobs {
		if err := j.Wait(); err != nil {
			errs = append(errs, err)
		}
	}
	return len(jobs), errors.Join(errs...)
}

func (s *Scheduler) run(ctx context.Context, coords vec.Vec2, force bool) error {
	jobID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "mesh.build", trace.WithAttributes(
		attribute.Int("chunk.x", coords.X),
		attribute.Int("chunk.z", coords.Z),
		attribute.String("job.id", jobID),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		s.metrics.observeFailure("cancelled")
		return err
	}

	c, view, release, err := s.manager.Acquire(coords)
	if err != nil {
		// Чанк выгружен, пока задача ждала в очереди
		s.metrics.observeFailure("not_loaded")
		span.RecordError(err)
		span.SetStatus(codes.Error, "chunk not loaded")
		return err
	}
	defer release()

	unlock := LockForRead(c, view)
	if !force && !c.IsDirty() {
		unlock()
		s.metrics.observeSkip()
		span.SetAttributes(attribute.Bool("mesh.skipped", true))
		return nil
	}
	// Флаг снимается до построения: правка после unlock снова его поставит
	c.ClearDirty()

	b := s.builders.Get().(*Builder)
	start := time.Now()
	mesh, err := b.Build(c, view)
	elapsed := time.Since(start)
	s.builders.Put(b)
	unlock()

	if err != nil {
		c.MarkDirty()
		s.metrics.observeFailure("build")
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		s.logger.Warn("меш чанка (%d,%d) не построен: %v", coords.X, coords.Z, err)
		return fmt.Errorf("build chunk (%d,%d): %w", coords.X, coords.Z, err)
	}

	if err := s.uploader.Upload(coords, mesh.SolidFloats(), mesh.FluidFloats()); err != nil {
		c.MarkDirty()
		s.metrics.observeFailure("upload")
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return fmt.Errorf("upload chunk (%d,%d): %w", coords.X, coords.Z, err)
	}

	s.metrics.observeBuild(mesh, elapsed)
	span.SetAttributes(
		attribute.Int("mesh.solid_vertices", len(mesh.Solid)),
		attribute.Int("mesh.fluid_vertices", len(mesh.Fluid)),
	)
	s.logger.Trace("меш (%d,%d): %d граней за %s", coords.X, coords.Z, mesh.FaceCount(), elapsed)

	if s.bus != nil {
		ev := eventbus.NewEnvelope(eventSource, eventbus.TypeChunkMeshed, coords).
			WithMeta("job", jobID).
			WithMeta("vertices", strconv.Itoa(mesh.VertexCount()))
		if err := s.bus.Publish(ctx, ev); err != nil {
			s.logger.Debug("chunk.meshed для (%d,%d) не опубликовано: %v", coords.X, coords.Z, err)
		}
	}
	return nil
}

// LockForRead берёт чанк и соседей на чтение в порядке координат,
// чтобы параллельные задачи не блокировали друг друга по кругу.
func LockForRead(c *world.Chunk, view world.NeighborView) func() {
	chunks := append(view.Chunks(), c)
	sort.Slice(chunks, func(i, j int) bool {
		a, b := chunks[i].Coords, chunks[j].Coords
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	for _, ch := range chunks {
		ch.Mu.RLock()
	}
	return func() {
		for i := len(chunks) - 1; i >= 0; i-- {
			chunks[i].Mu.RUnlock()
		}
	}
}

// Subscribe перестраивает меши по событиям chunk.dirty и освобождает буферы
// по chunk.evicted, если Uploader реализует Releaser.
func (s *Scheduler) Subscribe(ctx context.Context, bus eventbus.EventBus) (eventbus.Subscription, error) {
	filter := eventbus.Filter{Types: []string{eventbus.TypeChunkDirty, eventbus.TypeChunkEvicted}}
	return bus.Subscribe(ctx, filter, func(ctx context.Context, ev *eventbus.Envelope) {
		switch ev.EventType {
		case eventbus.TypeChunkDirty:
			s.Submit(ctx, ev.Chunk)
		case eventbus.TypeChunkEvicted:
			if r, ok := s.uploader.(Releaser); ok {
				r.Release(ev.Chunk)
			}
		}
	})
}

// Stop дожидается выполнения поставленных задач и останавливает пул.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()
	s.pool.StopAndWait()
}
