package eventbus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelcore/internal/vec"
)

func TestNewEnvelope(t *testing.T) {
	a := NewEnvelope("world", TypeChunkDirty, vec.Vec2{X: 1, Z: -2})
	b := NewEnvelope("world", TypeChunkDirty, vec.Vec2{X: 1, Z: -2})

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID, "ID должны быть уникальными")
	assert.Equal(t, vec.Vec2{X: 1, Z: -2}, a.Chunk)
	assert.Equal(t, time.UTC, a.Timestamp.Location())

	a.WithPriority(7).WithMeta("vertices", "36")
	assert.Equal(t, 7, a.Priority)
	assert.Equal(t, "36", a.Metadata["vertices"])
}

func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var dirty, all atomic.Int32
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{TypeChunkDirty}}, func(ctx context.Context, ev *Envelope) {
		dirty.Add(1)
	})
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		all.Add(1)
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, NewEnvelope("world", TypeChunkDirty, vec.Vec2{})))
	require.NoError(t, bus.Publish(ctx, NewEnvelope("mesh", TypeChunkMeshed, vec.Vec2{})))

	assert.Eventually(t, func() bool {
		return dirty.Load() == 1 && all.Load() == 2
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return bus.Metrics().Consumed == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(2), bus.Metrics().Published)
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	var got atomic.Int32
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		got.Add(1)
	})
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope("world", TypeChunkEvicted, vec.Vec2{})))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), got.Load())
}

func TestMemoryBusClose(t *testing.T) {
	bus := NewMemoryBus(4)

	var got atomic.Int32
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		got.Add(1)
	})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), NewEnvelope("world", TypeChunkGenerated, vec.Vec2{})))

	// Close дожидается доставки уже принятых событий
	bus.Close()
	assert.Equal(t, int32(1), got.Load())

	err = bus.Publish(context.Background(), NewEnvelope("world", TypeChunkGenerated, vec.Vec2{}))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {})
	assert.ErrorIs(t, err, ErrClosed)

	bus.Close()
}

func TestMetricsExporter(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	reg := prometheus.NewRegistry()
	me, err := NewMetricsExporter(bus, reg)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope("world", TypeChunkDirty, vec.Vec2{})))
	me.Start()
	me.Stop()

	assert.Equal(t, float64(1), testutil.ToFloat64(me.published))

	// Повторная регистрация в том же реестре: ошибка
	_, err = NewMetricsExporter(bus, reg)
	assert.Error(t, err)
}
