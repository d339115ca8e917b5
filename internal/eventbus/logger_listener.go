package eventbus

import (
	"context"

	"github.com/annel0/voxelcore/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог компонента "eventbus".
// Функция неблокирующая.
func StartLoggingListener(bus EventBus) (Subscription, error) {
	logger := logging.GetEventLogger()
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logger.Debug("%s %s chunk=(%d,%d) src=%s prio=%d", ev.ID, ev.EventType, ev.Chunk.X, ev.Chunk.Z, ev.Source, ev.Priority)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
