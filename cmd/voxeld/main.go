package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/mesh"
	"github.com/annel0/voxelcore/internal/observability"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или VOXEL_CONFIG)")
	seed := flag.Int64("seed", 0, "сид мира (перекрывает конфиг)")
	radius := flag.Int("radius", -1, "радиус прогрузки в чанках (перекрывает конфиг)")
	dumpDir := flag.String("dump", "", "каталог для zstd-дампов мешей центральной области")
	serve := flag.Bool("serve", false, "не завершаться: отдавать /metrics до SIGINT/SIGTERM")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	if *radius >= 0 {
		cfg.World.ViewRadius = *radius
	}

	level, err := cfg.Logging.GetLevel()
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации логирования: %v", err)
	}
	logging.Configure(cfg.Logging.Dir, level, cfg.Logging.ToFile)
	if err := logging.InitDefaultLogger("voxeld"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	if err := run(cfg, *dumpDir, *serve); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
}

func run(cfg *config.Config, dumpDir string, serve bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitor := observability.NewProcessMonitor()
	logging.Info("🧱 Запуск voxeld: seed=%d radius=%d", cfg.World.GetSeed(), cfg.World.GetViewRadius())

	// === ТРАССИРОВКА ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, observability.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("Ошибка остановки трассировки: %v", err)
		}
	}()

	// === ШИНА СОБЫТИЙ И МЕТРИКИ ===
	bus := eventbus.NewMemoryBus(cfg.Events.GetBufferSize())
	defer bus.Close()
	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	busMetrics, err := eventbus.NewMetricsExporter(bus, reg)
	if err != nil {
		return err
	}
	busMetrics.Start()
	defer busMetrics.Stop()

	meshMetrics, err := mesh.NewMetrics(reg)
	if err != nil {
		return err
	}

	// === МИР ===
	genOpts := world.DefaultGeneratorOptions()
	genOpts.SeaLevel = cfg.World.SeaLevel
	gen := world.NewGenerator(cfg.World.GetSeed(), genOpts)
	manager := world.NewManager(gen, bus, cfg.World.GetGenWorkers())
	if err := mesh.RegisterWorldGauges(reg, manager); err != nil {
		return err
	}

	builderOpts, err := cfg.Mesh.BuilderOptions()
	if err != nil {
		return err
	}
	uploader := mesh.NewMemoryUploader()
	scheduler := mesh.NewScheduler(manager, uploader, bus, meshMetrics, mesh.SchedulerConfig{
		Workers: cfg.Mesh.GetWorkers(),
		Builder: builderOpts,
	})
	defer scheduler.Stop()

	var server *http.Server
	if serve {
		server = startMetricsServer(cfg.Metrics.GetAddr(), reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	// === ГЕНЕРАЦИЯ И МЕШИНГ ===
	center := vec.Vec2{}
	start := time.Now()
	if err := manager.GenerateArea(ctx, center, cfg.World.GetViewRadius()); err != nil {
		return err
	}
	logging.Info("🌍 Сгенерировано чанков: %d за %s", manager.Len(), time.Since(start).Round(time.Millisecond))

	start = time.Now()
	jobs, err := scheduler.RemeshDirty(ctx)
	if err != nil {
		return err
	}
	logging.Info("🔺 Построено мешей: %d за %s, буферы %s",
		jobs, time.Since(start).Round(time.Millisecond), humanize.IBytes(uint64(uploader.TotalBytes())))

	// После первичного мешинга правки перестраиваются по событиям
	sub, err := scheduler.Subscribe(ctx, bus)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	if err := placeBeacon(ctx, manager, center); err != nil {
		logging.Warn("Не удалось поставить маяк: %v", err)
	}

	if dumpDir != "" {
		if err := dumpArea(manager, center, builderOpts, dumpDir); err != nil {
			return err
		}
	}

	logging.Info("📊 %s", monitor.Snapshot())

	if !serve {
		return nil
	}
	logging.Info("📈 Prometheus /metrics доступен по адресу %s, ожидание сигнала...", cfg.Metrics.GetAddr())
	<-ctx.Done()
	logging.Info("📡 Получен сигнал, завершение работы...")
	evicted := manager.Evict(context.Background(), center, -1)
	logging.Info("👋 Выгружено чанков: %d", len(evicted))
	return nil
}

// placeBeacon ставит стеклянную колонну со светящимся камнем над поверхностью в центре области
func placeBeacon(ctx context.Context, manager *world.Manager, center vec.Vec2) error {
	c := manager.Get(center)
	if c == nil {
		return world.ErrChunkNotLoaded
	}
	c.Mu.RLock()
	top := c.HighestNonAir(8, 8)
	c.Mu.RUnlock()

	origin := world.ChunkOrigin(center)
	x, z := origin.X+8, origin.Z+8
	for i := 1; i <= 3; i++ {
		id := block.GlassBlockID
		if i == 3 {
			id = block.GlowstoneBlockID
		}
		if err := manager.SetBlockWorld(ctx, vec.Vec3{X: x, Y: top + i, Z: z}, id); err != nil {
			return err
		}
	}
	logging.Debug("Маяк поставлен в (%d,%d,%d)", x, top+1, z)
	return nil
}

// dumpArea пишет дампы мешей центрального чанка и его соседей
func dumpArea(manager *world.Manager, center vec.Vec2, opts mesh.Options, dir string) error {
	builder := mesh.NewBuilder(opts)
	coords := []vec.Vec2{center}
	for _, d := range world.Directions {
		coords = append(coords, center.Add(d.Offset()))
	}

	var total int64
	for _, cc := range coords {
		c, view, release, err := manager.Acquire(cc)
		if err != nil {
			continue
		}
		unlock := mesh.LockForRead(c, view)
		m, err := builder.Build(c, view)
		unlock()
		release()
		if err != nil {
			return err
		}

		path, err := mesh.SaveDump(dir, m)
		if err != nil {
			return err
		}
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
		logging.Debug("Дамп %s: %d граней", path, m.FaceCount())
	}
	logging.Info("💾 Дампы мешей записаны в %s (%s)", dir, humanize.Bytes(uint64(total)))
	return nil
}

func startMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return server
}
