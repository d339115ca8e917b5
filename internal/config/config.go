package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/mesh"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Mesh      MeshConfig      `yaml:"mesh"`
	Events    EventsConfig    `yaml:"events"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type WorldConfig struct {
	Seed       int64 `yaml:"seed"`
	ViewRadius int   `yaml:"view_radius"`
	SeaLevel   int   `yaml:"sea_level"`
	GenWorkers int   `yaml:"gen_workers"`
}

type MeshConfig struct {
	Workers         int    `yaml:"workers"`
	MaxVertices     int    `yaml:"max_vertices"`
	MissingNeighbor string `yaml:"missing_neighbor"` // occlude | open
	AtlasColumns    int    `yaml:"atlas_columns"`
}

type EventsConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Dir    string `yaml:"dir"`
	ToFile bool   `yaml:"to_file"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
}

// Значения по умолчанию
const (
	DefaultSeed         = 1337
	DefaultViewRadius   = 4
	DefaultSeaLevel     = 62
	DefaultAtlasColumns = 16
	DefaultBufferSize   = 1024
	DefaultMetricsAddr  = ":2112"
	DefaultServiceName  = "voxeld"
)

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:       DefaultSeed,
			ViewRadius: DefaultViewRadius,
			SeaLevel:   DefaultSeaLevel,
		},
		Mesh: MeshConfig{
			MissingNeighbor: mesh.MissingOccludes.String(),
			AtlasColumns:    DefaultAtlasColumns,
		},
		Events:    EventsConfig{BufferSize: DefaultBufferSize},
		Metrics:   MetricsConfig{Addr: DefaultMetricsAddr},
		Logging:   LoggingConfig{Level: logging.INFO.String(), Dir: "logs"},
		Telemetry: TelemetryConfig{ServiceName: DefaultServiceName},
	}
}

// GetSeed возвращает сид мира с поддержкой fallback значений
func (w *WorldConfig) GetSeed() int64 {
	if w.Seed != 0 {
		return w.Seed
	}
	if envVal := os.Getenv("VOXEL_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 64); err == nil {
			return seed
		}
	}
	return DefaultSeed
}

// GetViewRadius возвращает радиус прогрузки с поддержкой fallback значений
func (w *WorldConfig) GetViewRadius() int {
	return getIntWithEnvFallback(w.ViewRadius, "VOXEL_VIEW_RADIUS", DefaultViewRadius)
}

// GetGenWorkers возвращает число горутин генерации с поддержкой fallback значений
func (w *WorldConfig) GetGenWorkers() int {
	return getIntWithEnvFallback(w.GenWorkers, "VOXEL_GEN_WORKERS", runtime.NumCPU())
}

// GetWorkers возвращает размер пула мешинга с поддержкой fallback значений
func (m *MeshConfig) GetWorkers() int {
	return getIntWithEnvFallback(m.Workers, "VOXEL_MESH_WORKERS", runtime.NumCPU())
}

// GetAtlasColumns возвращает ширину атласа в тайлах
func (m *MeshConfig) GetAtlasColumns() int {
	return getIntWithEnvFallback(m.AtlasColumns, "VOXEL_ATLAS_COLUMNS", DefaultAtlasColumns)
}

// BuilderOptions собирает параметры построителя меша
func (m *MeshConfig) BuilderOptions() (mesh.Options, error) {
	policy, err := mesh.ParsePolicy(m.MissingNeighbor)
	if err != nil {
		return mesh.Options{}, err
	}
	return mesh.Options{
		MissingNeighbor: policy,
		MaxVertices:     m.MaxVertices,
		AtlasColumns:    m.GetAtlasColumns(),
	}, nil
}

// GetBufferSize возвращает ёмкость буфера шины событий
func (e *EventsConfig) GetBufferSize() int {
	return getIntWithEnvFallback(e.BufferSize, "VOXEL_EVENT_BUFFER", DefaultBufferSize)
}

// GetAddr возвращает адрес /metrics с поддержкой fallback значений
func (m *MetricsConfig) GetAddr() string {
	if m.Addr != "" {
		return m.Addr
	}
	if envVal := os.Getenv("VOXEL_METRICS_ADDR"); envVal != "" {
		return envVal
	}
	return DefaultMetricsAddr
}

// GetLevel возвращает уровень консольного лога
func (l *LoggingConfig) GetLevel() (logging.LogLevel, error) {
	level := l.Level
	if envVal := os.Getenv("VOXEL_LOG_LEVEL"); envVal != "" {
		level = envVal
	}
	if level == "" {
		return logging.INFO, nil
	}
	return logging.ParseLevel(level)
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configValue > 0 {
		return configValue
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	// Используем дефолтное значение
	return defaultValue
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	var errs []error
	if r := c.World.GetViewRadius(); r > 32 {
		errs = append(errs, fmt.Errorf("world.view_radius %d > 32", r))
	}
	if c.World.SeaLevel < 1 || c.World.SeaLevel > 250 {
		errs = append(errs, fmt.Errorf("world.sea_level %d outside [1,250]", c.World.SeaLevel))
	}
	if c.Mesh.MaxVertices < 0 {
		errs = append(errs, fmt.Errorf("mesh.max_vertices %d < 0", c.Mesh.MaxVertices))
	}
	if _, err := c.Mesh.BuilderOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Logging.GetLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		errs = append(errs, errors.New("telemetry.service_name is empty"))
	}
	return errors.Join(errs...)
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV VOXEL_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан: использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
