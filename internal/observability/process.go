package observability

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats снимок ресурсов процесса
type ProcessStats struct {
	Uptime     time.Duration
	RSS        uint64  // Резидентная память, байт (0, если недоступно)
	CPUPercent float64 // Загрузка CPU процессом с момента старта
	HeapAlloc  uint64
	NumGC      uint32
	Goroutines int
}

// ProcessMonitor собирает статистику текущего процесса
type ProcessMonitor struct {
	StartTime time.Time
	proc      *process.Process
}

// NewProcessMonitor создаёт монитор для текущего процесса.
// Если gopsutil не может открыть процесс, RSS и CPU будут нулевыми.
func NewProcessMonitor() *ProcessMonitor {
	pm := &ProcessMonitor{StartTime: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		pm.proc = proc
	}
	return pm
}

// Snapshot возвращает текущую статистику
func (pm *ProcessMonitor) Snapshot() ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := ProcessStats{
		Uptime:     time.Since(pm.StartTime),
		HeapAlloc:  m.HeapAlloc,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
	if pm.proc == nil {
		return stats
	}
	if mem, err := pm.proc.MemoryInfo(); err == nil {
		stats.RSS = mem.RSS
	}
	if cpu, err := pm.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	return stats
}

// String человекочитаемое представление для логов
func (s ProcessStats) String() string {
	return fmt.Sprintf("uptime=%s rss=%s heap=%s cpu=%.1f%% gc=%d goroutines=%d",
		FormatUptime(s.Uptime), humanize.IBytes(s.RSS), humanize.IBytes(s.HeapAlloc),
		s.CPUPercent, s.NumGC, s.Goroutines)
}

// FormatUptime форматирует длительность как "1д 2ч 3м 4с"
func FormatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}
