package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Компоненты, которые пишут в собственные логгеры
const (
	ComponentWorld  = "world"
	ComponentMesh   = "mesh"
	ComponentEvents = "eventbus"
)

// LoggerManager хранит по одному логгеру на компонент
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает общий менеджер процесса
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{loggers: make(map[string]*Logger)}
	})
	return globalManager
}

// GetLogger отдаёт логгер компонента, при первом обращении создаёт его
// с текущими настройками Configure.
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.loggers[component]; ok {
		return l, nil
	}
	l, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("logger %s: %w", component, err)
	}
	lm.loggers[component] = l
	return l, nil
}

// MustGetLogger как GetLogger, но при ошибке файла падает обратно на консоль
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	l, err := lm.GetLogger(component)
	if err == nil {
		return l
	}

	settings.RLock()
	console, level := settings.console, settings.consoleLevel
	settings.RUnlock()

	fallback := NewWriterLogger(component, console, level)
	Warn("⚠️ Логгер %s пишет только в консоль: %v", component, err)

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if l, ok := lm.loggers[component]; ok {
		return l
	}
	lm.loggers[component] = fallback
	return fallback
}

// SetLogLevel меняет уровни одного компонента
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	l, ok := lm.loggers[component]
	if !ok {
		return fmt.Errorf("logger for component %s not found", component)
	}
	l.minConsoleLevel = consoleLevel
	l.minFileLevel = fileLevel
	return nil
}

// setConsoleLevel переводит уже созданные логгеры на новый уровень консоли
func (lm *LoggerManager) setConsoleLevel(level LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for _, l := range lm.loggers {
		l.minConsoleLevel = level
	}
}

// ListComponents имена компонентов по алфавиту
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	out := make([]string, 0, len(lm.loggers))
	for c := range lm.loggers {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for c, l := range lm.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close logger %s: %w", c, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetWorldLogger() *Logger { return GetComponentLogger(ComponentWorld) }
func GetMeshLogger() *Logger  { return GetComponentLogger(ComponentMesh) }
func GetEventLogger() *Logger { return GetComponentLogger(ComponentEvents) }
