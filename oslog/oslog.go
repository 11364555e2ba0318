// Package oslog forwards messages to the platform's unified logging system.
//
// On Apple platforms messages are delivered to os_log under a persistent
// subsystem/category context. Elsewhere the package degrades to a console
// sink with the same level semantics, so code written against it stays
// portable and testable.
//
// Delivery is best-effort: no call in this package returns an error to the
// logging caller or blocks on the log daemon.
package oslog

import (
	"fmt"
	"strings"
	"sync"
)

// A Level is a unified-log message type.
//
// The values match the native enumeration used across the extension
// boundary: 0=debug, 1=info, 2=default, 3=error, 4=fault. The legacy
// four-value enumeration used by older hosts is handled by
// LevelFromLegacy.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelDefault
	LevelError
	LevelFault
)

// String returns the name of a Level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelDefault:
		return "default"
	case LevelError:
		return "error"
	case LevelFault:
		return "fault"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses a level name as used in configuration files. "warn" is
// accepted as an alias for the default level, matching the legacy
// enumeration.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "default", "warn":
		return LevelDefault, nil
	case "error":
		return LevelError, nil
	case "fault":
		return LevelFault, nil
	}

	return LevelDefault, fmt.Errorf("oslog: unknown level %q", s)
}

// LevelFromLegacy maps the legacy four-value enumeration (0=debug, 1=info,
// 2=warn, 3=error) onto the native levels. Warnings have no native
// counterpart and land on the default level. Out-of-range values also map
// to the default level rather than failing.
func LevelFromLegacy(n int) Level {
	switch n {
	case 0:
		return LevelDebug
	case 1:
		return LevelInfo
	case 2:
		return LevelDefault
	case 3:
		return LevelError
	default:
		return LevelDefault
	}
}

// clamp normalizes out-of-range native levels to the default level.
func (l Level) clamp() Level {
	if l < LevelDebug || l > LevelFault {
		return LevelDefault
	}
	return l
}

// sink is the platform half of a Logger.
type sink interface {
	emit(level Level, msg string)
}

// A Logger writes messages to the unified log under a fixed
// subsystem/category context established when the logger is opened. A
// Logger is safe for concurrent use.
type Logger struct {
	subsystem string
	category  string
	sink      sink
}

var (
	openMu  sync.Mutex
	loggers = make(map[string]*Logger)
)

// Open returns the Logger for the given subsystem and category. The log
// context is established once per pair and reused: opening the same pair
// again returns the same Logger. Empty identifiers are accepted.
func Open(subsystem, category string) (*Logger, error) {
	openMu.Lock()
	defer openMu.Unlock()

	key := subsystem + "\x00" + category
	if l, ok := loggers[key]; ok {
		return l, nil
	}

	s, err := newSink(subsystem, category)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		subsystem: subsystem,
		category:  category,
		sink:      s,
	}
	loggers[key] = l

	return l, nil
}

// Subsystem returns the subsystem identifier the Logger was opened with.
func (l *Logger) Subsystem() string { return l.subsystem }

// Category returns the category identifier the Logger was opened with.
func (l *Logger) Category() string { return l.category }

// Log writes msg at the given level. Out-of-range levels are delivered at
// the default level and empty messages are valid.
func (l *Logger) Log(level Level, msg string) {
	l.sink.emit(level.clamp(), msg)
}

// Logf formats a message and writes it at the given level.
func (l *Logger) Logf(level Level, format string, args ...interface{}) {
	l.Log(level, fmt.Sprintf(format, args...))
}

// Debug writes msg at the debug level.
func (l *Logger) Debug(msg string) { l.Log(LevelDebug, msg) }

// Info writes msg at the info level.
func (l *Logger) Info(msg string) { l.Log(LevelInfo, msg) }

// Error writes msg at the error level.
func (l *Logger) Error(msg string) { l.Log(LevelError, msg) }

// Fault writes msg at the fault level.
func (l *Logger) Fault(msg string) { l.Log(LevelFault, msg) }

// Package-level context, for hosts that initialize once and log many times.

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// Init establishes the package-level subsystem/category context reused by
// Log. Re-initializing with the same pair keeps the existing context.
func Init(subsystem, category string) error {
	l, err := Open(subsystem, category)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()

	return nil
}

// Log writes to the package-level context. Before Init the message goes to
// a fallback context instead of being dropped.
func Log(level Level, msg string) {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()

	if l == nil {
		var err error
		if l, err = Open("com.acornvpn.tunex", "default"); err != nil {
			return
		}
	}

	l.Log(level, msg)
}
