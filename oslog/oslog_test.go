package oslog

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// A memSink records emitted messages for inspection.
type memSink struct {
	mu       sync.Mutex
	levels   []Level
	messages []string
}

func (s *memSink) emit(level Level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = append(s.levels, level)
	s.messages = append(s.messages, msg)
}

func (s *memSink) snapshot() ([]Level, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Level(nil), s.levels...), append([]string(nil), s.messages...)
}

func memLogger() (*Logger, *memSink) {
	s := &memSink{}
	return &Logger{subsystem: "com.example.tunnel", category: "test", sink: s}, s
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		l Level
		s string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelDefault, "default"},
		{LevelError, "error"},
		{LevelFault, "fault"},
		{Level(42), "level(42)"},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.s, tt.l.String()); diff != "" {
			t.Fatalf("unexpected level name (-want +got):\n%s", diff)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		s    string
		l    Level
		fail bool
	}{
		{s: "debug", l: LevelDebug},
		{s: "info", l: LevelInfo},
		{s: "default", l: LevelDefault},
		// The legacy enumeration calls the default level "warn".
		{s: "warn", l: LevelDefault},
		{s: "ERROR", l: LevelError},
		{s: "fault", l: LevelFault},
		{s: "verbose", fail: true},
		{s: "", fail: true},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			l, err := ParseLevel(tt.s)
			if tt.fail {
				if err == nil {
					t.Fatal("expected an error, but none occurred")
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to parse level: %v", err)
			}

			if diff := cmp.Diff(tt.l, l); diff != "" {
				t.Fatalf("unexpected level (-want +got):\n%s", diff)
			}
		})
	}
}

// TestLevelFromLegacy pins the mapping from the four-value enumeration used
// by older hosts (0=debug, 1=info, 2=warn, 3=error) onto the native
// five-value set. Warnings land on the default type; anything out of range
// does too.
func TestLevelFromLegacy(t *testing.T) {
	tests := []struct {
		in   int
		want Level
	}{
		{0, LevelDebug},
		{1, LevelInfo},
		{2, LevelDefault},
		{3, LevelError},
		{-1, LevelDefault},
		{4, LevelDefault},
		{99, LevelDefault},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, LevelFromLegacy(tt.in)); diff != "" {
			t.Fatalf("unexpected mapping for %d (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestLoggerClampsUnknownLevels(t *testing.T) {
	l, s := memLogger()

	l.Log(Level(99), "strange")
	l.Log(Level(-3), "stranger")

	levels, _ := s.snapshot()
	if diff := cmp.Diff([]Level{LevelDefault, LevelDefault}, levels); diff != "" {
		t.Fatalf("unexpected levels (-want +got):\n%s", diff)
	}
}

func TestLoggerAcceptsEmptyMessage(t *testing.T) {
	l, s := memLogger()

	l.Log(LevelInfo, "")
	l.Info("")

	_, messages := s.snapshot()
	if diff := cmp.Diff([]string{"", ""}, messages); diff != "" {
		t.Fatalf("unexpected messages (-want +got):\n%s", diff)
	}
}

func TestOpenReturnsCachedLogger(t *testing.T) {
	a, err := Open("com.example.cache", "lifecycle")
	if err != nil {
		t.Fatalf("failed to open logger: %v", err)
	}

	b, err := Open("com.example.cache", "lifecycle")
	if err != nil {
		t.Fatalf("failed to reopen logger: %v", err)
	}

	if a != b {
		t.Fatal("expected the same Logger for a repeated subsystem/category pair")
	}

	if diff := cmp.Diff("com.example.cache", b.Subsystem()); diff != "" {
		t.Fatalf("unexpected subsystem (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("lifecycle", b.Category()); diff != "" {
		t.Fatalf("unexpected category (-want +got):\n%s", diff)
	}
}

func TestOpenAcceptsEmptyIdentifiers(t *testing.T) {
	if _, err := Open("", ""); err != nil {
		t.Fatalf("failed to open logger with empty identifiers: %v", err)
	}
}

func TestInitEstablishesContext(t *testing.T) {
	if err := Init("com.example.init", "bridge"); err != nil {
		t.Fatalf("failed to init: %v", err)
	}

	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()

	if l == nil {
		t.Fatal("expected a default logger after Init")
	}

	// Re-initializing with the same pair keeps the established context.
	if err := Init("com.example.init", "bridge"); err != nil {
		t.Fatalf("failed to re-init: %v", err)
	}

	defaultMu.RLock()
	again := defaultLogger
	defaultMu.RUnlock()

	if l != again {
		t.Fatal("expected Init to reuse the context for a repeated pair")
	}
}

func TestLogBeforeInitDoesNotPanic(t *testing.T) {
	defaultMu.Lock()
	defaultLogger = nil
	defaultMu.Unlock()

	// Must fall back instead of dropping or panicking.
	Log(LevelInfo, "early message")
}

func TestLoggerConcurrentUse(t *testing.T) {
	l, s := memLogger()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			l.Logf(LevelDebug, "worker %d", i)
		}
	}()
	for i := 0; i < 50; i++ {
		l.Info("main")
	}
	<-done

	_, messages := s.snapshot()
	if diff := cmp.Diff(100, len(messages)); diff != "" {
		t.Fatalf("unexpected message count (-want +got):\n%s", diff)
	}
}
