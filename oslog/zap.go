package oslog

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// levelToOSLog maps zap levels onto unified-log message types. Zap has a
// warning level and os_log does not; warnings are delivered at the default
// type. Anything at DPanic or above is a fault.
func levelToOSLog(l zapcore.Level) Level {
	switch {
	case l <= zapcore.DebugLevel:
		return LevelDebug
	case l == zapcore.InfoLevel:
		return LevelInfo
	case l == zapcore.WarnLevel:
		return LevelDefault
	case l == zapcore.ErrorLevel:
		return LevelError
	default:
		return LevelFault
	}
}

// ZapLevel returns the zap level at which messages of this Level would be
// enabled, for building level enablers from host-provided configuration.
func (l Level) ZapLevel() zapcore.Level {
	switch l.clamp() {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelDefault:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.DPanicLevel
	}
}

var _ zapcore.Core = &core{}

// A core adapts a Logger to zapcore.Core, so application code logs through
// zap while messages land in the unified log.
type core struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
	l   *Logger
}

// NewCore returns a zapcore.Core that forwards entries at or above enab
// to l.
func NewCore(l *Logger, enab zapcore.LevelEnabler) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	// The unified log stamps time and severity itself.
	cfg.TimeKey = zapcore.OmitKey
	cfg.LevelKey = zapcore.OmitKey

	return &core{
		LevelEnabler: enab,
		enc:          zapcore.NewConsoleEncoder(cfg),
		l:            l,
	}
}

// New opens the subsystem/category context and returns a zap logger backed
// by it.
func New(subsystem, category string) (*zap.Logger, error) {
	l, err := Open(subsystem, category)
	if err != nil {
		return nil, err
	}

	return zap.New(NewCore(l, zapcore.DebugLevel)), nil
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clone := &core{
		LevelEnabler: c.LevelEnabler,
		enc:          c.enc.Clone(),
		l:            c.l,
	}
	for i := range fields {
		fields[i].AddTo(clone.enc)
	}

	return clone
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}

	msg := strings.TrimRight(buf.String(), "\n")
	buf.Free()

	c.l.Log(levelToOSLog(ent.Level), msg)

	return nil
}

func (c *core) Sync() error { return nil }
