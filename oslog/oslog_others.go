//go:build !darwin

package oslog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// consoleSink stands in for os_log on platforms without unified logging.
// Messages keep their level and carry the subsystem/category context as
// fields, so development hosts and CI see the stream the extension would
// hand to the log daemon.
type consoleSink struct {
	log *zap.Logger
}

func newSink(subsystem, category string) (sink, error) {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stderr),
		zapcore.DebugLevel,
	)

	log := zap.New(core).With(
		zap.String("subsystem", subsystem),
		zap.String("category", category),
	)

	return &consoleSink{log: log}, nil
}

func (s *consoleSink) emit(level Level, msg string) {
	switch level {
	case LevelDebug:
		s.log.Debug(msg)
	case LevelInfo:
		s.log.Info(msg)
	case LevelDefault:
		// The default type sits between info and error; render it as a
		// warning on consoles.
		s.log.Warn(msg)
	case LevelError:
		s.log.Error(msg)
	case LevelFault:
		s.log.Error(msg, zap.Bool("fault", true))
	}
}
