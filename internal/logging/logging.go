package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	File  string
	// Console writes human readable output; otherwise JSON lines are written.
	Console bool
}

// New builds the process logger. When File is set, output is duplicated
// into a size-rotated JSON log.
func New(opts Options) (zerolog.Logger, io.Closer) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		out = zerolog.MultiLevelWriter(out, rotated)
		closer = rotated
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if err != nil {
		logger.Warn().Str("level", opts.Level).Msg("Unknown log level, using info")
	}
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
