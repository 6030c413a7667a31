// Package log provides structured logging for kenchidb's core packages.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with kenchidb-specific helpers.
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for interactive use
	Output     io.Writer
	WithCaller bool
}

// New creates a structured logger tagged with service=kenchidb.
func New(cfg Config) *Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		With().
		Timestamp().
		Str("service", "kenchidb").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Zerolog returns the underlying zerolog logger.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

func (l *Logger) Info(msg string) *zerolog.Event  { return l.zlog.Info().Str("msg", msg) }
func (l *Logger) Debug(msg string) *zerolog.Event { return l.zlog.Debug().Str("msg", msg) }
func (l *Logger) Warn(msg string) *zerolog.Event  { return l.zlog.Warn().Str("msg", msg) }
func (l *Logger) Error(msg string) *zerolog.Event { return l.zlog.Error().Str("msg", msg) }

// BTreeLogger returns a logger scoped to B-tree split/merge/borrow events.
func (l *Logger) BTreeLogger() *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", "btree").Logger()}
}

// ChunkLogger returns a logger scoped to chunk write-epoch events.
func (l *Logger) ChunkLogger(chunkID uint32) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", "chunk").Uint32("chunk_id", chunkID).Logger()}
}

// LogSplit logs a B-tree node split at debug level.
func (l *Logger) LogSplit(nodeID uint32, t int, parentN int) {
	l.zlog.Debug().
		Str("event", "split").
		Uint32("node_id", nodeID).
		Int("t", t).
		Int("parent_n", parentN).
		Msg("btree node split")
}

// LogMerge logs a B-tree node merge at debug level.
func (l *Logger) LogMerge(nodeID uint32, t int, parentN int) {
	l.zlog.Debug().
		Str("event", "merge").
		Uint32("node_id", nodeID).
		Int("t", t).
		Int("parent_n", parentN).
		Msg("btree node merge")
}

// LogBorrow logs a B-tree sibling key borrow at debug level.
func (l *Logger) LogBorrow(nodeID uint32, t int, parentN int) {
	l.zlog.Debug().
		Str("event", "borrow").
		Uint32("node_id", nodeID).
		Int("t", t).
		Int("parent_n", parentN).
		Msg("btree sibling borrow")
}

// LogChunkCommit logs a successful write-epoch commit.
func (l *Logger) LogChunkCommit(chunkID uint32, version uint64, pageCount uint32) {
	l.zlog.Debug().
		Str("event", "chunk_commit").
		Uint32("chunk_id", chunkID).
		Uint64("version", version).
		Uint32("page_count", pageCount).
		Msg("chunk committed")
}

// LogCorrupt logs a checksum or structural corruption finding.
func (l *Logger) LogCorrupt(op string, offset int64, err error) {
	l.zlog.Warn().
		Str("event", "corrupt").
		Str("op", op).
		Int64("offset", offset).
		Err(err).
		Msg("corruption detected")
}
