package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	pkgctx "github.com/baechuer/contacts-api/internal/pkg/context"
)

var Logger zerolog.Logger = zerolog.Nop()

func Init(level, format string) {
	InitWithWriter(os.Stdout, level, format)
}

// InitWithWriter configures the package and global loggers.
// level falls back to info; format is "json" or "console" (default).
func InitWithWriter(w io.Writer, level, format string) {
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	if format == "json" {
		Logger = zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger().Level(lvl)
	}

	zlog.Logger = Logger
}

// WithCtx returns Logger tagged with the request id carried by ctx, if any.
func WithCtx(ctx context.Context) *zerolog.Logger {
	l := Logger
	if id := pkgctx.GetRequestID(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}
