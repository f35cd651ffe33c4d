// Package logging builds the application logger on top of wbf/zlog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/thepixelmancer/image-mixer/internal/config"
	"github.com/thepixelmancer/image-mixer/internal/model"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New initializes zlog and derives a logger writing to out with the
// configured level and format. When cfg.File is set, JSON lines are also
// written to a rotating file; the returned Closer releases it.
func New(cfg config.Log, out io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("%w: log.level: %v", model.ErrConfiguration, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zlog.Init()

	var w io.Writer = out
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: !isTerminal(out)}
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		w = zerolog.MultiLevelWriter(w, file)
		closer = file
	}

	return zlog.Logger.Output(w).Level(level), closer, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
