// based on https://dusted.codes/creating-a-pretty-console-logger-using-gos-slog-package
package prettylog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const timeFormat = "15:04:05.000"

const (
	reset = "\033[0m"

	darkGray    = 90
	cyan        = 36
	yellow      = 33
	lightRed    = 91
	white       = 97
	lightGreen  = 92
	lightYellow = 93
)

func colorize(code int, v string) string {
	return fmt.Sprintf("\033[%dm%s%s", code, v, reset)
}

type handler struct {
	level  slog.Level
	output io.Writer
	attrs  []slog.Attr
}

func NewHandler(level slog.Level) slog.Handler {
	return &handler{
		level:  level,
		output: os.Stderr,
	}
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{
		level:  h.level,
		output: h.output,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return h
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	switch r.Level {
	case slog.LevelDebug:
		level = colorize(darkGray, level)
	case slog.LevelInfo:
		level = colorize(cyan, level)
	case slog.LevelWarn:
		level = colorize(yellow, level)
	case slog.LevelError:
		level = colorize(lightRed, level)
	}

	var sb strings.Builder
	sb.WriteString(colorize(darkGray, r.Time.Format(timeFormat)))
	sb.WriteString(" ")
	sb.WriteString(level)
	sb.WriteString(" ")
	sb.WriteString(colorize(white, r.Message))

	for _, a := range h.attrs {
		writeAttr(&sb, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, a)
		return true
	})

	sb.WriteString("\n")
	_, err := io.WriteString(h.output, sb.String())
	return err
}

func writeAttr(sb *strings.Builder, a slog.Attr) {
	sb.WriteString(" ")
	sb.WriteString(colorize(lightGreen, a.Key))
	sb.WriteString(colorize(darkGray, "="))

	value := a.Value.Resolve().Any()
	if err, ok := value.(error); ok {
		sb.WriteString(colorize(lightYellow, err.Error()))
		return
	}
	sb.WriteString(colorize(lightYellow, fmt.Sprintf("%v", value)))
}
