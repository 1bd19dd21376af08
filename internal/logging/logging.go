// Package logging provides the console slog handler used by shardnet binaries.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const (
	LevelFatal slog.Level = 12
)

// Options configures a ConsoleHandler.
type Options struct {
	Level   slog.Leveler
	NoColor bool
}

type palette struct {
	time    *color.Color
	message *color.Color
	attr    *color.Color
	levels  map[slog.Level]*color.Color
}

func newPalette(noColor bool) *palette {
	p := &palette{
		time:    color.New(color.FgGreen),
		message: color.New(color.FgCyan),
		attr:    color.New(color.FgCyan),
		levels: map[slog.Level]*color.Color{
			slog.LevelDebug: color.New(color.FgMagenta),
			slog.LevelInfo:  color.New(color.FgBlue),
			slog.LevelWarn:  color.New(color.FgYellow),
			slog.LevelError: color.New(color.FgRed),
			LevelFatal:      color.New(color.FgHiRed),
		},
	}
	all := []*color.Color{p.time, p.message, p.attr}
	for _, c := range p.levels {
		all = append(all, c)
	}
	for _, c := range all {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return p
}

// ConsoleHandler writes one colored line per record: time | level | message key=value...
type ConsoleHandler struct {
	mu      *sync.Mutex
	w       io.Writer
	level   slog.Leveler
	palette *palette
	attrs   []slog.Attr
	prefix  string
}

// NewConsoleHandler returns a handler writing to w.
func NewConsoleHandler(w io.Writer, opts Options) *ConsoleHandler {
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	return &ConsoleHandler{
		mu:      &sync.Mutex{},
		w:       w,
		level:   level,
		palette: newPalette(opts.NoColor),
	}
}

// New returns a logger backed by a ConsoleHandler.
func New(w io.Writer, opts Options) *slog.Logger {
	return slog.New(NewConsoleHandler(w, opts))
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String()
	if r.Level == LevelFatal {
		level = "FATAL"
	}
	if c, ok := h.palette.levels[r.Level]; ok {
		level = c.Sprint(level)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s | %-5s | %s",
		h.palette.time.Sprint(r.Time.Format("2006-01-02T15:04:05")),
		level,
		h.palette.message.Sprint(r.Message),
	)

	for _, attr := range h.attrs {
		h.writeAttr(&b, "", attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		h.writeAttr(&b, h.prefix, attr)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *ConsoleHandler) writeAttr(b *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		group := prefix + attr.Key + "."
		if attr.Key == "" {
			group = prefix
		}
		for _, a := range attr.Value.Group() {
			h.writeAttr(b, group, a)
		}
		return
	}
	b.WriteString(h.palette.attr.Sprintf(" %s%s=%v", prefix, attr.Key, attr.Value))
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	newAttrs = append(newAttrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		newAttrs = append(newAttrs, a)
	}

	clone := *h
	clone.attrs = newAttrs
	return &clone
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// ParseLevel maps debug, info, warn, error and fatal to a level.
func ParseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "fatal") {
		return LevelFatal, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
