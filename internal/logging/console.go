package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// shortSessionLen is how much of a session id the console prefix shows.
const shortSessionLen = 8

// consoleHandler writes one human-readable line per record:
//
//	2024-05-01 12:00:00 INFO [1a2b3c4d] resolver: planned artifacts dest=/lib/A
//
// The component and session id become the line prefix instead of key=value
// pairs. Attributes added with With are rendered once and reused.
type consoleHandler struct {
	out       *lockedWriter
	level     slog.Leveler
	component string
	session   string
	fields    string
	group     string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) write(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := io.WriteString(l.w, line)
	return err
}

func newConsoleHandler(w io.Writer, level slog.Leveler) *consoleHandler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	c := *h
	var fields strings.Builder
	fields.WriteString(h.fields)
	record.Attrs(func(attr slog.Attr) bool {
		c.appendAttr(&fields, h.group, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var line strings.Builder
	line.Grow(96 + fields.Len())
	line.WriteString(formatTimestamp(ts))
	line.WriteByte(' ')
	line.WriteString(levelLabel(record.Level))
	if c.session != "" {
		line.WriteString(" [")
		line.WriteString(shortID(c.session))
		line.WriteByte(']')
	}
	line.WriteByte(' ')
	if c.component != "" {
		line.WriteString(c.component)
		line.WriteString(": ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		line.WriteString(msg)
	} else {
		line.WriteString("(no message)")
	}
	line.WriteString(fields.String())
	line.WriteByte('\n')
	return h.out.write(line.String())
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	var fields strings.Builder
	fields.WriteString(h.fields)
	for _, attr := range attrs {
		c.appendAttr(&fields, h.group, attr)
	}
	c.fields = fields.String()
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.group += name + "."
	return &c
}

// appendAttr renders attr as " key=value". Top-level component and session
// attributes are captured for the prefix; the first one seen wins.
func (h *consoleHandler) appendAttr(b *strings.Builder, group string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			group += attr.Key + "."
		}
		for _, inner := range attr.Value.Group() {
			h.appendAttr(b, group, inner)
		}
		return
	}
	if group == "" {
		switch attr.Key {
		case FieldComponent:
			if h.component == "" {
				h.component = attrString(attr.Value)
			}
			return
		case FieldSessionID:
			if h.session == "" {
				h.session = attrString(attr.Value)
			}
			return
		}
	}
	b.WriteByte(' ')
	b.WriteString(group)
	b.WriteString(attr.Key)
	b.WriteByte('=')
	b.WriteString(formatValue(attr.Value))
}

func shortID(id string) string {
	if len(id) > shortSessionLen {
		return id[:shortSessionLen]
	}
	return id
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
