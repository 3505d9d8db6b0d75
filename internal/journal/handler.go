package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Handler is a slog.Handler that appends records to a Store.
//
// Attributes are flattened into one JSON object; groups become dotted key
// prefixes. Records below the minimum level are dropped.
type Handler struct {
	store  *Store
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// Compile-time assertion that Handler implements slog.Handler.
var _ slog.Handler = (*Handler)(nil)

// NewHandler creates a handler writing to store.
//
// Parameters:
//   - store: Destination store
//   - level: Minimum level (nil means slog.LevelInfo)
//
// Returns:
//   - *Handler: slog handler
func NewHandler(store *Store, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}

	return &Handler{store: store, level: level}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, rec slog.Record) error {
	fields := make(map[string]any, len(h.attrs)+rec.NumAttrs())
	for _, a := range h.attrs {
		addAttr(fields, "", a)
	}
	rec.Attrs(func(a slog.Attr) bool {
		addAttr(fields, h.prefix, a)
		return true
	})

	var attrs string
	if len(fields) > 0 {
		data, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("encoding attributes: %w", err)
		}
		attrs = string(data)
	}

	at := rec.Time
	if at.IsZero() {
		at = time.Now()
	}

	_, err := h.store.Append(context.WithoutCancel(ctx), Record{
		Time:    at,
		Level:   rec.Level.String(),
		Message: rec.Message,
		Attrs:   attrs,
	})

	return err
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a = slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
		}
		next.attrs = append(next.attrs, a)
	}

	return &next
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	next := *h
	next.prefix = h.prefix + name + "."

	return &next
}

func addAttr(fields map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			addAttr(fields, groupPrefix, ga)
		}

		return
	}

	fields[prefix+a.Key] = jsonValue(a.Value)
}

func jsonValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		default:
			return x
		}
	default:
		return v.Any()
	}
}
