package logging

import (
	"context"
	"errors"
	"log/slog"

	"github.com/arloliu/guidance/types"
)

// Router is a slog.Handler that splits transient console output from durable records.
//
// Every record goes to the console handler. Records carrying the attribute
// types.PersistKey=true (either on the record itself or accumulated through
// WithAttrs) are additionally written to the durable handler.
type Router struct {
	console slog.Handler
	durable slog.Handler
	persist bool
}

// Compile-time assertion that Router implements slog.Handler.
var _ slog.Handler = (*Router)(nil)

// NewRouter creates a routing handler.
//
// Parameters:
//   - console: Handler receiving every record (must be non-nil)
//   - durable: Handler receiving persisted records (nil disables persistence)
//
// Returns:
//   - *Router: Handler to pass to slog.New
//
// Example:
//
//	store := journal.Open("guidance.db")
//	console := slog.NewTextHandler(os.Stdout, nil)
//	logger := NewSlog(slog.New(NewRouter(console, journal.NewHandler(store, slog.LevelInfo))))
//	logger.Info("lost connection", types.PersistKey, true) // console + journal
func NewRouter(console, durable slog.Handler) *Router {
	return &Router{console: console, durable: durable}
}

// Enabled reports whether either destination accepts the level.
func (r *Router) Enabled(ctx context.Context, level slog.Level) bool {
	if r.console.Enabled(ctx, level) {
		return true
	}

	return r.durable != nil && r.durable.Enabled(ctx, level)
}

// Handle writes the record to the console and, if persisted, to the durable handler.
func (r *Router) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error

	if r.console.Enabled(ctx, rec.Level) {
		if err := r.console.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	if r.durable != nil && (r.persist || isPersisted(rec)) && r.durable.Enabled(ctx, rec.Level) {
		if err := r.durable.Handle(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// WithAttrs returns a router whose destinations carry attrs.
func (r *Router) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &Router{
		console: r.console.WithAttrs(attrs),
		persist: r.persist || containsPersist(attrs),
	}
	if r.durable != nil {
		next.durable = r.durable.WithAttrs(attrs)
	}

	return next
}

// WithGroup returns a router whose destinations nest attributes under name.
func (r *Router) WithGroup(name string) slog.Handler {
	next := &Router{console: r.console.WithGroup(name), persist: r.persist}
	if r.durable != nil {
		next.durable = r.durable.WithGroup(name)
	}

	return next
}

func isPersisted(rec slog.Record) bool {
	found := false
	rec.Attrs(func(a slog.Attr) bool {
		if isPersistAttr(a) {
			found = true
			return false
		}

		return true
	})

	return found
}

func containsPersist(attrs []slog.Attr) bool {
	for _, a := range attrs {
		if isPersistAttr(a) {
			return true
		}
	}

	return false
}

func isPersistAttr(a slog.Attr) bool {
	return a.Key == types.PersistKey && a.Value.Kind() == slog.KindBool && a.Value.Bool()
}
