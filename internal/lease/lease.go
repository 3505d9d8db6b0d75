package lease

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Lease errors.
var (
	// ErrNotHeld is returned when renewing or releasing a lease this instance does not hold.
	ErrNotHeld = errors.New("lease not held")

	// ErrLost is returned when a held lease could not be renewed.
	ErrLost = errors.New("lease lost")

	// ErrInvalidHolder is returned when the holder name is empty.
	ErrInvalidHolder = errors.New("invalid lease holder")
)

// Lease is the command authority over one vehicle.
//
// All fields are protected by mu for thread-safe concurrent access.
type Lease struct {
	kv  jetstream.KeyValue
	key string

	mu       sync.RWMutex
	holder   string
	revision uint64
	held     bool
}

// New creates a lease for vehicleID in kv. Nothing is acquired yet.
func New(kv jetstream.KeyValue, vehicleID string) *Lease {
	return &Lease{kv: kv, key: vehicleID}
}

// Acquire attempts to take the lease for holder.
//
// If this instance already holds the lease for holder, Acquire renews it.
//
// Parameters:
//   - ctx: Context for timeout
//   - holder: Name of the controller taking authority
//
// Returns:
//   - bool: true if the lease is held after the call, false if another holder has it
//   - error: KV failure or ErrInvalidHolder
func (l *Lease) Acquire(ctx context.Context, holder string) (bool, error) {
	if holder == "" {
		return false, ErrInvalidHolder
	}

	held, current, _ := l.state()
	if held && current == holder {
		if err := l.Renew(ctx); err == nil {
			return true, nil
		}
		l.clear()
	}

	revision, err := l.kv.Create(ctx, l.key, encode(holder))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return false, nil
		}

		return false, fmt.Errorf("failed to create lease key: %w", err)
	}

	l.set(true, holder, revision)

	return true, nil
}

// Renew extends the held lease.
//
// Returns:
//   - error: ErrNotHeld if not held, an error wrapping ErrLost if another
//     holder took over or the key expired
func (l *Lease) Renew(ctx context.Context) error {
	held, holder, revision := l.state()
	if !held {
		return ErrNotHeld
	}

	newRevision, err := l.kv.Update(ctx, l.key, encode(holder), revision)
	if err != nil {
		l.clear()

		return fmt.Errorf("%w: %w", ErrLost, err)
	}

	l.mu.Lock()
	l.revision = newRevision
	l.mu.Unlock()

	return nil
}

// Release gives the lease up so another controller can take over immediately.
func (l *Lease) Release(ctx context.Context) error {
	held, _, revision := l.state()
	if !held {
		return ErrNotHeld
	}

	err := l.kv.Delete(ctx, l.key, jetstream.LastRevision(revision))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete lease key: %w", err)
	}

	l.set(false, "", 0)

	return nil
}

// KeepAlive renews the lease every interval until ctx is done.
//
// Returns:
//   - error: nil when ctx is done, an error wrapping ErrLost or ErrNotHeld
//     as soon as a renewal fails
func (l *Lease) KeepAlive(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.Renew(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}

				return err
			}
		}
	}
}

// Held reports whether this instance believes it holds the lease.
func (l *Lease) Held() bool {
	held, _, _ := l.state()
	return held
}

// Holder returns the current holder as stored in the bucket.
//
// Returns:
//   - string: Holder name, empty if nobody holds the lease
//   - error: KV failure
func (l *Lease) Holder(ctx context.Context) (string, error) {
	entry, err := l.kv.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", nil
		}

		return "", fmt.Errorf("failed to get lease key: %w", err)
	}

	return decode(entry.Value()), nil
}

func encode(holder string) []byte {
	return fmt.Appendf(nil, "%s@%d", holder, time.Now().Unix())
}

func decode(value []byte) string {
	s := string(value)
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		return s[:i]
	}

	return s
}

func (l *Lease) state() (held bool, holder string, revision uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.held, l.holder, l.revision
}

func (l *Lease) set(held bool, holder string, revision uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held = held
	l.holder = holder
	l.revision = revision
}

func (l *Lease) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held = false
}
