package link

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// StreamSpec describes one stream EnsureStreams manages.
type StreamSpec struct {
	Name     string
	Subjects []string
	MaxAge   time.Duration
}

// EnsureStreams creates each stream, or updates it to the given subjects.
//
// Streams use file storage and a two-minute duplicate window (bounded by
// MaxAge) so status retries are deduplicated.
//
// Parameters:
//   - ctx: Context for the JetStream API calls
//   - js: JetStream handle
//   - specs: Streams to create or update
//
// Returns:
//   - error: The first stream that could not be created or updated
func EnsureStreams(ctx context.Context, js jetstream.JetStream, specs ...StreamSpec) error {
	for _, spec := range specs {
		dup := 2 * time.Minute
		if spec.MaxAge > 0 && spec.MaxAge < dup {
			dup = spec.MaxAge
		}

		_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:       spec.Name,
			Subjects:   spec.Subjects,
			Storage:    jetstream.FileStorage,
			Retention:  jetstream.LimitsPolicy,
			MaxAge:     spec.MaxAge,
			Duplicates: dup,
		})
		if err != nil {
			return fmt.Errorf("ensure stream %s: %w", spec.Name, err)
		}
	}

	return nil
}
