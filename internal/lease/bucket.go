package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// EnsureBucket creates or opens the lease bucket.
//
// Concurrent controllers may race to create the bucket; losing the race
// opens the existing one. Other failures are retried with exponential backoff.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream handle
//   - bucket: Bucket name
//   - ttl: Lease lifetime without renewal
//   - maxRetries: Maximum attempts (non-positive means 3)
//
// Returns:
//   - jetstream.KeyValue: The bucket
//   - error: Last failure after all attempts
func EnsureBucket(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration, maxRetries int) (jetstream.KeyValue, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	cfg := jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "guidance command authority leases",
		TTL:         ttl,
		Storage:     jetstream.FileStorage,
	}

	var lastErr error
	for attempt := range maxRetries {
		kv, err := js.CreateKeyValue(ctx, cfg)
		if err == nil {
			return kv, nil
		}

		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, err = js.KeyValue(ctx, bucket)
			if err == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", err)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled while ensuring lease bucket: %w", ctx.Err())
		}

		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond //nolint:gosec // attempt is bounded by maxRetries
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to create/open lease bucket %s after %d attempts: %w", bucket, maxRetries, lastErr)
}
