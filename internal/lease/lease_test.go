package lease

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	guidancetest "github.com/arloliu/guidance/testing"
)

func TestLease_Acquire(t *testing.T) {
	t.Run("acquires lease when nobody holds it", func(t *testing.T) {
		ctx := t.Context()

		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-lease-1", 0)

		l := New(kv, "uav-1")

		ok, err := l.Acquire(ctx, "station-a")
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, l.Held())

		holder, err := l.Holder(ctx)
		require.NoError(t, err)
		require.Equal(t, "station-a", holder)
	})

	t.Run("fails when another controller holds it", func(t *testing.T) {
		ctx := t.Context()

		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-lease-2", 0)

		first := New(kv, "uav-1")
		ok, err := first.Acquire(ctx, "station-a")
		require.NoError(t, err)
		require.True(t, ok)

		second := New(kv, "uav-1")
		ok, err = second.Acquire(ctx, "station-b")
		require.NoError(t, err)
		require.False(t, ok)
		require.False(t, second.Held())
	})

	t.Run("leases are per vehicle", func(t *testing.T) {
		ctx := t.Context()

		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-lease-3", 0)

		ok, err := New(kv, "uav-1").Acquire(ctx, "station-a")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = New(kv, "uav-2").Acquire(ctx, "station-b")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("re-acquire by the same holder renews", func(t *testing.T) {
		ctx := t.Context()

		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-lease-4", 0)

		l := New(kv, "uav-1")
		ok, err := l.Acquire(ctx, "station-a")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = l.Acquire(ctx, "station-a")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("rejects empty holder", func(t *testing.T) {
		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-lease-5", 0)

		_, err := New(kv, "uav-1").Acquire(t.Context(), "")
		require.ErrorIs(t, err, ErrInvalidHolder)
	})
}

func TestLease_Renew(t *testing.T) {
	t.Run("renews held lease", func(t *testing.T) {
		ctx := t.Context()

		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-renew-1", 0)

		l := New(kv, "uav-1")
		_, err := l.Acquire(ctx, "station-a")
		require.NoError(t, err)

		require.NoError(t, l.Renew(ctx))
		require.NoError(t, l.Renew(ctx))
		require.True(t, l.Held())
	})

	t.Run("fails when not held", func(t *testing.T) {
		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-renew-2", 0)

		err := New(kv, "uav-1").Renew(t.Context())
		require.ErrorIs(t, err, ErrNotHeld)
	})

	t.Run("detects takeover", func(t *testing.T) {
		ctx := t.Context()

		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-renew-3", 0)

		l := New(kv, "uav-1")
		_, err := l.Acquire(ctx, "station-a")
		require.NoError(t, err)

		// Another writer overwrites the key behind our back.
		_, err = kv.Put(ctx, "uav-1", []byte("station-b@0"))
		require.NoError(t, err)

		err = l.Renew(ctx)
		require.ErrorIs(t, err, ErrLost)
		require.False(t, l.Held())
	})
}

func TestLease_Release(t *testing.T) {
	t.Run("releases lease for another controller", func(t *testing.T) {
		ctx := t.Context()

		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-release-1", 0)

		first := New(kv, "uav-1")
		_, err := first.Acquire(ctx, "station-a")
		require.NoError(t, err)

		require.NoError(t, first.Release(ctx))
		require.False(t, first.Held())

		holder, err := first.Holder(ctx)
		require.NoError(t, err)
		require.Empty(t, holder)

		ok, err := New(kv, "uav-1").Acquire(ctx, "station-b")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("fails when not held", func(t *testing.T) {
		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-release-2", 0)

		err := New(kv, "uav-1").Release(t.Context())
		require.ErrorIs(t, err, ErrNotHeld)
	})
}

func TestLease_KeepAlive(t *testing.T) {
	t.Run("returns nil when context is cancelled", func(t *testing.T) {
		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-keepalive-1", 0)

		l := New(kv, "uav-1")
		_, err := l.Acquire(t.Context(), "station-a")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
		defer cancel()

		require.NoError(t, l.KeepAlive(ctx, 10*time.Millisecond))
		require.True(t, l.Held())
	})

	t.Run("returns ErrLost after takeover", func(t *testing.T) {
		ctx := t.Context()

		_, nc := guidancetest.StartEmbeddedNATS(t)
		kv := guidancetest.CreateKV(t, nc, "test-keepalive-2", 0)

		l := New(kv, "uav-1")
		_, err := l.Acquire(ctx, "station-a")
		require.NoError(t, err)

		_, err = kv.Put(ctx, "uav-1", []byte("station-b@0"))
		require.NoError(t, err)

		err = l.KeepAlive(ctx, 10*time.Millisecond)
		require.ErrorIs(t, err, ErrLost)
	})
}

func TestEnsureBucket(t *testing.T) {
	t.Run("creates then reopens bucket", func(t *testing.T) {
		ctx := t.Context()

		_, nc := guidancetest.StartEmbeddedNATS(t)
		js := guidancetest.NewJetStream(t, nc)

		kv, err := EnsureBucket(ctx, js, "GUIDANCE_LEASES", 5*time.Second, 3)
		require.NoError(t, err)
		require.Equal(t, "GUIDANCE_LEASES", kv.Bucket())

		again, err := EnsureBucket(ctx, js, "GUIDANCE_LEASES", 5*time.Second, 3)
		require.NoError(t, err)
		require.Equal(t, "GUIDANCE_LEASES", again.Bucket())
	})
}

func TestDecode(t *testing.T) {
	require.Equal(t, "station-a", decode([]byte("station-a@1700000000")))
	require.Equal(t, "user@host", decode([]byte("user@host@1700000000")))
	require.Equal(t, "plain", decode([]byte("plain")))
}
