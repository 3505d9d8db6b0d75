package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s := Open(filepath.Join(t.TempDir(), "journal.db"))
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_AppendAndRecent(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, msg := range []string{"lost connection", "reconnected", "trip average speed"} {
		id, err := s.Append(t.Context(), Record{
			Time:    base.Add(time.Duration(i) * time.Second),
			Level:   "WARN",
			Message: msg,
		})
		require.NoError(t, err)
		require.Equal(t, int64(i+1), id)
	}

	t.Run("returns records oldest first", func(t *testing.T) {
		records, err := s.Recent(t.Context(), 10)
		require.NoError(t, err)
		require.Len(t, records, 3)
		require.Equal(t, "lost connection", records[0].Message)
		require.Equal(t, "trip average speed", records[2].Message)
		require.True(t, base.Equal(records[0].Time))
		require.Empty(t, records[0].Attrs)
	})

	t.Run("limit keeps the newest", func(t *testing.T) {
		records, err := s.Recent(t.Context(), 2)
		require.NoError(t, err)
		require.Len(t, records, 2)
		require.Equal(t, "reconnected", records[0].Message)
		require.Equal(t, int64(3), records[1].ID)
	})
}

func TestStore_Close(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "journal.db"))

	_, err := s.Append(t.Context(), Record{Time: time.Now(), Level: "INFO", Message: "hello"})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestStore_BadPath(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "missing-dir", "journal.db"))
	t.Cleanup(func() { _ = s.Close() })

	_, err := s.Append(t.Context(), Record{Time: time.Now(), Level: "INFO", Message: "hello"})
	require.Error(t, err)
}
