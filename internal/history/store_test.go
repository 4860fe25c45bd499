package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	session := uuid.New()

	for i, cmd := range []string{"import Reader", "new Reader r hello:string", "call r Len"} {
		require.NoError(t, s.Record(ctx, Entry{Session: session, Command: cmd, OK: i != 1}))
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "call r Len", got[0].Command)
	assert.True(t, got[0].OK)
	assert.Equal(t, "new Reader r hello:string", got[1].Command)
	assert.False(t, got[1].OK)
	assert.Equal(t, session, got[0].Session)
	assert.WithinDuration(t, time.Now(), got[0].At, time.Minute)
}

func TestSessionFilter(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, Entry{Session: a, Command: "types", OK: true, At: at}))
	require.NoError(t, s.Record(ctx, Entry{Session: b, Command: "heap", OK: true}))
	require.NoError(t, s.Record(ctx, Entry{Session: a, Command: "results", OK: true}))

	got, err := s.Session(ctx, a)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "types", got[0].Command)
	assert.True(t, got[0].At.Equal(at))
	assert.Equal(t, "results", got[1].Command)
}

func TestInMemoryAndReopen(t *testing.T) {
	mem, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, mem.Record(context.Background(), Entry{Session: uuid.New(), Command: "help"}))
	got, err := mem.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	require.NoError(t, mem.Close())

	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), Entry{Session: uuid.New(), Command: "types"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())
	got, err = s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "types", got[0].Command)
}
