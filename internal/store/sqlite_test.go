package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/prodtask/internal/store"
	"github.com/nhle/prodtask/tests/testutil"
)

func TestGetMissingKeyReturnsErrNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.Get(context.Background(), "prodtask_users")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	require.NoError(t, s.Set(ctx, "k", []byte(`[1,2,3]`)))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[1,2,3]`, string(got))

	require.NoError(t, s.Set(ctx, "k", []byte(`[]`)))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Remove(ctx, "k"))
	require.NoError(t, s.Remove(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetManyWritesEveryEntry(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	err := s.SetMany(ctx, []store.Entry{
		{Key: "a", Value: []byte(`"x"`)},
		{Key: "b", Value: []byte(`"y"`)},
	})
	require.NoError(t, err)

	for key, want := range map[string]string{"a": `"x"`, "b": `"y"`} {
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestJSONRoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	in := []string{"c", "a", "b"}
	require.NoError(t, store.SaveJSON(ctx, s, "list", in))

	var out []string
	found, err := store.LoadJSON(ctx, s, "list", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestLoadJSONAbsentAndMalformed(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	var out []string
	found, err := store.LoadJSON(ctx, s, "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "broken", []byte(`{not json`)))
	found, err = store.LoadJSON(ctx, s, "broken", &out)
	assert.True(t, found)
	assert.Error(t, err)
}

func TestMigrationsAreIdempotentAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prodtask.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte(`1`)))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `1`, string(got))
}
