package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archives(t *testing.T) map[string]Archive {
	t.Helper()
	return map[string]Archive{
		"memory": NewMemoryArchive(),
		"sqlite": NewSQLiteArchive(filepath.Join(t.TempDir(), "elite.db")),
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	for name, a := range archives(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, a.Init(ctx))
			t.Cleanup(func() { _ = a.Close() })

			record := Record{
				ID:         "run-1/3/0",
				RunID:      "run-1",
				Generation: 3,
				Rank:       0,
				Fitness:    12.5,
				Genome:     []byte(`{"nodeGenes":[],"connectionGenes":[]}`),
			}
			require.NoError(t, a.Put(ctx, record))

			got, ok, err := a.Get(ctx, record.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, record, got)

			_, ok, err = a.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestArchivePutOverwrites(t *testing.T) {
	for name, a := range archives(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, a.Init(ctx))
			t.Cleanup(func() { _ = a.Close() })

			require.NoError(t, a.Put(ctx, Record{ID: "x", RunID: "r", Fitness: 1, Genome: []byte("a")}))
			require.NoError(t, a.Put(ctx, Record{ID: "x", RunID: "r", Fitness: 2, Genome: []byte("b")}))

			got, ok, err := a.Get(ctx, "x")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 2.0, got.Fitness)
			assert.Equal(t, []byte("b"), got.Genome)
		})
	}
}

func TestArchiveListGenerationOrdersByRank(t *testing.T) {
	for name, a := range archives(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, a.Init(ctx))
			t.Cleanup(func() { _ = a.Close() })

			for _, r := range []Record{
				{ID: "b", RunID: "r1", Generation: 2, Rank: 1, Genome: []byte("{}")},
				{ID: "a", RunID: "r1", Generation: 2, Rank: 0, Genome: []byte("{}")},
				{ID: "c", RunID: "r1", Generation: 3, Rank: 0, Genome: []byte("{}")},
				{ID: "d", RunID: "r2", Generation: 2, Rank: 0, Genome: []byte("{}")},
			} {
				require.NoError(t, a.Put(ctx, r))
			}

			got, err := a.ListGeneration(ctx, "r1", 2)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "a", got[0].ID)
			assert.Equal(t, "b", got[1].ID)

			got, err = a.ListGeneration(ctx, "r1", 9)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestArchiveRequiresInit(t *testing.T) {
	ctx := context.Background()
	for name, a := range archives(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, a.Put(ctx, Record{ID: "x"}), ErrNotInitialized)
			_, _, err := a.Get(ctx, "x")
			assert.ErrorIs(t, err, ErrNotInitialized)
		})
	}
}

func TestSQLiteArchiveRequiresPath(t *testing.T) {
	assert.Error(t, NewSQLiteArchive("").Init(context.Background()))
}

func TestSQLiteArchivePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "elite.db")

	a := NewSQLiteArchive(path)
	require.NoError(t, a.Init(ctx))
	require.NoError(t, a.Put(ctx, Record{ID: "keep", RunID: "r", Generation: 1, Fitness: 3, Genome: []byte("{}")}))
	require.NoError(t, a.Close())

	b := NewSQLiteArchive(path)
	require.NoError(t, b.Init(ctx))
	t.Cleanup(func() { _ = b.Close() })
	got, ok, err := b.Get(ctx, "keep")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3.0, got.Fitness)
}
