package inmemdoc

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/storage/document"
)

type note struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Rank   int    `json:"rank"`
	Done   bool   `json:"done"`
}

func openDB(t *testing.T) *DB {
	db, err := Open()
	require.NoError(t, err)
	return db
}

func TestDB_CRUD(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	n := note{ID: "n1", Author: "ada", Rank: 1}
	require.NoError(t, db.Create(ctx, "notes", n.ID, n))

	t.Run("create rejects duplicates", func(t *testing.T) {
		assert.Equal(t, document.ErrExists, db.Create(ctx, "notes", "n1", n))
	})

	var got note
	require.NoError(t, db.Get(ctx, "notes", "n1", &got))
	assert.Equal(t, n, got)

	n.Done = true
	require.NoError(t, db.Put(ctx, "notes", "n1", n))
	require.NoError(t, db.Get(ctx, "notes", "n1", &got))
	assert.True(t, got.Done)

	require.NoError(t, db.Delete(ctx, "notes", "n1"))
	assert.Equal(t, document.ErrNotFound, db.Get(ctx, "notes", "n1", &got))
	assert.Equal(t, document.ErrNotFound, db.Delete(ctx, "notes", "n1"))
}

func TestDB_Query(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	seed := []note{
		{ID: "n1", Author: "ada", Rank: 3},
		{ID: "n2", Author: "ada", Rank: 1, Done: true},
		{ID: "n3", Author: "bob", Rank: 2},
	}
	for _, n := range seed {
		require.NoError(t, db.Create(ctx, "notes", n.ID, n))
	}

	t.Run("field equality", func(t *testing.T) {
		var got []note
		err := db.Query(ctx, "notes", []document.Filter{{Field: "author", Value: "ada"}}, nil, &got)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("filters combine with AND", func(t *testing.T) {
		var got []note
		err := db.Query(ctx, "notes",
			[]document.Filter{{Field: "author", Value: "ada"}, {Field: "done", Value: true}},
			nil, &got)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "n2", got[0].ID)
	})

	t.Run("ordering ascending", func(t *testing.T) {
		var got []note
		err := db.Query(ctx, "notes", nil, &document.Ordering{Field: "rank", Ascending: true}, &got)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"n2", "n3", "n1"}, []string{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("ordering descending", func(t *testing.T) {
		var got []note
		err := db.Query(ctx, "notes", nil, &document.Ordering{Field: "rank"}, &got)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "n1", got[0].ID)
	})

	t.Run("no matches decodes an empty slice", func(t *testing.T) {
		var got []note
		err := db.Query(ctx, "notes", []document.Filter{{Field: "author", Value: "eve"}}, nil, &got)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestDB_RunTransaction(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, "notes", "n1", note{ID: "n1", Rank: 1}))

	t.Run("read-your-writes", func(t *testing.T) {
		err := db.RunTransaction(ctx, func(tx document.Tx) error {
			require.NoError(t, tx.Put("notes", "n2", note{ID: "n2", Rank: 2}))

			var got note
			require.NoError(t, tx.Get("notes", "n2", &got))
			assert.Equal(t, 2, got.Rank)

			// staged writes overlay query results too
			var all []note
			require.NoError(t, tx.Query("notes", nil, &document.Ordering{Field: "rank", Ascending: true}, &all))
			assert.Len(t, all, 2)

			require.NoError(t, tx.Delete("notes", "n2"))
			return tx.Get("notes", "n2", &got)
		})
		assert.Equal(t, document.ErrNotFound, err)
	})

	t.Run("fn error aborts without applying writes", func(t *testing.T) {
		boom := assert.AnError
		err := db.RunTransaction(ctx, func(tx document.Tx) error {
			require.NoError(t, tx.Put("notes", "n1", note{ID: "n1", Rank: 99}))
			return boom
		})
		assert.Equal(t, boom, err)

		var got note
		require.NoError(t, db.Get(ctx, "notes", "n1", &got))
		assert.Equal(t, 1, got.Rank)
	})

	t.Run("create inside tx sees committed rows", func(t *testing.T) {
		err := db.RunTransaction(ctx, func(tx document.Tx) error {
			return tx.Create("notes", "n1", note{ID: "n1"})
		})
		assert.Equal(t, document.ErrExists, err)
	})
}

// An empty query result is part of the read set: a rival insert matching the
// predicate between the query and the commit must force a retry, never let a
// query-then-create transaction commit a duplicate.
func TestDB_RunTransaction_QueryThenCreateRace(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	attempts := 0
	err := db.RunTransaction(ctx, func(tx document.Tx) error {
		attempts++

		var got []note
		if err := tx.Query("notes", []document.Filter{{Field: "author", Value: "ada"}}, nil, &got); err != nil {
			return err
		}
		if attempts == 1 {
			// a rival commits a matching document before our commit
			require.NoError(t, db.Create(ctx, "notes", "rival", note{ID: "rival", Author: "ada"}))
		}
		if len(got) == 0 {
			return tx.Create("notes", "mine", note{ID: "mine", Author: "ada"})
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	var got []note
	require.NoError(t, db.Query(ctx, "notes", []document.Filter{{Field: "author", Value: "ada"}}, nil, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "rival", got[0].ID)
}

// Concurrent read-modify-write increments must serialize through commit
// validation; none may be lost.
func TestDB_RunTransaction_OptimisticConcurrency(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, "counters", "c1", map[string]interface{}{"n": 0}))

	const workers = 4
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// retry on a lost race; the increment must land exactly once
			for {
				err := db.RunTransaction(ctx, func(tx document.Tx) error {
					var c map[string]float64
					if err := tx.Get("counters", "c1", &c); err != nil {
						return err
					}
					c["n"]++
					return tx.Put("counters", "c1", c)
				})
				if err == nil {
					return
				}
			}
		}()
	}
	wg.Wait()

	var c map[string]float64
	require.NoError(t, db.Get(ctx, "counters", "c1", &c))
	assert.Equal(t, float64(workers), c["n"])
}
