package blueprint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"stackfast/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "bp.db"), 0o600, &bolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	require.NoError(t, err)
	return store
}

func sampleBlueprint(user string) *models.Blueprint {
	return &models.Blueprint{
		UserID:      user,
		ProjectIdea: "todo app",
		Analysis:    models.NeutralAnalysis(),
		Result: models.BlueprintResult{
			Summary:          "one tool",
			RecommendedStack: []models.ToolProfile{{ID: "postgres", Name: "PostgreSQL", Category: models.CategoryDatabase}},
			Warnings:         []models.Warning{},
		},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	bp := sampleBlueprint("alice")
	require.NoError(t, store.Save(ctx, bp))
	assert.NotEmpty(t, bp.ID)
	assert.False(t, bp.CreatedAt.IsZero())

	got, err := store.Get(ctx, "alice", bp.ID)
	require.NoError(t, err)
	assert.Equal(t, bp.ProjectIdea, got.ProjectIdea)
	assert.Equal(t, bp.Result.RecommendedStack, got.Result.RecommendedStack)

	_, err = store.Get(ctx, "bob", bp.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "alice", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, second := sampleBlueprint("alice"), sampleBlueprint("alice")
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, sampleBlueprint("bob")))

	list, err := store.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	empty, err := store.List(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestStore_SaveValidation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, sampleBlueprint("")), ErrMissingUser)

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, store.Save(ctx, sampleBlueprint("alice")), context.Canceled)
}
