package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackfast/config"
	"stackfast/internal/models"
)

const databasesSeed = `version: 1
tools:
  - id: postgres
    name: PostgreSQL
    category: database
    skill_level: {setup: 2, daily: 2}
    strengths: [relational, transactions]
    popularity: 92
  - id: sqlite
    name: SQLite
    category: Database
    skill_level: {setup: 1, daily: 1}
`

const modelsSeed = `tools:
  - id: gpt-4o
    name: GPT-4o
    category: Language Model
    skill_level: {setup: 1, daily: 1}
    extensions:
      vendor: openai
`

func testLoader() *SeedLoader {
	return NewSeedLoader(config.CatalogConfig{
		MaxSeedDepth:     2,
		MaxFileReadSize:  1 << 16,
		IgnoreDirs:       []string{"node_modules"},
		IgnorePrefixes:   []string{".", "_"},
		IgnoreExtensions: []string{".md"},
	})
}

func writeSeed(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestSeedLoader_Discover(t *testing.T) {
	root := t.TempDir()
	writeSeed(t, root, "databases.yaml", databasesSeed)
	writeSeed(t, root, "llm/models.yml", modelsSeed)
	writeSeed(t, root, "llm/deeper/too-deep.yaml", modelsSeed)
	writeSeed(t, root, ".hidden.yaml", modelsSeed)
	writeSeed(t, root, "_draft.yaml", modelsSeed)
	writeSeed(t, root, "node_modules/x.yaml", modelsSeed)
	writeSeed(t, root, "README.md", "# seeds")
	writeSeed(t, root, "notes.json", "{}")

	paths, err := testLoader().Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "databases.yaml"),
		filepath.Join(root, "llm", "models.yml"),
	}, paths)
}

func TestSeedLoader_Load(t *testing.T) {
	root := t.TempDir()
	writeSeed(t, root, "databases.yaml", databasesSeed)
	writeSeed(t, root, "llm/models.yml", modelsSeed)

	tools, err := testLoader().Load(root)
	require.NoError(t, err)
	require.Len(t, tools, 3)

	assert.Equal(t, models.CategoryDatabase, tools[0].Category)
	assert.Equal(t, []string{"relational", "transactions"}, tools[0].Strengths)
	assert.Equal(t, 92.0, tools[0].Popularity)
	assert.Equal(t, models.CategoryDatabase, tools[1].Category)
	assert.Equal(t, "openai", tools[2].Extensions["vendor"])
}

func TestSeedLoader_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		files map[string]string
	}{
		{
			name:  "duplicate id across files",
			files: map[string]string{"a.yaml": modelsSeed, "b.yaml": modelsSeed},
		},
		{
			name:  "unknown category",
			files: map[string]string{"a.yaml": "tools:\n  - {id: x, name: X, category: Spreadsheet, skill_level: {setup: 1, daily: 1}}\n"},
		},
		{
			name:  "invalid effort",
			files: map[string]string{"a.yaml": "tools:\n  - {id: x, name: X, category: Database, skill_level: {setup: 0, daily: 1}}\n"},
		},
		{
			name:  "unknown version",
			files: map[string]string{"a.yaml": "version: 7\ntools: []\n"},
		},
		{
			name:  "binary content",
			files: map[string]string{"a.yaml": "tools:\x00\x01"},
		},
		{
			name:  "too large",
			files: map[string]string{"a.yaml": string(make([]byte, 1<<17))},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			for rel, body := range tc.files {
				writeSeed(t, root, rel, body)
			}
			_, err := testLoader().Load(root)
			assert.Error(t, err)
		})
	}
}

func TestSeed(t *testing.T) {
	root := t.TempDir()
	writeSeed(t, root, "databases.yaml", databasesSeed)
	store := openTestStore(t)

	res, err := Seed(context.Background(), store, testLoader(), root, false)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Written: 2}, res)

	dbs, err := store.ListByCategory(context.Background(), models.CategoryDatabase)
	require.NoError(t, err)
	assert.Len(t, dbs, 2)

	_, err = Seed(context.Background(), store, testLoader(), t.TempDir(), false)
	assert.ErrorContains(t, err, "no tools found")
}

func TestSeed_Prune(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeSeed(t, root, "databases.yaml", databasesSeed)
	store := openTestStore(t)
	require.NoError(t, store.Put(ctx, tool("retired", models.CategoryOther), tool("sqlite", models.CategoryDatabase)))

	t.Run("without prune keeps extra tools", func(t *testing.T) {
		res, err := Seed(ctx, store, testLoader(), root, false)
		require.NoError(t, err)
		assert.Zero(t, res.Pruned)
		n, err := store.Count()
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("prune deletes tools no seed file defines", func(t *testing.T) {
		res, err := Seed(ctx, store, testLoader(), root, true)
		require.NoError(t, err)
		assert.Equal(t, SeedResult{Written: 2, Pruned: 1}, res)

		others, err := store.ListByCategory(ctx, models.CategoryOther)
		require.NoError(t, err)
		assert.Empty(t, others)
		n, err := store.Count()
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}
