package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"stackfast/internal/models"
)

// RecordVersion is the version of the stored tool envelope.
const RecordVersion = 1

var (
	ErrStoreClosed       = errors.New("catalog store is closed")
	ErrUnknownVersion    = errors.New("unknown catalog record version")
	ErrUnknownCollection = errors.New("unknown catalog collection")
)

// collections maps every category to the bucket holding it. Bucket order
// follows models.Categories and defines catalog order.
var collections = map[models.Category]string{
	models.CategoryLanguageModel:  "llms",
	models.CategoryCodeGeneration: "coding_tools",
	models.CategoryDatabase:       "databases",
	models.CategoryDeployment:     "deployment_platforms",
	models.CategoryOther:          "other_tools",
}

// CollectionName returns the bucket name for c.
func CollectionName(c models.Category) (string, error) {
	name, ok := collections[c]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}
	return name, nil
}

type record struct {
	Version int                `json:"version"`
	Tool    models.ToolProfile `json:"tool"`
}

// Store keeps tool profiles in a bbolt database.
type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	closed bool
}

// OpenStore opens (or creates) the catalog database at path.
func OpenStore(path string) (*Store, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return NewStore(db)
}

// OpenDB opens a bbolt file, creating its directory first. The blueprint
// store shares the handle with the catalog.
func OpenDB(path string) (*bolt.DB, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// NewStore wraps an open database and creates the catalog buckets.
func NewStore(db *bolt.DB) (*Store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		for _, c := range models.Categories {
			if _, err := tx.CreateBucketIfNotExists([]byte(collections[c])); err != nil {
				return fmt.Errorf("create bucket %s: %w", collections[c], err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Put validates and writes tools. Categories are stored in their canonical
// casing. A tool that changed category is removed from its previous
// collection.
func (s *Store) Put(ctx context.Context, tools ...models.ToolProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tools = slices.Clone(tools)
	for i := range tools {
		if err := tools[i].Validate(); err != nil {
			return err
		}
		category, err := models.ParseCategory(string(tools[i].Category))
		if err != nil {
			return fmt.Errorf("tool %s: %w", tools[i].ID, err)
		}
		tools[i].Category = category
	}
	return s.update(func(tx *bolt.Tx) error {
		for _, tool := range tools {
			data, err := json.Marshal(record{Version: RecordVersion, Tool: tool})
			if err != nil {
				return fmt.Errorf("encode tool %s: %w", tool.ID, err)
			}
			for _, c := range models.Categories {
				bucket := tx.Bucket([]byte(collections[c]))
				if c == tool.Category {
					if err := bucket.Put([]byte(tool.ID), data); err != nil {
						return fmt.Errorf("put tool %s: %w", tool.ID, err)
					}
					continue
				}
				if err := bucket.Delete([]byte(tool.ID)); err != nil {
					return fmt.Errorf("delete stale tool %s: %w", tool.ID, err)
				}
			}
		}
		return nil
	})
}

// Delete removes a tool from every collection.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		for _, c := range models.Categories {
			if err := tx.Bucket([]byte(collections[c])).Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByCategory returns the tools of one collection ordered by id.
func (s *Store) ListByCategory(ctx context.Context, category models.Category) ([]models.ToolProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := CollectionName(category)
	if err != nil {
		return nil, err
	}
	var tools []models.ToolProfile
	err = s.view(func(tx *bolt.Tx) error {
		tools, err = readBucket(tx.Bucket([]byte(name)))
		return err
	})
	return tools, err
}

// LoadCatalog returns every tool in catalog order: collections in category
// order, tools ordered by id within a collection.
func (s *Store) LoadCatalog(ctx context.Context) ([]models.ToolProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var all []models.ToolProfile
	err := s.view(func(tx *bolt.Tx) error {
		for _, c := range models.Categories {
			tools, err := readBucket(tx.Bucket([]byte(collections[c])))
			if err != nil {
				return err
			}
			all = append(all, tools...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logrus.Debugf("Loaded %d tools from catalog", len(all))
	return all, nil
}

// Count returns the number of stored tools.
func (s *Store) Count() (int, error) {
	total := 0
	err := s.view(func(tx *bolt.Tx) error {
		for _, c := range models.Categories {
			total += tx.Bucket([]byte(collections[c])).Stats().KeyN
		}
		return nil
	})
	return total, err
}

func readBucket(bucket *bolt.Bucket) ([]models.ToolProfile, error) {
	if bucket == nil {
		return nil, nil
	}
	var tools []models.ToolProfile
	err := bucket.ForEach(func(key, value []byte) error {
		var rec record
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode tool %s: %w", key, err)
		}
		if rec.Version != RecordVersion {
			return fmt.Errorf("%w: tool %s has version %d", ErrUnknownVersion, key, rec.Version)
		}
		tools = append(tools, rec.Tool)
		return nil
	})
	return tools, err
}

func (s *Store) view(fn func(tx *bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(tx *bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(fn)
}
