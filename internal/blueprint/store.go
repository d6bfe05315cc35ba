package blueprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"stackfast/internal/models"
)

const rootBucket = "blueprints"

var (
	ErrNotFound    = errors.New("blueprint not found")
	ErrMissingUser = errors.New("user id is required")
)

// Store persists blueprints in one nested bucket per user.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// NewStore creates the blueprint bucket in db. The database handle is owned
// by the caller.
func NewStore(db *bolt.DB) (*Store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create blueprint bucket: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Save assigns an id and a creation time when missing and writes bp.
func (s *Store) Save(ctx context.Context, bp *models.Blueprint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(bp.UserID) == "" {
		return ErrMissingUser
	}
	if bp.ID == "" {
		bp.ID = uuid.NewString()
	}
	if bp.CreatedAt.IsZero() {
		bp.CreatedAt = s.now().UTC()
	}

	data, err := json.Marshal(bp)
	if err != nil {
		return fmt.Errorf("encode blueprint: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		users := tx.Bucket([]byte(rootBucket))
		bucket, err := users.CreateBucketIfNotExists([]byte(bp.UserID))
		if err != nil {
			return fmt.Errorf("create user bucket: %w", err)
		}
		return bucket.Put([]byte(bp.ID), data)
	})
}

// Get returns one blueprint owned by userID.
func (s *Store) Get(ctx context.Context, userID, id string) (models.Blueprint, error) {
	if err := ctx.Err(); err != nil {
		return models.Blueprint{}, err
	}
	var bp models.Blueprint
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(rootBucket)).Bucket([]byte(userID))
		if bucket == nil {
			return ErrNotFound
		}
		data := bucket.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &bp)
	})
	return bp, err
}

// List returns the blueprints of userID, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]models.Blueprint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []models.Blueprint{}
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(rootBucket)).Bucket([]byte(userID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(key, value []byte) error {
			var bp models.Blueprint
			if err := json.Unmarshal(value, &bp); err != nil {
				return fmt.Errorf("decode blueprint %s: %w", key, err)
			}
			out = append(out, bp)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b models.Blueprint) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
