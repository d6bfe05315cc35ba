package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"stackfast/config"
	"stackfast/internal/models"
)

// seedFile is the layout of a catalog seed file.
type seedFile struct {
	Version int                  `yaml:"version"`
	Tools   []models.ToolProfile `yaml:"tools"`
}

// SeedLoader discovers and parses YAML seed files below a directory.
type SeedLoader struct {
	maxDepth         int
	maxFileSize      int64
	ignoreDirs       map[string]bool
	ignoreExtensions map[string]bool
	ignorePrefixes   []string
}

// NewSeedLoader builds a loader from the catalog configuration.
func NewSeedLoader(cfg config.CatalogConfig) *SeedLoader {
	l := &SeedLoader{
		maxDepth:         cfg.MaxSeedDepth,
		maxFileSize:      cfg.MaxFileReadSize,
		ignoreDirs:       make(map[string]bool),
		ignoreExtensions: make(map[string]bool),
		ignorePrefixes:   cfg.IgnorePrefixes,
	}
	if l.maxDepth <= 0 {
		l.maxDepth = 1
	}
	for _, dir := range cfg.IgnoreDirs {
		l.ignoreDirs[dir] = true
	}
	for _, ext := range cfg.IgnoreExtensions {
		l.ignoreExtensions[strings.ToLower(ext)] = true
	}
	return l
}

// Discover lists seed files below root, skipping ignored names and stopping
// at the configured depth. Paths are returned in lexical order.
func (l *SeedLoader) Discover(root string) ([]string, error) {
	var found []string
	if err := l.walk(root, 0, &found); err != nil {
		return nil, err
	}
	return found, nil
}

func (l *SeedLoader) walk(dir string, depth int, found *[]string) error {
	if depth >= l.maxDepth {
		logrus.Debugf("Seed depth limit %d reached at %s", l.maxDepth, dir)
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot list seed directory '%s': %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if l.ignoreDirs[name] || l.hasIgnoredPrefix(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if err := l.walk(path, depth+1, found); err != nil {
				return err
			}
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if l.ignoreExtensions[ext] || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		*found = append(*found, path)
	}
	return nil
}

func (l *SeedLoader) hasIgnoredPrefix(name string) bool {
	for _, prefix := range l.ignorePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// ReadSeedFile reads one seed file, refusing binary content and files larger
// than the configured cap.
func (l *SeedLoader) ReadSeedFile(path string) ([]models.ToolProfile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("seed file not found: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("seed path '%s' is a directory", path)
	}
	if l.maxFileSize > 0 && info.Size() > l.maxFileSize {
		return nil, fmt.Errorf("seed file '%s' is %d bytes, above the %d byte limit", filepath.Base(path), info.Size(), l.maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if bytes.IndexByte(data[:min(1024, len(data))], 0) >= 0 {
		return nil, fmt.Errorf("seed file '%s' looks binary", filepath.Base(path))
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", filepath.Base(path), err)
	}
	if seed.Version != 0 && seed.Version != RecordVersion {
		return nil, fmt.Errorf("%w: %s declares version %d", ErrUnknownVersion, filepath.Base(path), seed.Version)
	}
	for i := range seed.Tools {
		category, err := models.ParseCategory(string(seed.Tools[i].Category))
		if err != nil {
			return nil, fmt.Errorf("%s: tool %s: %w", filepath.Base(path), seed.Tools[i].ID, err)
		}
		seed.Tools[i].Category = category
		if err := seed.Tools[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	return seed.Tools, nil
}

// Load reads every seed file below root. A tool id defined twice is an error.
func (l *SeedLoader) Load(root string) ([]models.ToolProfile, error) {
	paths, err := l.Discover(root)
	if err != nil {
		return nil, err
	}

	var tools []models.ToolProfile
	origin := make(map[string]string)
	for _, path := range paths {
		fileTools, err := l.ReadSeedFile(path)
		if err != nil {
			return nil, err
		}
		for _, tool := range fileTools {
			if prev, dup := origin[tool.ID]; dup {
				return nil, fmt.Errorf("tool %s defined in both %s and %s", tool.ID, prev, path)
			}
			origin[tool.ID] = path
			tools = append(tools, tool)
		}
		logrus.Infof("Read %d tools from '%s'", len(fileTools), path)
	}
	return tools, nil
}

// SeedResult reports what Seed changed.
type SeedResult struct {
	Written int
	Pruned  int
}

// Seed loads every seed file below root into store. With prune set, stored
// tools that no seed file defines any more are deleted.
func Seed(ctx context.Context, store *Store, loader *SeedLoader, root string, prune bool) (SeedResult, error) {
	tools, err := loader.Load(root)
	if err != nil {
		return SeedResult{}, err
	}
	if len(tools) == 0 {
		return SeedResult{}, fmt.Errorf("no tools found below %s", root)
	}
	if err := store.Put(ctx, tools...); err != nil {
		return SeedResult{}, fmt.Errorf("store seed tools: %w", err)
	}
	result := SeedResult{Written: len(tools)}
	if !prune {
		return result, nil
	}
	result.Pruned, err = Prune(ctx, store, tools)
	if err != nil {
		return result, err
	}
	return result, nil
}

// Prune deletes every stored tool whose id is not among keep and returns how
// many were removed.
func Prune(ctx context.Context, store *Store, keep []models.ToolProfile) (int, error) {
	wanted := make(map[string]bool, len(keep))
	for _, tool := range keep {
		wanted[tool.ID] = true
	}

	removed := 0
	for _, category := range models.Categories {
		stored, err := store.ListByCategory(ctx, category)
		if err != nil {
			return removed, fmt.Errorf("list %s: %w", category, err)
		}
		for _, tool := range stored {
			if wanted[tool.ID] {
				continue
			}
			if err := store.Delete(ctx, tool.ID); err != nil {
				return removed, fmt.Errorf("prune tool %s: %w", tool.ID, err)
			}
			logrus.Infof("Pruned tool '%s' (%s)", tool.ID, category)
			removed++
		}
	}
	return removed, nil
}
