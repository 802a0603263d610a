// Package jsonfile implements repository.Collection on top of plain JSON files.
//
// ONE FILE PER COLLECTION:
// Each collection lives in a single document on disk, either as a bare array
//
//	[ {...}, {...} ]
//
// or wrapped in an object under a fixed key
//
//	{ "users": [ {...}, {...} ] }
//
// Both shapes are always readable. Which one is WRITTEN is a per-collection
// option (Options.WrapKey), so a file read bare can be normalized to the
// wrapped shape on its next save.
//
// WHY A LOCK PER COLLECTION NAME?
// Every mutation is load → change in memory → write everything back. Two
// requests doing that at the same time would each start from the same old
// content, and whichever saved last would silently drop the other's change.
// The Store owns one sync.RWMutex per collection name; Update holds the write
// lock across the full cycle so mutations of one collection run one at a
// time, while Loads share the read lock. Collections never share a lock.
//
// ATOMIC WRITES:
// Files are written with moby/sys/atomicwriter (temp file in the same
// directory, fsync, rename over the target). A reader therefore opens either
// the complete old file or the complete new one, never a half-written one.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/moby/sys/atomicwriter"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/metrics"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/repository"
)

// Store maps collection names to backing files and owns their locks.
type Store struct {
	paths  map[string]string
	locks  map[string]*sync.RWMutex
	logger *slog.Logger
}

// New creates a Store for the given collection name → file path mapping and
// makes sure every parent directory exists.
//
// The mapping is fixed for the lifetime of the Store; there are no global
// path constants anywhere else.
func New(paths map[string]string, logger *slog.Logger) (*Store, error) {
	if len(paths) == 0 {
		return nil, errors.New("jsonfile: no collections configured")
	}

	s := &Store{
		paths:  make(map[string]string, len(paths)),
		locks:  make(map[string]*sync.RWMutex, len(paths)),
		logger: logger,
	}
	for name, path := range paths {
		if name == "" || path == "" {
			return nil, fmt.Errorf("jsonfile: collection %q has an empty name or path", name)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("jsonfile: creating directory for %s: %w", name, err)
		}
		s.paths[name] = path
		s.locks[name] = &sync.RWMutex{}
	}
	return s, nil
}

// Options configure how one collection is read and written.
type Options[T any] struct {
	// WrapKey, when set, makes Save write {"<WrapKey>": [...]} instead of a
	// bare array. Reads accept both shapes regardless.
	WrapKey string

	// Default is written (and returned) when the backing file is missing.
	Default []T
}

// Collection is a typed handle on one configured collection.
type Collection[T any] struct {
	name    string
	path    string
	wrapKey string
	def     []T
	mu      *sync.RWMutex
	logger  *slog.Logger
}

// compile-time check that *Collection implements repository.Collection
var _ repository.Collection[struct{}] = (*Collection[struct{}])(nil)

// Open returns a handle on the named collection. Handles opened for the same
// name share one lock, so it is safe (if pointless) to open a name twice.
func Open[T any](s *Store, name string, opts Options[T]) (*Collection[T], error) {
	path, ok := s.paths[name]
	if !ok {
		return nil, fmt.Errorf("jsonfile: unknown collection %q", name)
	}
	return &Collection[T]{
		name:    name,
		path:    path,
		wrapKey: opts.WrapKey,
		def:     opts.Default,
		mu:      s.locks[name],
		logger:  s.logger.With(slog.String("collection", name)),
	}, nil
}

func (c *Collection[T]) Name() string { return c.name }

// Path returns the backing file.
func (c *Collection[T]) Path() string { return c.path }

// Load reads the whole collection.
//
// A missing file is not an error: it is created with the default content
// under the write lock (re-checking first, in case another caller created it
// in between) and that default is returned.
func (c *Collection[T]) Load(ctx context.Context) (records []T, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(c.name, "load", start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	records, err = c.read()
	c.mu.RUnlock()
	if !errors.Is(err, fs.ErrNotExist) {
		return records, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	records, err = c.read()
	if errors.Is(err, fs.ErrNotExist) {
		return c.initialize()
	}
	return records, err
}

// Save replaces the collection with records.
func (c *Collection[T]) Save(ctx context.Context, records []T) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(c.name, "save", start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(records)
}

// Update runs fn between a load and a save while holding the write lock.
// An error from fn aborts the cycle without writing and is returned as is.
func (c *Collection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	start := time.Now()
	var storeErr error
	defer func() { metrics.ObserveStore(c.name, "update", start, storeErr) }()

	if err := ctx.Err(); err != nil {
		storeErr = err
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.read()
	if errors.Is(err, fs.ErrNotExist) {
		records, err = slices.Clone(c.def), nil
	}
	if err != nil {
		storeErr = err
		return err
	}

	next, err := fn(records)
	if err != nil {
		return err
	}

	storeErr = c.write(next)
	return storeErr
}

// read loads and decodes the file. Must be called with c.mu held.
// The returned error wraps fs.ErrNotExist when the file is missing.
func (c *Collection[T]) read() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: reading %s: %w", c.path, err)
	}
	records, err := c.decode(data)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: decoding %s: %w", c.path, err)
	}
	return records, nil
}

// decode accepts a bare array or an object holding the array under the wrap
// key (the collection name when no wrap key is configured). Any other valid
// JSON, including an empty file, decodes to an empty collection.
func (c *Collection[T]) decode(data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []T{}, nil
	}

	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	switch data[0] {
	case '[':
		return decodeArray[T](data)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		inner := bytes.TrimSpace(obj[c.key()])
		if len(inner) > 0 && inner[0] == '[' {
			return decodeArray[T](inner)
		}
	}
	return []T{}, nil
}

func decodeArray[T any](data []byte) ([]T, error) {
	records := []T{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Collection[T]) key() string {
	if c.wrapKey != "" {
		return c.wrapKey
	}
	return c.name
}

// write encodes records in the configured shape and atomically replaces the
// file. Must be called with c.mu held for writing.
func (c *Collection[T]) write(records []T) error {
	if records == nil {
		records = []T{}
	}

	var doc any = records
	if c.wrapKey != "" {
		doc = map[string][]T{c.wrapKey: records}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encoding %s: %w", c.name, err)
	}
	if err := atomicwriter.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("jsonfile: writing %s: %w", c.path, err)
	}
	return nil
}

// initialize writes the default content. Must be called with c.mu held for
// writing.
func (c *Collection[T]) initialize() ([]T, error) {
	records := slices.Clone(c.def)
	if records == nil {
		records = []T{}
	}
	if err := c.write(records); err != nil {
		return nil, err
	}
	c.logger.Info("collection file created",
		slog.String("path", c.path),
		slog.Int("records", len(records)),
	)
	return records, nil
}
