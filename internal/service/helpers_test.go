package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/model"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/repository/jsonfile"
)

// =========================================================================
// TEST HELPERS
// =========================================================================
//
// Most service tests run against the real jsonfile store in a temp dir:
// it is fast, and it exercises the lock-held Update closures the services
// depend on. failingCollection covers the storage-failure paths that are
// awkward to trigger on a real filesystem.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testCollections struct {
	dir      string
	events   *jsonfile.Collection[model.Event]
	products *jsonfile.Collection[model.Product]
	users    *jsonfile.Collection[model.User]
}

func newTestCollections(t *testing.T) *testCollections {
	t.Helper()
	dir := t.TempDir()

	store, err := jsonfile.New(map[string]string{
		"events":   filepath.Join(dir, "events.json"),
		"products": filepath.Join(dir, "products.json"),
		"users":    filepath.Join(dir, "users.json"),
	}, testLogger())
	require.NoError(t, err)

	events, err := jsonfile.Open(store, "events", jsonfile.Options[model.Event]{})
	require.NoError(t, err)
	products, err := jsonfile.Open(store, "products", jsonfile.Options[model.Product]{Default: model.DefaultProducts()})
	require.NoError(t, err)
	users, err := jsonfile.Open(store, "users", jsonfile.Options[model.User]{WrapKey: "users"})
	require.NoError(t, err)

	return &testCollections{dir: dir, events: events, products: products, users: users}
}

// writeRaw replaces a collection file with raw JSON.
func (c *testCollections) writeRaw(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(c.dir, name+".json"), []byte(content), 0o644))
}

func (c *testCollections) readRaw(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(c.dir, name+".json"))
	require.NoError(t, err)
	return string(data)
}

// failingCollection fails every call with err.
type failingCollection[T any] struct {
	name string
	err  error
}

func (f failingCollection[T]) Name() string                                { return f.name }
func (f failingCollection[T]) Load(context.Context) ([]T, error)           { return nil, f.err }
func (f failingCollection[T]) Save(context.Context, []T) error             { return f.err }
func (f failingCollection[T]) Update(context.Context, func([]T) ([]T, error)) error { return f.err }

var errDiskGone = &fs.PathError{Op: "open", Path: "/data/x.json", Err: errors.New("input/output error")}

func validEvent(title string) model.Event {
	return model.Event{
		Title:   title,
		Date:    "2026-11-20",
		Time:    "18:00",
		Address: "Rua das Flores, 100",
		Status:  "pending",
	}
}
