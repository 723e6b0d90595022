package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
	"github.com/content-interop/cmis-go/cmis/typecache"
)

func docDef(id string) *model.TypeDefinition {
	return &model.TypeDefinition{ID: id, BaseID: cmis.BaseTypeDocument}
}

func TestPutGet(t *testing.T) {
	c := New(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	if _, err := c.Get(ctx, "repo-1", "doc:report"); !errors.Is(err, typecache.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := c.Put(ctx, "repo-1", docDef("doc:report")); err != nil {
		t.Fatal(err)
	}
	def, err := c.Get(ctx, "repo-1", "doc:report")
	if err != nil {
		t.Fatal(err)
	}
	if def.ID != "doc:report" {
		t.Errorf("expected doc:report, got %q", def.ID)
	}

	// Entries are scoped per repository.
	if _, err := c.Get(ctx, "repo-2", "doc:report"); !errors.Is(err, typecache.ErrNotFound) {
		t.Errorf("expected miss for other repository, got %v", err)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(10*time.Millisecond, 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Put(ctx, "repo-1", docDef("doc:report")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := c.Get(ctx, "repo-1", "doc:report"); !errors.Is(err, typecache.ErrNotFound) {
		t.Errorf("expected expired entry to miss, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	c := New(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Put(ctx, "repo-1", docDef("doc:a")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "repo-1", docDef("doc:b")); err != nil {
		t.Fatal(err)
	}

	if err := c.Remove(ctx, "repo-1", "doc:a"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "repo-1", "doc:a"); !errors.Is(err, typecache.ErrNotFound) {
		t.Error("expected doc:a removed")
	}
	if _, err := c.Get(ctx, "repo-1", "doc:b"); err != nil {
		t.Errorf("doc:b must survive, got %v", err)
	}

	// Removing an absent entry is not an error.
	if err := c.Remove(ctx, "repo-1", "doc:a"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := c.Remove(ctx, "repo-x", "doc:a"); err != nil {
		t.Errorf("expected no error for unknown repository, got %v", err)
	}
}

func TestRemoveAll(t *testing.T) {
	c := New(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Put(ctx, "repo-1", docDef("doc:a")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "repo-2", docDef("doc:a")); err != nil {
		t.Fatal(err)
	}

	if err := c.RemoveAll(ctx, "repo-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "repo-1", "doc:a"); !errors.Is(err, typecache.ErrNotFound) {
		t.Error("expected repo-1 emptied")
	}
	if _, err := c.Get(ctx, "repo-2", "doc:a"); err != nil {
		t.Errorf("repo-2 must survive, got %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	c := New(time.Minute, time.Minute)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second close must be a no-op, got %v", err)
	}
}

func TestDriverSettings(t *testing.T) {
	store, err := typecache.New(&typecache.DriverConfig{
		Driver: "memory",
		Settings: map[string]any{
			"default_ttl_seconds":      1,
			"cleanup_interval_seconds": 0,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cache, ok := store.(*Cache)
	if !ok {
		t.Fatalf("expected *Cache, got %T", store)
	}
	if cache.ttl != time.Second {
		t.Errorf("expected 1s ttl, got %v", cache.ttl)
	}
}

func TestDriverSettingsRejectsWrongShape(t *testing.T) {
	_, err := typecache.New(&typecache.DriverConfig{
		Driver:   "memory",
		Settings: map[string]any{"default_ttl_seconds": "soon"},
	})
	if err == nil {
		t.Error("expected error for malformed settings")
	}
}
