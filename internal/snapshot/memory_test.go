package snapshot

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestMemoryStore_PutAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	tests := []struct {
		name    string
		object  string
		content string
	}{
		{
			name:    "store and retrieve a snapshot",
			object:  "20240115T103000Z.db.age",
			content: "encrypted bytes",
		},
		{
			name:    "store an empty snapshot",
			object:  "20240115T104500Z.db.age",
			content: "",
		},
		{
			name:    "store a large snapshot",
			object:  "20240115T110000Z.db.age",
			content: strings.Repeat("x", 10000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Put(ctx, tt.object, strings.NewReader(tt.content), int64(len(tt.content)))
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			var buf bytes.Buffer
			if err := store.Get(ctx, tt.object, &buf); err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if buf.String() != tt.content {
				t.Errorf("Get() = %d bytes, want %d", buf.Len(), len(tt.content))
			}
		})
	}
}

func TestMemoryStore_SizeMismatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Put(ctx, "bad.db.age", strings.NewReader("short"), 100)
	if err == nil {
		t.Error("Put() with a wrong size succeeded, want error")
	}
	if got, _ := store.List(ctx); len(got) != 0 {
		t.Errorf("List() = %v after failed Put, want empty", got)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	var buf bytes.Buffer
	if err := store.Get(context.Background(), "missing.db.age", &buf); err == nil {
		t.Error("Get() on a missing snapshot succeeded, want error")
	}
}

func TestMemoryStore_ListSorted(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	names := []string{
		"20240116T000000Z.db.age",
		"20240114T120000Z.db.age",
		"20240115T103000Z.db.age",
	}
	for _, name := range names {
		if err := store.Put(ctx, name, strings.NewReader("x"), 1); err != nil {
			t.Fatalf("Put(%s) error = %v", name, err)
		}
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("List() = %d entries, want 3", len(infos))
	}
	for i, want := range []string{
		"20240114T120000Z.db.age",
		"20240115T103000Z.db.age",
		"20240116T000000Z.db.age",
	} {
		if infos[i].Name != want {
			t.Errorf("List()[%d] = %s, want %s", i, infos[i].Name, want)
		}
	}
}
