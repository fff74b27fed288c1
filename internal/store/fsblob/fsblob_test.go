package fsblob

import (
	"context"
	"path/filepath"
	"testing"
)

func TestPutGet_RoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key := "abcdef0123456789"
	data := []byte("pdf bytes go here")

	if err := store.Put(ctx, key, data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	if string(got) != string(data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestGet_MissingKeyReturnsNotFound(t *testing.T) {
	store := New(t.TempDir())
	_, found, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected found=false for missing key")
	}
}

func TestPut_ShardsByKeyPrefix(t *testing.T) {
	base := t.TempDir()
	store := New(base)
	if err := store.Put(context.Background(), "ab12", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	want := filepath.Join(base, "ab", "ab12.bin")
	if got := store.pathFor("ab12"); got != want {
		t.Fatalf("pathFor = %q, want %q", got, want)
	}
}
