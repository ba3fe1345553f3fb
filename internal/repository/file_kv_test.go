package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewFileKV_EmptyDir(t *testing.T) {
	_, err := NewFileKV("")
	if err == nil {
		t.Error("expected error for empty dir")
	}
}

func TestFileKV_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	kv, err := NewFileKV(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := kv.Get(ctx, "missing")
	if err != nil || v != nil {
		t.Fatalf("expected (nil, nil) for missing key, got (%v, %v)", v, err)
	}

	if err := kv.Set(ctx, "session", []byte("ada")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(ctx, "session", []byte("grace")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err = kv.Get(ctx, "session")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(v) != "grace" {
		t.Errorf("expected grace, got %q", v)
	}

	if err := kv.Delete(ctx, "session"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := kv.Delete(ctx, "session"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	v, _ = kv.Get(ctx, "session")
	if v != nil {
		t.Errorf("expected key to be gone, got %q", v)
	}
}

func TestFileKV_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	kv, _ := NewFileKV(dir)
	if err := kv.Set(context.Background(), "snapshot", []byte(`{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "snapshot" {
		t.Errorf("expected only the snapshot file, got %v", entries)
	}
}

func TestFileKV_InvalidKeys(t *testing.T) {
	kv, _ := NewFileKV(t.TempDir())
	ctx := context.Background()

	if _, err := kv.Get(ctx, ""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := kv.Set(ctx, "../escape", []byte("x")); err == nil {
		t.Error("expected error for key with path separator")
	}
}

func TestFileKV_CancelledContext(t *testing.T) {
	kv, _ := NewFileKV(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := kv.Set(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
