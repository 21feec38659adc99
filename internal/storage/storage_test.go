package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/goliatone/go-docsite/pkg/storage"
)

func readAll(t *testing.T, provider interfaces.StorageProvider, name string) string {
	t.Helper()
	rows, err := provider.Query(context.Background(), storage.OpRead, name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	if rows == nil {
		t.Fatalf("expected rows for %s", name)
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatalf("expected a row for %s", name)
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		t.Fatalf("scan %s: %v", name, err)
	}
	return string(data)
}

func TestFilesystemWriteReadRemove(t *testing.T) {
	root := t.TempDir()
	fs := NewFilesystem(root)
	ctx := context.Background()

	result, err := fs.Exec(ctx, storage.OpWrite, "podcast/index.html", strings.NewReader("<p>hi</p>"), int64(9), "page", "text/html")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n, _ := result.LastInsertId(); n != 9 {
		t.Fatalf("expected 9 bytes written, got %d", n)
	}
	if _, err := os.Stat(filepath.Join(root, "podcast", "index.html")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if got := readAll(t, fs, "podcast/index.html"); got != "<p>hi</p>" {
		t.Fatalf("unexpected content %q", got)
	}

	if _, err := fs.Exec(ctx, storage.OpRemove, "podcast"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	rows, err := fs.Query(ctx, storage.OpRead, "podcast/index.html")
	if err != nil || rows != nil {
		t.Fatalf("expected missing file to yield nil rows, got %v %v", rows, err)
	}
}

func TestFilesystemKeepsPathsInsideRoot(t *testing.T) {
	root := t.TempDir()
	fs := NewFilesystem(filepath.Join(root, "build"))

	if _, err := fs.Exec(context.Background(), storage.OpWrite, "../../escape.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "build", "escape.txt")); err != nil {
		t.Fatalf("expected write clamped to root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected nothing outside root, got %v", err)
	}
}

func TestFilesystemRejectsRootRemoval(t *testing.T) {
	fs := NewFilesystem(t.TempDir())
	if _, err := fs.Exec(context.Background(), storage.OpRemove, "/"); !errors.Is(err, ErrRemoveRoot) {
		t.Fatalf("expected ErrRemoveRoot, got %v", err)
	}
}

func TestFilesystemRemoveAllKeepsRoot(t *testing.T) {
	root := t.TempDir()
	fs := NewFilesystem(root)
	ctx := context.Background()
	if _, err := fs.Exec(ctx, storage.OpWrite, "a/b.html", strings.NewReader("b")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := fs.RemoveAll(ctx); err != nil {
		t.Fatalf("remove all: %v", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty root, got %d entries", len(entries))
	}
}

func TestProvidersRejectBadArguments(t *testing.T) {
	providers := map[string]interfaces.StorageProvider{
		"filesystem": NewFilesystem(t.TempDir()),
		"memory":     NewMemory(),
	}
	for name, provider := range providers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := provider.Exec(ctx, storage.OpWrite); !errors.Is(err, ErrMissingPath) {
				t.Fatalf("expected ErrMissingPath, got %v", err)
			}
			if _, err := provider.Exec(ctx, storage.OpWrite, "a.html", "not a reader"); !errors.Is(err, ErrInvalidContent) {
				t.Fatalf("expected ErrInvalidContent, got %v", err)
			}
			if _, err := provider.Exec(ctx, "docsite.unknown", "a.html"); !errors.Is(err, ErrUnsupportedOperation) {
				t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
			}
			err := provider.Transaction(ctx, func(tx interfaces.Transaction) error {
				return tx.Transaction(ctx, nil)
			})
			if !errors.Is(err, ErrNestedTransaction) {
				t.Fatalf("expected ErrNestedTransaction, got %v", err)
			}
		})
	}
}

func TestMemoryTracksFiles(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	err := mem.Transaction(ctx, func(tx interfaces.Transaction) error {
		if _, err := tx.Exec(ctx, storage.OpWrite, "b/index.html", strings.NewReader("b")); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, storage.OpWrite, "/a/index.html", strings.NewReader("a"))
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	files := mem.Files()
	if len(files) != 2 || files[0] != "a/index.html" || files[1] != "b/index.html" {
		t.Fatalf("unexpected files %v", files)
	}
	if got := readAll(t, mem, "a/index.html"); got != "a" {
		t.Fatalf("unexpected content %q", got)
	}
	if _, err := mem.Exec(ctx, storage.OpRemove, "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := mem.File("a/index.html"); ok {
		t.Fatalf("expected a/index.html removed")
	}
}
