package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/goliatone/go-docsite/pkg/storage"
)

var (
	// ErrMissingPath is returned when an operation is issued without a path.
	ErrMissingPath = errors.New("storage: operation requires a path")
	// ErrInvalidContent is returned when a write receives no io.Reader.
	ErrInvalidContent = errors.New("storage: write expects io.Reader content")
	// ErrUnsupportedOperation is returned for unknown operation names.
	ErrUnsupportedOperation = errors.New("storage: unsupported operation")
	// ErrNestedTransaction is returned when a transaction is opened inside another.
	ErrNestedTransaction = errors.New("storage: nested transactions not supported")
	// ErrRemoveRoot is returned when a remove targets the root itself.
	ErrRemoveRoot = errors.New("storage: refusing to remove root")
)

// Filesystem writes artifacts below a root directory.
type Filesystem struct {
	root string
	perm os.FileMode
}

// NewFilesystem returns a provider rooted at root.
func NewFilesystem(root string) *Filesystem {
	return &Filesystem{root: filepath.Clean(root), perm: 0o755}
}

// Root returns the directory artifacts are written to.
func (s *Filesystem) Root() string {
	return s.root
}

func (s *Filesystem) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query != storage.OpRead {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, query)
	}
	full, err := s.resolve(args)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fileRows{data: data}, nil
}

func (s *Filesystem) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	if err := ctx.Err(); err != nil {
		return emptyResult{}, err
	}
	full, err := s.resolve(args)
	if err != nil {
		return emptyResult{}, err
	}

	switch query {
	case storage.OpEnsureDir:
		return emptyResult{}, os.MkdirAll(full, s.perm)
	case storage.OpWrite:
		if len(args) < 2 {
			return emptyResult{}, ErrInvalidContent
		}
		reader, ok := args[1].(io.Reader)
		if !ok || reader == nil {
			return emptyResult{}, ErrInvalidContent
		}
		n, err := writeFile(full, reader, s.perm)
		return writeResult{rows: 1, bytes: n}, err
	case storage.OpRemove:
		if full == s.root {
			return emptyResult{}, fmt.Errorf("%w %s", ErrRemoveRoot, s.root)
		}
		err := os.RemoveAll(full)
		if errors.Is(err, os.ErrNotExist) {
			return emptyResult{}, nil
		}
		return emptyResult{}, err
	default:
		return emptyResult{}, fmt.Errorf("%w: %s", ErrUnsupportedOperation, query)
	}
}

func (s *Filesystem) Transaction(ctx context.Context, fn func(tx interfaces.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&filesystemTx{storage: s})
}

// RemoveAll deletes everything below the root, keeping the root itself.
func (s *Filesystem) RemoveAll(ctx context.Context) error {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *Filesystem) resolve(args []any) (string, error) {
	if len(args) == 0 {
		return "", ErrMissingPath
	}
	rel, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("%w: got %T", ErrMissingPath, args[0])
	}
	// Rooting the path before cleaning keeps ".." segments inside root.
	rel = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(rel)), "/")
	if rel == "" {
		return s.root, nil
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

func writeFile(full string, reader io.Reader, perm os.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(full), perm); err != nil {
		return 0, err
	}
	file, err := os.Create(full)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return n, err
}

type filesystemTx struct {
	storage *Filesystem
}

func (tx *filesystemTx) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	return tx.storage.Query(ctx, query, args...)
}

func (tx *filesystemTx) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	return tx.storage.Exec(ctx, query, args...)
}

func (tx *filesystemTx) Transaction(context.Context, func(interfaces.Transaction) error) error {
	return ErrNestedTransaction
}

func (tx *filesystemTx) Commit() error {
	return nil
}

func (tx *filesystemTx) Rollback() error {
	return nil
}

type emptyResult struct{}

func (emptyResult) RowsAffected() (int64, error) { return 0, nil }
func (emptyResult) LastInsertId() (int64, error) { return 0, nil }

type writeResult struct {
	rows  int64
	bytes int64
}

func (r writeResult) RowsAffected() (int64, error) { return r.rows, nil }

// LastInsertId reports the number of bytes written.
func (r writeResult) LastInsertId() (int64, error) { return r.bytes, nil }

type fileRows struct {
	data []byte
	read bool
}

func (r *fileRows) Next() bool {
	if r.read {
		return false
	}
	r.read = true
	return true
}

func (r *fileRows) Scan(dest ...any) error {
	if len(dest) == 0 {
		return fmt.Errorf("storage: scan requires destination")
	}
	switch target := dest[0].(type) {
	case *[]byte:
		*target = append((*target)[:0], r.data...)
	case *string:
		*target = string(r.data)
	default:
		return fmt.Errorf("storage: unsupported scan destination %T", dest[0])
	}
	return nil
}

func (r *fileRows) Close() error {
	return nil
}
