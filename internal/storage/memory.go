package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/goliatone/go-docsite/pkg/storage"
)

// Memory keeps artifacts in a map. Dry runs and tests use it to observe what
// a build would write.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{files: map[string][]byte{}, dirs: map[string]struct{}{}}
}

func (m *Memory) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query != storage.OpRead {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, query)
	}
	key, err := memoryKey(args)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.files[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &fileRows{data: bytes.Clone(data)}, nil
}

func (m *Memory) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	if err := ctx.Err(); err != nil {
		return emptyResult{}, err
	}
	key, err := memoryKey(args)
	if err != nil {
		return emptyResult{}, err
	}

	switch query {
	case storage.OpEnsureDir:
		m.mu.Lock()
		m.dirs[key] = struct{}{}
		m.mu.Unlock()
		return emptyResult{}, nil
	case storage.OpWrite:
		if len(args) < 2 {
			return emptyResult{}, ErrInvalidContent
		}
		reader, ok := args[1].(io.Reader)
		if !ok || reader == nil {
			return emptyResult{}, ErrInvalidContent
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return emptyResult{}, err
		}
		m.mu.Lock()
		m.files[key] = data
		m.mu.Unlock()
		return writeResult{rows: 1, bytes: int64(len(data))}, nil
	case storage.OpRemove:
		if key == "" {
			return emptyResult{}, ErrRemoveRoot
		}
		m.mu.Lock()
		for name := range m.files {
			if name == key || strings.HasPrefix(name, key+"/") {
				delete(m.files, name)
			}
		}
		delete(m.dirs, key)
		m.mu.Unlock()
		return emptyResult{}, nil
	default:
		return emptyResult{}, fmt.Errorf("%w: %s", ErrUnsupportedOperation, query)
	}
}

func (m *Memory) Transaction(ctx context.Context, fn func(tx interfaces.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&memoryTx{storage: m})
}

// Files returns the stored paths in lexical order.
func (m *Memory) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for name := range m.files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// File returns the content stored at name.
func (m *Memory) File(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[strings.TrimPrefix(path.Clean("/"+name), "/")]
	return data, ok
}

func memoryKey(args []any) (string, error) {
	if len(args) == 0 {
		return "", ErrMissingPath
	}
	rel, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("%w: got %T", ErrMissingPath, args[0])
	}
	return strings.TrimPrefix(path.Clean("/"+rel), "/"), nil
}

type memoryTx struct {
	storage *Memory
}

func (tx *memoryTx) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	return tx.storage.Query(ctx, query, args...)
}

func (tx *memoryTx) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	return tx.storage.Exec(ctx, query, args...)
}

func (tx *memoryTx) Transaction(context.Context, func(interfaces.Transaction) error) error {
	return ErrNestedTransaction
}

func (tx *memoryTx) Commit() error   { return nil }
func (tx *memoryTx) Rollback() error { return nil }
