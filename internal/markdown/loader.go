package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// Loader discovers markdown files below a directory of an fs.FS.
type Loader struct {
	fs      fs.FS
	root    string
	pattern string
}

// NewLoader returns a loader reading from fsys. root is prepended to every
// path so the returned Document.FilePath points at the source file.
func NewLoader(fsys fs.FS, root string) *Loader {
	return &Loader{fs: fsys, root: strings.Trim(root, "/"), pattern: "*.md"}
}

// LoadFile reads and parses dir/rel.
func (l *Loader) LoadFile(ctx context.Context, dir, rel string) (*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := path.Join(dir, rel)
	data, err := fs.ReadFile(l.fs, full)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", full, err)
	}
	info, err := fs.Stat(l.fs, full)
	if err != nil {
		return nil, fmt.Errorf("markdown loader stat %s: %w", full, err)
	}
	filePath := full
	if l.root != "" {
		filePath = path.Join(l.root, full)
	}
	return BuildDocument(filePath, rel, data, info.ModTime())
}

// LoadDirectory returns every markdown file below dir sorted by relative
// path. A missing directory yields no documents.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]*interfaces.Document, error) {
	dir = path.Clean(strings.Trim(dir, "/"))
	if _, err := fs.Stat(l.fs, dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("markdown loader stat %s: %w", dir, err)
	}

	var docs []*interfaces.Document
	err := fs.WalkDir(l.fs, dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), "_") {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if ok, _ := path.Match(l.pattern, strings.ToLower(d.Name())); !ok {
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, dir), "/")
		doc, err := l.LoadFile(ctx, dir, rel)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].RelPath < docs[j].RelPath })
	return docs, nil
}
