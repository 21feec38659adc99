package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

const (
	// DefaultManifestPath is used when no manifest path is configured.
	DefaultManifestPath = ".docsite-manifest.json"
	manifestFileVersion = 1
)

// Manifest stores metadata about the last successful build to support incremental runs.
type Manifest struct {
	Version     int                      `json:"version"`
	GeneratedAt time.Time                `json:"generated_at"`
	Pages       map[string]ManifestPage  `json:"pages"`
	Assets      map[string]ManifestAsset `json:"assets"`
}

type ManifestPage struct {
	PageID       string    `json:"page_id"`
	Locale       string    `json:"locale"`
	Route        string    `json:"route"`
	URL          string    `json:"url"`
	Output       string    `json:"output"`
	Template     string    `json:"template"`
	Hash         string    `json:"hash"`
	Checksum     string    `json:"checksum"`
	LastModified time.Time `json:"last_modified"`
	RenderedAt   time.Time `json:"rendered_at"`
}

type ManifestAsset struct {
	Key      string    `json:"key"`
	Source   string    `json:"source"`
	Output   string    `json:"output"`
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
	CopiedAt time.Time `json:"copied_at"`
}

// ManifestStore persists the manifest between builds.
type ManifestStore interface {
	Load(ctx context.Context) (*Manifest, error)
	Save(ctx context.Context, manifest *Manifest) error
	Reset(ctx context.Context) error
}

func NewManifest() *Manifest {
	return &Manifest{
		Version: manifestFileVersion,
		Pages:   map[string]ManifestPage{},
		Assets:  map[string]ManifestAsset{},
	}
}

// orderedManifest is the on-disk shape: slices sorted by key so the file is
// stable across builds.
type orderedManifest struct {
	Version     int             `json:"version"`
	GeneratedAt time.Time       `json:"generated_at"`
	Pages       []ManifestPage  `json:"pages"`
	Assets      []ManifestAsset `json:"assets"`
}

func parseManifest(data []byte) (*Manifest, error) {
	manifest := NewManifest()
	if len(bytes.TrimSpace(data)) == 0 {
		return manifest, nil
	}
	var ordered orderedManifest
	if err := json.Unmarshal(data, &ordered); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	if ordered.Version != 0 {
		manifest.Version = ordered.Version
	}
	manifest.GeneratedAt = ordered.GeneratedAt
	for _, entry := range ordered.Pages {
		manifest.setPage(entry)
	}
	for _, entry := range ordered.Assets {
		manifest.setAsset(entry)
	}
	return manifest, nil
}

func (m *Manifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	ordered := orderedManifest{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt,
		Pages:       make([]ManifestPage, 0, len(m.Pages)),
		Assets:      make([]ManifestAsset, 0, len(m.Assets)),
	}
	if ordered.Version == 0 {
		ordered.Version = manifestFileVersion
	}
	for _, entry := range m.Pages {
		ordered.Pages = append(ordered.Pages, entry)
	}
	sort.Slice(ordered.Pages, func(i, j int) bool {
		if ordered.Pages[i].PageID == ordered.Pages[j].PageID {
			return ordered.Pages[i].Locale < ordered.Pages[j].Locale
		}
		return ordered.Pages[i].PageID < ordered.Pages[j].PageID
	})
	for _, entry := range m.Assets {
		ordered.Assets = append(ordered.Assets, entry)
	}
	sort.Slice(ordered.Assets, func(i, j int) bool {
		return ordered.Assets[i].Key < ordered.Assets[j].Key
	})
	return json.MarshalIndent(ordered, "", "  ")
}

func pageKey(pageID uuid.UUID, locale string) string {
	return strings.ToLower(pageID.String()) + "::" + strings.ToLower(strings.TrimSpace(locale))
}

func assetKey(kind, source string) string {
	return kind + "::" + strings.TrimSpace(source)
}

func (m *Manifest) lookupPage(pageID uuid.UUID, locale string) (ManifestPage, bool) {
	if m == nil || len(m.Pages) == 0 {
		return ManifestPage{}, false
	}
	entry, ok := m.Pages[pageKey(pageID, locale)]
	return entry, ok
}

// setPage stores entry under the key lookupPage uses. Entries without a valid
// page ID are dropped since no page could ever match them.
func (m *Manifest) setPage(entry ManifestPage) bool {
	if m == nil {
		return false
	}
	id, err := uuid.Parse(strings.TrimSpace(entry.PageID))
	if err != nil || id == uuid.Nil {
		return false
	}
	if m.Pages == nil {
		m.Pages = map[string]ManifestPage{}
	}
	entry.PageID = id.String()
	m.Pages[pageKey(id, entry.Locale)] = entry
	return true
}

func (m *Manifest) shouldSkipPage(pageID uuid.UUID, locale, hash, output string) bool {
	entry, ok := m.lookupPage(pageID, locale)
	if !ok {
		return false
	}
	if entry.Hash != hash {
		return false
	}
	return strings.TrimSpace(entry.Output) == strings.TrimSpace(output)
}

func (m *Manifest) lookupAsset(key string) (ManifestAsset, bool) {
	if m == nil || len(m.Assets) == 0 {
		return ManifestAsset{}, false
	}
	entry, ok := m.Assets[key]
	return entry, ok
}

func (m *Manifest) setAsset(entry ManifestAsset) {
	if m == nil || entry.Key == "" {
		return
	}
	if m.Assets == nil {
		m.Assets = map[string]ManifestAsset{}
	}
	m.Assets[entry.Key] = entry
}

func (m *Manifest) shouldSkipAsset(key, checksum, output string) bool {
	entry, ok := m.lookupAsset(key)
	if !ok {
		return false
	}
	if entry.Checksum != checksum {
		return false
	}
	return strings.TrimSpace(entry.Output) == strings.TrimSpace(output)
}

// prunePages drops entries not in keys and returns their outputs.
func (m *Manifest) prunePages(keys map[string]struct{}) []string {
	var stale []string
	for key, entry := range m.Pages {
		if _, ok := keys[key]; !ok {
			stale = append(stale, entry.Output)
			delete(m.Pages, key)
		}
	}
	sort.Strings(stale)
	return stale
}

// pruneAssets drops entries not in keys and returns their outputs.
func (m *Manifest) pruneAssets(keys map[string]struct{}) []string {
	var stale []string
	for key, entry := range m.Assets {
		if _, ok := keys[key]; !ok {
			stale = append(stale, entry.Output)
			delete(m.Assets, key)
		}
	}
	sort.Strings(stale)
	return stale
}

// storageManifestStore keeps the manifest as a JSON file next to the
// artifacts it describes.
type storageManifestStore struct {
	storage interfaces.StorageProvider
	path    string
}

// NewStorageManifestStore stores the manifest at target through provider.
func NewStorageManifestStore(provider interfaces.StorageProvider, target string) ManifestStore {
	target = strings.TrimLeft(strings.TrimSpace(target), "/")
	if target == "" {
		target = DefaultManifestPath
	}
	return &storageManifestStore{storage: provider, path: target}
}

func (s *storageManifestStore) Load(ctx context.Context) (*Manifest, error) {
	data, err := readArtifact(ctx, s.storage, s.path)
	if err != nil {
		return nil, fmt.Errorf("generator: read manifest: %w", err)
	}
	return parseManifest(data)
}

func (s *storageManifestStore) Save(ctx context.Context, manifest *Manifest) error {
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	writer := newArtifactWriter(s.storage)
	if dir := path.Dir(s.path); dir != "." {
		if err := writer.EnsureDir(ctx, dir); err != nil {
			return err
		}
	}
	metadata := map[string]string{
		"version": strconv.Itoa(manifest.Version),
	}
	if !manifest.GeneratedAt.IsZero() {
		metadata["generated_at"] = manifest.GeneratedAt.UTC().Format(time.RFC3339)
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        s.path,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    categoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
		Metadata:    metadata,
	})
}

func (s *storageManifestStore) Reset(ctx context.Context) error {
	return newArtifactWriter(s.storage).Remove(ctx, s.path)
}
