package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	manifestMetaBucket  = "manifest"
	manifestPageBucket  = "pages"
	manifestAssetBucket = "assets"
	manifestMetaKey     = "meta"
)

type boltManifestMeta struct {
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
}

// boltManifestStore keeps one record per page and asset in a bbolt file
// outside the output directory, so it survives wiping the output. The
// database is opened per call and never held between builds.
type boltManifestStore struct {
	path    string
	timeout time.Duration
}

// NewBoltManifestStore stores the manifest in the bbolt database at path.
func NewBoltManifestStore(path string) ManifestStore {
	return &boltManifestStore{path: path, timeout: time.Second}
}

func (b *boltManifestStore) open() (*bolt.DB, error) {
	if strings.TrimSpace(b.path) == "" {
		return nil, fmt.Errorf("generator: bolt manifest path required")
	}
	dir := filepath.Dir(b.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create manifest directory: %w", err)
		}
	}
	db, err := bolt.Open(b.path, 0o600, &bolt.Options{Timeout: b.timeout})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{manifestMetaBucket, manifestPageBucket, manifestAssetBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}
	return db, nil
}

func (b *boltManifestStore) Load(ctx context.Context) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db, err := b.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	manifest := NewManifest()
	err = db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket([]byte(manifestMetaBucket)).Get([]byte(manifestMetaKey)); raw != nil {
			var meta boltManifestMeta
			if err := json.Unmarshal(raw, &meta); err != nil {
				return fmt.Errorf("decode manifest meta: %w", err)
			}
			if meta.Version != 0 {
				manifest.Version = meta.Version
			}
			manifest.GeneratedAt = meta.GeneratedAt
		}

		cursor := tx.Bucket([]byte(manifestPageBucket)).Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var entry ManifestPage
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("decode manifest page %s: %w", k, err)
			}
			manifest.setPage(entry)
		}

		cursor = tx.Bucket([]byte(manifestAssetBucket)).Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var entry ManifestAsset
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("decode manifest asset %s: %w", k, err)
			}
			manifest.Assets[string(k)] = entry
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

// Save replaces the stored manifest in a single transaction.
func (b *boltManifestStore) Save(ctx context.Context, manifest *Manifest) error {
	if manifest == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	db, err := b.open()
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		if err := resetBuckets(tx); err != nil {
			return err
		}
		meta, err := json.Marshal(boltManifestMeta{Version: manifest.Version, GeneratedAt: manifest.GeneratedAt})
		if err != nil {
			return err
		}
		if err := tx.Bucket([]byte(manifestMetaBucket)).Put([]byte(manifestMetaKey), meta); err != nil {
			return err
		}
		pages := tx.Bucket([]byte(manifestPageBucket))
		for key, entry := range manifest.Pages {
			raw, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if err := pages.Put([]byte(key), raw); err != nil {
				return err
			}
		}
		assets := tx.Bucket([]byte(manifestAssetBucket))
		for key, entry := range manifest.Assets {
			raw, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if err := assets.Put([]byte(key), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *boltManifestStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db, err := b.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Update(resetBuckets)
}

func resetBuckets(tx *bolt.Tx) error {
	for _, name := range []string{manifestMetaBucket, manifestPageBucket, manifestAssetBucket} {
		if tx.Bucket([]byte(name)) != nil {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return err
			}
		}
		if _, err := tx.CreateBucket([]byte(name)); err != nil {
			return err
		}
	}
	return nil
}
