package generator

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-docsite/internal/identity"
	"github.com/goliatone/go-docsite/internal/storage"
)

func sampleManifest() *Manifest {
	id := identity.PageUUID("en", "/docs/intro/")
	manifest := NewManifest()
	manifest.GeneratedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	manifest.setPage(ManifestPage{
		PageID: id.String(),
		Locale: "en",
		Route:  "/docs/intro/",
		URL:    "/docs/intro/",
		Output: "docs/intro/index.html",
		Hash:   "abc",
	})
	manifest.setAsset(ManifestAsset{
		Key:      assetKey("static", "img/logo.svg"),
		Source:   "img/logo.svg",
		Output:   "img/logo.svg",
		Checksum: "def",
	})
	return manifest
}

func assertSampleManifest(t *testing.T, manifest *Manifest) {
	t.Helper()
	id := identity.PageUUID("en", "/docs/intro/")
	if !manifest.shouldSkipPage(id, "EN", "abc", "docs/intro/index.html") {
		t.Fatalf("expected page entry to round trip, got %+v", manifest.Pages)
	}
	if manifest.shouldSkipPage(id, "en", "changed", "docs/intro/index.html") {
		t.Fatalf("a different hash must not skip")
	}
	if !manifest.shouldSkipAsset(assetKey("static", "img/logo.svg"), "def", "img/logo.svg") {
		t.Fatalf("expected asset entry to round trip, got %+v", manifest.Assets)
	}
	if !manifest.GeneratedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected generated at %v", manifest.GeneratedAt)
	}
}

func TestStorageManifestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	store := NewStorageManifestStore(mem, "state/manifest.json")

	empty, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(empty.Pages) != 0 || len(empty.Assets) != 0 {
		t.Fatalf("expected empty manifest, got %+v", empty)
	}

	if err := store.Save(ctx, sampleManifest()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := mem.File("state/manifest.json"); !ok {
		t.Fatalf("manifest not written, have %v", mem.Files())
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSampleManifest(t, loaded)

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok := mem.File("state/manifest.json"); ok {
		t.Fatalf("reset should remove the manifest")
	}
}

func TestParseManifestRejectsGarbage(t *testing.T) {
	if _, err := parseManifest([]byte("{not json")); err == nil {
		t.Fatalf("expected parse error")
	}
	manifest, err := parseManifest([]byte("  "))
	if err != nil || manifest == nil {
		t.Fatalf("blank manifest should parse as empty, got %v", err)
	}
}

func TestBoltManifestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewBoltManifestStore(filepath.Join(t.TempDir(), "state", "manifest.db"))

	empty, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(empty.Pages) != 0 {
		t.Fatalf("expected empty manifest, got %+v", empty.Pages)
	}

	if err := store.Save(ctx, sampleManifest()); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSampleManifest(t, loaded)

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	reset, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load after reset: %v", err)
	}
	if len(reset.Pages) != 0 || len(reset.Assets) != 0 {
		t.Fatalf("reset should clear entries, got %+v", reset)
	}
}

func TestBuildWithBoltManifestSkipsUnchangedPages(t *testing.T) {
	store := NewBoltManifestStore(filepath.Join(t.TempDir(), "manifest.db"))
	h := newHarness(t, testConfig(), Dependencies{Manifests: store}, fixtureSite("en", fixtureOptions{}))
	ctx := context.Background()

	if _, err := h.svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, ok := h.storage.File(DefaultManifestPath); ok {
		t.Fatalf("bolt store should keep the manifest out of the output")
	}
	result, err := h.svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if result.PagesSkipped != 5 {
		t.Fatalf("expected 5 skipped pages, got %d", result.PagesSkipped)
	}
}

func TestManifestSetPageRequiresPageID(t *testing.T) {
	manifest := NewManifest()
	if manifest.setPage(ManifestPage{Locale: "en", Output: "a/index.html"}) {
		t.Fatalf("entry without page id must be dropped")
	}
	if manifest.setPage(ManifestPage{PageID: "not-a-uuid", Locale: "en", Output: "b/index.html"}) {
		t.Fatalf("entry with malformed page id must be dropped")
	}
	if len(manifest.Pages) != 0 {
		t.Fatalf("expected no pages, got %+v", manifest.Pages)
	}

	first := identity.PageUUID("en", "/a/")
	second := identity.PageUUID("en", "/b/")
	manifest.setPage(ManifestPage{PageID: strings.ToUpper(first.String()), Locale: "EN", Output: "a/index.html", Hash: "1"})
	manifest.setPage(ManifestPage{PageID: second.String(), Locale: "en", Output: "b/index.html", Hash: "2"})
	if len(manifest.Pages) != 2 {
		t.Fatalf("distinct pages in one locale must not collide, got %+v", manifest.Pages)
	}
	if !manifest.shouldSkipPage(first, "en", "1", "a/index.html") {
		t.Fatalf("expected normalised key lookup to match, got %+v", manifest.Pages)
	}
}

func TestParseManifestDropsEntriesWithoutPageID(t *testing.T) {
	manifest, err := parseManifest([]byte(`{"version":1,"pages":[{"locale":"en","output":"x/index.html"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(manifest.Pages) != 0 {
		t.Fatalf("expected entry without page id to be dropped, got %+v", manifest.Pages)
	}
}

func TestManifestPrune(t *testing.T) {
	manifest := sampleManifest()
	stale := manifest.prunePages(map[string]struct{}{})
	if len(stale) != 1 || stale[0] != "docs/intro/index.html" {
		t.Fatalf("unexpected stale pages %v", stale)
	}
	kept := manifest.pruneAssets(map[string]struct{}{assetKey("static", "img/logo.svg"): {}})
	if len(kept) != 0 || len(manifest.Assets) != 1 {
		t.Fatalf("listed assets must be kept, stale=%v", kept)
	}
}
