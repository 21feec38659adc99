package generator

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

const themeAssetDir = "assets"

type assetKind string

const (
	assetStatic assetKind = "static"
	assetTheme  assetKind = "theme"
)

// assetSource is one file copied verbatim into the output.
type assetSource struct {
	kind   assetKind
	fsys   fs.FS
	source string
	output string
}

func (a assetSource) key() string {
	return assetKey(string(a.kind), a.source)
}

type assetCopySummary struct {
	Built   int
	Skipped int
}

// collectAssets lists static files followed by theme assets. Theme assets are
// nested under assets/.
func (s *service) collectAssets(selection *gotheme.Selection) []assetSource {
	var assets []assetSource
	if s.deps.Static != nil {
		_ = fs.WalkDir(s.deps.Static, ".", func(name string, entry fs.DirEntry, err error) error {
			if err != nil {
				s.logger.Warn("static asset walk failed", "path", name, "error", err)
				return nil
			}
			if entry.IsDir() {
				return nil
			}
			assets = append(assets, assetSource{
				kind:   assetStatic,
				fsys:   s.deps.Static,
				source: name,
				output: name,
			})
			return nil
		})
	}

	if themeFS := s.themeFiles(); themeFS != nil {
		for _, asset := range collectManifestAssets(selection) {
			assets = append(assets, assetSource{
				kind:   assetTheme,
				fsys:   themeFS,
				source: asset,
				output: path.Join(themeAssetDir, asset),
			})
		}
	}
	return assets
}

func (s *service) copyAssets(
	ctx context.Context,
	writer artifactWriter,
	dirCache map[string]struct{},
	scope *renderScope,
	keys map[string]struct{},
) (assetCopySummary, error) {
	summary := assetCopySummary{}
	for _, asset := range s.collectAssets(scope.buildCtx.Theme) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		data, err := fs.ReadFile(asset.fsys, asset.source)
		if err != nil {
			return summary, fmt.Errorf("generator: read %s asset %s: %w", asset.kind, asset.source, err)
		}
		key := asset.key()
		keys[key] = struct{}{}
		checksum := computeHash(data)
		if scope.skip && scope.manifest.shouldSkipAsset(key, checksum, asset.output) {
			summary.Skipped++
			continue
		}
		if err := ensureDir(ctx, writer, dirCache, parentDir(asset.output)); err != nil {
			return summary, err
		}
		category := categoryStatic
		if asset.kind == assetTheme {
			category = categoryAsset
		}
		req := writeFileRequest{
			Path:        asset.output,
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Category:    category,
			ContentType: detectAssetContentType(asset.output),
			Checksum:    checksum,
			Metadata: map[string]string{
				"asset":  asset.source,
				"source": string(asset.kind),
			},
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return summary, fmt.Errorf("generator: write %s: %w", asset.output, err)
		}
		summary.Built++
		scope.manifest.setAsset(ManifestAsset{
			Key:      key,
			Source:   asset.source,
			Output:   asset.output,
			Checksum: checksum,
			Size:     int64(len(data)),
			CopiedAt: scope.buildCtx.GeneratedAt,
		})
	}
	return summary, nil
}

func collectManifestAssets(selection *gotheme.Selection) []string {
	if selection == nil || selection.Manifest == nil {
		return nil
	}

	assets := selection.Manifest.Assets.Files
	if variant := strings.TrimSpace(selection.Variant); variant != "" {
		if v, ok := selection.Manifest.Variants[variant]; ok && len(v.Assets.Files) > 0 {
			merged := make(map[string]string, len(selection.Manifest.Assets.Files)+len(v.Assets.Files))
			for key, path := range selection.Manifest.Assets.Files {
				merged[key] = path
			}
			for key, path := range v.Assets.Files {
				merged[key] = path
			}
			assets = merged
		}
	}

	seen := map[string]struct{}{}
	var out []string
	for _, asset := range assets {
		asset = strings.TrimPrefix(strings.TrimSpace(asset), "/")
		if asset == "" {
			continue
		}
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}
		out = append(out, filepath.ToSlash(asset))
	}
	sort.Strings(out)
	return out
}

func detectAssetContentType(asset string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(asset), "."))
	switch ext {
	case "css":
		return "text/css"
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "ico":
		return "image/x-icon"
	case "txt":
		return "text/plain; charset=utf-8"
	case "html":
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
