package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Keys should be prefixed by kind so pages and records never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PageUUID identifies a generated page by locale and route.
func PageUUID(locale, route string) uuid.UUID {
	return UUID("docsite:page:" + strings.ToLower(strings.TrimSpace(locale)) + ":" + strings.TrimSpace(route))
}

// RecordUUID identifies a content record by kind and declaration index.
// Records have no natural key, so the position is part of the identity.
func RecordUUID(kind string, index int, title string) uuid.UUID {
	return UUID("docsite:record:" + strings.ToLower(strings.TrimSpace(kind)) + ":" + strconv.Itoa(index) + ":" + strings.TrimSpace(title))
}

// DocUUID identifies a markdown source by its path relative to the content root.
func DocUUID(relPath string) uuid.UUID {
	return UUID("docsite:doc:" + strings.TrimSpace(relPath))
}
