// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// LoadFixture reads a file below testdata.
func LoadFixture(tb testing.TB, name string) []byte {
	tb.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		tb.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

// LoadJSON decodes a testdata JSON fixture into v.
func LoadJSON(tb testing.TB, name string, v any) {
	tb.Helper()
	if err := json.Unmarshal(LoadFixture(tb, name), v); err != nil {
		tb.Fatalf("unmarshal fixture %s: %v", name, err)
	}
}
