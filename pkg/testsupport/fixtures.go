package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// LoadFixture reads a fixture file.
func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// CopyFixture copies the fixture at src into dir under its base name and
// returns the new path.
func CopyFixture(t testing.TB, src, dir string) string {
	t.Helper()
	data, err := LoadFixture(src)
	if err != nil {
		t.Fatalf("load fixture %s: %v", src, err)
	}
	return WriteFile(t, dir, filepath.Base(src), string(data))
}

// WriteFile writes body to dir/name, creating parent directories, and
// returns the path.
func WriteFile(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
