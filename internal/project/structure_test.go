package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("placeholder"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultManifestParses(t *testing.T) {
	m, err := DefaultManifest()
	if err != nil {
		t.Fatalf("DefaultManifest: %v", err)
	}
	files, ok := m.Folders["charts/unityexpress"]
	if !ok {
		t.Fatal("chart folder missing from default manifest")
	}
	found := false
	for _, f := range files {
		if f == "templates/api-hpa.yaml" {
			found = true
		}
	}
	if !found {
		t.Fatal("api-hpa.yaml missing from chart file list")
	}
}

func TestVerifyCompleteTree(t *testing.T) {
	root := t.TempDir()
	m := Manifest{Folders: map[string][]string{
		"api-server": {"Dockerfile", "src/index.js"},
		"monitoring": {"prometheus-adapter-values.yaml"},
	}}
	writeFile(t, filepath.Join(root, "api-server", "Dockerfile"))
	writeFile(t, filepath.Join(root, "api-server", "src", "index.js"))
	writeFile(t, filepath.Join(root, "monitoring", "prometheus-adapter-values.yaml"))

	if missing := m.Verify(root); len(missing) != 0 {
		t.Fatalf("expected no missing entries, got %v", missing)
	}
}

func TestVerifyReportsMissingEntries(t *testing.T) {
	root := t.TempDir()
	m := Manifest{Folders: map[string][]string{
		"api-server": {"Dockerfile", "src/index.js"},
		"web-server": {"nginx.conf"},
	}}
	writeFile(t, filepath.Join(root, "api-server", "Dockerfile"))

	missing := m.Verify(root)
	want := map[string]bool{
		"api-server/src/index.js": true,
		"web-server/":             true,
	}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %d entries", missing, len(want))
	}
	for _, entry := range missing {
		if !want[filepath.ToSlash(entry)] {
			t.Fatalf("unexpected missing entry %q in %v", entry, missing)
		}
	}
}

func TestLoadManifestRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "structure.yaml")
	if err := os.WriteFile(path, []byte("folders: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for empty manifest")
	}
}
