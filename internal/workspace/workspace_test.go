package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func sampleTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "other_library", "__init__.py"))
	writeFile(t, filepath.Join(root, "src", "other_library", "helpers.py"))
	writeFile(t, filepath.Join(root, "sample_project", "__init__.py"))
	writeFile(t, filepath.Join(root, "sample_project", "services", "__init__.py"))
	writeFile(t, filepath.Join(root, "sample_project", "services", "api.py"))
	writeFile(t, filepath.Join(root, "scripts", "deploy.py"))
	writeFile(t, filepath.Join(root, ".venv", "lib", "site.py"))
	writeFile(t, filepath.Join(root, "__pycache__", "stale.py"))
	writeFile(t, filepath.Join(root, "README.md"))
	return root
}

func TestNormalizeRepoPath(t *testing.T) {
	got, err := NormalizeRepoPath("")
	if err != nil {
		t.Fatalf("normalize empty path: %v", err)
	}
	want, err := filepath.Abs(".")
	if err != nil {
		t.Fatalf("abs dot: %v", err)
	}
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestPythonFilesSkipsGeneratedDirs(t *testing.T) {
	root := sampleTree(t)
	files, err := PythonFiles(root)
	if err != nil {
		t.Fatalf("python files: %v", err)
	}
	for _, file := range files {
		rel, relErr := filepath.Rel(root, file)
		if relErr != nil {
			t.Fatalf("rel: %v", relErr)
		}
		if strings.HasPrefix(rel, ".venv") || strings.HasPrefix(rel, "__pycache__") {
			t.Fatalf("generated dir not skipped: %s", rel)
		}
	}
	if len(files) != 6 {
		t.Fatalf("expected 6 source files, got %d: %v", len(files), files)
	}
}

func TestPythonFilesSingleFile(t *testing.T) {
	root := sampleTree(t)
	target := filepath.Join(root, "scripts", "deploy.py")
	files, err := PythonFiles(target)
	if err != nil {
		t.Fatalf("python files: %v", err)
	}
	if len(files) != 1 || files[0] != target {
		t.Fatalf("expected the single file back, got %v", files)
	}
}

func TestDetectRoots(t *testing.T) {
	root := sampleTree(t)
	roots, err := DetectRoots(root)
	if err != nil {
		t.Fatalf("detect roots: %v", err)
	}
	if len(roots.FirstParty) != 1 || roots.FirstParty[0] != "other_library" {
		t.Fatalf("unexpected first-party roots: %v", roots.FirstParty)
	}
	if len(roots.Local) != 1 || roots.Local[0] != "sample_project" {
		t.Fatalf("unexpected local roots: %v", roots.Local)
	}
}

func TestPackagePath(t *testing.T) {
	root := sampleTree(t)
	got := PackagePath(root, filepath.Join(root, "sample_project", "services", "api.py"))
	if got != "sample_project.services" {
		t.Fatalf("expected sample_project.services, got %q", got)
	}
	if outside := PackagePath(root, filepath.Join(root, "scripts", "deploy.py")); outside != "" {
		t.Fatalf("script outside packages got package path %q", outside)
	}
}
