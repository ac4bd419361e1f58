// Package workspace locates Python source files and derives the package
// structure analysis needs: source roots and dotted package paths.
package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func NormalizeRepoPath(path string) (string, error) {
	if path == "" {
		path = "."
	}
	return filepath.Abs(path)
}

// PythonFiles walks rootPath and returns every .py file in lexical order,
// skipping virtualenvs, caches, and build output. A rootPath that is
// itself a .py file is returned as the single entry.
func PythonFiles(rootPath string) ([]string, error) {
	normalized, err := NormalizeRepoPath(rootPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(normalized)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{normalized}, nil
	}

	var files []string
	err = filepath.WalkDir(normalized, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != normalized && shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".py") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func shouldSkipDir(name string) bool {
	switch name {
	case ".git", "__pycache__", ".venv", "venv", ".mypy_cache", ".pytest_cache", ".tox", ".eggs", "node_modules", "dist", "build":
		return true
	}
	return strings.HasSuffix(name, ".egg-info")
}

// Roots is the detected project layout: packages under a src/ directory
// are first-party, packages at the repository top level are local.
type Roots struct {
	FirstParty []string
	Local      []string
}

// DetectRoots inspects the top of the tree for Python packages. The
// results seed the classifier when configuration declares no roots.
func DetectRoots(rootPath string) (Roots, error) {
	normalized, err := NormalizeRepoPath(rootPath)
	if err != nil {
		return Roots{}, err
	}
	var roots Roots
	roots.FirstParty, err = packageDirs(filepath.Join(normalized, "src"))
	if err != nil {
		return Roots{}, err
	}
	roots.Local, err = packageDirs(normalized)
	if err != nil {
		return Roots{}, err
	}
	return roots, nil
}

func packageDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || shouldSkipDir(entry.Name()) {
			continue
		}
		marker := filepath.Join(dir, entry.Name(), "__init__.py")
		if _, statErr := os.Stat(marker); statErr == nil {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// PackagePath returns the dotted package containing filePath, walking
// upward from its directory while __init__.py markers are present. It
// returns "" for files outside any package.
func PackagePath(rootPath, filePath string) string {
	normalized, err := NormalizeRepoPath(rootPath)
	if err != nil {
		return ""
	}
	absolute, err := filepath.Abs(filePath)
	if err != nil {
		return ""
	}

	dir := filepath.Dir(absolute)
	var segments []string
	for strings.HasPrefix(dir, normalized) && dir != normalized {
		if _, statErr := os.Stat(filepath.Join(dir, "__init__.py")); statErr != nil {
			break
		}
		segments = append([]string{filepath.Base(dir)}, segments...)
		dir = filepath.Dir(dir)
	}
	return strings.Join(segments, ".")
}
