package safeio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFileUnder writes data to targetPath only if it resolves under
// rootDir. In-place fixes go through here so a crafted path can never
// escape the analyzed tree.
func WriteFileUnder(rootDir, targetPath string, data []byte) error {
	rootAbs, err := filepath.Abs(rootDir)
	if err != nil {
		return fmt.Errorf("resolve root path: %w", err)
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return fmt.Errorf("resolve target path: %w", err)
	}

	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return fmt.Errorf("compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("path escapes root: %s", targetPath)
	}

	root, err := os.OpenRoot(rootAbs)
	if err != nil {
		return fmt.Errorf("open root: %w", err)
	}
	defer root.Close()

	file, err := root.OpenFile(filepath.Clean(rel), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
