package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePackPath determines the pack file location.
//
// Precedence: packFlag, FLUORITE_PACK_PATH, pack.path, then <root>/<dir>/<name> where
// root is rootFlag, FLUORITE_ROOT_DIR, pack.root or the working directory; dir is
// FLUORITE_PACK_DIR or pack.dir, joined to root when relative; name is
// FLUORITE_PACK_NAME or pack.name with ".sqlite3" appended unless it already ends in
// ".sqlite" or ".sqlite3". An absolute name is returned as is.
func ResolvePackPath(pack PackConfig, packFlag, rootFlag string) (string, error) {
	if packFlag != "" {
		return packFlag, nil
	}
	if envPath := os.Getenv(EnvPackPath); envPath != "" {
		return envPath, nil
	}
	if pack.Path != "" {
		return pack.Path, nil
	}

	root := firstNonEmpty(rootFlag, os.Getenv(EnvRootDir), pack.Root)
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine current directory: %w", err)
		}
		root = cwd
	}

	dir := firstNonEmpty(os.Getenv(EnvPackDir), pack.Dir, DefaultPackDir)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}

	name := firstNonEmpty(os.Getenv(EnvPackName), pack.Name, DefaultPackName)
	if !strings.HasSuffix(name, ".sqlite") && !strings.HasSuffix(name, ".sqlite3") {
		name += ".sqlite3"
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Join(dir, name), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
