package project

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"shaderpipe/internal/shader"
)

// ListShaders returns the root-relative slash paths of every shader entry
// file under root, sorted. Directories in skip (absolute paths) and
// hidden directories are not descended into.
func ListShaders(root string, skip ...string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && (strings.HasPrefix(d.Name(), ".") || skipped(p, skip)) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := shader.StageFromPath(p); !ok {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(out)
	return out, nil
}

func skipped(p string, skip []string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, s := range skip {
		if s != "" && abs == filepath.Clean(s) {
			return true
		}
	}
	return false
}
