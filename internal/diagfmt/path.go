package diagfmt

import (
	"path"
	"path/filepath"

	"shaderpipe/internal/source"
)

// autoPathLimit is the longest path PathModeAuto prints in full.
const autoPathLimit = 48

func displayPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	if f == nil {
		return ""
	}
	switch mode {
	case PathModeAbsolute:
		if f.Flags&source.FileVirtual != 0 || fs.Root() == "" {
			return f.Path
		}
		if abs, err := filepath.Abs(filepath.Join(fs.Root(), filepath.FromSlash(f.Path))); err == nil {
			return filepath.ToSlash(abs)
		}
		return f.Path
	case PathModeBasename:
		return path.Base(f.Path)
	case PathModeAuto:
		if len(f.Path) > autoPathLimit {
			return path.Base(f.Path)
		}
	}
	return f.Path
}
