package buildpipeline

import (
	"shaderpipe/internal/include"
	"shaderpipe/internal/source"
)

// ResolveIncludes loads entry from the file set's root and expands its
// includes. Every file read ends up in fs so diagnostics can quote it.
func ResolveIncludes(fs *source.FileSet, entry string) (*include.Tree, error) {
	clean, ok := include.CleanPath(entry)
	if !ok {
		return nil, &include.OutOfRootError{Token: entry}
	}
	src, err := loadText(fs, clean)
	if err != nil {
		return nil, &include.NotFoundError{Path: clean, Err: err}
	}
	return include.Resolve(clean, src, func(path string) (string, error) {
		return loadText(fs, path)
	})
}

func loadText(fs *source.FileSet, rel string) (string, error) {
	if f, ok := fs.GetByPath(rel); ok {
		return string(f.Content), nil
	}
	id, err := fs.Load(rel)
	if err != nil {
		return "", err
	}
	return string(fs.Get(id).Content), nil
}
