package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fortio.org/safecast"
)

// FileSet holds every file read during a build. It is safe for concurrent
// use; shaders are loaded from several goroutines.
type FileSet struct {
	mu    sync.RWMutex
	files []*File
	index map[string]FileID // path -> latest id
	root  string
}

// NewFileSet creates an empty FileSet reading files below root.
func NewFileSet(root string) *FileSet {
	return &FileSet{index: make(map[string]FileID), root: root}
}

// Root returns the directory paths are relative to.
func (fs *FileSet) Root() string {
	return fs.root
}

// Add stores content under path and returns its id. Re-adding a path
// creates a new id; lookups by path return the latest one.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	p := normalizePath(path)
	f := &File{
		Path:    p,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	f.ID = FileID(n)
	fs.files = append(fs.files, f)
	fs.index[p] = f.ID
	return f.ID
}

// AddVirtual adds an in-memory file. Its text is normalized like a loaded one.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	content, flags := Normalize(content)
	return fs.Add(name, content, flags|FileVirtual)
}

// Load reads a root-relative, slash-separated path from disk.
func (fs *FileSet) Load(rel string) (FileID, error) {
	// #nosec G304 -- rel is checked against the project root by the caller
	content, err := os.ReadFile(filepath.Join(fs.root, filepath.FromSlash(rel)))
	if err != nil {
		return 0, err
	}
	content, flags := Normalize(content)
	return fs.Add(rel, content, flags), nil
}

// Get returns the file with the given id.
func (fs *FileSet) Get(id FileID) *File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if int(id) >= len(fs.files) {
		return nil
	}
	return fs.files[id]
}

// GetLatest returns the latest id added for path.
func (fs *FileSet) GetLatest(path string) (FileID, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	id, ok := fs.index[normalizePath(path)]
	return id, ok
}

// GetByPath returns the latest file added for path.
func (fs *FileSet) GetByPath(path string) (*File, bool) {
	id, ok := fs.GetLatest(path)
	if !ok {
		return nil, false
	}
	return fs.Get(id), true
}

// Len returns the number of files added.
func (fs *FileSet) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.files)
}

// Resolve converts a span into line and column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// LineSpan returns the span of a 1-based line without its newline. An
// out-of-range line yields an empty span at the end of the file.
func (fs *FileSet) LineSpan(id FileID, line int) Span {
	f := fs.Get(id)
	if f == nil {
		return Span{File: id}
	}
	start, end := f.lineBounds(line)
	return Span{File: id, Start: start, End: end}
}

func (f *File) lineBounds(line int) (uint32, uint32) {
	size := uint32(len(f.Content)) // #nosec G115 -- Add bounds the file count, content is read whole
	if line <= 0 || line > len(f.LineIdx)+1 {
		return size, size
	}
	var start uint32
	if line > 1 {
		start = f.LineIdx[line-2] + 1
	}
	end := size
	if line-1 < len(f.LineIdx) {
		end = f.LineIdx[line-1]
	}
	return start, end
}

// GetLine returns the text of a 1-based line, or "" when out of range.
func (f *File) GetLine(line uint32) string {
	n, err := safecast.Conv[int](line)
	if err != nil {
		return ""
	}
	start, end := f.lineBounds(n)
	return string(f.Content[start:end])
}
