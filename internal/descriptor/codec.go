package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is bumped whenever the encoded layout changes.
const SchemaVersion uint16 = 1

// Ext is the file extension suffix of descriptor artifacts: sprite.fp becomes sprite.fpc.
const Ext = "c"

// ErrSchemaMismatch reports an artifact written by an incompatible version.
var ErrSchemaMismatch = errors.New("descriptor schema mismatch")

type envelope struct {
	Schema     uint16      `msgpack:"schema"`
	Descriptor *Descriptor `msgpack:"descriptor"`
}

// Encode writes d as msgpack.
func Encode(w io.Writer, d *Descriptor) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	return enc.Encode(&envelope{Schema: SchemaVersion, Descriptor: d})
}

// Decode reads a descriptor written by Encode.
func Decode(r io.Reader) (*Descriptor, error) {
	var env envelope
	if err := msgpack.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	if env.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, env.Schema, SchemaVersion)
	}
	if env.Descriptor == nil {
		return &Descriptor{}, nil
	}
	return env.Descriptor, nil
}

// Marshal is Encode into a byte slice.
func Marshal(d *Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile stores d at path. The file is replaced atomically so a
// concurrent reader never sees a partial artifact.
func WriteFile(path string, d *Descriptor) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = Encode(f, d); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), path)
}

// ReadFile loads a descriptor artifact.
func ReadFile(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// OutputPath maps a project-relative shader path to its artifact path.
func OutputPath(outDir, rel string) string {
	return filepath.Join(outDir, filepath.FromSlash(rel)+Ext)
}
