package shader

// Module is one entry point of a compile invocation.
type Module struct {
	Stage   Stage
	Path    string // project-relative path of the entry file, for errors
	Source  string // include-resolved source
	Version int    // from an explicit #version, 0 if absent
	Profile string
}

// BuildResult is one compiled variant. A variant with warnings is unusable;
// it is kept for diagnostics only.
type BuildResult struct {
	Language Language `msgpack:"language"`
	Stage    Stage    `msgpack:"stage"`
	Bytes    []byte   `msgpack:"bytes"`
	Warnings []string `msgpack:"-"`
}

// Usable reports whether the variant compiled without warnings.
func (r BuildResult) Usable() bool {
	return len(r.Warnings) == 0
}
