package include

import (
	"path"
	"strings"
)

// CleanPath normalises a project-relative path. A leading slash means
// project-root-absolute and is dropped. ok is false when the path is empty
// or climbs above the project root.
func CleanPath(p string) (clean string, ok bool) {
	return join(nil, p)
}

// resolvePath resolves token as written in an include directive of file from.
func resolvePath(from, token string) (string, bool) {
	if strings.HasPrefix(token, "/") {
		return join(nil, token)
	}
	dir := path.Dir(from)
	var base []string
	if dir != "." && dir != "/" {
		base = strings.Split(strings.Trim(dir, "/"), "/")
	}
	return join(base, token)
}

func join(base []string, p string) (string, bool) {
	segs := append([]string(nil), base...)
	for _, s := range strings.Split(strings.ReplaceAll(p, "\\", "/"), "/") {
		switch s {
		case "", ".":
			continue
		case "..":
			if len(segs) == 0 {
				return "", false
			}
			segs = segs[:len(segs)-1]
		default:
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return "", false
	}
	return strings.Join(segs, "/"), true
}
