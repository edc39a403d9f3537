package compiler

import (
	"fmt"

	"shaderpipe/internal/shader"
)

// UnsupportedPlatformError is returned for a platform without a default
// language set.
type UnsupportedPlatformError struct {
	Platform shader.Platform
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q: no default shader languages", string(e.Platform))
}

// InvalidModulesError reports an inconsistent module list.
type InvalidModulesError struct {
	Path   string
	Reason string
}

func (e *InvalidModulesError) Error() string {
	if e.Path == "" {
		return "invalid shader modules: " + e.Reason
	}
	return e.Path + ": invalid shader modules: " + e.Reason
}
