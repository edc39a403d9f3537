package shader

import "strings"

// Platform identifies a build target as architecture-os.
type Platform string

const (
	PlatformX86_64Linux    Platform = "x86_64-linux"
	PlatformArm64Linux     Platform = "arm64-linux"
	PlatformX86_64MacOS    Platform = "x86_64-macos"
	PlatformArm64MacOS     Platform = "arm64-macos"
	PlatformX86Win32       Platform = "x86-win32"
	PlatformX86_64Win32    Platform = "x86_64-win32"
	PlatformArm64IOS       Platform = "arm64-ios"
	PlatformX86_64IOS      Platform = "x86_64-ios"
	PlatformArmv7Android   Platform = "armv7-android"
	PlatformArm64Android   Platform = "arm64-android"
	PlatformJSWeb          Platform = "js-web"
	PlatformWasmWeb        Platform = "wasm-web"
	PlatformWasmPthreadWeb Platform = "wasm_pthread-web"
	PlatformArm64NX64      Platform = "arm64-nx64"
)

// ParsePlatform normalises a platform string. Unknown platforms are kept
// as-is; the compiler rejects them when it looks up the language table.
func ParsePlatform(s string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(s)))
}

// OS returns the part after the architecture.
func (p Platform) OS() string {
	if i := strings.IndexByte(string(p), '-'); i >= 0 {
		return string(p)[i+1:]
	}
	return string(p)
}
