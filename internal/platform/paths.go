package platform

import (
	"runtime"
	"strings"
)

// MoveStrategy is how a run folder is carried to its destination
type MoveStrategy string

const (
	// MoveRename renames in place and falls back to copy then delete across devices
	MoveRename MoveStrategy = "rename"
	// MoveCopy always copies the tree and deletes the source once the copy is complete
	MoveCopy MoveStrategy = "copy"
)

// Profile is the per-platform relocation setup
type Profile struct {
	DefaultRoot string
	Strategy    MoveStrategy
}

// Default destination roots
const (
	LinuxRoot   = "/home/phiro/"
	MacOSRoot   = "/Volumes/huge/media/youtube/"
	WindowsRoot = "M:/youtube/"
)

var profiles = map[string]Profile{
	"linux":   {DefaultRoot: LinuxRoot, Strategy: MoveRename},
	"macos":   {DefaultRoot: MacOSRoot, Strategy: MoveRename},
	"darwin":  {DefaultRoot: MacOSRoot, Strategy: MoveRename},
	"windows": {DefaultRoot: WindowsRoot, Strategy: MoveCopy},
}

// Current is the identity of the host platform
func Current() string {
	return runtime.GOOS
}

// ProfileFor looks up the relocation profile for platformID.
// Unknown platforms get no default root and the rename strategy.
func ProfileFor(platformID string) (Profile, bool) {
	p, ok := profiles[strings.ToLower(platformID)]
	if !ok {
		return Profile{Strategy: MoveRename}, false
	}
	return p, true
}

// Resolve returns override verbatim when set, otherwise the default root of platformID.
// An unrecognized platform without override resolves to "".
func Resolve(override, platformID string) string {
	if override != "" {
		return override
	}
	p, _ := ProfileFor(platformID)
	return p.DefaultRoot
}
