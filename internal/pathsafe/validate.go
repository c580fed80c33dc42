package pathsafe

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// sensitiveRoots is a fixed deny-list of OS directories a project must never
// be rooted under or escape into (§4.12). Checked case-sensitively on POSIX
// and case-insensitively on Windows.
var sensitiveRoots = []string{
	"/etc", "/var", "/usr", "/bin", "/sbin", "/lib", "/boot", "/root", "/proc", "/sys", "/dev",
}

var windowsSensitiveRoots = []string{
	`C:\Windows`, `C:\Program Files`, `C:\Program Files (x86)`, `C:\ProgramData`,
}

// secretDirNames are directory names that, anywhere in a path, mark it as
// holding user secrets and therefore off-limits regardless of root.
var secretDirNames = []string{".ssh", ".gnupg", ".aws"}

// ValidateProjectPath rejects paths containing ".." components and paths
// rooted under (or equal to) a sensitive OS directory or a secret directory.
// p must already be absolute; relative paths are rejected outright since
// they cannot be checked against absolute deny-list roots.
func ValidateProjectPath(p string) error {
	if !filepath.IsAbs(p) {
		return fmt.Errorf("project path must be absolute: %q", p)
	}

	clean := filepath.Clean(p)
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == ".." {
			return fmt.Errorf("project path must not contain '..': %q", p)
		}
	}

	norm := clean
	roots := sensitiveRoots
	if runtime.GOOS == "windows" {
		norm = strings.ToLower(clean)
		roots = make([]string, len(windowsSensitiveRoots))
		for i, r := range windowsSensitiveRoots {
			roots[i] = strings.ToLower(r)
		}
	}
	for _, root := range roots {
		if norm == root || strings.HasPrefix(norm, root+string(filepath.Separator)) {
			return fmt.Errorf("project path %q is under a protected system directory", p)
		}
	}

	for _, part := range strings.Split(clean, string(filepath.Separator)) {
		for _, secret := range secretDirNames {
			if part == secret {
				return fmt.Errorf("project path %q contains a secret directory %q", p, secret)
			}
		}
	}

	return nil
}
