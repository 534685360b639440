// Package security centralizes the path classification used to decide
// which files the scanner may record and the cleaner may delete.
package security

import (
	"path/filepath"
	"strings"
)

// Classifier answers the safety questions asked throughout a scan and
// cleanup run: is this path excluded from walking, is it a system file,
// is it critical (never deletable), is it in a preferred location.
type Classifier struct {
	excludedPaths      []string
	systemPaths        []string
	criticalPaths      []string
	programPaths       []string
	criticalExtensions map[string]struct{}
	reservedNames      map[string]struct{}
}

// Lists configures a Classifier. Empty fields fall back to built-in
// defaults.
type Lists struct {
	ExcludedPaths []string
	SystemPaths   []string
	CriticalPaths []string
	ProgramPaths  []string
	CriticalExts  []string
	ReservedNames []string
}

// DefaultLists returns the built-in classification lists, covering both
// Unix and Windows trees so a config written on one platform stays valid
// on the other.
func DefaultLists() Lists {
	return Lists{
		ExcludedPaths: []string{
			"/proc", "/sys", "/dev", "/run",
			`C:\Windows\System32`, `C:\Windows\SysWOW64`,
			`C:\Program Files\WindowsApps`,
			`C:\$Recycle.Bin`, `C:\System Volume Information`,
		},
		SystemPaths: []string{
			"/bin", "/boot", "/etc", "/lib", "/lib64", "/sbin", "/usr",
			"/System", "/Library/System",
			`C:\Windows`, `C:\System Volume Information`, `C:\$Recycle.Bin`,
		},
		CriticalPaths: []string{
			"/bin", "/boot", "/lib", "/lib64", "/sbin",
			`C:\Windows\System32`, `C:\Windows\SysWOW64`, `C:\Windows\WinSxS`,
		},
		ProgramPaths: []string{
			"/usr/local", "/opt", "/Applications",
			`C:\Program Files`, `C:\Program Files (x86)`,
		},
		CriticalExts:  []string{".sys", ".dll", ".exe", ".drv", ".ocx", ".so", ".dylib"},
		ReservedNames: []string{"desktop.ini", "thumbs.db", "ntuser.dat", ".ds_store"},
	}
}

// NewClassifier builds a Classifier from the given lists, using defaults
// for any empty field.
func NewClassifier(lists Lists) *Classifier {
	defaults := DefaultLists()
	if len(lists.ExcludedPaths) == 0 {
		lists.ExcludedPaths = defaults.ExcludedPaths
	}
	if len(lists.SystemPaths) == 0 {
		lists.SystemPaths = defaults.SystemPaths
	}
	if len(lists.CriticalPaths) == 0 {
		lists.CriticalPaths = defaults.CriticalPaths
	}
	if len(lists.ProgramPaths) == 0 {
		lists.ProgramPaths = defaults.ProgramPaths
	}
	if len(lists.CriticalExts) == 0 {
		lists.CriticalExts = defaults.CriticalExts
	}
	if len(lists.ReservedNames) == 0 {
		lists.ReservedNames = defaults.ReservedNames
	}

	c := &Classifier{
		excludedPaths:      cleanAll(lists.ExcludedPaths),
		systemPaths:        cleanAll(lists.SystemPaths),
		criticalPaths:      cleanAll(lists.CriticalPaths),
		programPaths:       cleanAll(lists.ProgramPaths),
		criticalExtensions: make(map[string]struct{}, len(lists.CriticalExts)),
		reservedNames:      make(map[string]struct{}, len(lists.ReservedNames)),
	}
	for _, ext := range lists.CriticalExts {
		c.criticalExtensions[strings.ToLower(ext)] = struct{}{}
	}
	for _, name := range lists.ReservedNames {
		c.reservedNames[strings.ToLower(name)] = struct{}{}
	}
	return c
}

// IsExcluded reports whether a path lies under a directory the walker must
// skip entirely.
func (c *Classifier) IsExcluded(path string) bool {
	return hasAnyPrefix(path, c.excludedPaths)
}

// IsSystemFile reports whether a path is under a system directory or
// carries a reserved filename.
func (c *Classifier) IsSystemFile(path string) bool {
	if hasAnyPrefix(path, c.systemPaths) {
		return true
	}
	name := strings.ToLower(filepath.Base(path))
	if _, ok := c.reservedNames[name]; ok {
		return true
	}
	return strings.HasPrefix(name, ".")
}

// IsCritical reports whether deleting a path could destabilize the host:
// the extension is in the critical set or the path lies under a critical
// directory. Critical files are exempt from deletion regardless of
// strategy.
func (c *Classifier) IsCritical(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := c.criticalExtensions[ext]; ok {
		return true
	}
	return hasAnyPrefix(path, c.criticalPaths)
}

// IsSystemLocation reports whether a path is under a system directory,
// ignoring the reserved-name rules. Used by the keep-in-system retention
// strategy.
func (c *Classifier) IsSystemLocation(path string) bool {
	return hasAnyPrefix(path, c.systemPaths)
}

// IsProgramLocation reports whether a path is under a program install
// directory. Used by the keep-in-program-files retention strategy.
func (c *Classifier) IsProgramLocation(path string) bool {
	return hasAnyPrefix(path, c.programPaths)
}

func cleanAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, filepath.Clean(p))
	}
	return out
}

// hasAnyPrefix reports whether path equals one of the prefixes or lives
// under one of them. Matching is component-wise so /usr does not claim
// /username.
func hasAnyPrefix(path string, prefixes []string) bool {
	clean := filepath.Clean(path)
	for _, prefix := range prefixes {
		if clean == prefix {
			return true
		}
		if strings.HasPrefix(clean, prefix+string(filepath.Separator)) {
			return true
		}
		// Windows-style prefixes in config should match on any platform
		// so tests and cross-written configs behave predictably.
		if strings.HasPrefix(clean, prefix+`\`) || strings.HasPrefix(clean, prefix+`/`) {
			return true
		}
	}
	return false
}
