// Package policy decides which members of a duplicate group survive
// cleanup. The strategy set is small and fixed, so Strategy is a closed
// enum dispatched by switch rather than an interface.
package policy

import (
	"fmt"
	"sort"

	"github.com/dupesweep/dupesweep/internal/scanner"
	"github.com/dupesweep/dupesweep/internal/security"
)

// Strategy selects how a duplicate group is partitioned into keep and
// remove sets.
type Strategy int

const (
	// KeepNewest keeps the most recently modified member.
	KeepNewest Strategy = iota
	// KeepOldest keeps the least recently modified member.
	KeepOldest
	// KeepInSystem keeps every member under a system location.
	KeepInSystem
	// KeepInProgramFiles keeps every member under a program install
	// location.
	KeepInProgramFiles
)

// String returns the CLI/config name of the strategy.
func (s Strategy) String() string {
	switch s {
	case KeepNewest:
		return "newest"
	case KeepOldest:
		return "oldest"
	case KeepInSystem:
		return "system"
	case KeepInProgramFiles:
		return "program-files"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Parse maps a strategy name to its Strategy value.
func Parse(name string) (Strategy, error) {
	switch name {
	case "newest":
		return KeepNewest, nil
	case "oldest":
		return KeepOldest, nil
	case "system":
		return KeepInSystem, nil
	case "program-files":
		return KeepInProgramFiles, nil
	default:
		return 0, fmt.Errorf("unknown keep strategy: %q", name)
	}
}

// Options tunes partitioning behavior.
type Options struct {
	// KeepAtLeastOne retains the first member (path order) when a location
	// strategy matches no member at all. Off by default: the documented
	// behavior of the location strategies is that zero matches slate every
	// copy for removal.
	KeepAtLeastOne bool
}

// Partitioner partitions duplicate groups under a strategy.
type Partitioner struct {
	classifier *security.Classifier
	opts       Options
}

// NewPartitioner creates a Partitioner. The classifier supplies the
// location predicates for the system/program-files strategies.
func NewPartitioner(classifier *security.Classifier, opts Options) *Partitioner {
	return &Partitioner{classifier: classifier, opts: opts}
}

// Partition splits a group's members into a keep set and a remove set.
// The two sets always cover all members with no overlap. For the
// newest/oldest strategies exactly one member is kept; ties on
// modification time fall back to the original order (stable sort).
func (p *Partitioner) Partition(group scanner.DuplicateGroup, strategy Strategy) (keep, remove []scanner.FileRecord) {
	switch strategy {
	case KeepNewest:
		sorted := sortedByModTime(group.Files, false)
		return sorted[:1], sorted[1:]

	case KeepOldest:
		sorted := sortedByModTime(group.Files, true)
		return sorted[:1], sorted[1:]

	case KeepInSystem:
		keep, remove = splitByLocation(group.Files, p.classifier.IsSystemLocation)

	case KeepInProgramFiles:
		keep, remove = splitByLocation(group.Files, p.classifier.IsProgramLocation)
	}

	if len(keep) == 0 && p.opts.KeepAtLeastOne && len(remove) > 0 {
		keep = remove[:1]
		remove = remove[1:]
	}

	return keep, remove
}

func sortedByModTime(files []scanner.FileRecord, oldestFirst bool) []scanner.FileRecord {
	sorted := make([]scanner.FileRecord, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		if oldestFirst {
			return sorted[i].Modified.Before(sorted[j].Modified)
		}
		return sorted[i].Modified.After(sorted[j].Modified)
	})
	return sorted
}

func splitByLocation(files []scanner.FileRecord, preferred func(string) bool) (keep, remove []scanner.FileRecord) {
	for _, f := range files {
		if preferred(f.Path) {
			keep = append(keep, f)
		} else {
			remove = append(remove, f)
		}
	}
	return keep, remove
}
