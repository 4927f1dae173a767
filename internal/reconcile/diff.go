package reconcile

import "strings"

// Local-only naming convention.
const (
	localPrefix = "LOCAL_"
	localSuffix = "_LOCAL"
)

// Change holds both sides of a modified key.
type Change struct {
	Old string
	New string
}

// Diff is the four-way classification of two secret maps. Every key of the
// union appears in exactly one category or, when unchanged, in none.
type Diff struct {
	Added     map[string]string
	Modified  map[string]Change
	Removed   map[string]string
	LocalOnly map[string]string
}

// Empty reports whether all four categories are empty.
func (d *Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0 && len(d.LocalOnly) == 0
}

// IsLocalKey reports whether key matches the operator-local naming convention.
func IsLocalKey(key string) bool {
	return strings.HasPrefix(key, localPrefix) || strings.HasSuffix(key, localSuffix)
}

// Compare classifies the differences between the local and remote maps.
// Pure function: no I/O, inputs are not mutated.
func Compare(local, remote map[string]string) *Diff {
	diff := &Diff{
		Added:     make(map[string]string),
		Modified:  make(map[string]Change),
		Removed:   make(map[string]string),
		LocalOnly: make(map[string]string),
	}

	for key, remoteValue := range remote {
		localValue, ok := local[key]
		switch {
		case !ok:
			diff.Added[key] = remoteValue
		case localValue != remoteValue:
			diff.Modified[key] = Change{Old: localValue, New: remoteValue}
		}
	}

	for key, localValue := range local {
		if _, ok := remote[key]; ok {
			continue
		}
		if IsLocalKey(key) {
			diff.LocalOnly[key] = localValue
		} else {
			diff.Removed[key] = localValue
		}
	}

	return diff
}

// Apply merges a diff into the current local map and returns the result:
// added entries, modified entries at their new value, current entries that are
// neither removed nor modified, and local-only entries applied last so they
// always win. Inputs are not mutated.
func Apply(diff *Diff, current map[string]string) map[string]string {
	merged := make(map[string]string, len(current)+len(diff.Added))

	for key, value := range current {
		if _, gone := diff.Removed[key]; gone {
			continue
		}
		if _, changed := diff.Modified[key]; changed {
			continue
		}
		merged[key] = value
	}

	for key, value := range diff.Added {
		merged[key] = value
	}
	for key, change := range diff.Modified {
		merged[key] = change.New
	}
	for key, value := range diff.LocalOnly {
		merged[key] = value
	}

	return merged
}
