// Package selection turns the --player / --ignore-player / --all-players
// flags into an ordered list of candidate player instances.
package selection

import (
	"strings"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
)

// Any is the wildcard pattern: every player not named explicitly.
const Any = "%any"

// Spec is what the user asked for.
type Spec struct {
	// Patterns are player names or instances in priority order. Empty
	// means Any.
	Patterns []string
	// Ignore removes matching players before anything else.
	Ignore []string
	// All asks acting commands to run on every candidate instead of the
	// first one.
	All bool
}

// ParseList splits a comma-separated flag value and drops empty entries.
func ParseList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// Ignored reports whether instance matches one of the ignore patterns.
func Ignored(ignore []string, instance string) bool {
	for _, pattern := range ignore {
		if mpris.NameMatches(pattern, instance) {
			return true
		}
	}
	return false
}

// Resolve orders the candidate instances for spec. stack is the current
// player order, active player first.
func Resolve(spec Spec, stack []string) []string {
	available := make([]string, 0, len(stack))
	for _, instance := range stack {
		if !Ignored(spec.Ignore, instance) {
			available = append(available, instance)
		}
	}

	patterns := spec.Patterns
	if len(patterns) == 0 {
		patterns = []string{Any}
	}

	explicit := make(map[string]bool)
	for _, pattern := range patterns {
		if pattern == Any {
			continue
		}
		for _, instance := range available {
			if mpris.NameMatches(pattern, instance) {
				explicit[instance] = true
			}
		}
	}

	seen := make(map[string]bool, len(available))
	result := make([]string, 0, len(available))
	add := func(instance string) {
		if !seen[instance] {
			seen[instance] = true
			result = append(result, instance)
		}
	}

	for _, pattern := range patterns {
		for _, instance := range available {
			if pattern == Any {
				if !explicit[instance] {
					add(instance)
				}
			} else if mpris.NameMatches(pattern, instance) {
				add(instance)
			}
		}
	}
	return result
}

// Names reports whether the patterns name a player explicitly, as opposed
// to only using the wildcard.
func (s Spec) Names(name string) bool {
	for _, pattern := range s.Patterns {
		if pattern == name {
			return true
		}
	}
	return false
}
