package rum

import "strings"

// ResourceFunc lists every resource load since the time origin. Supplied by
// the host; called on demand at assembly time, never cached.
type ResourceFunc func() []ResourceEntry

// NavigationFunc returns the current navigation timing entry, or nil when
// the host has none. Nil degrades to null fields in the envelope.
type NavigationFunc func() *NavigationTiming

// filterResources drops entries the delivery channel itself produced, so the
// telemetry beacon is never measured as page resource cost.
func filterResources(entries []ResourceEntry, selfPrefixes []string) []ResourceEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]ResourceEntry, 0, len(entries))
	for _, e := range entries {
		if isSelfResource(e.Name, selfPrefixes) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func isSelfResource(name string, selfPrefixes []string) bool {
	for _, p := range selfPrefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
