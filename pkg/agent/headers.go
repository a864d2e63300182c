package agent

import "strings"

// FlattenHeaders returns a single-valued view of headers keyed by lower-cased
// name, keeping the first value of each. Names with no values are skipped.
func FlattenHeaders(headers map[string][]string) map[string]string {
	flat := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		key := strings.ToLower(name)
		if _, seen := flat[key]; seen {
			continue
		}
		flat[key] = values[0]
	}
	return flat
}
