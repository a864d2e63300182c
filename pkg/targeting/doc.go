// Package targeting compiles experiment targeting rules into matchers that
// select requests by method, path and headers, and samples the selected
// requests by percentage.
//
// A Matcher is immutable once compiled and safe for concurrent use:
//
//	m := targeting.Compile(exp.Targeting)
//	if m.Matches(method, path, headers) && m.ShouldApply(rng) {
//		// inject
//	}
//
// Headers passed to Matches must already be flattened to a single value per
// lower-cased name (see agent.FlattenHeaders).
package targeting
