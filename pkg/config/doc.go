// Package config provides configuration loading and validation for the
// chaos agent.
//
// Configuration is a YAML document with the fault injection sections
// (settings, safety, experiments) plus process sections (server,
// telemetry, journal):
//
//	settings:
//	  enabled: true
//	  dry_run: false
//	safety:
//	  schedule:
//	    - days: [mon, tue, wed, thu, fri]
//	      start: "09:00"
//	      end: "17:00"
//	      timezone: "Europe/Amsterdam"
//	  excluded_paths: ["/health"]
//	experiments:
//	  - id: api-latency
//	    targeting:
//	      paths:
//	        - prefix: "/api/"
//	      percentage: 10
//	    fault:
//	      type: latency
//	      fixed_ms: 500
//
// # Configuration Precedence
//
// Values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides (CHAOS_SECTION_FIELD)
//  4. Validation (fails fast if invalid)
//
// Every structural problem (duplicate ids, out-of-range percentages,
// inverted schedule windows, invalid fault parameters, bad regexes) is
// reported by Validate as a ValidationError listing all offending fields.
// The configuration is immutable once the agent is built from it.
package config
