// chaos-agent injects faults into HTTP traffic according to a YAML list of
// experiments.
//
// It runs either as a decision service, answering POST /v1/decide for hosts
// that apply verdicts themselves, or as a reverse proxy in front of an
// upstream service.
//
// Usage:
//
//	# Start with a configuration file
//	chaos-agent run --config chaos.yaml
//
//	# Validate a configuration file
//	chaos-agent validate --config chaos.yaml
//
//	# Print an annotated example configuration
//	chaos-agent print-config > chaos.yaml
//
//	# Show version information
//	chaos-agent version
package main

func main() {
	Execute()
}
