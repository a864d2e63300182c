package agent

// Name identifies the agent in health reports.
const Name = "chaos-agent"

// faultInjectionComponent is reported as degraded while draining.
const faultInjectionComponent = "fault-injection"

// HealthState is the coarse health of the agent.
type HealthState string

const (
	Healthy  HealthState = "healthy"
	Degraded HealthState = "degraded"
)

// HealthStatus is the health contract exposed to the host.
type HealthStatus struct {
	Agent    string      `json:"agent"`
	State    HealthState `json:"status"`
	Degraded []string    `json:"degraded,omitempty"`
	Severity float64     `json:"severity,omitempty"`
}

// Health returns healthy unless the agent is draining, in which case fault
// injection is reported as degraded with full severity.
func (a *Agent) Health() HealthStatus {
	if a.IsDraining() {
		return HealthStatus{
			Agent:    Name,
			State:    Degraded,
			Degraded: []string{faultInjectionComponent},
			Severity: 1.0,
		}
	}
	return HealthStatus{Agent: Name, State: Healthy}
}
