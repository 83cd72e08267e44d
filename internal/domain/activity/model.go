package activity

import "time"

// AgentType identifies the simulated agent persona behind a record.
type AgentType string

const (
	AgentReceiptConcierge      AgentType = "receipt-concierge"
	AgentPolicyEngine          AgentType = "policy-engine"
	AgentFraudDetector         AgentType = "fraud-detector"
	AgentBookingOrchestrator   AgentType = "booking-orchestrator"
	AgentBudgetAdvisor         AgentType = "budget-advisor"
	AgentSustainabilityAdvisor AgentType = "sustainability-advisor"
	AgentExpenseAutomator      AgentType = "expense-automator"
	AgentComplianceGuardian    AgentType = "compliance-guardian"
)

// AgentTypes lists every agent persona in display order.
var AgentTypes = []AgentType{
	AgentReceiptConcierge,
	AgentPolicyEngine,
	AgentFraudDetector,
	AgentBookingOrchestrator,
	AgentBudgetAdvisor,
	AgentSustainabilityAdvisor,
	AgentExpenseAutomator,
	AgentComplianceGuardian,
}

// Valid reports whether a is a known agent type.
func (a AgentType) Valid() bool {
	for _, known := range AgentTypes {
		if a == known {
			return true
		}
	}
	return false
}

// Status is the lifecycle tag of a record.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusActive     Status = "active"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusActive, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Working reports whether an agent is still busy on the record.
func (s Status) Working() bool {
	return s == StatusActive || s == StatusProcessing
}

// Record is one simulated step of agent work.
type Record struct {
	ID        string         `json:"id"`
	AgentType AgentType      `json:"agent_type"`
	Status    Status         `json:"status"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Progress  *int           `json:"progress,omitempty"`
	Duration  *time.Duration `json:"duration,omitempty"`
}

// Patch holds the fields an update merges into a record. Nil fields are left
// untouched. Touch stamps the record with the store clock.
type Patch struct {
	Status   *Status        `json:"status,omitempty"`
	Message  *string        `json:"message,omitempty"`
	Progress *int           `json:"progress,omitempty"`
	Duration *time.Duration `json:"duration,omitempty"`
	Touch    bool           `json:"touch,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && p.Message == nil && p.Progress == nil && p.Duration == nil && !p.Touch
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// StatusPtr returns a pointer to s.
func StatusPtr(s Status) *Status {
	return &s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

func cloneRecord(r Record) Record {
	out := r
	if r.Progress != nil {
		out.Progress = IntPtr(*r.Progress)
	}
	if r.Duration != nil {
		d := *r.Duration
		out.Duration = &d
	}
	return out
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = cloneRecord(r)
	}
	return out
}
