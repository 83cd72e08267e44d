package scenario

import (
	"sort"
	"time"

	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/google/uuid"
)

// Step is one store mutation scheduled at an offset from the run start.
type Step struct {
	At     time.Duration   `json:"at"`
	Action activity.Action `json:"action"`
}

// Plan is the ordered list of mutations a script produces. A static plan
// replaces the store contents in one SET_ACTIVITIES instead.
type Plan struct {
	steps  []Step
	static []activity.Record
}

// Add schedules a new record and returns its id.
func (p *Plan) Add(at time.Duration, agent activity.AgentType, status activity.Status, message string, progress *int) string {
	id := uuid.NewString()
	p.steps = append(p.steps, Step{At: at, Action: activity.Add(activity.Record{
		ID:        id,
		AgentType: agent,
		Status:    status,
		Message:   message,
		Progress:  progress,
	})})
	return id
}

// Update schedules a patch against id. Scheduled updates always touch the
// record so its timestamp follows the simulated work.
func (p *Plan) Update(at time.Duration, id string, patch activity.Patch) {
	patch.Touch = true
	p.steps = append(p.steps, Step{At: at, Action: activity.Update(id, patch)})
}

// Progress schedules a progress and message change.
func (p *Plan) Progress(at time.Duration, id string, pct int, message string) {
	p.Update(at, id, activity.Patch{Progress: activity.IntPtr(pct), Message: activity.StringPtr(message)})
}

// Status schedules a status and message change.
func (p *Plan) Status(at time.Duration, id string, status activity.Status, message string) {
	p.Update(at, id, activity.Patch{Status: activity.StatusPtr(status), Message: activity.StringPtr(message)})
}

// Complete schedules completion at 100%.
func (p *Plan) Complete(at time.Duration, id string, message string) {
	p.Update(at, id, activity.Patch{
		Status:   activity.StatusPtr(activity.StatusCompleted),
		Message:  activity.StringPtr(message),
		Progress: activity.IntPtr(100),
	})
}

// Static marks the plan as a fixed view of records.
func (p *Plan) Static(records ...activity.Record) {
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		p.static = append(p.static, r)
	}
}

// IsStatic reports whether the plan is a single SET_ACTIVITIES.
func (p *Plan) IsStatic() bool {
	return len(p.static) > 0
}

// Records returns the static records.
func (p *Plan) Records() []activity.Record {
	out := make([]activity.Record, len(p.static))
	copy(out, p.static)
	return out
}

// Steps returns the steps ordered by offset; equal offsets keep the order
// they were added in.
func (p *Plan) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At < out[j].At })
	return out
}

// Duration is the offset of the last step.
func (p *Plan) Duration() time.Duration {
	var last time.Duration
	for _, s := range p.steps {
		if s.At > last {
			last = s.At
		}
	}
	return last
}

type batch struct {
	at      time.Duration
	actions []activity.Action
}

func (p *Plan) batches() []batch {
	var out []batch
	for _, s := range p.Steps() {
		if n := len(out); n > 0 && out[n-1].at == s.At {
			out[n-1].actions = append(out[n-1].actions, s.Action)
			continue
		}
		out = append(out, batch{at: s.At, actions: []activity.Action{s.Action}})
	}
	return out
}
