package activity

import (
	"fmt"
	"time"
)

// ActionKind names a store mutation.
type ActionKind string

const (
	ActionAdd    ActionKind = "ADD_ACTIVITY"
	ActionUpdate ActionKind = "UPDATE_ACTIVITY"
	ActionClear  ActionKind = "CLEAR_ACTIVITIES"
	ActionSet    ActionKind = "SET_ACTIVITIES"
)

// Action is a single mutation dispatched to a store.
type Action struct {
	Kind    ActionKind `json:"kind"`
	Record  *Record    `json:"record,omitempty"`
	ID      string     `json:"id,omitempty"`
	Patch   Patch      `json:"patch,omitempty"`
	Records []Record   `json:"records,omitempty"`
	// At is the dispatch time used for Touch and missing timestamps.
	At time.Time `json:"at,omitempty"`
}

// Add builds an ADD_ACTIVITY action.
func Add(r Record) Action {
	return Action{Kind: ActionAdd, Record: &r}
}

// Update builds an UPDATE_ACTIVITY action.
func Update(id string, p Patch) Action {
	return Action{Kind: ActionUpdate, ID: id, Patch: p}
}

// Clear builds a CLEAR_ACTIVITIES action.
func Clear() Action {
	return Action{Kind: ActionClear}
}

// Set builds a SET_ACTIVITIES action.
func Set(records []Record) Action {
	return Action{Kind: ActionSet, Records: records}
}

// Reduce applies a to state with strict status transitions. It never mutates
// state; when the action changes nothing the input slice is returned as is.
func Reduce(state []Record, a Action) ([]Record, error) {
	return reduce(state, a, true)
}

func reduce(state []Record, a Action, strict bool) ([]Record, error) {
	switch a.Kind {
	case ActionAdd:
		if a.Record == nil {
			return state, fmt.Errorf("%w: add without record", ErrInvalidInput)
		}
		rec := cloneRecord(*a.Record)
		if rec.ID == "" {
			return state, fmt.Errorf("%w: record id is required", ErrInvalidInput)
		}
		if rec.Timestamp.IsZero() {
			rec.Timestamp = a.At
		}
		if err := ValidateRecord(rec); err != nil {
			return state, err
		}
		if indexOf(state, rec.ID) >= 0 {
			return state, fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		next := make([]Record, len(state), len(state)+1)
		copy(next, state)
		return append(next, rec), nil

	case ActionUpdate:
		idx := indexOf(state, a.ID)
		if idx < 0 || a.Patch.Empty() {
			return state, nil
		}
		merged, err := merge(state[idx], a.Patch, a.At, strict)
		if err != nil {
			return state, err
		}
		next := make([]Record, len(state))
		copy(next, state)
		next[idx] = merged
		return next, nil

	case ActionClear:
		return []Record{}, nil

	case ActionSet:
		next := make([]Record, 0, len(a.Records))
		seen := make(map[string]struct{}, len(a.Records))
		for _, r := range a.Records {
			rec := cloneRecord(r)
			if rec.ID == "" {
				return state, fmt.Errorf("%w: record id is required", ErrInvalidInput)
			}
			if _, dup := seen[rec.ID]; dup {
				return state, fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
			}
			if rec.Timestamp.IsZero() {
				rec.Timestamp = a.At
			}
			if err := ValidateRecord(rec); err != nil {
				return state, err
			}
			seen[rec.ID] = struct{}{}
			next = append(next, rec)
		}
		return next, nil
	}

	return state, fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
}

func merge(r Record, p Patch, at time.Time, strict bool) (Record, error) {
	out := cloneRecord(r)
	if p.Status != nil {
		if strict {
			if err := ValidateTransition(r.Status, *p.Status); err != nil {
				return r, err
			}
		} else if !p.Status.Valid() {
			return r, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *p.Status)
		}
		out.Status = *p.Status
	}
	if p.Message != nil {
		out.Message = *p.Message
	}
	if p.Progress != nil {
		if err := validateProgress(p.Progress); err != nil {
			return r, err
		}
		out.Progress = IntPtr(*p.Progress)
	}
	if p.Duration != nil {
		d := *p.Duration
		out.Duration = &d
	}
	if p.Touch && !at.IsZero() {
		out.Timestamp = at
	}
	return out, nil
}

func indexOf(state []Record, id string) int {
	for i := range state {
		if state[i].ID == id {
			return i
		}
	}
	return -1
}
