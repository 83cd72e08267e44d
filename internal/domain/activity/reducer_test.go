package activity_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func rec(id string, agent activity.AgentType, status activity.Status, msg string) activity.Record {
	return activity.Record{
		ID:        id,
		AgentType: agent,
		Status:    status,
		Message:   msg,
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestReduce_AddPreservesInsertionOrder(t *testing.T) {
	var state []activity.Record
	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		next, err := activity.Reduce(state, activity.Add(rec(id, activity.AgentPolicyEngine, activity.StatusProcessing, "step "+id)))
		require.NoError(t, err)
		state = next
	}

	require.Len(t, state, len(ids))
	for i, id := range ids {
		require.Equal(t, id, state[i].ID)
	}
}

func TestReduce_AddRejectsDuplicateID(t *testing.T) {
	state, err := activity.Reduce(nil, activity.Add(rec("a", activity.AgentPolicyEngine, activity.StatusProcessing, "one")))
	require.NoError(t, err)

	next, err := activity.Reduce(state, activity.Add(rec("a", activity.AgentFraudDetector, activity.StatusProcessing, "two")))
	require.ErrorIs(t, err, activity.ErrDuplicateID)
	require.Equal(t, state, next)
}

func TestReduce_AddValidation(t *testing.T) {
	cases := []struct {
		name string
		rec  activity.Record
	}{
		{"missing id", rec("", activity.AgentPolicyEngine, activity.StatusProcessing, "m")},
		{"unknown agent", rec("x", "travel-gnome", activity.StatusProcessing, "m")},
		{"unknown status", rec("x", activity.AgentPolicyEngine, "sleeping", "m")},
		{"blank message", rec("x", activity.AgentPolicyEngine, activity.StatusProcessing, "  ")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := activity.Reduce(nil, activity.Add(tc.rec))
			require.ErrorIs(t, err, activity.ErrInvalidInput)
		})
	}

	bad := rec("x", activity.AgentPolicyEngine, activity.StatusProcessing, "m")
	bad.Progress = activity.IntPtr(101)
	_, err := activity.Reduce(nil, activity.Add(bad))
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}

func TestReduce_UpdateChangesOnlyTargetStatus(t *testing.T) {
	first := rec("r1", activity.AgentReceiptConcierge, activity.StatusProcessing, "Scanning receipt")
	first.Progress = activity.IntPtr(40)
	second := rec("r2", activity.AgentPolicyEngine, activity.StatusProcessing, "Checking policy")
	state := []activity.Record{first, second}

	next, err := activity.Reduce(state, activity.Update("r1", activity.Patch{Status: activity.StatusPtr(activity.StatusCompleted)}))
	require.NoError(t, err)

	want := first
	want.Status = activity.StatusCompleted
	require.Equal(t, want, next[0])
	require.Equal(t, second, next[1])
	// The input is not mutated.
	require.Equal(t, activity.StatusProcessing, state[0].Status)
}

func TestReduce_UpdateUnknownIDIsNoop(t *testing.T) {
	state := []activity.Record{rec("r1", activity.AgentReceiptConcierge, activity.StatusProcessing, "Scanning")}

	next, err := activity.Reduce(state, activity.Update("missing", activity.Patch{Status: activity.StatusPtr(activity.StatusCompleted)}))
	require.NoError(t, err)
	require.Equal(t, state, next)
	require.Same(t, &state[0], &next[0])
}

func TestReduce_UpdateMergesFieldsAndTouches(t *testing.T) {
	state := []activity.Record{rec("r1", activity.AgentBookingOrchestrator, activity.StatusActive, "Searching flights")}
	at := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)

	a := activity.Update("r1", activity.Patch{
		Message:  activity.StringPtr("Holding seat 14C"),
		Progress: activity.IntPtr(70),
		Touch:    true,
	})
	a.At = at
	next, err := activity.Reduce(state, a)
	require.NoError(t, err)
	require.Equal(t, "Holding seat 14C", next[0].Message)
	require.Equal(t, 70, *next[0].Progress)
	require.Equal(t, at, next[0].Timestamp)
	require.Equal(t, activity.StatusActive, next[0].Status)
}

func TestReduce_UpdateRejectsIllegalTransition(t *testing.T) {
	state := []activity.Record{rec("r1", activity.AgentFraudDetector, activity.StatusCompleted, "Scored")}

	next, err := activity.Reduce(state, activity.Update("r1", activity.Patch{Status: activity.StatusPtr(activity.StatusProcessing)}))
	require.ErrorIs(t, err, activity.ErrInvalidTransition)
	require.Equal(t, state, next)
}

func TestReduce_ClearAlwaysEmpties(t *testing.T) {
	for n := 0; n < 4; n++ {
		t.Run(fmt.Sprintf("%d records", n), func(t *testing.T) {
			var state []activity.Record
			for i := 0; i < n; i++ {
				state = append(state, rec(fmt.Sprintf("r%d", i), activity.AgentBudgetAdvisor, activity.StatusCompleted, "done"))
			}
			next, err := activity.Reduce(state, activity.Clear())
			require.NoError(t, err)
			require.Empty(t, next)
		})
	}
}

func TestReduce_SetReplacesAtomically(t *testing.T) {
	state := []activity.Record{rec("old", activity.AgentBudgetAdvisor, activity.StatusCompleted, "old")}
	replacement := []activity.Record{
		rec("n1", activity.AgentExpenseAutomator, activity.StatusCompleted, "Filed"),
		rec("n2", activity.AgentComplianceGuardian, activity.StatusActive, "Reviewing"),
	}

	next, err := activity.Reduce(state, activity.Set(replacement))
	require.NoError(t, err)
	require.Equal(t, replacement, next)

	dup := append(replacement, rec("n1", activity.AgentExpenseAutomator, activity.StatusCompleted, "again"))
	next, err = activity.Reduce(state, activity.Set(dup))
	require.ErrorIs(t, err, activity.ErrDuplicateID)
	require.Equal(t, state, next)
}

func TestReduce_UnknownAction(t *testing.T) {
	_, err := activity.Reduce(nil, activity.Action{Kind: "EXPLODE"})
	require.ErrorIs(t, err, activity.ErrUnknownAction)
}

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		from, to activity.Status
		ok       bool
	}{
		{activity.StatusIdle, activity.StatusActive, true},
		{activity.StatusIdle, activity.StatusProcessing, true},
		{activity.StatusActive, activity.StatusProcessing, true},
		{activity.StatusActive, activity.StatusError, true},
		{activity.StatusProcessing, activity.StatusCompleted, true},
		{activity.StatusProcessing, activity.StatusError, true},
		{activity.StatusProcessing, activity.StatusProcessing, true},
		{activity.StatusIdle, activity.StatusCompleted, false},
		{activity.StatusIdle, activity.StatusError, false},
		{activity.StatusCompleted, activity.StatusActive, false},
		{activity.StatusError, activity.StatusProcessing, false},
		{activity.StatusProcessing, activity.StatusIdle, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			err := activity.ValidateTransition(tc.from, tc.to)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, activity.ErrInvalidTransition)
			}
		})
	}
}
