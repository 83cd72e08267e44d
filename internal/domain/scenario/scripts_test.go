package scenario

import (
	"testing"
	"time"

	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/policy"
	"github.com/stretchr/testify/require"
)

// Every built-in script must replay cleanly through the strict reducer with
// steps no more than 2.5s apart.
func TestCatalog_ScriptsReplayStrict(t *testing.T) {
	catalog := NewCatalog(policy.DefaultRules())
	require.Len(t, catalog.List(), 8)

	for _, s := range catalog.List() {
		for _, amount := range []float64{0, 10, 150, 900} {
			plan, err := catalog.Plan(s.Name, Params{Amount: amount})
			require.NoError(t, err, s.Name)

			if s.Static {
				require.True(t, plan.IsStatic())
				_, err := activity.Reduce(nil, activity.Set(plan.Records()))
				require.NoError(t, err, s.Name)
				continue
			}

			var state []activity.Record
			var last time.Duration
			for _, step := range plan.Steps() {
				require.LessOrEqual(t, step.At-last, 2500*time.Millisecond, s.Name)
				last = step.At
				state, err = activity.Reduce(state, step.Action)
				require.NoError(t, err, s.Name)
			}
			require.NotEmpty(t, state, s.Name)
			require.Equal(t, activity.StatusProcessing, plan.Steps()[0].Action.Record.Status, s.Name)
			for _, r := range state {
				require.Contains(t, s.Agents, r.AgentType, s.Name)
				require.NotEqual(t, activity.StatusProcessing, r.Status, "%s left %s processing", s.Name, r.AgentType)
			}
		}
	}
}

func TestCatalog_FraudEscalation(t *testing.T) {
	catalog := NewCatalog(policy.DefaultRules())

	agents := func(amount float64) []activity.AgentType {
		plan, err := catalog.Plan(FraudCheck, Params{Merchant: "Acme", Amount: amount})
		require.NoError(t, err)
		var out []activity.AgentType
		for _, s := range plan.Steps() {
			if s.Action.Kind == activity.ActionAdd {
				out = append(out, s.Action.Record.AgentType)
			}
		}
		return out
	}

	require.Equal(t, []activity.AgentType{activity.AgentFraudDetector}, agents(120))
	require.Equal(t, []activity.AgentType{activity.AgentFraudDetector, activity.AgentComplianceGuardian}, agents(800))
}

func TestCatalog_RulesDriveMessages(t *testing.T) {
	rules := policy.DefaultRules()
	rules.ReceiptThreshold = 75
	catalog := NewCatalog(rules)

	plan, err := catalog.Plan(ExpenseFlow, Params{Amount: 60})
	require.NoError(t, err)

	var messages []string
	for _, s := range plan.Steps() {
		if s.Action.Kind == activity.ActionUpdate && s.Action.Patch.Message != nil {
			messages = append(messages, *s.Action.Patch.Message)
		}
	}
	require.Contains(t, messages, "Policy check passed - no receipt required under $75")
}

func TestCatalog_Unknown(t *testing.T) {
	catalog := NewCatalog(policy.DefaultRules())
	_, err := catalog.Get("missing")
	require.ErrorIs(t, err, ErrUnknownScenario)
	_, err = catalog.Plan("missing", Params{})
	require.ErrorIs(t, err, ErrUnknownScenario)
}

func TestParams_NormalizeAndValidate(t *testing.T) {
	p := Params{Merchant: "  Café   du  Monde ", Destination: "\tSan  Francisco"}.Normalize()
	require.Equal(t, "Café du Monde", p.Merchant)
	require.Equal(t, "San Francisco", p.Destination)
	require.NoError(t, p.Validate())

	long := make([]rune, maxTextLength+1)
	for i := range long {
		long[i] = 'x'
	}
	require.ErrorIs(t, Params{Department: string(long)}.Validate(), ErrInvalidParams)
	require.ErrorIs(t, Params{Amount: maxAmount + 1}.Validate(), ErrInvalidParams)
}

func TestPlan_BatchesGroupEqualOffsets(t *testing.T) {
	var plan Plan
	a := plan.Add(0, activity.AgentPolicyEngine, activity.StatusProcessing, "a", nil)
	plan.Complete(time.Second, a, "done")
	b := plan.Add(time.Second, activity.AgentBudgetAdvisor, activity.StatusProcessing, "b", nil)
	plan.Complete(500*time.Millisecond+time.Second, b, "done")

	batches := plan.batches()
	require.Len(t, batches, 3)
	require.Len(t, batches[1].actions, 2)
	require.Equal(t, activity.ActionUpdate, batches[1].actions[0].Kind)
	require.Equal(t, activity.ActionAdd, batches[1].actions[1].Kind)
	require.Equal(t, 1500*time.Millisecond, plan.Duration())
}
