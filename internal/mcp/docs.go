package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/ganot/agentic-te/internal/policy"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `agentic-te plays a scripted travel & expense agent demo. Named agents
(receipt concierge, policy engine, expense automator, compliance guardian, ...)
post activities into a per-session list while a scenario runs on timers.

Core concepts:
- Session: one demo walkthrough, keyed by tenant and session id.
- Stage: persona-selection -> act-selection -> demo-active.
- Persona: traveler or finance; each offers acts that start a scenario.
- Activity: {id, agent_type, status, message, timestamp, progress?}. Status is
  idle, active, processing, completed or error; completed and error are final.
- Scenario: a timed script. Starting one clears the list and cancels the
  previous run's timers.

Default workflow:
1) get_demo_state, then list_personas.
2) select_persona, then select_act (starts the act's scenario).
3) Watch: list_activities or get_view (panel, widget, list, orb).
4) Interact: simulate_transaction, set_camera_permission + capture_receipt,
   run_scenario for any other script.
5) go_back or reset_demo to change course.

Request/response tools (no session): list_fixtures, get_fixture,
search_fixtures, list_transactions, extract_receipt, check_policy,
generate_expense_report, plan_trip.

Transport notes:
- HTTP: pass the demo session via the X-Demo-Session header (Mcp-Session-Id is used otherwise).
- Stdio: pass _meta.session_id, or a session_id argument; "default" is used when none is given.

Docs:
- tande://docs/personas
- tande://docs/scenarios
- tande://docs/policy
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

func buildDocResources(catalog *scenario.Catalog) []docResource {
	return []docResource{
		{
			URI:         "tande://docs/personas",
			Name:        "personas",
			Title:       "Personas and acts",
			Description: "Who the demo can be played as and which acts each persona offers",
			Content:     personasDoc(),
		},
		{
			URI:         "tande://docs/scenarios",
			Name:        "scenarios",
			Title:       "Scenarios",
			Description: "Every scripted scenario with its agents and defaults",
			Content:     scenariosDoc(catalog),
		},
		{
			URI:         "tande://docs/policy",
			Name:        "policy",
			Title:       "Expense policy",
			Description: "The thresholds scenarios and check_policy evaluate against",
			Content:     policyDoc(catalog.Rules()),
		},
	}
}

func personasDoc() string {
	var b strings.Builder
	b.WriteString("# Personas\n")
	for _, p := range demo.Personas() {
		fmt.Fprintf(&b, "\n## %s (`%s`)\n\n%s, %s. %s\n\n", p.Name, p.ID, p.Name, p.Role, p.Description)
		for _, act := range p.Acts {
			fmt.Fprintf(&b, "- `%s` %s: %s (scenario `%s`)\n", act.ID, act.Title, act.Description, act.Scenario)
		}
	}
	return b.String()
}

func scenariosDoc(catalog *scenario.Catalog) string {
	var b strings.Builder
	b.WriteString("# Scenarios\n\nStarting a scenario clears the activity list. Params left out take the defaults below.\n")
	for _, s := range catalog.List() {
		fmt.Fprintf(&b, "\n## %s (`%s`)\n\n%s\n\n", s.Title, s.Name, s.Description)
		agents := make([]string, len(s.Agents))
		for i, a := range s.Agents {
			agents[i] = string(a)
		}
		fmt.Fprintf(&b, "- Agents: %s\n", strings.Join(agents, ", "))
		if s.Static {
			b.WriteString("- Static: shows a fixed set of records at once\n")
		}
		if d := s.Defaults; d != (scenario.Params{}) {
			var parts []string
			if d.Merchant != "" {
				parts = append(parts, "merchant "+d.Merchant)
			}
			if d.Amount != 0 {
				parts = append(parts, "amount "+policy.Money(d.Amount))
			}
			if d.Destination != "" {
				parts = append(parts, "destination "+d.Destination)
			}
			if d.Department != "" {
				parts = append(parts, "department "+d.Department)
			}
			fmt.Fprintf(&b, "- Defaults: %s\n", strings.Join(parts, ", "))
		}
	}
	return b.String()
}

func policyDoc(rules policy.Rules) string {
	var b strings.Builder
	b.WriteString("# Expense policy\n\n")
	fmt.Fprintf(&b, "- Receipt required at or above %s\n", policy.Money(rules.ReceiptThreshold))
	fmt.Fprintf(&b, "- Manager approval required over %s\n", policy.Money(rules.ApprovalThreshold))
	fmt.Fprintf(&b, "- Fraud review required over %s\n", policy.Money(rules.FraudReviewThreshold))
	if len(rules.BlockedCategories) > 0 {
		fmt.Fprintf(&b, "- Never reimbursable: %s\n", strings.Join(rules.BlockedCategories, ", "))
	}
	return b.String()
}

func registerDocResources(server *sdkmcp.Server, catalog *scenario.Catalog) {
	for _, doc := range buildDocResources(catalog) {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
