package mcp

import (
	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/ganot/agentic-te/internal/fixtures"
)

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	ReadOnly    bool           `json:"-"`
}

func object(props map[string]any, required ...string) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func enum(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

// withSession adds the optional session_id property.
func withSession(props map[string]any) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	props["session_id"] = prop("string", "Demo session id (defaults to the transport session, then \"default\")")
	return props
}

func paramsSchema() map[string]any {
	return map[string]any{
		"type":        "object",
		"description": "Scenario parameters; omitted fields take the scenario defaults",
		"properties": map[string]any{
			"merchant":    prop("string", "Merchant name"),
			"amount":      prop("number", "Amount in USD"),
			"destination": prop("string", "Trip destination city"),
			"department":  prop("string", "Department name"),
		},
	}
}

func kindNames() []string {
	out := make([]string, len(fixtures.Kinds))
	for i, k := range fixtures.Kinds {
		out[i] = string(k)
	}
	return out
}

func surfaceNames() []string {
	out := make([]string, len(activity.Surfaces))
	for i, s := range activity.Surfaces {
		out[i] = string(s)
	}
	return out
}

func scenarioNames() []string {
	return []string{
		scenario.ExpenseFlow,
		scenario.ReceiptCapture,
		scenario.TripBooking,
		scenario.FraudCheck,
		scenario.BudgetCheck,
		scenario.SustainabilityReport,
		scenario.PolicyExceptionReview,
		scenario.FinanceOverview,
	}
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "ping",
			Description: "Check that the server is alive",
			InputSchema: object(nil),
			ReadOnly:    true,
		},

		// Walkthrough
		{
			Name:        "list_personas",
			Description: "List the demo personas and their acts",
			InputSchema: object(nil),
			ReadOnly:    true,
		},
		{
			Name:        "get_demo_state",
			Description: "Get the session's stage, persona, act, camera permission, run progress and toasts. Opens the session if needed",
			InputSchema: object(withSession(nil)),
			ReadOnly:    true,
		},
		{
			Name:        "select_persona",
			Description: "Choose a persona and move to act selection",
			InputSchema: object(withSession(map[string]any{
				"persona": enum("Persona id", "traveler", "finance"),
			}), "persona"),
		},
		{
			Name:        "select_act",
			Description: "Choose an act of the selected persona and start its scenario",
			InputSchema: object(withSession(map[string]any{
				"act":    prop("string", "Act id from list_personas"),
				"params": paramsSchema(),
			}), "act"),
		},
		{
			Name:        "go_back",
			Description: "Step back one stage, clearing activity",
			InputSchema: object(withSession(nil)),
		},
		{
			Name:        "reset_demo",
			Description: "Return to persona selection and clear everything",
			InputSchema: object(withSession(nil)),
		},
		{
			Name:        "list_sessions",
			Description: "List live demo sessions of the current tenant",
			InputSchema: object(nil),
			ReadOnly:    true,
		},
		{
			Name:        "close_session",
			Description: "Close a demo session and cancel its timers",
			InputSchema: object(withSession(nil)),
		},

		// Scenarios
		{
			Name:        "list_scenarios",
			Description: "List the scripted agent scenarios with their defaults, step counts and durations",
			InputSchema: object(nil),
			ReadOnly:    true,
		},
		{
			Name:        "run_scenario",
			Description: "Clear activity and play a scenario. Requires an active act",
			InputSchema: object(withSession(map[string]any{
				"scenario": enum("Scenario name", scenarioNames()...),
				"params":   paramsSchema(),
			}), "scenario"),
		},
		{
			Name:        "simulate_transaction",
			Description: "Simulate a card charge and play the expense flow for it",
			InputSchema: object(withSession(map[string]any{
				"merchant": prop("string", "Merchant name"),
				"amount":   prop("number", "Amount in USD"),
			}), "merchant", "amount"),
		},
		{
			Name:        "clear_activities",
			Description: "Cancel the running scenario and clear the activity list",
			InputSchema: object(withSession(nil)),
		},
		{
			Name:        "list_activities",
			Description: "List the session's agent activities in insertion order",
			InputSchema: object(withSession(map[string]any{
				"agent":  prop("string", "Filter by agent type"),
				"status": enum("Filter by status", "idle", "active", "processing", "completed", "error"),
				"limit":  prop("integer", "Keep only the newest N records"),
			})),
			ReadOnly: true,
		},
		{
			Name:        "get_view",
			Description: "Render the activity list as one display surface",
			InputSchema: object(withSession(map[string]any{
				"surface": enum("Display surface", surfaceNames()...),
				"limit":   prop("integer", "Maximum cards per bucket"),
			}), "surface"),
			ReadOnly: true,
		},
		{
			Name:        "list_runs",
			Description: "List recorded scenario runs, newest first",
			InputSchema: object(withSession(map[string]any{
				"scenario":     prop("string", "Filter by scenario name"),
				"all_sessions": prop("boolean", "Include every session of the tenant"),
				"limit":        prop("integer", "Maximum number of runs"),
				"offset":       prop("integer", "Offset for pagination"),
			})),
			ReadOnly: true,
		},

		// Capture and notifications
		{
			Name:        "set_camera_permission",
			Description: "Answer the camera permission prompt. Denial disables receipt capture",
			InputSchema: object(withSession(map[string]any{
				"granted": prop("boolean", "Whether camera access is granted"),
			}), "granted"),
		},
		{
			Name:        "capture_receipt",
			Description: "Read captured receipt text and play the receipt-capture scenario with the result",
			InputSchema: object(withSession(map[string]any{
				"text": prop("string", "Receipt text"),
			}), "text"),
		},
		{
			Name:        "dismiss_toast",
			Description: "Dismiss a toast notification",
			InputSchema: object(withSession(map[string]any{
				"id": prop("string", "Toast id"),
			}), "id"),
		},

		// Fixtures
		{
			Name:        "list_fixtures",
			Description: "List one fixture collection",
			InputSchema: object(map[string]any{
				"kind":   enum("Collection", kindNames()...),
				"limit":  prop("integer", "Maximum number of items"),
				"offset": prop("integer", "Offset for pagination"),
			}, "kind"),
			ReadOnly: true,
		},
		{
			Name:        "get_fixture",
			Description: "Get one fixture with its full data",
			InputSchema: object(map[string]any{
				"kind": enum("Collection", kindNames()...),
				"id":   prop("string", "Fixture id"),
			}, "kind", "id"),
			ReadOnly: true,
		},
		{
			Name:        "search_fixtures",
			Description: "Full-text search across fixtures, best match first",
			InputSchema: object(map[string]any{
				"query": prop("string", "Search text; words match by prefix"),
				"kinds": map[string]any{
					"type":        "array",
					"description": "Restrict to these collections",
					"items":       enum("Collection", kindNames()...),
				},
				"limit":  prop("integer", "Maximum number of results"),
				"offset": prop("integer", "Offset for pagination"),
			}, "query"),
			ReadOnly: true,
		},
		{
			Name:        "list_transactions",
			Description: "List card transactions, newest first",
			InputSchema: object(map[string]any{
				"user_id":    prop("string", "Filter by user id"),
				"status":     enum("Filter by status", "pending", "approved", "flagged", "rejected"),
				"category":   prop("string", "Filter by category"),
				"min_amount": prop("number", "Minimum amount in USD"),
				"flagged":    prop("boolean", "Only transactions flagged by fraud checks"),
				"limit":      prop("integer", "Maximum number of results"),
				"offset":     prop("integer", "Offset for pagination"),
			}),
			ReadOnly: true,
		},

		// Flows
		{
			Name:        "extract_receipt",
			Description: "Extract merchant, date, line items and total from receipt text",
			InputSchema: object(map[string]any{
				"text": prop("string", "Receipt text"),
			}, "text"),
			ReadOnly: true,
		},
		{
			Name:        "check_policy",
			Description: "Check an expense against the travel and expense policy",
			InputSchema: object(map[string]any{
				"amount":      prop("number", "Amount in USD"),
				"category":    prop("string", "Expense category"),
				"has_receipt": prop("boolean", "Whether a receipt is attached"),
			}, "amount"),
			ReadOnly: true,
		},
		{
			Name:        "generate_expense_report",
			Description: "Total a user's transactions by category and list items needing attention",
			InputSchema: object(map[string]any{
				"user_id": prop("string", "User id (omit for everyone)"),
			}),
			ReadOnly: true,
		},
		{
			Name:        "plan_trip",
			Description: "Rank flights, trains and hotels for a destination",
			InputSchema: object(map[string]any{
				"origin":            prop("string", "Origin city or airport code"),
				"destination":       prop("string", "Destination city or airport code"),
				"budget":            prop("number", "Total budget in USD"),
				"nights":            prop("integer", "Hotel nights (default 1)"),
				"prefer_low_carbon": prop("boolean", "Rank by emissions instead of price"),
			}, "destination"),
			ReadOnly: true,
		},
	}
}
