package demo

import (
	"fmt"

	"github.com/ganot/agentic-te/internal/domain/scenario"
)

var personas = []PersonaInfo{
	{
		ID:          PersonaTraveler,
		Name:        "Alex Rivera",
		Role:        "Regional Sales Director",
		Description: "Travels twice a month and wants expenses to file themselves.",
		Acts: []Act{
			{
				ID:          "receipt-capture",
				Title:       "Snap a receipt",
				Description: "Photograph a hotel folio and watch it get read and matched.",
				Scenario:    scenario.ReceiptCapture,
			},
			{
				ID:          "trip-booking",
				Title:       "Book a trip",
				Description: "Ask for a trip and let the agents book within policy.",
				Scenario:    scenario.TripBooking,
				Params:      scenario.Params{Destination: "San Francisco"},
			},
			{
				ID:          "sustainability",
				Title:       "Travel greener",
				Description: "See trip emissions and lower-carbon alternatives.",
				Scenario:    scenario.SustainabilityReport,
			},
		},
	},
	{
		ID:          PersonaFinance,
		Name:        "Jordan Lee",
		Role:        "Finance Operations Manager",
		Description: "Owns policy, approvals and month-end close.",
		Acts: []Act{
			{
				ID:          "expense-review",
				Title:       "Review an expense",
				Description: "Follow a card charge from receipt to filed report.",
				Scenario:    scenario.ExpenseFlow,
				Params:      scenario.Params{Merchant: "Delta Air Lines", Amount: 486.2},
			},
			{
				ID:          "fraud-detection",
				Title:       "Catch fraud",
				Description: "Watch a suspicious charge get scored and escalated.",
				Scenario:    scenario.FraudCheck,
			},
			{
				ID:          "budget-monitoring",
				Title:       "Monitor budgets",
				Description: "Forecast department spend against the quarter.",
				Scenario:    scenario.BudgetCheck,
			},
			{
				ID:          "operations-overview",
				Title:       "Operations overview",
				Description: "Everything the agents handled today, at a glance.",
				Scenario:    scenario.FinanceOverview,
			},
		},
	},
}

// Personas returns the persona catalog.
func Personas() []PersonaInfo {
	out := make([]PersonaInfo, len(personas))
	copy(out, personas)
	return out
}

// LookupPersona returns a persona by id.
func LookupPersona(id Persona) (PersonaInfo, error) {
	for _, p := range personas {
		if p.ID == id {
			return p, nil
		}
	}
	return PersonaInfo{}, fmt.Errorf("%w: %q", ErrUnknownPersona, id)
}

// LookupAct returns one of a persona's acts.
func LookupAct(persona Persona, actID string) (Act, error) {
	p, err := LookupPersona(persona)
	if err != nil {
		return Act{}, err
	}
	for _, a := range p.Acts {
		if a.ID == actID {
			return a, nil
		}
	}
	return Act{}, fmt.Errorf("%w: %q for persona %s", ErrUnknownAct, actID, persona)
}

func mergeParams(base, override scenario.Params) scenario.Params {
	if override.Merchant != "" {
		base.Merchant = override.Merchant
	}
	if override.Amount != 0 {
		base.Amount = override.Amount
	}
	if override.Destination != "" {
		base.Destination = override.Destination
	}
	if override.Department != "" {
		base.Department = override.Department
	}
	return base
}
