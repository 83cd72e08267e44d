package scenario

import (
	"fmt"
	"time"

	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/policy"
)

// Script names.
const (
	ExpenseFlow           = "expense-flow"
	ReceiptCapture        = "receipt-capture"
	TripBooking           = "trip-booking"
	FraudCheck            = "fraud-check"
	BudgetCheck           = "budget-check"
	SustainabilityReport  = "sustainability-report"
	PolicyExceptionReview = "policy-exception-review"
	FinanceOverview       = "finance-overview"
)

const ms = time.Millisecond

func builtinScripts() []Script {
	return []Script{
		{
			Name:        ExpenseFlow,
			Title:       "Expense flow",
			Description: "Receipt capture, policy check and filing for a single card transaction.",
			Agents: []activity.AgentType{
				activity.AgentReceiptConcierge, activity.AgentPolicyEngine,
				activity.AgentComplianceGuardian, activity.AgentExpenseAutomator,
			},
			Defaults: Params{Merchant: "Blue Bottle Coffee", Amount: 18.5},
			build:    buildExpenseFlow,
		},
		{
			Name:        ReceiptCapture,
			Title:       "Receipt capture",
			Description: "A photographed receipt is read, categorized and matched to a card charge.",
			Agents:      []activity.AgentType{activity.AgentReceiptConcierge, activity.AgentExpenseAutomator},
			Defaults:    Params{Merchant: "Hotel Zephyr", Amount: 243.17},
			build:       buildReceiptCapture,
		},
		{
			Name:        TripBooking,
			Title:       "Trip booking",
			Description: "Flights and lodging are searched, checked against budget and offset for carbon.",
			Agents: []activity.AgentType{
				activity.AgentBookingOrchestrator, activity.AgentBudgetAdvisor, activity.AgentSustainabilityAdvisor,
			},
			Defaults: Params{Destination: "San Francisco"},
			build:    buildTripBooking,
		},
		{
			Name:        FraudCheck,
			Title:       "Fraud check",
			Description: "A charge is scored for fraud; large charges are escalated for review.",
			Agents:      []activity.AgentType{activity.AgentFraudDetector, activity.AgentComplianceGuardian},
			Defaults:    Params{Merchant: "Unknown Merchant LLC", Amount: 742},
			build:       buildFraudCheck,
		},
		{
			Name:        BudgetCheck,
			Title:       "Budget check",
			Description: "Department spend is forecast against the quarterly budget.",
			Agents:      []activity.AgentType{activity.AgentBudgetAdvisor, activity.AgentPolicyEngine},
			Defaults:    Params{Department: "Sales"},
			build:       buildBudgetCheck,
		},
		{
			Name:        SustainabilityReport,
			Title:       "Sustainability report",
			Description: "Trip emissions are totalled and compared with the company target.",
			Agents:      []activity.AgentType{activity.AgentSustainabilityAdvisor, activity.AgentBookingOrchestrator},
			Defaults:    Params{Destination: "New York"},
			build:       buildSustainabilityReport,
		},
		{
			Name:        PolicyExceptionReview,
			Title:       "Policy exception review",
			Description: "An out-of-policy charge is flagged and routed to compliance.",
			Agents:      []activity.AgentType{activity.AgentPolicyEngine, activity.AgentComplianceGuardian},
			Defaults:    Params{Merchant: "The Capital Grille", Amount: 312.4},
			build:       buildPolicyExceptionReview,
		},
		{
			Name:        FinanceOverview,
			Title:       "Finance overview",
			Description: "A static snapshot of what every agent did today.",
			Agents:      activity.AgentTypes,
			Static:      true,
			build:       buildFinanceOverview,
		},
	}
}

func buildExpenseFlow(p Params, rules policy.Rules, plan *Plan) {
	amt := policy.Money(p.Amount)

	receipt := plan.Add(0, activity.AgentReceiptConcierge, activity.StatusProcessing,
		fmt.Sprintf("Scanning receipt from %s", p.Merchant), activity.IntPtr(15))
	plan.Progress(800*ms, receipt, 60, fmt.Sprintf("Extracting %s from %s receipt", amt, p.Merchant))
	plan.Complete(1600*ms, receipt, fmt.Sprintf("Receipt captured: %s %s", p.Merchant, amt))

	check := plan.Add(1600*ms, activity.AgentPolicyEngine, activity.StatusProcessing,
		fmt.Sprintf("Checking %s against travel policy", amt), nil)

	decision := rules.Evaluate(p.Amount, "")
	var verdict string
	switch {
	case !decision.RequiresReceipt:
		verdict = fmt.Sprintf("Policy check passed - no receipt required under %s", policy.Money(rules.ReceiptThreshold))
	case !decision.RequiresApproval:
		verdict = "Policy check passed - receipt verified"
	default:
		verdict = fmt.Sprintf("Policy check passed - manager approval required over %s", policy.Money(rules.ApprovalThreshold))
	}
	plan.Complete(2800*ms, check, verdict)

	next := 2800 * ms
	if decision.RequiresApproval {
		approval := plan.Add(next, activity.AgentComplianceGuardian, activity.StatusProcessing,
			fmt.Sprintf("Routing %s %s expense for manager approval", amt, p.Merchant), nil)
		next += 1500 * ms
		plan.Complete(next, approval, "Manager approval requested")
	}

	filing := plan.Add(next, activity.AgentExpenseAutomator, activity.StatusProcessing, "Adding expense to current report", nil)
	plan.Complete(next+900*ms, filing, "Expense filed to report")
}

func buildReceiptCapture(p Params, _ policy.Rules, plan *Plan) {
	amt := policy.Money(p.Amount)

	capture := plan.Add(0, activity.AgentReceiptConcierge, activity.StatusProcessing, "Capturing receipt image", activity.IntPtr(10))
	plan.Progress(600*ms, capture, 45, "Reading receipt text")
	plan.Progress(1400*ms, capture, 80, fmt.Sprintf("Found %s total at %s", amt, p.Merchant))
	plan.Complete(2400*ms, capture, fmt.Sprintf("Receipt categorized: %s %s", p.Merchant, amt))

	match := plan.Add(2400*ms, activity.AgentExpenseAutomator, activity.StatusProcessing,
		fmt.Sprintf("Matching receipt to %s card charge", amt), nil)
	plan.Complete(3300*ms, match, "Receipt matched to card transaction")
}

func buildTripBooking(p Params, _ policy.Rules, plan *Plan) {
	dest := p.Destination

	search := plan.Add(0, activity.AgentBookingOrchestrator, activity.StatusProcessing,
		fmt.Sprintf("Searching flights and hotels for %s", dest), activity.IntPtr(20))
	plan.Progress(1000*ms, search, 55, "Comparing 14 flight options against preferred carriers")
	plan.Progress(2000*ms, search, 85, fmt.Sprintf("Holding preferred hotel in %s", dest))

	budget := plan.Add(2000*ms, activity.AgentBudgetAdvisor, activity.StatusProcessing, "Checking trip cost against travel budget", nil)
	plan.Complete(3000*ms, budget, "Trip is within budget - 18% under the per-trip limit")

	green := plan.Add(3000*ms, activity.AgentSustainabilityAdvisor, activity.StatusProcessing, "Estimating trip emissions", nil)
	plan.Complete(4000*ms, green, "Nonstop flight selected - 0.4t CO2 offset queued")

	plan.Complete(4500*ms, search, fmt.Sprintf("Trip to %s confirmed", dest))
}

func buildFraudCheck(p Params, rules policy.Rules, plan *Plan) {
	amt := policy.Money(p.Amount)
	decision := rules.Evaluate(p.Amount, "")

	score := plan.Add(0, activity.AgentFraudDetector, activity.StatusProcessing,
		fmt.Sprintf("Scoring %s charge at %s", amt, p.Merchant), activity.IntPtr(25))
	plan.Progress(900*ms, score, 70, "Comparing with cardholder spending pattern")
	if !decision.FraudReview {
		plan.Complete(1800*ms, score, "No fraud signals - transaction cleared")
		return
	}
	plan.Complete(1800*ms, score, fmt.Sprintf("High risk score - %s exceeds review threshold of %s", amt, policy.Money(rules.FraudReviewThreshold)))

	review := plan.Add(1800*ms, activity.AgentComplianceGuardian, activity.StatusProcessing,
		fmt.Sprintf("Escalating %s charge for fraud review", p.Merchant), nil)
	plan.Progress(2800*ms, review, 50, "Card temporarily locked pending cardholder confirmation")
	plan.Complete(3800*ms, review, "Fraud review case opened")
}

func buildBudgetCheck(p Params, _ policy.Rules, plan *Plan) {
	dept := p.Department

	forecast := plan.Add(0, activity.AgentBudgetAdvisor, activity.StatusProcessing,
		fmt.Sprintf("Loading %s quarter-to-date spend", dept), activity.IntPtr(20))
	plan.Progress(700*ms, forecast, 60, "Forecasting spend to end of quarter")
	plan.Complete(1700*ms, forecast, fmt.Sprintf("%s is on track - forecast at 92%% of budget", dept))

	limits := plan.Add(1700*ms, activity.AgentPolicyEngine, activity.StatusProcessing, "Reviewing per-diem limits", nil)
	plan.Complete(2500*ms, limits, "Per-diem limits unchanged")
}

func buildSustainabilityReport(p Params, _ policy.Rules, plan *Plan) {
	report := plan.Add(0, activity.AgentSustainabilityAdvisor, activity.StatusProcessing, "Totalling trip emissions this quarter", activity.IntPtr(30))
	plan.Progress(900*ms, report, 65, "Comparing with company reduction target")

	rail := plan.Add(900*ms, activity.AgentBookingOrchestrator, activity.StatusProcessing,
		fmt.Sprintf("Checking rail alternatives to %s", p.Destination), nil)
	plan.Complete(1900*ms, rail, "Rail option saves 62% CO2 on this route")

	plan.Complete(2600*ms, report, "Emissions 12% below target")
}

func buildPolicyExceptionReview(p Params, rules policy.Rules, plan *Plan) {
	amt := policy.Money(p.Amount)

	check := plan.Add(0, activity.AgentPolicyEngine, activity.StatusProcessing,
		fmt.Sprintf("Checking %s at %s against meal policy", amt, p.Merchant), nil)
	plan.Status(1000*ms, check, activity.StatusError,
		fmt.Sprintf("Policy exception - %s exceeds approval limit of %s", amt, policy.Money(rules.ApprovalThreshold)))

	review := plan.Add(1000*ms, activity.AgentComplianceGuardian, activity.StatusProcessing, "Collecting justification from traveler", activity.IntPtr(30))
	plan.Progress(2000*ms, review, 70, "Justification received - client dinner with 4 attendees")
	plan.Complete(3000*ms, review, "Exception approved by finance")
}

func buildFinanceOverview(_ Params, _ policy.Rules, plan *Plan) {
	plan.Static(
		activity.Record{AgentType: activity.AgentReceiptConcierge, Status: activity.StatusCompleted, Message: "128 receipts matched today", Progress: activity.IntPtr(100)},
		activity.Record{AgentType: activity.AgentPolicyEngine, Status: activity.StatusCompleted, Message: "3 policy exceptions resolved"},
		activity.Record{AgentType: activity.AgentFraudDetector, Status: activity.StatusProcessing, Message: "Monitoring 42 live card transactions", Progress: activity.IntPtr(64)},
		activity.Record{AgentType: activity.AgentBudgetAdvisor, Status: activity.StatusActive, Message: "Marketing at 97% of quarterly budget"},
		activity.Record{AgentType: activity.AgentExpenseAutomator, Status: activity.StatusCompleted, Message: "17 expense reports auto-submitted"},
		activity.Record{AgentType: activity.AgentComplianceGuardian, Status: activity.StatusError, Message: "1 duplicate charge awaiting review"},
	)
}
