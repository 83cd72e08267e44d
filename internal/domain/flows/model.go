package flows

import "github.com/ganot/agentic-te/internal/policy"

// Receipt is the structured result of reading receipt text.
type Receipt struct {
	Merchant   string     `json:"merchant"`
	Date       string     `json:"date,omitempty"`
	Total      float64    `json:"total"`
	Tax        float64    `json:"tax,omitempty"`
	Tip        float64    `json:"tip,omitempty"`
	Items      []LineItem `json:"items"`
	Category   string     `json:"category"`
	Confidence float64    `json:"confidence"`
}

type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// ComplianceStatus summarizes a policy check.
type ComplianceStatus string

const (
	ComplianceApproved      ComplianceStatus = "approved"
	ComplianceNeedsReceipt  ComplianceStatus = "needs_receipt"
	ComplianceNeedsApproval ComplianceStatus = "needs_approval"
	ComplianceFraudReview   ComplianceStatus = "fraud_review"
	ComplianceBlocked       ComplianceStatus = "blocked"
)

// PolicyRequest is the input to CheckPolicy.
type PolicyRequest struct {
	Amount     float64 `json:"amount"`
	Category   string  `json:"category"`
	HasReceipt bool    `json:"has_receipt"`
}

// Compliance is the outcome of CheckPolicy.
type Compliance struct {
	Status    ComplianceStatus `json:"status"`
	Compliant bool             `json:"compliant"`
	Decision  policy.Decision  `json:"decision"`
	Actions   []string         `json:"actions,omitempty"`
	Message   string           `json:"message"`
}

// ExpenseReport aggregates one user's transactions, or everyone's when the
// user is empty.
type ExpenseReport struct {
	UserID       string          `json:"user_id,omitempty"`
	UserName     string          `json:"user_name"`
	Transactions int             `json:"transactions"`
	Total        float64         `json:"total"`
	ByCategory   []CategoryTotal `json:"by_category"`
	Flagged      []FlaggedItem   `json:"flagged"`
	Pending      int             `json:"pending"`
	Summary      string          `json:"summary"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
}

type FlaggedItem struct {
	TransactionID string   `json:"transaction_id"`
	Merchant      string   `json:"merchant"`
	Amount        float64  `json:"amount"`
	Status        string   `json:"status"`
	Reasons       []string `json:"reasons"`
}

// TripRequest is the input to PlanTrip.
type TripRequest struct {
	Origin          string  `json:"origin,omitempty"`
	Destination     string  `json:"destination"`
	Budget          float64 `json:"budget,omitempty"`
	Nights          int     `json:"nights,omitempty"`
	PreferLowCarbon bool    `json:"prefer_low_carbon,omitempty"`
}

// TransportMode distinguishes air from rail options.
type TransportMode string

const (
	ModeFlight TransportMode = "flight"
	ModeTrain  TransportMode = "train"
)

type TransportOption struct {
	ID           string        `json:"id"`
	Mode         TransportMode `json:"mode"`
	Label        string        `json:"label"`
	Origin       string        `json:"origin"`
	Destination  string        `json:"destination"`
	Price        float64       `json:"price"`
	CO2Kg        float64       `json:"co2_kg"`
	Stops        int           `json:"stops"`
	WithinBudget bool          `json:"within_budget"`
}

type HotelOption struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	NightlyRate  float64 `json:"nightly_rate"`
	Total        float64 `json:"total"`
	CO2Kg        float64 `json:"co2_kg"`
	Rating       float64 `json:"rating"`
	Preferred    bool    `json:"preferred"`
	WithinBudget bool    `json:"within_budget"`
}

// TripPlan holds ranked options, best first.
type TripPlan struct {
	Destination string            `json:"destination"`
	Nights      int               `json:"nights"`
	Budget      float64           `json:"budget,omitempty"`
	Transport   []TransportOption `json:"transport"`
	Hotels      []HotelOption     `json:"hotels"`
	// EstimatedTotal prices the top transport and hotel together.
	EstimatedTotal float64 `json:"estimated_total"`
	EstimatedCO2Kg float64 `json:"estimated_co2_kg"`
	Summary        string  `json:"summary"`
}
