package fixtures

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ganot/agentic-te/internal/policy"
)

// Kind names one fixture collection.
type Kind string

const (
	KindTransactions          Kind = "transactions"
	KindUsers                 Kind = "users"
	KindFlights               Kind = "flights"
	KindHotels                Kind = "hotels"
	KindTrains                Kind = "trains"
	KindPolicyExceptions      Kind = "policy_exceptions"
	KindRecommendationLogs    Kind = "recommendation_logs"
	KindSustainabilityTargets Kind = "sustainability_targets"
)

// Kinds lists every collection.
var Kinds = []Kind{
	KindTransactions,
	KindUsers,
	KindFlights,
	KindHotels,
	KindTrains,
	KindPolicyExceptions,
	KindRecommendationLogs,
	KindSustainabilityTargets,
}

// Valid reports whether k is a known collection.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// TransactionStatus is the review state of a card transaction.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionApproved TransactionStatus = "approved"
	TransactionFlagged  TransactionStatus = "flagged"
	TransactionRejected TransactionStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionApproved, TransactionFlagged, TransactionRejected:
		return true
	}
	return false
}

// Transaction is a card charge with its review history.
type Transaction struct {
	ID          string            `json:"id"`
	Merchant    string            `json:"merchant"`
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Date        string            `json:"date"`
	Category    string            `json:"category"`
	Status      TransactionStatus `json:"status"`
	UserID      string            `json:"user_id"`
	PolicyCheck *PolicyCheck      `json:"policy_check,omitempty"`
	FraudCheck  *FraudCheck       `json:"fraud_check,omitempty"`
	Timeline    []TimelineEvent   `json:"timeline"`
}

type PolicyCheck struct {
	Compliant bool   `json:"compliant"`
	Rule      string `json:"rule"`
	Notes     string `json:"notes,omitempty"`
}

type FraudCheck struct {
	Score   float64  `json:"score"`
	Flagged bool     `json:"flagged"`
	Reasons []string `json:"reasons,omitempty"`
}

type TimelineEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Title       string `json:"title"`
	Department  string `json:"department"`
	HomeAirport string `json:"home_airport"`
}

type Flight struct {
	ID           string    `json:"id"`
	Airline      string    `json:"airline"`
	FlightNumber string    `json:"flight_number"`
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	Departure    time.Time `json:"departure"`
	Arrival      time.Time `json:"arrival"`
	Price        float64   `json:"price"`
	Cabin        string    `json:"cabin"`
	Stops        int       `json:"stops"`
	CO2Kg        float64   `json:"co2_kg"`
}

type Hotel struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	City          string  `json:"city"`
	NightlyRate   float64 `json:"nightly_rate"`
	Rating        float64 `json:"rating"`
	Preferred     bool    `json:"preferred"`
	CO2KgPerNight float64 `json:"co2_kg_per_night"`
}

type Train struct {
	ID          string    `json:"id"`
	Operator    string    `json:"operator"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
	Price       float64   `json:"price"`
	Class       string    `json:"class"`
	CO2Kg       float64   `json:"co2_kg"`
}

type PolicyException struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Rule          string    `json:"rule"`
	Amount        float64   `json:"amount"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type RecommendationLog struct {
	ID             string    `json:"id"`
	AgentType      string    `json:"agent_type"`
	UserID         string    `json:"user_id"`
	Recommendation string    `json:"recommendation"`
	Accepted       bool      `json:"accepted"`
	SavingsUSD     float64   `json:"savings_usd"`
	CO2SavedKg     float64   `json:"co2_saved_kg"`
	CreatedAt      time.Time `json:"created_at"`
}

type SustainabilityTarget struct {
	ID         string  `json:"id"`
	Department string  `json:"department"`
	Period     string  `json:"period"`
	TargetKg   float64 `json:"target_kg"`
	ActualKg   float64 `json:"actual_kg"`
}

// Item is the kind-independent form of a fixture used for cataloging and
// search.
type Item struct {
	Kind  Kind   `json:"kind"`
	ID    string `json:"id"`
	Title string `json:"title"`
	// Text is the searchable body.
	Text string          `json:"text"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (t Transaction) item() (string, string) {
	return fmt.Sprintf("%s %s", t.Merchant, policy.Money(t.Amount)),
		fmt.Sprintf("%s %s %s %s %s", t.Merchant, t.Category, t.Status, t.UserID, t.Date)
}

func (u User) item() (string, string) {
	return u.Name, fmt.Sprintf("%s %s %s %s %s", u.Name, u.Title, u.Department, u.Role, u.HomeAirport)
}

func (f Flight) item() (string, string) {
	return fmt.Sprintf("%s %s to %s", f.FlightNumber, f.Origin, f.Destination),
		fmt.Sprintf("%s %s %s %s %s", f.Airline, f.FlightNumber, f.Origin, f.Destination, f.Cabin)
}

func (h Hotel) item() (string, string) {
	return h.Name, fmt.Sprintf("%s %s", h.Name, h.City)
}

func (t Train) item() (string, string) {
	return fmt.Sprintf("%s %s to %s", t.Operator, t.Origin, t.Destination),
		fmt.Sprintf("%s %s %s %s", t.Operator, t.Origin, t.Destination, t.Class)
}

func (p PolicyException) item() (string, string) {
	return fmt.Sprintf("%s exception on %s", p.Rule, p.TransactionID),
		fmt.Sprintf("%s %s %s %s", p.Rule, p.Reason, p.Status, p.UserID)
}

func (r RecommendationLog) item() (string, string) {
	return r.Recommendation, fmt.Sprintf("%s %s %s", r.AgentType, r.Recommendation, r.UserID)
}

func (s SustainabilityTarget) item() (string, string) {
	return fmt.Sprintf("%s %s", s.Department, s.Period), fmt.Sprintf("%s %s emissions target", s.Department, s.Period)
}
