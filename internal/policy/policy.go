// Package policy holds the travel and expense rules shared by the scripted
// agents and the request/response flows.
package policy

import (
	"fmt"
	"strings"
)

// Default thresholds, in USD.
const (
	DefaultReceiptThreshold     = 25.0
	DefaultApprovalThreshold    = 100.0
	DefaultFraudReviewThreshold = 500.0
)

// Rules are the expense policy thresholds.
type Rules struct {
	ReceiptThreshold     float64 `yaml:"receipt_threshold" toml:"receipt_threshold" json:"receipt_threshold"`
	ApprovalThreshold    float64 `yaml:"approval_threshold" toml:"approval_threshold" json:"approval_threshold"`
	FraudReviewThreshold float64 `yaml:"fraud_review_threshold" toml:"fraud_review_threshold" json:"fraud_review_threshold"`
	// Blocked categories are never reimbursable.
	BlockedCategories []string `yaml:"blocked_categories" toml:"blocked_categories" json:"blocked_categories,omitempty"`
}

// DefaultRules returns the stock policy.
func DefaultRules() Rules {
	return Rules{
		ReceiptThreshold:     DefaultReceiptThreshold,
		ApprovalThreshold:    DefaultApprovalThreshold,
		FraudReviewThreshold: DefaultFraudReviewThreshold,
		BlockedCategories:    []string{"entertainment-alcohol", "personal"},
	}
}

// Decision is the outcome of evaluating one expense.
type Decision struct {
	RequiresReceipt  bool     `json:"requires_receipt"`
	RequiresApproval bool     `json:"requires_approval"`
	FraudReview      bool     `json:"fraud_review"`
	Blocked          bool     `json:"blocked"`
	Reasons          []string `json:"reasons,omitempty"`
}

// Evaluate applies the rules to an expense amount and category.
func (r Rules) Evaluate(amount float64, category string) Decision {
	var d Decision
	if amount >= r.ReceiptThreshold {
		d.RequiresReceipt = true
		d.Reasons = append(d.Reasons, fmt.Sprintf("receipt required at or above %s", Money(r.ReceiptThreshold)))
	}
	if amount > r.ApprovalThreshold {
		d.RequiresApproval = true
		d.Reasons = append(d.Reasons, fmt.Sprintf("manager approval required over %s", Money(r.ApprovalThreshold)))
	}
	if amount > r.FraudReviewThreshold {
		d.FraudReview = true
		d.Reasons = append(d.Reasons, fmt.Sprintf("fraud review required over %s", Money(r.FraudReviewThreshold)))
	}
	cat := strings.ToLower(strings.TrimSpace(category))
	for _, blocked := range r.BlockedCategories {
		if cat != "" && cat == blocked {
			d.Blocked = true
			d.Reasons = append(d.Reasons, fmt.Sprintf("category %q is not reimbursable", cat))
		}
	}
	return d
}

// Money formats a USD amount, dropping cents when they are zero: $25, $18.50.
func Money(amount float64) string {
	if amount == float64(int64(amount)) {
		return fmt.Sprintf("$%d", int64(amount))
	}
	return fmt.Sprintf("$%.2f", amount)
}
