package scenario

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	maxAmount     = 1_000_000
	maxTextLength = 80
)

// Params are the optional inputs a script is parameterized with.
type Params struct {
	Merchant    string  `json:"merchant,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	Destination string  `json:"destination,omitempty"`
	Department  string  `json:"department,omitempty"`
}

// Normalize trims and NFC-normalizes text fields and collapses inner
// whitespace, so "Café  X" typed two ways renders the same.
func (p Params) Normalize() Params {
	p.Merchant = normalizeText(p.Merchant)
	p.Destination = normalizeText(p.Destination)
	p.Department = normalizeText(p.Department)
	return p
}

// Validate rejects amounts and text a script cannot render.
func (p Params) Validate() error {
	if math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) || p.Amount < 0 || p.Amount > maxAmount {
		return fmt.Errorf("%w: amount %v out of range", ErrInvalidParams, p.Amount)
	}
	for name, v := range map[string]string{"merchant": p.Merchant, "destination": p.Destination, "department": p.Department} {
		if len([]rune(v)) > maxTextLength {
			return fmt.Errorf("%w: %s longer than %d characters", ErrInvalidParams, name, maxTextLength)
		}
	}
	return nil
}

// withDefaults fills zero fields from d.
func (p Params) withDefaults(d Params) Params {
	if p.Merchant == "" {
		p.Merchant = d.Merchant
	}
	if p.Amount == 0 {
		p.Amount = d.Amount
	}
	if p.Destination == "" {
		p.Destination = d.Destination
	}
	if p.Department == "" {
		p.Department = d.Department
	}
	return p
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
