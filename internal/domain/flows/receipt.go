package flows

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	trailingAmount = regexp.MustCompile(`(?:USD|\$)?\s*(\d{1,3}(?:,\d{3})+\.\d{2}|\d+\.\d{2})\s*$`)
	isoDate        = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	usDate         = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/(?:\d{4}|\d{2}))\b`)
)

// categoryHints maps merchant or item words to expense categories. The first
// match wins.
var categoryHints = []struct {
	category string
	words    []string
}{
	{"lodging", []string{"hotel", "inn", "suites", "resort", "lodge"}},
	{"airfare", []string{"airline", "air lines", "airways", "flight"}},
	{"ground-transport", []string{"lyft", "uber", "taxi", "cab", "amtrak", "rail", "parking"}},
	{"meals", []string{"coffee", "cafe", "café", "restaurant", "grill", "bistro", "kitchen", "bakery", "latte", "espresso", "lunch", "dinner"}},
}

// ExtractReceipt reads merchant, date, line items and total out of plain
// receipt text. The merchant is the first line carrying neither an amount
// nor a date. Without a TOTAL line the total is subtotal (or the item sum)
// plus tax and tip.
func (s *Service) ExtractReceipt(ctx context.Context, text string) (*Receipt, error) {
	text = norm.NFC.String(text)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: receipt text is empty", ErrInvalidInput)
	}

	r := &Receipt{Items: []LineItem{}}
	var subtotal float64
	var haveTotal, haveSubtotal, sawAmount bool

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if r.Date == "" {
			r.Date = findDate(line)
		}

		m := trailingAmount.FindStringSubmatchIndex(line)
		if m == nil {
			if r.Merchant == "" && findDate(line) == "" && hasLetter(line) && !strings.EqualFold(line, "receipt") {
				r.Merchant = strings.Join(strings.Fields(line), " ")
			}
			continue
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(line[m[2]:m[3]], ",", ""), 64)
		if err != nil {
			continue
		}
		sawAmount = true
		label := strings.TrimRight(strings.TrimSpace(line[:m[0]]), ":$ ")
		words := labelWords(label)

		switch {
		case words["subtotal"] || (words["sub"] && words["total"]):
			subtotal, haveSubtotal = amount, true
		case words["total"] || words["due"] || words["balance"]:
			r.Total, haveTotal = amount, true
		case words["tax"] || words["vat"]:
			r.Tax += amount
		case words["tip"] || words["gratuity"]:
			r.Tip += amount
		case words["change"] || words["cash"] || words["visa"] || words["mastercard"] || words["amex"] || words["card"]:
			// tender lines
		default:
			if label == "" {
				label = "Item"
			}
			r.Items = append(r.Items, LineItem{Description: label, Amount: amount})
		}
	}

	if !sawAmount {
		return nil, fmt.Errorf("%w: no amounts found on receipt", ErrInvalidInput)
	}

	if !haveTotal {
		base := subtotal
		if !haveSubtotal {
			for _, it := range r.Items {
				base += it.Amount
			}
		}
		r.Total = base + r.Tax + r.Tip
	}
	r.Total = round2(r.Total)
	r.Tax = round2(r.Tax)
	r.Tip = round2(r.Tip)
	r.Category = categorize(r)
	r.Confidence = confidence(r, haveTotal)

	s.logger.Debug("receipt extracted", "merchant", r.Merchant, "total", r.Total, "confidence", r.Confidence)
	return r, nil
}

func findDate(line string) string {
	if m := isoDate.FindStringSubmatch(line); m != nil {
		if _, err := time.Parse("2006-01-02", m[1]); err == nil {
			return m[1]
		}
	}
	if m := usDate.FindStringSubmatch(line); m != nil {
		for _, layout := range []string{"1/2/2006", "1/2/06"} {
			if t, err := time.Parse(layout, m[1]); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}
	return ""
}

func labelWords(label string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		words[w] = true
	}
	return words
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func categorize(r *Receipt) string {
	haystack := strings.ToLower(r.Merchant)
	for _, it := range r.Items {
		haystack += " " + strings.ToLower(it.Description)
	}
	for _, hint := range categoryHints {
		for _, w := range hint.words {
			if strings.Contains(haystack, w) {
				return hint.category
			}
		}
	}
	return "other"
}

// confidence scores how much of a receipt was recognized, from 0.3 for a
// bare amount to 1.0 with merchant, date, items and an explicit total.
func confidence(r *Receipt, explicitTotal bool) float64 {
	c := 0.3
	if explicitTotal {
		c += 0.25
	}
	if r.Merchant != "" {
		c += 0.15
	}
	if r.Date != "" {
		c += 0.15
	}
	if len(r.Items) > 0 {
		c += 0.15
	}
	return math.Min(1, math.Round(c*100)/100)
}
