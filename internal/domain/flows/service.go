package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/fixtures"
	"github.com/ganot/agentic-te/internal/policy"
	"github.com/ganot/agentic-te/internal/repository"
)

// Service runs the request/response expense and travel flows against the
// fixture catalog.
type Service struct {
	catalog Catalog
	rules   policy.Rules
	logger  *slog.Logger
}

// NewService creates a new flow service.
func NewService(catalog Catalog, rules policy.Rules, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: catalog, rules: rules, logger: logger}
}

// Rules returns the policy the service evaluates against.
func (s *Service) Rules() policy.Rules {
	return s.rules
}

// ScanReceipt adapts ExtractReceipt for receipt capture.
func (s *Service) ScanReceipt(ctx context.Context, text string) (demo.ReceiptScan, error) {
	r, err := s.ExtractReceipt(ctx, text)
	if err != nil {
		return demo.ReceiptScan{}, err
	}
	return demo.ReceiptScan{Merchant: r.Merchant, Amount: r.Total, Confidence: r.Confidence}, nil
}

// CheckPolicy evaluates one expense against the rules.
func (s *Service) CheckPolicy(ctx context.Context, req PolicyRequest) (*Compliance, error) {
	if req.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	d := s.rules.Evaluate(req.Amount, req.Category)
	c := &Compliance{Decision: d, Compliant: true, Status: ComplianceApproved}

	switch {
	case d.Blocked:
		c.Status = ComplianceBlocked
		c.Compliant = false
		c.Actions = append(c.Actions, "reject the expense")
	case d.RequiresReceipt && !req.HasReceipt:
		c.Status = ComplianceNeedsReceipt
		c.Compliant = false
		c.Actions = append(c.Actions, "attach an itemized receipt")
	case d.FraudReview:
		c.Status = ComplianceFraudReview
		c.Actions = append(c.Actions, "route to fraud review")
	case d.RequiresApproval:
		c.Status = ComplianceNeedsApproval
		c.Actions = append(c.Actions, "request manager approval")
	}
	if d.RequiresApproval && c.Status != ComplianceNeedsApproval && !d.Blocked {
		c.Actions = append(c.Actions, "request manager approval")
	}

	amount := policy.Money(req.Amount)
	switch c.Status {
	case ComplianceApproved:
		if d.RequiresReceipt {
			c.Message = fmt.Sprintf("%s is within policy - receipt verified", amount)
		} else {
			c.Message = fmt.Sprintf("%s is within policy - no receipt required under %s", amount, policy.Money(s.rules.ReceiptThreshold))
		}
	case ComplianceBlocked:
		c.Message = fmt.Sprintf("%s is not reimbursable: %s", amount, strings.Join(d.Reasons, "; "))
	default:
		c.Message = fmt.Sprintf("%s needs follow-up: %s", amount, strings.Join(d.Reasons, "; "))
	}

	s.logger.Debug("policy checked", "amount", req.Amount, "category", req.Category, "status", c.Status)
	return c, nil
}

// GenerateExpenseReport totals the catalog transactions of userID by
// category and lists those needing attention. An empty userID reports on
// everyone.
func (s *Service) GenerateExpenseReport(ctx context.Context, userID string) (*ExpenseReport, error) {
	userID = strings.TrimSpace(userID)
	report := &ExpenseReport{UserID: userID, UserName: "All travelers"}

	if userID != "" {
		item, err := s.catalog.Get(ctx, fixtures.KindUsers, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
			}
			return nil, fmt.Errorf("loading user: %w", err)
		}
		report.UserName = item.Title
	}

	txns, err := s.catalog.ListTransactions(ctx, fixtures.TransactionFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}

	byCategory := map[string]*CategoryTotal{}
	report.ByCategory = []CategoryTotal{}
	report.Flagged = []FlaggedItem{}
	for _, t := range txns {
		report.Transactions++
		report.Total += t.Amount
		ct, ok := byCategory[t.Category]
		if !ok {
			ct = &CategoryTotal{Category: t.Category}
			byCategory[t.Category] = ct
		}
		ct.Count++
		ct.Total += t.Amount

		if t.Status == fixtures.TransactionPending {
			report.Pending++
		}
		if reasons := s.attention(t); len(reasons) > 0 {
			report.Flagged = append(report.Flagged, FlaggedItem{
				TransactionID: t.ID,
				Merchant:      t.Merchant,
				Amount:        t.Amount,
				Status:        string(t.Status),
				Reasons:       reasons,
			})
		}
	}

	for _, ct := range byCategory {
		ct.Total = round2(ct.Total)
		report.ByCategory = append(report.ByCategory, *ct)
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		if report.ByCategory[i].Total != report.ByCategory[j].Total {
			return report.ByCategory[i].Total > report.ByCategory[j].Total
		}
		return report.ByCategory[i].Category < report.ByCategory[j].Category
	})
	report.Total = round2(report.Total)

	report.Summary = fmt.Sprintf("%s: %d %s totaling $%s, %d flagged, %d pending",
		report.UserName,
		report.Transactions,
		plural(report.Transactions, "transaction", "transactions"),
		humanize.CommafWithDigits(report.Total, 2),
		len(report.Flagged),
		report.Pending,
	)
	if len(report.ByCategory) > 0 {
		top := report.ByCategory[0]
		report.Summary += fmt.Sprintf("; largest category %s at %s", top.Category, policy.Money(top.Total))
	}
	return report, nil
}

// attention lists why a transaction needs review, if it does.
func (s *Service) attention(t fixtures.Transaction) []string {
	var reasons []string
	if t.FraudCheck != nil && t.FraudCheck.Flagged {
		reasons = append(reasons, t.FraudCheck.Reasons...)
		if len(t.FraudCheck.Reasons) == 0 {
			reasons = append(reasons, fmt.Sprintf("fraud score %.2f", t.FraudCheck.Score))
		}
	}
	if t.PolicyCheck != nil && !t.PolicyCheck.Compliant {
		reason := t.PolicyCheck.Rule
		if t.PolicyCheck.Notes != "" {
			reason += ": " + t.PolicyCheck.Notes
		}
		reasons = append(reasons, reason)
	}
	if d := s.rules.Evaluate(t.Amount, t.Category); d.Blocked && (t.PolicyCheck == nil || t.PolicyCheck.Compliant) {
		reasons = append(reasons, d.Reasons[len(d.Reasons)-1])
	}
	if len(reasons) == 0 && (t.Status == fixtures.TransactionFlagged || t.Status == fixtures.TransactionRejected) {
		reasons = append(reasons, "marked "+string(t.Status))
	}
	return reasons
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
