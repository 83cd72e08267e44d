// Package toast keeps the short-lived notifications shown next to the demo.
package toast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/agentic-te/internal/clock"
	"github.com/google/uuid"
)

// Defaults for Options.
const (
	DefaultWindow = 5 * time.Second
	DefaultLimit  = 5
)

// Variant selects toast styling.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSuccess     Variant = "success"
	VariantWarning     Variant = "warning"
	VariantDestructive Variant = "destructive"
)

// Toast is one notification.
type Toast struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Variant     Variant   `json:"variant"`
	CreatedAt   time.Time `json:"created_at"`
}

// Options configures suppression and retention.
//
// A toast whose title and description match one pushed less than Window ago
// is dropped, whether or not the earlier one was dismissed. Window <= 0
// disables suppression. At most Limit toasts are kept; the oldest go first.
type Options struct {
	Window time.Duration `yaml:"window" toml:"window"`
	Limit  int           `yaml:"limit" toml:"limit"`
}

// Notifier holds the toasts of one demo session.
type Notifier struct {
	clock  clock.Clock
	logger *slog.Logger
	window time.Duration
	limit  int

	mu     sync.Mutex
	toasts []Toast
	seen   map[string]time.Time
}

// NewNotifier creates a notifier. A zero Limit means DefaultLimit.
func NewNotifier(clk clock.Clock, logger *slog.Logger, opts Options) *Notifier {
	if clk == nil {
		clk = clock.New()
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	return &Notifier{
		clock:  clk,
		logger: logger,
		window: opts.Window,
		limit:  opts.Limit,
		seen:   make(map[string]time.Time),
	}
}

// Push shows a toast. It returns false when the toast was suppressed as a
// repeat.
func (n *Notifier) Push(title, description string, variant Variant) (Toast, bool) {
	if variant == "" {
		variant = VariantDefault
	}
	now := n.clock.Now()
	key := title + "\x00" + description

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.window > 0 {
		for k, at := range n.seen {
			if now.Sub(at) >= n.window {
				delete(n.seen, k)
			}
		}
		if _, dup := n.seen[key]; dup {
			if n.logger != nil {
				n.logger.Debug("toast suppressed", "title", title)
			}
			return Toast{}, false
		}
		n.seen[key] = now
	}

	t := Toast{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Variant:     variant,
		CreatedAt:   now,
	}
	n.toasts = append(n.toasts, t)
	if over := len(n.toasts) - n.limit; over > 0 {
		n.toasts = append([]Toast(nil), n.toasts[over:]...)
	}
	return t, true
}

// Dismiss removes a toast. It reports whether the id was present.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, t := range n.toasts {
		if t.ID == id {
			n.toasts = append(n.toasts[:i:i], n.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the visible toasts, newest first.
func (n *Notifier) List() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Toast, 0, len(n.toasts))
	for i := len(n.toasts) - 1; i >= 0; i-- {
		out = append(out, n.toasts[i])
	}
	return out
}

// Clear removes every toast and forgets suppression history.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = nil
	n.seen = make(map[string]time.Time)
}
