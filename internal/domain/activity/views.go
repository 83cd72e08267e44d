package activity

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// Surface names a display surface.
type Surface string

const (
	SurfacePanel  Surface = "panel"
	SurfaceWidget Surface = "widget"
	SurfaceList   Surface = "list"
	SurfaceOrb    Surface = "orb"
)

// Surfaces lists every display surface.
var Surfaces = []Surface{SurfacePanel, SurfaceWidget, SurfaceList, SurfaceOrb}

// Tone is the visual treatment of a card.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	ToneInfo     Tone = "info"
	ToneProgress Tone = "progress"
	ToneSuccess  Tone = "success"
	ToneDanger   Tone = "danger"
)

// ToneFor maps a status to its card tone.
func ToneFor(s Status) Tone {
	switch s {
	case StatusActive:
		return ToneInfo
	case StatusProcessing:
		return ToneProgress
	case StatusCompleted:
		return ToneSuccess
	case StatusError:
		return ToneDanger
	default:
		return ToneNeutral
	}
}

// Card is a record prepared for display.
type Card struct {
	Record
	Tone Tone   `json:"tone"`
	Ago  string `json:"ago"`
}

// NewCard renders r relative to now.
func NewCard(r Record, now time.Time) Card {
	return Card{Record: r, Tone: ToneFor(r.Status), Ago: RelativeTime(r.Timestamp, now)}
}

// RelativeTime formats t relative to now, e.g. "3 seconds ago".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now.Sub(t) < time.Second && t.Sub(now) < time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// PanelView splits activity into what agents are working on and what they
// finished.
type PanelView struct {
	Working   []Card `json:"working"`
	Completed []Card `json:"completed"`
	Errors    []Card `json:"errors"`
}

// Panel renders the activity panel. completedLimit caps the completed
// bucket; zero means no cap.
func Panel(records []Record, now time.Time, completedLimit int) PanelView {
	view := PanelView{Working: []Card{}, Completed: []Card{}, Errors: []Card{}}
	for _, r := range newestFirst(records) {
		card := NewCard(r, now)
		switch {
		case r.Status.Working():
			view.Working = append(view.Working, card)
		case r.Status == StatusCompleted:
			if completedLimit <= 0 || len(view.Completed) < completedLimit {
				view.Completed = append(view.Completed, card)
			}
		case r.Status == StatusError:
			view.Errors = append(view.Errors, card)
		}
	}
	return view
}

// DefaultWidgetSize is the number of cards the floating widget shows.
const DefaultWidgetSize = 3

// WidgetView is the floating agent widget.
type WidgetView struct {
	Recent  []Card `json:"recent"`
	Working int    `json:"working"`
	Total   int    `json:"total"`
}

// Widget renders the n most recent records; n <= 0 uses DefaultWidgetSize.
func Widget(records []Record, now time.Time, n int) WidgetView {
	if n <= 0 {
		n = DefaultWidgetSize
	}
	view := WidgetView{Recent: []Card{}, Total: len(records)}
	for i, r := range newestFirst(records) {
		if r.Status.Working() {
			view.Working++
		}
		if i < n {
			view.Recent = append(view.Recent, NewCard(r, now))
		}
	}
	return view
}

// InlineList renders a filtered list in insertion order.
func InlineList(records []Record, now time.Time, opts ListOptions) []Card {
	filtered := Filter(records, opts)
	cards := make([]Card, 0, len(filtered))
	for _, r := range filtered {
		cards = append(cards, NewCard(r, now))
	}
	return cards
}

// OrbState is the aggregate state shown by the status orb.
type OrbState string

const (
	OrbIdle      OrbState = "idle"
	OrbWorking   OrbState = "working"
	OrbCompleted OrbState = "completed"
	OrbError     OrbState = "error"
)

// OrbView summarizes the activity list.
type OrbView struct {
	State     OrbState `json:"state"`
	Working   int      `json:"working"`
	Completed int      `json:"completed"`
	Errors    int      `json:"errors"`
	Label     string   `json:"label"`
}

// Orb aggregates records: any error wins, then any working agent, then
// completed work.
func Orb(records []Record) OrbView {
	var view OrbView
	for _, r := range records {
		switch {
		case r.Status.Working():
			view.Working++
		case r.Status == StatusCompleted:
			view.Completed++
		case r.Status == StatusError:
			view.Errors++
		}
	}

	switch {
	case view.Errors > 0:
		view.State = OrbError
		view.Label = fmt.Sprintf("%d agent step(s) need attention", view.Errors)
	case view.Working > 0:
		view.State = OrbWorking
		view.Label = fmt.Sprintf("%d agent(s) working", view.Working)
	case view.Completed > 0:
		view.State = OrbCompleted
		view.Label = fmt.Sprintf("%d step(s) completed", view.Completed)
	default:
		view.State = OrbIdle
		view.Label = "Agents idle"
	}
	return view
}

// Render builds the named surface. limit applies to the widget size, the
// panel's completed bucket and the inline list.
func Render(surface Surface, records []Record, now time.Time, limit int) (any, error) {
	switch surface {
	case SurfacePanel:
		return Panel(records, now, limit), nil
	case SurfaceWidget:
		return Widget(records, now, limit), nil
	case SurfaceList:
		return InlineList(records, now, ListOptions{Limit: limit}), nil
	case SurfaceOrb:
		return Orb(records), nil
	}
	return nil, fmt.Errorf("%w: unknown surface %q", ErrInvalidInput, surface)
}

// newestFirst orders by timestamp descending; ties keep the later-inserted
// record first.
func newestFirst(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	reverse(out)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
