package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/ganot/agentic-te/internal/clock"
	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario>",
	Short: "Play a scenario and print its activity timeline",
	Long: `Play a scenario against a fresh activity store and print every change
as it lands, followed by the chosen display surface.

Examples:
  tedemo run expense-flow --merchant "Cafe X" --amount 150
  tedemo run trip-booking --destination Boston --surface widget
  tedemo run fraud-check --realtime`,
	Args: cobra.ExactArgs(1),
	RunE: runScenario,
}

var (
	runParams   scenario.Params
	runRealtime bool
	runSurface  string
	runLimit    int
)

func init() {
	runCmd.Flags().StringVar(&runParams.Merchant, "merchant", "", "merchant name")
	runCmd.Flags().Float64Var(&runParams.Amount, "amount", 0, "transaction amount in USD")
	runCmd.Flags().StringVar(&runParams.Destination, "destination", "", "trip destination")
	runCmd.Flags().StringVar(&runParams.Department, "department", "", "budget department")
	runCmd.Flags().BoolVar(&runRealtime, "realtime", false, "play on the wall clock instead of instantly")
	runCmd.Flags().StringVar(&runSurface, "surface", string(activity.SurfacePanel), "surface to render at the end (panel, widget, list, orb)")
	runCmd.Flags().IntVar(&runLimit, "limit", 5, "records shown by the surface")
	rootCmd.AddCommand(runCmd)
}

type runOutput struct {
	Run     scenario.RunInfo  `json:"run"`
	Records []activity.Record `json:"records"`
	View    any               `json:"view"`
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	surface := activity.Surface(runSurface)

	var clk clock.Clock
	var manual *clock.Manual
	if runRealtime {
		clk = clock.New()
	} else {
		manual = clock.NewManual(time.Now())
		clk = manual
	}

	store := activity.NewStore(clk, nil, activity.StoreOptions{Lenient: !cfg.Demo.StrictTransitions})
	runner := scenario.NewRunner(store, scenario.NewCatalog(cfg.Policy), clk, nil)
	defer runner.Close()

	updates := store.Subscribe()
	defer store.Unsubscribe(updates)
	<-updates

	start := clk.Now()
	info, err := runner.Run(args[0], runParams)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tl := &timeline{out: out, start: start, seen: map[string]activity.Record{}, quiet: jsonOutput}
	if !jsonOutput {
		fmt.Fprintf(out, "%s  run %s  %d steps over %s\n", info.Scenario, info.RunID, info.Steps, info.Duration)
	}

	drain := func() {
		for {
			select {
			case snap := <-updates:
				tl.print(snap, clk.Now())
			default:
				return
			}
		}
	}

	if manual != nil {
		drain()
		for manual.Pending() > 0 {
			manual.Advance(100 * time.Millisecond)
			drain()
		}
	} else {
		done := runner.Done()
	wait:
		for {
			select {
			case snap := <-updates:
				tl.print(snap, clk.Now())
			case <-done:
				drain()
				break wait
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		}
	}

	records := store.Records()
	view, err := activity.Render(surface, records, clk.Now(), runLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, runOutput{Run: info, Records: records, View: view})
	}
	fmt.Fprintf(out, "\n%s view:\n", surface)
	return writeJSON(out, view)
}

// timeline prints each record change once.
type timeline struct {
	out   io.Writer
	start time.Time
	seen  map[string]activity.Record
	quiet bool
}

func (t *timeline) print(snap activity.Snapshot, now time.Time) {
	for _, r := range snap.Records {
		prev, ok := t.seen[r.ID]
		t.seen[r.ID] = r
		if ok && prev.Status == r.Status && prev.Message == r.Message && sameProgress(prev.Progress, r.Progress) {
			continue
		}
		if t.quiet {
			continue
		}
		progress := ""
		if r.Progress != nil {
			progress = fmt.Sprintf(" %3d%%", *r.Progress)
		}
		fmt.Fprintf(t.out, "  +%5.1fs  %-22s %-10s%s  %s\n",
			now.Sub(t.start).Seconds(), r.AgentType, r.Status, progress, r.Message)
	}
}

func sameProgress(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
