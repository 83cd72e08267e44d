package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ganot/agentic-te/internal/domain/flows"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [user-id]",
	Short: "Build an expense report for one traveler, or everyone",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

var tripCmd = &cobra.Command{
	Use:   "plan-trip <destination>",
	Short: "Rank transport and hotels for a trip",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanTrip,
}

var tripReq flows.TripRequest

func init() {
	tripCmd.Flags().StringVar(&tripReq.Origin, "origin", "", "origin city (default San Francisco)")
	tripCmd.Flags().Float64Var(&tripReq.Budget, "budget", 0, "total budget in USD")
	tripCmd.Flags().IntVar(&tripReq.Nights, "nights", 0, "hotel nights")
	tripCmd.Flags().BoolVar(&tripReq.PreferLowCarbon, "low-carbon", false, "rank by emissions first")
	rootCmd.AddCommand(reportCmd, tripCmd)
}

func newFlowService(cmd *cobra.Command) (*flows.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	repo, closeDB, err := openCatalog(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return flows.NewService(repo, cfg.Policy, nil), closeDB, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	svc, closeDB, err := newFlowService(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	userID := ""
	if len(args) == 1 {
		userID = args[0]
	}
	report, err := svc.GenerateExpenseReport(cmd.Context(), userID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, report)
	}

	fmt.Fprintln(out, report.Summary)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nCATEGORY\tCOUNT\tTOTAL")
	for _, c := range report.ByCategory {
		fmt.Fprintf(w, "%s\t%d\t$%s\n", c.Category, c.Count, humanize.CommafWithDigits(c.Total, 2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, f := range report.Flagged {
		fmt.Fprintf(out, "! %s %s $%s: %v\n", f.TransactionID, f.Merchant, humanize.CommafWithDigits(f.Amount, 2), f.Reasons)
	}
	return nil
}

func runPlanTrip(cmd *cobra.Command, args []string) error {
	svc, closeDB, err := newFlowService(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	req := tripReq
	req.Destination = args[0]
	plan, err := svc.PlanTrip(cmd.Context(), req)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, plan)
	}

	fmt.Fprintln(out, plan.Summary)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nOPTION\tMODE\tPRICE\tCO2 KG\tIN BUDGET")
	for _, t := range plan.Transport {
		fmt.Fprintf(w, "%s\t%s\t$%s\t%.0f\t%v\n", t.Label, t.Mode, humanize.CommafWithDigits(t.Price, 2), t.CO2Kg, t.WithinBudget)
	}
	fmt.Fprintln(w, "\nHOTEL\tNIGHTLY\tTOTAL\tCO2 KG\tIN BUDGET")
	for _, h := range plan.Hotels {
		fmt.Fprintf(w, "%s\t$%s\t$%s\t%.0f\t%v\n", h.Name, humanize.CommafWithDigits(h.NightlyRate, 2), humanize.CommafWithDigits(h.Total, 2), h.CO2Kg, h.WithinBudget)
	}
	return w.Flush()
}
