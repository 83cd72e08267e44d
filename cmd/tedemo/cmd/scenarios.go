package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the scripted scenarios",
	Args:  cobra.NoArgs,
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}

type scenarioRow struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Steps    int      `json:"steps"`
	Duration string   `json:"duration"`
	Agents   []string `json:"agents"`
}

func runScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog := scenario.NewCatalog(cfg.Policy)

	var rows []scenarioRow
	for _, s := range catalog.List() {
		plan, err := catalog.Plan(s.Name, scenario.Params{})
		if err != nil {
			return fmt.Errorf("planning %s: %w", s.Name, err)
		}
		row := scenarioRow{Name: s.Name, Title: s.Title, Steps: len(plan.Steps()), Duration: plan.Duration().String()}
		if plan.IsStatic() {
			row.Steps = 1
		}
		for _, a := range s.Agents {
			row.Agents = append(row.Agents, string(a))
		}
		rows = append(rows, row)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, rows)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTITLE\tSTEPS\tDURATION\tAGENTS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.Name, r.Title, r.Steps, r.Duration, strings.Join(r.Agents, ", "))
	}
	return w.Flush()
}
