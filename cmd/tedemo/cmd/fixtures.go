package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ganot/agentic-te/internal/fixtures"
	"github.com/spf13/cobra"
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Browse the demo reference data",
}

var fixturesListCmd = &cobra.Command{
	Use:   "list [kind]",
	Short: "List fixtures of one kind, or counts of every kind",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFixturesList,
}

var fixturesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search across every fixture",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFixturesSearch,
}

var (
	listLimit   int
	searchLimit int
	searchKinds []string
)

func init() {
	fixturesListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum rows (0 for all)")
	fixturesSearchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results")
	fixturesSearchCmd.Flags().StringSliceVar(&searchKinds, "kind", nil, "restrict to these kinds")
	fixturesCmd.AddCommand(fixturesListCmd, fixturesSearchCmd)
	rootCmd.AddCommand(fixturesCmd)
}

func runFixturesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, closeDB, err := openCatalog(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		counts, err := repo.Counts(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, counts)
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tCOUNT")
		for _, k := range fixtures.Kinds {
			fmt.Fprintf(w, "%s\t%d\n", k, counts[k])
		}
		return w.Flush()
	}

	kind := fixtures.Kind(args[0])
	if !kind.Valid() {
		return fmt.Errorf("unknown fixture kind %q", args[0])
	}
	items, err := repo.List(cmd.Context(), kind, fixtures.ListOptions{Limit: listLimit})
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, items)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\n", item.ID, item.Title)
	}
	return w.Flush()
}

func runFixturesSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := fixtures.SearchOptions{Limit: searchLimit}
	for _, k := range searchKinds {
		kind := fixtures.Kind(k)
		if !kind.Valid() {
			return fmt.Errorf("unknown fixture kind %q", k)
		}
		opts.Kinds = append(opts.Kinds, kind)
	}

	repo, closeDB, err := openCatalog(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	results, err := repo.Search(cmd.Context(), strings.Join(args, " "), opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "no matches")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tID\tMATCH")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Item.Kind, r.Item.ID, r.Snippet)
	}
	return w.Flush()
}
