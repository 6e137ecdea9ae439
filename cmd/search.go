package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-trends/internal/domain"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search repositories and print the analysis",
		Long: `Runs one search against the GitHub API, analyzes the results and prints
the summary, the language ranking, the creation trend and the fetched rows.
Without a query argument the configured default query is used.`,
		Example: `  repo-trends search "language:Go topic:cli" --sort forks --count 50
  repo-trends search "stars:>1000" --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, pipeline, err := setup(cmd)
			if err != nil {
				return err
			}

			query := cfg.DefaultQuery()
			if len(args) == 1 {
				query.Text = args[0]
			}
			if cmd.Flags().Changed("sort") {
				s, _ := cmd.Flags().GetString("sort")
				query.Sort = domain.Sort(s)
			}
			if cmd.Flags().Changed("order") {
				o, _ := cmd.Flags().GetString("order")
				query.Order = domain.Order(o)
			}
			if cmd.Flags().Changed("count") {
				query.Count, _ = cmd.Flags().GetInt("count")
			}
			format, _ := cmd.Flags().GetString("format")
			render, ok := renderers[format]
			if !ok {
				return fmt.Errorf("unsupported format %q: use table, json or csv", format)
			}

			analysis, err := pipeline.Run(cmd.Context(), query)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), analysis)
		},
	}
	cmd.Flags().StringP("sort", "s", string(domain.SortStars), "Sort by: stars, forks or updated")
	cmd.Flags().StringP("order", "o", string(domain.OrderDesc), "Order: desc or asc")
	cmd.Flags().IntP("count", "n", 20, fmt.Sprintf("Number of repositories to fetch (1-%d)", domain.MaxCount))
	cmd.Flags().StringP("format", "f", "table", "Output format: table, json or csv")
	return cmd
}
