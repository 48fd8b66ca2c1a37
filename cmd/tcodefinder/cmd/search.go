package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/tcodefinder/internal/output"
	"github.com/Aman-CERP/tcodefinder/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit      int
	module     string
	jsonOutput bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find transaction codes for a free-text query",
		Long: `Search the catalog for transaction codes matching a free-text query.

Examples:
  tcodefinder search "create purchase order"
  tcodefinder search ME21N
  tcodefinder search "tax report argentina" --module FI --limit 5
  tcodefinder search "goods receipt" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.module, "module", "m", "", "Restrict to one application module (e.g., MM, SD, FI)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(ctx, cfg, rootLogger)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.finder.Search(ctx, query, search.Options{
		Limit:  opts.limit,
		Module: opts.module,
	})
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	out := output.New(cmd.OutOrStdout())
	if len(resp.Results) == 0 {
		out.Status("", fmt.Sprintf("No transaction codes found for %q.", query))
		return nil
	}
	for i, c := range resp.Results {
		out.Result(i+1, c.Code, c.Confidence, c.Description, c.Explanation, c.CatalogVerified)
	}
	if resp.Cached {
		out.Newline()
		out.Status("", "(cached)")
	}
	return nil
}
