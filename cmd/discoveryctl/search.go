package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/newsreach/contact-discovery/internal/model"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a discovery search in-process and print the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			maxResults, _ := cmd.Flags().GetInt("max-results")
			countries, _ := cmd.Flags().GetStringSlice("country")
			beats, _ := cmd.Flags().GetStringSlice("beat")
			diversity, _ := cmd.Flags().GetBool("diversity")
			if query == "" {
				return fmt.Errorf("--query required")
			}

			core, err := buildCore()
			if err != nil {
				return err
			}
			defer func() { _ = core.Store.Close() }()

			ctx := context.Background()
			id, err := core.Orchestrator.Submit(ctx, model.SearchRequest{
				Query: query,
				Criteria: model.SearchCriteria{
					Countries: countries,
					Beats:     beats,
				},
				Options: model.SearchOptions{
					MaxResults:     maxResults,
					DiversityBoost: diversity,
				},
				RequesterID: userFlag,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "search %s submitted\n", id)

			ticker := time.NewTicker(500 * time.Millisecond)
			defer ticker.Stop()
			for range ticker.C {
				rec, err := core.Orchestrator.GetStatus(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "status=%s progress=%d%%\n", rec.Status, rec.Progress)
				if rec.Status.IsTerminal() {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(rec)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringP("query", "q", "", "Search query")
	cmd.Flags().Int("max-results", 0, "Cap on returned contacts (0 = server default)")
	cmd.Flags().StringSlice("country", nil, "Country criterion (repeatable)")
	cmd.Flags().StringSlice("beat", nil, "Beat criterion (repeatable)")
	cmd.Flags().Bool("diversity", false, "Apply diversity boost to the query set")
	return cmd
}
