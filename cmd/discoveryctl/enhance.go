package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newsreach/contact-discovery/internal/enhance"
	"github.com/newsreach/contact-discovery/internal/model"
)

func newEnhanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enhance",
		Short: "Expand a base query into an enhanced query set",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			typ, _ := cmd.Flags().GetString("type")
			count, _ := cmd.Flags().GetInt("count")
			countries, _ := cmd.Flags().GetStringSlice("country")
			languages, _ := cmd.Flags().GetStringSlice("language")
			if query == "" {
				return fmt.Errorf("--query required")
			}

			core, err := buildCore()
			if err != nil {
				return err
			}
			defer func() { _ = core.Store.Close() }()

			queries, err := core.Enhancer.EnhanceQuery(context.Background(), enhance.Request{
				BaseQuery: query,
				Criteria: model.SearchCriteria{
					Countries: countries,
					Languages: languages,
				},
				Type:        model.EnhancementType(typ),
				TargetCount: count,
			})
			if err != nil {
				return err
			}
			for i, q := range queries {
				fmt.Printf("%d. %s\n", i+1, q)
			}
			return nil
		},
	}
	cmd.Flags().StringP("query", "q", "", "Base query")
	cmd.Flags().StringP("type", "t", string(model.EnhancementExpansion), "Enhancement type (expansion|refinement|localization|diversification)")
	cmd.Flags().IntP("count", "n", 5, "Target query count")
	cmd.Flags().StringSlice("country", nil, "Country criterion (repeatable)")
	cmd.Flags().StringSlice("language", nil, "Language criterion (repeatable)")
	return cmd
}
