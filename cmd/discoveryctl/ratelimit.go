package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newsreach/contact-discovery/internal/ratelimit"
)

func newRateLimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Inspect or reset per-user rate limits",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show remaining quota for every endpoint type",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := buildCore()
			if err != nil {
				return err
			}
			defer func() { _ = core.Store.Close() }()

			ctx := context.Background()
			endpoints := []string{
				ratelimit.EndpointSearch,
				ratelimit.EndpointProgress,
				ratelimit.EndpointImport,
				ratelimit.EndpointHealth,
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			for _, ep := range endpoints {
				state, err := core.Limiter.GetStatus(ctx, userFlag, ep)
				if err != nil {
					return err
				}
				if err := enc.Encode(state); err != nil {
					return err
				}
			}
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all windows and blocks for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := buildCore()
			if err != nil {
				return err
			}
			defer func() { _ = core.Store.Close() }()

			if err := core.Limiter.ResetUser(context.Background(), userFlag); err != nil {
				return err
			}
			fmt.Printf("rate limits reset for user %s\n", userFlag)
			return nil
		},
	}

	cmd.AddCommand(statusCmd)
	cmd.AddCommand(resetCmd)
	return cmd
}
