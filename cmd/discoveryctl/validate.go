package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newsreach/contact-discovery/internal/emailcheck"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate one or more email addresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			emails, _ := cmd.Flags().GetStringSlice("email")
			strict, _ := cmd.Flags().GetBool("strict")
			if len(emails) == 0 {
				return fmt.Errorf("--email required")
			}

			core, err := buildCore()
			if err != nil {
				return err
			}
			defer func() { _ = core.Store.Close() }()

			results, err := core.Validator.ValidateMultiple(context.Background(), emails, emailcheck.Options{Strict: strict})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}
	cmd.Flags().StringSliceP("email", "e", nil, "Email address (repeatable)")
	cmd.Flags().Bool("strict", false, "Use strict validation mode")
	return cmd
}
