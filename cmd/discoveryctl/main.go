package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newsreach/contact-discovery/discoveryservice"
	"github.com/newsreach/contact-discovery/internal/config"
	"github.com/newsreach/contact-discovery/internal/logger"
)

var (
	userFlag string
	rootCmd  = &cobra.Command{
		Use:   "discoveryctl",
		Short: "CLI for the contact discovery core",
	}
)

func buildCore() (*discoveryservice.Core, error) {
	log := logger.New("discoveryctl")
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	return discoveryservice.BuildCore(cfg, log)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "cli", "Requester user ID")

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newEnhanceCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newRateLimitCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
