// Package main provides the entry point for the sitesift CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitesift.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitesift",
		Short: "Turn a community site into deduplicated CSV datasets and a site map",
		Long: `sitesift classifies the pages of a speaking-events community site by URL
pattern, extracts typed fields from them with CSS selector rules, links
speakers to the roundtables that reference them, and writes deduplicated
CSV datasets plus markdown site documentation.

The site description, URL patterns, and selector rules live in a .sitesift
YAML file. Run "sitesift init" to create a starter file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
