// Package cmd defines and implements the CLI commands for the film crawler.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "wikifilm-crawler",
		Short: "Crawls wiki film categories into a table of films.",
		Long: `wikifilm-crawler walks a wiki category tree from one or more seed
categories, keeps the articles that look like films, and writes one row per
film (title, genre, director, country, year) to CSV and any configured sinks.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON)")
	cmd.AddCommand(newCrawlCmd(&cfgFile))
	return cmd
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the crawl.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
