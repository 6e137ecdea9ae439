// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-trends/internal/config"
	"github.com/naka-gawa/repo-trends/internal/gateway"
	"github.com/naka-gawa/repo-trends/internal/usecase"
)

// newRootCmd builds the command tree. A fresh tree per call keeps flag state out of tests.
func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "repo-trends",
		Short: "Analyze popularity and trends of GitHub repositories.",
		Long: `repo-trends searches GitHub repositories, derives log-scaled popularity
metrics and creation years, and summarizes them as statistics and charts.
Run "serve" for the web UI or "search" for a one-off report in the terminal.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	// Add a persistent flag for verbose output, available to all commands.
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug logging")
	root.PersistentFlags().String("config", "", "Config file (any format viper reads: yaml, toml, json)")
	root.PersistentFlags().Bool("require-token", false, "Refuse to search without GITHUB_TOKEN")
	root.PersistentFlags().Duration("timeout", 0, "HTTP timeout for GitHub API calls (default 15s)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newSearchCmd())
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and wires the gateway and pipeline for a command.
func setup(cmd *cobra.Command) (*config.Config, *usecase.Pipeline, error) {
	logger := loggerFromContext(cmd.Context())

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if cfg.Token == "" {
		logger.Warn("GITHUB_TOKEN is not set, the search API allows far fewer requests without it")
	}

	githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
		Token:        cfg.Token,
		RequireToken: cfg.RequireToken,
		BaseURL:      cfg.APIBaseURL,
		GraphQLURL:   cfg.GraphQLURL,
		Timeout:      cfg.Timeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, usecase.NewPipeline(githubGateway, logger), nil
}
