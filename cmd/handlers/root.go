/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsintel/internal/config"
	"newsintel/internal/logger"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "newsintel",
		Short: "Newsintel enriches scraped news articles and serves personalized feeds.",
		Long: `Newsintel is the content-intelligence pipeline of a news aggregator.

It normalizes scraped articles into a canonical form, classifies their
sentiment, generates bounded summaries, and ranks the results per user
with a hybrid content/collaborative recommender.`,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.newsintel.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewIngestCmd())
	rootCmd.AddCommand(NewEnrichCmd())
	rootCmd.AddCommand(NewFeedCmd())
	rootCmd.AddCommand(NewFailedCmd())
	rootCmd.AddCommand(NewSentimentCmd())
	rootCmd.AddCommand(NewInteractCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.App.LogLevel != "" {
		logger.SetLevel(cfg.App.LogLevel)
	}
}
