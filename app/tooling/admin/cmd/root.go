// Package cmd contains the admin commands.
package cmd

import (
	"go.uber.org/zap"

	"github.com/spf13/cobra"
)

var (
	log *zap.SugaredLogger
	url string
	dsn string
)

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "Administrative tasks for the ledger",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the ledger service.")
	rootCmd.PersistentFlags().StringVarP(&dsn, "dsn", "d", "zblock/ledger.db", "Path to the sqlite database.")
}

// Execute runs the command named on the command line.
func Execute(build string, l *zap.SugaredLogger) error {
	log = l
	rootCmd.Version = build

	return rootCmd.Execute()
}
