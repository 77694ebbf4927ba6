package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/ledger/foundation/ledger/database"
	"github.com/ardanlabs/ledger/foundation/ledger/database/sqldb"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema migrations to the sqlite database",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqldb.Open(sqldb.Config{DSN: dsn, Log: log})
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		defer store.Close()

		log.Infow("migrate", "status", "migrations complete", "dsn", dsn)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the aggregates straight from the sqlite database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		store, err := sqldb.Open(sqldb.Config{DSN: dsn, Log: log})
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		defer store.Close()

		counts := []struct {
			label string
			load  func(context.Context) (uint64, error)
		}{
			{"addresses", store.CountAddresses},
			{"names", store.CountNames},
			{"transactions", store.CountTransactions},
			{"blocks", store.CountBlocks},
			{"supply", store.Supply},
			{"work", store.Work},
		}

		for _, c := range counts {
			v, err := c.load(ctx)
			if errors.Is(err, database.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-13s unset\n", c.label)
				continue
			}
			if err != nil {
				return fmt.Errorf("stats %s: %w", c.label, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-13s %d\n", c.label, v)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statsCmd)
}
