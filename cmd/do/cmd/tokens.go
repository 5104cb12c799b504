package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtpultz/goal-digger/internal/repository"
)

func TokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Maintain verification and password reset tokens",
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete tokens that expired or were used before the cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, _, err := openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			deleted, err := repository.NewTokenRepository(database).CleanupExpired(cmd.Context(), olderThan)
			if err != nil {
				return fmt.Errorf("failed to prune tokens: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d tokens\n", deleted)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "keep tokens that expired more recently than this")

	cmd.AddCommand(prune)
	return cmd
}
