package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var dbWipeForce bool

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Schema init already ran in the persistent pre-run; rerunning is
		// harmless since every statement is idempotent.
		if err := dbClient.InitSchema(context.Background()); err != nil {
			return err
		}
		fmt.Println("Schema initialized")
		return nil
	},
}

var dbWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all data, keeping the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !dbWipeForce {
			return fmt.Errorf("refusing to wipe without --force")
		}
		if err := dbClient.WipeData(context.Background()); err != nil {
			return err
		}
		fmt.Println("All data deleted")
		return nil
	},
}

func init() {
	dbWipeCmd.Flags().BoolVar(&dbWipeForce, "force", false, "confirm deletion of all data")

	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbWipeCmd)
	rootCmd.AddCommand(dbCmd)
}
