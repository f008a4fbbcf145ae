package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Opening the store migrates it.
		st, cfg, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		fmt.Printf("Schema up to date (%s).\n", cfg.DB.Driver)
		return nil
	},
}
