package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/pidruchnyk/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import levels and content from a YAML file",
	Long: "Import levels, subjects, books, topics and questions from a YAML file.\n" +
		"Existing rows (matched by code, slug or name) are left alone, so the\n" +
		"same file can be imported repeatedly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()

		doc, err := seed.Parse(f)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		st, _, logger, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		sum, err := seed.Import(cmd.Context(), st, doc)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		logger.Info("seed imported", "file", path)
		fmt.Printf("Created %d levels, %d subjects, %d books, %d topics, %d questions.\n",
			sum.Levels, sum.Subjects, sum.Books, sum.Topics, sum.Questions)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringP("file", "f", "seed.yaml", "Seed file")
}
