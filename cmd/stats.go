package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pidruchnyk/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show content and learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		lines, err := statLines(cmd.Context(), st)
		if err != nil {
			return err
		}
		fmt.Println(cardStyle.Render(headingStyle.Render("Pidruchnyk") + "\n\n" + strings.Join(lines, "\n")))
		return nil
	},
}

func statLines(ctx context.Context, st *store.Store) ([]string, error) {
	levels, err := st.Levels().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	counts := []struct {
		label string
		fn    func(context.Context) (int, error)
	}{
		{"Subjects", st.Subjects().Count},
		{"Books", st.Books().Count},
		{"Topics", st.Topics().Count},
		{"Questions", st.Questions().Count},
		{"Users", st.Users().Count},
		{"Learning (books)", st.Progress().CountLearning},
		{"Answered", st.Progress().CountResults},
	}
	lines := []string{row("Levels", len(levels))}
	for _, c := range counts {
		n, err := c.fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", strings.ToLower(c.label), err)
		}
		lines = append(lines, row(c.label, n))
	}
	return lines, nil
}
