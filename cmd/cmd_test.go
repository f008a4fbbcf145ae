package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/store"
)

func TestStatLines(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	st, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.Levels().Create(ctx, &content.Level{Code: "basic", Name: content.Text{UK: "Базовий"}}))
	require.NoError(t, st.Subjects().Create(ctx, &content.Subject{Slug: "math", Name: content.Text{UK: "Математика"}}))

	lines, err := statLines(ctx, st)
	require.NoError(t, err)
	require.Len(t, lines, 8)
	assert.Contains(t, lines[0], "Levels")
	assert.True(t, strings.HasSuffix(lines[0], "1"), lines[0])
	assert.Contains(t, lines[1], "Subjects")
	assert.True(t, strings.HasSuffix(lines[1], "1"), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], "0"), lines[2])
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.0042", formatCost(0.0042))
	assert.Equal(t, "$1.50", formatCost(1.5))
	assert.Equal(t, "gpt-4", truncate("gpt-4o-mini", 5))
	assert.Equal(t, "short", truncate("short", 10))
}
