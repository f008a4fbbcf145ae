package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTML(t *testing.T) {
	m := New()

	out, err := m.HTML("# Дроби\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~old~~")
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id=`)
	assert.Contains(t, out, "Дроби</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<del>old</del>")
}

func TestHTMLDropsRawHTML(t *testing.T) {
	out, err := New().HTML("hello <script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestHTMLEmpty(t *testing.T) {
	out, err := New().HTML("")
	require.NoError(t, err)
	assert.Empty(t, out)
}
