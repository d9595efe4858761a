package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"KIND", "NAME"}, [][]string{
		{"agent", "AI Agent"},
		{"outputTransformer", "Output Transformer"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "  KIND               NAME", lines[0])
	assert.Equal(t, "  "+strings.Repeat("─", 17)+"  "+strings.Repeat("─", 18), lines[1])
	assert.Equal(t, "  agent              AI Agent", lines[2])
	assert.Equal(t, "  outputTransformer  Output Transformer", lines[3])
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"KIND"}, nil)
	assert.Empty(t, buf.String())
}

func TestBannerAndIcons(t *testing.T) {
	var buf bytes.Buffer
	Banner(&buf, "node catalog")
	assert.Equal(t, "agentflow — node catalog\n\n", buf.String())

	assert.Equal(t, "✓", StatusIcon(true))
	assert.Equal(t, "✗", StatusIcon(false))
	assert.Equal(t, "⚠", WarnIcon())
	assert.Equal(t, "■", Swatch("#3b82f6"))
	assert.Equal(t, "■", Swatch("blue"))
}
