package inspect

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const columnGap = "  "

// table lays rows out in padded columns. Cells wider than maxWidth display
// columns are truncated; zero disables truncation.
type table struct {
	header   []string
	rows     [][]string
	maxWidth int
}

func newTable(maxWidth int, header ...string) *table {
	return &table{header: header, maxWidth: maxWidth}
}

func (t *table) append(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) cell(s string) string {
	if t.maxWidth > 0 {
		return runewidth.Truncate(s, t.maxWidth, "…")
	}
	return s
}

func (t *table) write(w io.Writer) error {
	widths := make([]int, len(t.header))
	measure := func(cells []string) {
		for i, c := range cells {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(t.cell(c)))
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}

	var b strings.Builder
	line := func(cells []string) {
		padded := make([]string, len(widths))
		for i := range widths {
			if i < len(cells) {
				padded[i] = runewidth.FillRight(t.cell(cells[i]), widths[i])
			} else {
				padded[i] = strings.Repeat(" ", widths[i])
			}
		}
		b.WriteString(strings.TrimRight(strings.Join(padded, columnGap), " "))
		b.WriteByte('\n')
	}

	line(t.header)
	rule := make([]string, len(widths))
	for i, width := range widths {
		rule[i] = strings.Repeat("-", width)
	}
	line(rule)
	for _, row := range t.rows {
		line(row)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
