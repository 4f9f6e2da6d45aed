package sheet

import (
	"html"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RenderTable renders rows as an HTML table with A1 headers. The cell named
// by active, if any, carries class="active".
func RenderTable(sheetName string, rows [][]string, active string) string {
	activeRow, activeCol := -1, -1
	if active != "" {
		if r, c, err := FromA1(active); err == nil {
			activeRow, activeCol = r, c
		}
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var b strings.Builder
	b.WriteString(`<table class="sheet" data-sheet="`)
	b.WriteString(html.EscapeString(sheetName))
	b.WriteString(`"><thead><tr><th></th>`)
	for c := 0; c < width; c++ {
		name, _ := excelize.ColumnNumberToName(c + 1)
		b.WriteString("<th>")
		b.WriteString(name)
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")

	for r, row := range rows {
		b.WriteString("<tr><th>")
		b.WriteString(strconv.Itoa(r + 1))
		b.WriteString("</th>")
		for c := 0; c < width; c++ {
			if r == activeRow && c == activeCol {
				b.WriteString(`<td class="active">`)
			} else {
				b.WriteString("<td>")
			}
			if c < len(row) {
				b.WriteString(html.EscapeString(row[c]))
			}
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}
