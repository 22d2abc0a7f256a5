package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sig-0/travelrates/storage/types"
)

// naValues are the cell texts treated as an empty cell
var naValues = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {},
	"nan": {}, "null": {},
}

// ExtractTables parses the page and converts every table into rows,
// in document order. Table indexes start at 0 and match the
// indexes produced by LocateTitles
func ExtractTables(page string) ([]*types.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("unable to construct query doc: %w", err)
	}

	titles := locateTitles(doc.Nodes...)
	tables := make([]*types.RawTable, 0)

	doc.Find("table").Each(func(index int, table *goquery.Selection) {
		raw := &types.RawTable{
			Index: index,
			Rows:  tableRows(table),
		}

		if title, ok := titles[index]; ok {
			raw.Title = &title
		}

		tables = append(tables, raw)
	})

	return tables, nil
}

// LocateTitles maps each table position (document order) to the text of
// the nearest preceding heading (h1-h4) or caption. Tables without one
// are left out of the mapping
func LocateTitles(page string) (map[int]string, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("unable to parse html: %w", err)
	}

	return locateTitles(root), nil
}

func locateTitles(roots ...*html.Node) map[int]string {
	var (
		titles  = make(map[int]string)
		index   = 0
		heading *html.Node
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Table:
				if heading != nil {
					titles[index] = strippedText(heading)
				}

				index++
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.Caption:
				heading = n
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, root := range roots {
		walk(root)
	}

	return titles
}

// strippedText joins the trimmed text nodes under n
func strippedText(n *html.Node) string {
	var b strings.Builder

	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))

			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}

	collect(n)

	return b.String()
}

// gridRow is a table row laid out on the column grid
type gridRow struct {
	cells  []string
	onlyTH bool
}

// tableRows converts the table into key/value rows, keyed by header label
func tableRows(table *goquery.Selection) []types.Row {
	var (
		header []gridRow
		body   []gridRow
	)

	table.Children().Each(func(_ int, section *goquery.Selection) {
		switch goquery.NodeName(section) {
		case "thead":
			header = append(header, expandSpans(section.ChildrenFiltered("tr"))...)
		case "tbody", "tfoot":
			body = append(body, expandSpans(section.ChildrenFiltered("tr"))...)
		case "tr":
			body = append(body, expandSpans(section)...)
		}
	})

	// Without a thead, the leading rows made only of th cells form the header
	if len(header) == 0 {
		for len(body) > 0 && body[0].onlyTH {
			header = append(header, body[0])
			body = body[1:]
		}
	}

	if len(body) == 0 {
		return []types.Row{}
	}

	labels := columnLabels(header, body)
	columns := inferColumns(labels, body)

	rows := make([]types.Row, 0, len(body))

	for r := range body {
		row := make(types.Row, 0, len(labels))

		for c, label := range labels {
			row = append(row, types.Cell{
				Column: label,
				Value:  columns[c][r],
			})
		}

		rows = append(rows, row)
	}

	return rows
}

// expandSpans lays the rows out on a grid, repeating
// cells across their colspan and rowspan
func expandSpans(rows *goquery.Selection) []gridRow {
	type pending struct {
		text      string
		remaining int
	}

	var (
		grid  = make([]gridRow, 0, rows.Length())
		carry = make(map[int]pending)
	)

	rows.Each(func(_ int, tr *goquery.Selection) {
		var (
			line []string
			col  = 0
		)

		fill := func() {
			for {
				p, ok := carry[col]
				if !ok {
					return
				}

				line = append(line, p.text)

				if p.remaining--; p.remaining == 0 {
					delete(carry, col)
				} else {
					carry[col] = p
				}

				col++
			}
		}

		cells := tr.ChildrenFiltered("th,td")

		cells.Each(func(_ int, cell *goquery.Selection) {
			fill()

			var (
				text    = cellText(cell)
				colspan = spanAttr(cell, "colspan")
				rowspan = spanAttr(cell, "rowspan")
			)

			for i := 0; i < colspan; i++ {
				line = append(line, text)

				if rowspan > 1 {
					carry[col] = pending{text: text, remaining: rowspan - 1}
				}

				col++
			}
		})

		fill()

		grid = append(grid, gridRow{
			cells:  line,
			onlyTH: cells.Length() > 0 && cells.Length() == tr.ChildrenFiltered("th").Length(),
		})
	})

	return grid
}

func spanAttr(cell *goquery.Selection, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell.AttrOr(name, "1")))
	if err != nil || n < 1 {
		return 1
	}

	return n
}

func cellText(cell *goquery.Selection) string {
	return strings.Join(strings.Fields(cell.Text()), " ")
}

// columnLabels resolves a unique label per column. The last header row
// provides the labels, with blank cells taken from the rows above.
// Tables without a header use positional labels
func columnLabels(header, body []gridRow) []string {
	width := 0

	for _, line := range header {
		width = max(width, len(line.cells))
	}

	for _, line := range body {
		width = max(width, len(line.cells))
	}

	labels := make([]string, width)

	for c := range labels {
		for r := len(header) - 1; r >= 0; r-- {
			if c < len(header[r].cells) && header[r].cells[c] != "" {
				labels[c] = header[r].cells[c]

				break
			}
		}

		if labels[c] == "" {
			if len(header) == 0 {
				labels[c] = strconv.Itoa(c)
			} else {
				labels[c] = fmt.Sprintf("Unnamed: %d", c)
			}
		}
	}

	// De-duplicate repeated labels as "X", "X.1", "X.2"
	seen := make(map[string]int, width)

	for c, label := range labels {
		count, ok := seen[label]
		seen[label] = count + 1

		if ok {
			labels[c] = fmt.Sprintf("%s.%d", label, count)
		}
	}

	return labels
}

// inferColumns converts the body grid into typed columns. A column whose
// cells all read as numbers (thousands separators allowed) holds float64
// values, any other column keeps its text. Empty cells are nil
func inferColumns(labels []string, body []gridRow) [][]any {
	columns := make([][]any, len(labels))

	for c := range labels {
		var (
			values  = make([]any, len(body))
			numbers = make([]float64, len(body))
			numeric = true
		)

		for r, line := range body {
			if c >= len(line.cells) {
				continue
			}

			text := line.cells[c]
			if _, na := naValues[text]; na || text == "" {
				continue
			}

			values[r] = text

			n, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
			if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
				numeric = false

				continue
			}

			numbers[r] = n
		}

		if numeric {
			for r := range values {
				if values[r] != nil {
					values[r] = numbers[r]
				}
			}
		}

		columns[c] = values
	}

	return columns
}
