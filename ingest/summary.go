package ingest

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Summary is the outcome of a single source harvest
type Summary struct {
	Err error // the harvest or save failure, if any

	Source         string
	Tables         int
	Rates          int
	ExchangeRates  int
	Accommodations int
}

// Failed returns a flag indicating if the source harvest failed
func (s Summary) Failed() bool {
	return s.Err != nil
}

// Status returns the printable harvest status
func (s Summary) Status() string {
	if s.Err != nil {
		return "failed: " + s.Err.Error()
	}

	return "ok"
}

// AllFailed returns a flag indicating if every source harvest failed.
// An empty run has not failed
func AllFailed(summaries []Summary) bool {
	if len(summaries) == 0 {
		return false
	}

	for _, s := range summaries {
		if !s.Failed() {
			return false
		}
	}

	return true
}

// RenderSummaries writes the run summaries as a table
func RenderSummaries(w io.Writer, summaries []Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Source", "Tables", "Rates", "Exchange rates", "Accommodations", "Status"})

	for _, s := range summaries {
		t.AppendRow(table.Row{
			s.Source,
			s.Tables,
			s.Rates,
			s.ExchangeRates,
			s.Accommodations,
			s.Status(),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}
