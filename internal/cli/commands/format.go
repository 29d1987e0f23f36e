package commands

import (
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func money(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
