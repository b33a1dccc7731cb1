// Package reports renders engine results for the command line as aligned
// text, CSV or JSON.
package reports

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/samber/lo"

	"github.com/janekbaraniewski/codexusage/internal/core"
)

const (
	noUsageMessage  = "No Codex usage found."
	noRecentMessage = "No recent token-bearing events found."

	maxFileWidth = 48
)

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func WriteDaily(w io.Writer, rows []core.DayRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, noUsageMessage)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tTOKENS (EST)\tMESSAGES")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", r.Date, r.Tokens, r.Messages)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\n",
		lo.SumBy(rows, func(r core.DayRow) int { return r.Tokens }),
		lo.SumBy(rows, func(r core.DayRow) int { return r.Messages }),
	)
	return tw.Flush()
}

func WriteDailyCSV(w io.Writer, rows []core.DayRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "tokens", "messages"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Date, strconv.Itoa(r.Tokens), strconv.Itoa(r.Messages)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteMonthly(w io.Writer, rows []core.MonthRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, noUsageMessage)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "MONTH\tDAYS\tTOKENS (EST)\tMESSAGES")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", r.Month, r.Days, r.Tokens, r.Messages)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t%d\n",
		lo.SumBy(rows, func(r core.MonthRow) int { return r.Days }),
		lo.SumBy(rows, func(r core.MonthRow) int { return r.Tokens }),
		lo.SumBy(rows, func(r core.MonthRow) int { return r.Messages }),
	)
	return tw.Flush()
}

// WriteSessions lists session rows; start times are shown in loc.
func WriteSessions(w io.Writer, rows []core.SessionRow, loc *time.Location) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, noUsageMessage)
		return err
	}
	if loc == nil {
		loc = time.Local
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SESSION\tENTRIES\tTOKENS (EST)\tSTARTED")
	for _, r := range rows {
		started := "-"
		if !r.Started.IsZero() {
			started = r.Started.In(loc).Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", truncateLeft(r.File, maxFileWidth), r.Entries, r.Tokens, started)
	}
	return tw.Flush()
}

func WriteTail(w io.Writer, rows []core.RecentEvent) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, noRecentMessage)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tTOKENS\tTYPE\tFILE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			r.Time.UTC().Format(time.RFC3339), r.Tokens, r.Kind, ansi.Truncate(r.File, maxFileWidth, "…"))
	}
	return tw.Flush()
}

// truncateLeft keeps the tail of s, which is the informative end of a path.
func truncateLeft(s string, width int) string {
	if ansi.StringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && ansi.StringWidth(string(runes))+1 > width {
		runes = runes[1:]
	}
	return "…" + string(runes)
}
