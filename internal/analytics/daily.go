package analytics

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/janekbaraniewski/codexusage/internal/core"
	"github.com/janekbaraniewski/codexusage/internal/discovery"
	"github.com/janekbaraniewski/codexusage/internal/estimate"
)

// DailyRollup groups events by calendar day in loc, sorted by date.
func DailyRollup(events []core.Event, loc *time.Location) []core.DayRow {
	if loc == nil {
		loc = time.Local
	}

	byDate := make(map[string]*core.DayRow)
	for _, ev := range events {
		date, ok := DayKey(ev, loc)
		if !ok {
			continue
		}
		row, exists := byDate[date]
		if !exists {
			row = &core.DayRow{Date: date}
			byDate[date] = row
		}
		tokens := estimate.Tokens(ev)
		row.Tokens += tokens
		if tokens > 0 {
			row.Messages++
		}
	}

	dates := lo.Keys(byDate)
	sort.Strings(dates)
	return lo.Map(dates, func(d string, _ int) core.DayRow { return *byDate[d] })
}

// DayKey derives the calendar day of an event. A timestamp that only came
// from the file mtime yields to a sessions/YYYY/MM/DD path date.
func DayKey(ev core.Event, loc *time.Location) (string, bool) {
	if ev.Timestamp.IsZero() || ev.TimestampSource == core.TimestampFileModTime {
		if d, ok := DayFromSessionPath(ev.SourceFile); ok {
			return d, true
		}
	}
	if ev.Timestamp.IsZero() {
		return "", false
	}
	return ev.Timestamp.In(loc).Format(core.DateLayout), true
}

// DayFromSessionPath reads the date encoded as .../sessions/YYYY/MM/DD/<file>.
func DayFromSessionPath(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	si := lo.IndexOf(parts, discovery.SessionsDirName)
	if si < 0 || len(parts) <= si+4 {
		return "", false
	}

	candidate := fmt.Sprintf("%s-%s-%s", parts[si+1], parts[si+2], parts[si+3])
	if _, err := time.Parse(core.DateLayout, candidate); err != nil {
		return "", false
	}
	return candidate, true
}

// MonthlyRollup folds daily rows into calendar months.
func MonthlyRollup(days []core.DayRow) []core.MonthRow {
	byMonth := make(map[string]*core.MonthRow)
	for _, d := range days {
		if len(d.Date) < 7 {
			continue
		}
		key := d.Date[:7]
		row, ok := byMonth[key]
		if !ok {
			row = &core.MonthRow{Month: key}
			byMonth[key] = row
		}
		row.Days++
		row.Tokens += d.Tokens
		row.Messages += d.Messages
	}

	months := lo.Keys(byMonth)
	sort.Strings(months)
	return lo.Map(months, func(m string, _ int) core.MonthRow { return *byMonth[m] })
}
