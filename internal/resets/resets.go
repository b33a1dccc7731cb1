// Package resets finds externally announced quota reset instants embedded in
// event text.
package resets

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/janekbaraniewski/codexusage/internal/core"
)

const epochDigits = 10

var (
	digitRun     = regexp.MustCompile(`[0-9]+`)
	keywordMatch = regexp.MustCompile(`(?i)limit|reset|window|quota`)
)

// Scan returns the latest reset instant found in any event's text.
func Scan(events []core.Event) (time.Time, bool) {
	var best int64
	for _, ev := range events {
		for _, text := range core.EventTexts(ev) {
			for _, secs := range Candidates(text) {
				if secs > best {
					best = secs
				}
			}
		}
	}
	if best == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(best * 1000).UTC(), true
}

// Candidates returns the epoch-second values text announces: any 10-digit
// number right after '|', and, when the text mentions a limit, reset, window
// or quota, any standalone 10-digit number starting with 1.
func Candidates(text string) []int64 {
	if text == "" || !strings.ContainsAny(text, "0123456789") {
		return nil
	}
	keyword := keywordMatch.MatchString(text)

	var out []int64
	for _, loc := range digitRun.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if end-start != epochDigits {
			continue
		}
		run := text[start:end]
		afterPipe := start > 0 && text[start-1] == '|'
		standalone := (start == 0 || !isWordByte(text[start-1])) &&
			(end == len(text) || !isWordByte(text[end]))
		if !afterPipe && !(keyword && standalone && run[0] == '1') {
			continue
		}
		secs, err := strconv.ParseInt(run, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, secs)
	}
	return out
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
