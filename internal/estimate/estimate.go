// Package estimate approximates language-model token counts for events.
package estimate

import (
	"fmt"
	"unicode/utf8"

	"github.com/janekbaraniewski/codexusage/internal/core"
)

// CharsPerToken is the average character count assumed per token.
const CharsPerToken = 4

// Tokens returns the estimated token count for ev. Explicit usage counters
// take precedence over the text heuristic.
func Tokens(ev core.Event) int {
	if ev.Usage != nil {
		if total := ev.Usage.Total(); total > 0 {
			return int(total)
		}
		return 0
	}

	switch p := ev.Payload.(type) {
	case nil:
		return 0
	case core.MessagePayload:
		return sumTexts(p.Text)
	case core.TextPayload:
		return TextTokens(p.Text)
	case core.FunctionCallOutputPayload:
		return TextTokens(p.Output) + TextTokens(p.Text)
	case core.ReasoningPayload:
		return sumTexts(p.Summaries)
	case core.UnknownPayload:
		return 0
	default:
		panic(fmt.Sprintf("estimate: unhandled payload %T", p))
	}
}

// TextTokens estimates round(len/4) where len counts UTF-16 code units.
func TextTokens(s string) int {
	if s == "" {
		return 0
	}
	n := utf16Len(s)
	return (n + CharsPerToken/2) / CharsPerToken
}

func sumTexts(texts []string) int {
	total := 0
	for _, t := range texts {
		total += TextTokens(t)
	}
	return total
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 && r <= utf8.MaxRune {
			n += 2
		} else {
			n++
		}
	}
	return n
}
