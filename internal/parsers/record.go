package parsers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/janekbaraniewski/codexusage/internal/core"
)

var usageCounterKeys = []string{
	"input_tokens",
	"output_tokens",
	"cache_creation_input_tokens",
	"cache_read_input_tokens",
}

// record is one decoded line before its timestamp is resolved.
type record struct {
	raw     json.RawMessage
	ts      time.Time
	tsFrom  core.TimestampSource
	hasTS   bool
	payload core.Payload
	usage   *core.Usage
}

func decodeRecord(line []byte) record {
	raw := json.RawMessage(append([]byte(nil), line...))
	rec := record{raw: raw, payload: core.UnknownPayload{}}

	top := decodeObject(raw)
	if top == nil {
		return rec
	}

	if s, ok := top.str("timestamp"); ok {
		if t, ok := ParseTimestamp(s); ok {
			rec.ts, rec.tsFrom, rec.hasTS = t, core.TimestampExplicit, true
		}
	}
	if !rec.hasTS {
		if secs, ok := top.number("ts"); ok {
			if t, ok := EpochSeconds(secs); ok {
				rec.ts, rec.tsFrom, rec.hasTS = t, core.TimestampEpoch, true
			}
		}
	}

	rec.payload = classifyPayload(top)
	rec.usage = findUsage(top)
	return rec
}

// classifyPayload picks the body of a record (the nested "payload" object of
// rollout entries, or the record itself) and maps it onto a payload case.
func classifyPayload(top fields) core.Payload {
	body := top
	if nested := top.object("payload"); nested != nil {
		body = nested
	}
	bodyType, _ := body.str("type")
	plain := plainText(top, body)

	switch bodyType {
	case "message":
		texts := contentTexts(body)
		if plain != "" {
			texts = append(texts, plain)
		}
		role, _ := body.str("role")
		return core.MessagePayload{Role: role, Text: texts}
	case "function_call_output", "custom_tool_call_output":
		callID, _ := body.str("call_id")
		return core.FunctionCallOutputPayload{CallID: callID, Output: functionOutput(body), Text: plain}
	case "reasoning":
		summaries := summaryTexts(body)
		if plain != "" {
			summaries = append(summaries, plain)
		}
		return core.ReasoningPayload{Summaries: summaries}
	}

	if msg := top.object("message"); msg != nil && msg.has("content") {
		texts := contentTexts(msg)
		if plain != "" {
			texts = append(texts, plain)
		}
		role, _ := msg.str("role")
		return core.MessagePayload{Role: role, Text: texts}
	}
	if plain != "" {
		return core.TextPayload{Text: plain}
	}
	return core.UnknownPayload{}
}

func plainText(top, body fields) string {
	if s, ok := body.str("text"); ok && s != "" {
		return s
	}
	if s, ok := top.str("text"); ok {
		return s
	}
	return ""
}

// contentTexts returns the text fields of a content block array. A bare
// string content counts as one block.
func contentTexts(f fields) []string {
	if s, ok := f.str("content"); ok {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var out []string
	for _, item := range f.array("content") {
		block := decodeObject(item)
		if block == nil {
			continue
		}
		if s, ok := block.str("text"); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func summaryTexts(f fields) []string {
	var out []string
	for _, item := range f.array("summary") {
		if len(item) > 0 && item[0] == '"' {
			var s string
			if json.Unmarshal(item, &s) == nil && s != "" {
				out = append(out, s)
			}
			continue
		}
		if block := decodeObject(item); block != nil {
			if s, ok := block.str("text"); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// functionOutput extracts the measured output string. Tool runners often wrap
// the real output as {"output": "...", "metadata": {...}} serialized into the
// string, so a nested "output" string replaces the raw one.
func functionOutput(body fields) string {
	if s, ok := body.str("output"); ok {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "{") {
			if inner := decodeObject(json.RawMessage(trimmed)); inner != nil {
				if nested, ok := inner.str("output"); ok {
					return nested
				}
			}
		}
		return s
	}
	if inner := body.object("output"); inner != nil {
		if nested, ok := inner.str("output"); ok {
			return nested
		}
	}
	return ""
}

// findUsage looks for explicit counters on the record itself, then in the
// "usage" objects of the record, its message and its payload.
func findUsage(top fields) *core.Usage {
	if u := usageFrom(top); u != nil {
		return u
	}
	candidates := []fields{top.object("usage")}
	if msg := top.object("message"); msg != nil {
		candidates = append(candidates, msg.object("usage"))
	}
	if payload := top.object("payload"); payload != nil {
		candidates = append(candidates, payload.object("usage"))
	}
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if u := usageFrom(c); u != nil {
			return u
		}
	}
	return nil
}

func usageFrom(f fields) *core.Usage {
	var (
		u     core.Usage
		found bool
	)
	targets := []*int64{&u.InputTokens, &u.OutputTokens, &u.CacheCreationInputTokens, &u.CacheReadInputTokens}
	for i, key := range usageCounterKeys {
		if n, ok := f.number(key); ok {
			*targets[i] = int64(n)
			found = true
		}
	}
	if !found {
		return nil
	}
	return &u
}
