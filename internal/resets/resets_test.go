package resets

import (
	"reflect"
	"testing"
	"time"

	"github.com/janekbaraniewski/codexusage/internal/core"
)

func TestCandidates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int64
	}{
		{"pipe prefix", "usage_limit|1735689600", []int64{1735689600}},
		{"pipe prefix without keyword or leading 1", "x|2735689600", []int64{2735689600}},
		{"keyword standalone", "Your quota resets at 1735689600 UTC", []int64{1735689600}},
		{"keyword is case-insensitive", "RATE LIMIT until 1735689600", []int64{1735689600}},
		{"no keyword no pipe", "build id 1735689600", nil},
		{"keyword but leading digit not 1", "reset 2735689600", nil},
		{"too long", "reset 17356896001", nil},
		{"too short", "reset 173568960", nil},
		{"two candidates", "window 1735689600 and |1735693200", []int64{1735689600, 1735693200}},
		{"adjacent spaces between values", "limit 1700000000 1700000001", []int64{1700000000, 1700000001}},
		{"keyword but glued to letters", "rate limit hit for req_a1799999999b", nil},
		{"keyword but glued to underscore", "quota id_1799999999", nil},
		{"keyword with punctuation around", "reset at (1735689600).", []int64{1735689600}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Candidates(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestScanReturnsLatestAcrossCorpus(t *testing.T) {
	events := []core.Event{
		{Payload: core.TextPayload{Text: "limit resets 1735689600"}},
		{Payload: core.MessagePayload{Text: []string{"nothing here", "codex|1735700000"}}},
		{Payload: core.FunctionCallOutputPayload{Output: "quota window 1735690000"}},
		{Payload: core.UnknownPayload{}},
		{},
	}

	got, ok := Scan(events)
	if !ok {
		t.Fatal("Scan() found nothing")
	}
	want := time.Unix(1735700000, 0)
	if !got.Equal(want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScanNoCandidates(t *testing.T) {
	if _, ok := Scan([]core.Event{{Payload: core.TextPayload{Text: "hello 1735689600"}}}); ok {
		t.Error("Scan() should ignore numbers without a keyword or pipe")
	}
	if _, ok := Scan(nil); ok {
		t.Error("Scan(nil) should find nothing")
	}
}
