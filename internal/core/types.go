package core

import (
	"encoding/json"
	"time"
)

// MinuteKeyLayout formats minute bucket keys. Keys are always UTC so that
// lexical order matches chronological order.
const MinuteKeyLayout = "2006-01-02T15:04:05.000Z"

// DateLayout formats calendar day keys.
const DateLayout = "2006-01-02"

type EventKind string

const (
	KindMessage            EventKind = "message"
	KindFunctionCallOutput EventKind = "function_call_output"
	KindReasoning          EventKind = "reasoning"
	KindOther              EventKind = "other"
)

// TimestampSource records which rule resolved an event's timestamp.
type TimestampSource int

const (
	TimestampExplicit TimestampSource = iota
	TimestampEpoch
	TimestampCarried
	TimestampFileModTime
)

func (s TimestampSource) String() string {
	switch s {
	case TimestampExplicit:
		return "explicit"
	case TimestampEpoch:
		return "epoch"
	case TimestampCarried:
		return "carried"
	case TimestampFileModTime:
		return "file_mtime"
	default:
		return "unknown"
	}
}

// Usage holds explicit token counters reported by the log writer.
type Usage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// Event is one decoded, timestamp-normalized log record.
type Event struct {
	SourceFile      string          `json:"source_file"`
	Timestamp       time.Time       `json:"timestamp"`
	TimestampSource TimestampSource `json:"-"`
	Kind            EventKind       `json:"kind"`
	Payload         Payload         `json:"-"`
	Usage           *Usage          `json:"usage,omitempty"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

type TimeBucket struct {
	MinuteKey string `json:"minute"`
	Tokens    int    `json:"tokens"`
	Messages  int    `json:"messages"`
}

type DayRow struct {
	Date     string `json:"date"`
	Tokens   int    `json:"tokens"`
	Messages int    `json:"messages"`
}

type MonthRow struct {
	Month    string `json:"month"` // "2025-01"
	Days     int    `json:"days"`
	Tokens   int    `json:"tokens"`
	Messages int    `json:"messages"`
}

// SessionRow summarizes one session file.
type SessionRow struct {
	Path    string    `json:"path"`
	File    string    `json:"file"` // short label, YYYY/MM/DD/name
	Entries int       `json:"entries"`
	Tokens  int       `json:"tokens"`
	Started time.Time `json:"started,omitempty"` // first explicit timestamp, zero if none
}

type RecentEvent struct {
	Time   time.Time `json:"time"`
	Tokens int       `json:"tokens"`
	Kind   EventKind `json:"type"`
	File   string    `json:"file"`
}

// Snapshot is the result of one aggregation pass over the whole corpus.
// Timeline and Points are parallel slices.
type Snapshot struct {
	GeneratedAt   time.Time    `json:"generated_at"`
	Files         int          `json:"files"`
	TotalTokens   int          `json:"total_tokens"`
	TotalMessages int          `json:"total_messages"`
	Timeline      []string     `json:"timeline"`
	Points        []TimeBucket `json:"points"`
}

type Burn struct {
	TokensPerMinute float64 `json:"tokens_per_minute"`
	WindowMinutes   int     `json:"window_minutes"`
}

type BlockStats struct {
	Window            BlockWindow  `json:"window"`
	ExplicitReset     *time.Time   `json:"explicit_reset,omitempty"`
	TokensInBlock     int          `json:"tokens_in_block"`
	TokenLimit        *int         `json:"token_limit,omitempty"`
	PercentOfLimit    *float64     `json:"percent_of_limit,omitempty"`
	RemainingMs       int64        `json:"remaining_ms"`
	Burn              Burn         `json:"burn"`
	EtaMinutesToLimit *float64     `json:"eta_minutes_to_limit,omitempty"`
	BurnSeries        []TimeBucket `json:"burn_series"`
}

// Dashboard bundles the views refreshed together by the live dashboard.
type Dashboard struct {
	Snapshot Snapshot   `json:"snapshot"`
	Block    BlockStats `json:"block"`
}

// MinuteKey truncates t to the minute and formats it as a bucket key.
func MinuteKey(t time.Time) string {
	return t.UTC().Truncate(time.Minute).Format(MinuteKeyLayout)
}
