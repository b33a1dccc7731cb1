package reports

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/janekbaraniewski/codexusage/internal/core"
)

type BlockWindowJSON struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	WindowHours int       `json:"windowHours"`
}

type BurnJSON struct {
	TokensPerMinute int `json:"tokensPerMinute"`
	WindowMinutes   int `json:"windowMinutes"`
}

// BlockJSON is the machine-readable shape of the blocks report.
type BlockJSON struct {
	Window            BlockWindowJSON `json:"window"`
	ExplicitResetMs   *int64          `json:"explicitResetMs"`
	TokensInBlock     int             `json:"tokensInBlock"`
	TokenLimit        *int            `json:"tokenLimit"`
	PercentOfLimit    *float64        `json:"percentOfLimit"`
	RemainingMinutes  int64           `json:"remainingMinutes"`
	Burn              BurnJSON        `json:"burn"`
	EtaMinutesToLimit *float64        `json:"etaMinutesToLimit"`
}

func NewBlockJSON(s core.BlockStats) BlockJSON {
	out := BlockJSON{
		Window: BlockWindowJSON{
			Start:       s.Window.Start.UTC(),
			End:         s.Window.End.UTC(),
			WindowHours: s.Window.WindowHours,
		},
		TokensInBlock:     s.TokensInBlock,
		TokenLimit:        s.TokenLimit,
		PercentOfLimit:    s.PercentOfLimit,
		RemainingMinutes:  remainingMinutes(s),
		Burn:              BurnJSON{TokensPerMinute: roundInt(s.Burn.TokensPerMinute), WindowMinutes: s.Burn.WindowMinutes},
		EtaMinutesToLimit: s.EtaMinutesToLimit,
	}
	if s.ExplicitReset != nil {
		ms := s.ExplicitReset.UnixMilli()
		out.ExplicitResetMs = &ms
	}
	return out
}

func WriteBlock(w io.Writer, s core.BlockStats) error {
	fmt.Fprintln(w, "Current Block")
	tw := newTable(w)
	fmt.Fprintf(tw, " window hours:\t%d\n", s.Window.WindowHours)
	fmt.Fprintf(tw, " anchor:\t%s\n", s.Window.Anchor.Label())
	fmt.Fprintf(tw, " start:\t%s\n", s.Window.Start.UTC().Format(time.RFC3339))
	fmt.Fprintf(tw, " end:\t%s\n", s.Window.End.UTC().Format(time.RFC3339))
	if s.ExplicitReset != nil {
		fmt.Fprintf(tw, " reset announced:\t%s\n", s.ExplicitReset.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(tw, " remaining:\t%s\n", FormatMinutesSpaced(remainingMinutes(s)))
	fmt.Fprintf(tw, " tokens (est):\t%d\n", s.TokensInBlock)
	fmt.Fprintf(tw, " burn rate (tpm):\t%d\n", roundInt(s.Burn.TokensPerMinute))
	if s.TokenLimit != nil {
		fmt.Fprintf(tw, " cap:\t%d\n", *s.TokenLimit)
		fmt.Fprintf(tw, " cap usage %%:\t%d\n", roundInt(deref(s.PercentOfLimit)))
		if s.EtaMinutesToLimit != nil {
			fmt.Fprintf(tw, " ETA to cap (min):\t%d\n", int(math.Floor(*s.EtaMinutesToLimit)))
		} else {
			fmt.Fprintln(tw, " ETA to cap (min):\t-")
		}
	}
	return tw.Flush()
}

// StatuslineJSON is the machine-readable statusline.
type StatuslineJSON struct {
	RemainingMinutes  int64 `json:"remainingMinutes"`
	PercentOfLimit    *int  `json:"percentOfLimit"`
	EtaMinutesToLimit *int  `json:"etaMinutesToLimit"`
	TokensPerMinute   int   `json:"tokensPerMinute"`
}

func NewStatuslineJSON(s core.BlockStats) StatuslineJSON {
	out := StatuslineJSON{
		RemainingMinutes: remainingMinutes(s),
		TokensPerMinute:  roundInt(s.Burn.TokensPerMinute),
	}
	if s.PercentOfLimit != nil {
		pct := roundInt(*s.PercentOfLimit)
		out.PercentOfLimit = &pct
	}
	if s.EtaMinutesToLimit != nil {
		eta := int(math.Max(0, math.Floor(*s.EtaMinutesToLimit)))
		out.EtaMinutesToLimit = &eta
	}
	return out
}

// Statusline renders the compact one-line form, e.g.
// "Cap 40% | ETA 50m | Burn 12/m | Rem 2h05m".
func Statusline(s core.BlockStats) string {
	j := NewStatuslineJSON(s)
	var parts []string
	if j.PercentOfLimit != nil {
		parts = append(parts, fmt.Sprintf("Cap %d%%", *j.PercentOfLimit))
	}
	if j.EtaMinutesToLimit != nil {
		parts = append(parts, fmt.Sprintf("ETA %dm", *j.EtaMinutesToLimit))
	}
	parts = append(parts, fmt.Sprintf("Burn %d/m", j.TokensPerMinute))
	parts = append(parts, "Rem "+FormatMinutes(j.RemainingMinutes))
	return strings.Join(parts, " | ")
}

// FormatMinutes renders a minute count as "2h05m".
func FormatMinutes(total int64) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%dh%02dm", total/60, total%60)
}

// FormatMinutesSpaced renders a minute count as "2h 05m".
func FormatMinutesSpaced(total int64) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}

func remainingMinutes(s core.BlockStats) int64 {
	return s.RemainingMs / int64(time.Minute/time.Millisecond)
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
