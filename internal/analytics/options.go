package analytics

import (
	"time"

	"github.com/janekbaraniewski/codexusage/internal/core"
	"github.com/janekbaraniewski/codexusage/internal/discovery"
)

const (
	DefaultWindowHours       = 5
	DefaultBurnWindowMinutes = 10
	DefaultTailMinutes       = 15
	DefaultTailMax           = 20
	DefaultSessionRows       = 20

	// BurnSeriesMinutes is the length of the per-minute burn series.
	BurnSeriesMinutes = 60
)

// Options is the explicit configuration consumed by the engine. It is built
// once at the program boundary; the engine reads no environment or files to
// obtain it.
type Options struct {
	Roots []string
	Limit int

	WindowHours       int
	TokenLimit        int // 0 means no cap
	BurnWindowMinutes int
	Anchor            core.Anchor

	TailMinutes int
	TailMax     int

	// Location decides calendar days for the daily rollup.
	Location *time.Location
}

func DefaultOptions() Options {
	return Options{
		Limit:             discovery.DefaultLimit,
		WindowHours:       DefaultWindowHours,
		BurnWindowMinutes: DefaultBurnWindowMinutes,
		Anchor:            core.AnchorRolling,
		TailMinutes:       DefaultTailMinutes,
		TailMax:           DefaultTailMax,
		Location:          time.Local,
	}
}

// normalized replaces unusable values with defaults.
func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.Limit <= 0 {
		o.Limit = def.Limit
	}
	if o.WindowHours <= 0 {
		o.WindowHours = def.WindowHours
	}
	if o.TokenLimit < 0 {
		o.TokenLimit = 0
	}
	if o.BurnWindowMinutes <= 0 {
		o.BurnWindowMinutes = def.BurnWindowMinutes
	}
	o.Anchor = core.ParseAnchor(string(o.Anchor))
	if o.TailMinutes <= 0 {
		o.TailMinutes = def.TailMinutes
	}
	if o.TailMax <= 0 {
		o.TailMax = def.TailMax
	}
	if o.Location == nil {
		o.Location = def.Location
	}
	return o
}
