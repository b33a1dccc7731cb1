package core

import "time"

// Anchor selects how the block window is aligned.
type Anchor string

const (
	// AnchorRolling ends the window at "now".
	AnchorRolling Anchor = "rolling"
	// AnchorEpoch aligns the window to fixed-size buckets since the Unix epoch.
	AnchorEpoch Anchor = "epoch"
)

var ValidAnchors = []Anchor{
	AnchorRolling,
	AnchorEpoch,
}

func (a Anchor) Label() string {
	switch a {
	case AnchorEpoch:
		return "Epoch-aligned"
	default:
		return "Rolling"
	}
}

// ParseAnchor returns the matching anchor, falling back to rolling.
func ParseAnchor(s string) Anchor {
	for _, a := range ValidAnchors {
		if string(a) == s {
			return a
		}
	}
	return AnchorRolling
}

// BlockWindow is the active analysis interval. Start is inclusive, End exclusive.
type BlockWindow struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	WindowHours int       `json:"window_hours"`
	Anchor      Anchor    `json:"anchor"`
}

// Length returns the configured window length.
func (w BlockWindow) Length() time.Duration {
	return time.Duration(w.WindowHours) * time.Hour
}

// Contains reports whether t falls in [Start, End).
func (w BlockWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Remaining returns the time left until End, never negative.
func (w BlockWindow) Remaining(now time.Time) time.Duration {
	if d := w.End.Sub(now); d > 0 {
		return d
	}
	return 0
}
