package core

// Payload is the closed set of event shapes the estimator understands.
// Only types in this package implement it.
type Payload interface {
	Kind() EventKind
	// Texts returns every textual fragment carried by the payload, in order.
	Texts() []string
	sealed()
}

// MessagePayload is a chat message with content blocks. Text holds the texts
// of the blocks plus any plain top-level text on the same record.
type MessagePayload struct {
	Role string
	Text []string
}

// TextPayload is a record that only carries a plain top-level text field.
type TextPayload struct {
	Text string
}

// FunctionCallOutputPayload is the output of a tool call. Output is the
// measured string: the nested "output" field when the raw output is a JSON
// object that has one, the raw string otherwise. Text is any plain text field
// on the same record.
type FunctionCallOutputPayload struct {
	CallID string
	Output string
	Text   string
}

// ReasoningPayload holds the summary texts plus any plain text field on the
// same record.
type ReasoningPayload struct {
	Summaries []string
}

type UnknownPayload struct{}

func (MessagePayload) Kind() EventKind            { return KindMessage }
func (TextPayload) Kind() EventKind               { return KindOther }
func (FunctionCallOutputPayload) Kind() EventKind { return KindFunctionCallOutput }
func (ReasoningPayload) Kind() EventKind          { return KindReasoning }
func (UnknownPayload) Kind() EventKind            { return KindOther }

func (p MessagePayload) Texts() []string { return p.Text }

func (p TextPayload) Texts() []string {
	if p.Text == "" {
		return nil
	}
	return []string{p.Text}
}

func (p FunctionCallOutputPayload) Texts() []string {
	var out []string
	for _, s := range []string{p.Output, p.Text} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (p ReasoningPayload) Texts() []string { return p.Summaries }
func (UnknownPayload) Texts() []string     { return nil }

func (MessagePayload) sealed()            {}
func (TextPayload) sealed()               {}
func (FunctionCallOutputPayload) sealed() {}
func (ReasoningPayload) sealed()          {}
func (UnknownPayload) sealed()            {}

// EventTexts returns the texts of ev's payload, tolerating a nil payload.
func EventTexts(ev Event) []string {
	if ev.Payload == nil {
		return nil
	}
	return ev.Payload.Texts()
}
