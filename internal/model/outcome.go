package model

// OutcomeKind classifies the result of a primary search lookup.
type OutcomeKind string

const (
	OutcomeFound      OutcomeKind = "found"
	OutcomeNoWidget   OutcomeKind = "no_widget"
	OutcomeChallenged OutcomeKind = "challenged"
	OutcomeFailed     OutcomeKind = "failed"
)

// Outcome is returned by a search lookup. Fields is only meaningful for
// OutcomeFound; Err carries the reason for every other kind.
type Outcome struct {
	Kind   OutcomeKind
	Fields SearchFields
	Err    error
}

// Found builds a successful outcome.
func Found(f SearchFields) Outcome { return Outcome{Kind: OutcomeFound, Fields: f} }

// NoWidget builds an outcome for a search without a business panel.
func NoWidget() Outcome { return Outcome{Kind: OutcomeNoWidget, Err: ErrWidgetNotFound} }

// Challenged builds an outcome for an unresolved anti-bot challenge.
func Challenged(err error) Outcome { return Outcome{Kind: OutcomeChallenged, Err: err} }

// Failed builds an outcome for a navigation or parse failure.
func Failed(err error) Outcome { return Outcome{Kind: OutcomeFailed, Err: err} }
