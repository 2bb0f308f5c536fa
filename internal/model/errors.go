package model

import "github.com/rotisserie/eris"

// Sentinel errors shared across the extraction pipeline. Match with errors.Is.
var (
	// ErrChallengeUnresolved means an anti-bot challenge could not be cleared.
	ErrChallengeUnresolved = eris.New("challenge unresolved")
	// ErrWidgetNotFound means the search returned no business panel. It is an
	// outcome, never counted as a failure.
	ErrWidgetNotFound = eris.New("business panel not found")
	// ErrNavigation means the browser failed to load a page.
	ErrNavigation = eris.New("navigation failed")
	// ErrRenderTimeout means a render or selector wait exceeded its bound.
	ErrRenderTimeout = eris.New("render timeout")
	// ErrPersistence means a store write failed and was rolled back.
	ErrPersistence = eris.New("persistence failed")
	// ErrSourceNotFound means the subject list file does not exist.
	ErrSourceNotFound = eris.New("subject source not found")
)
