package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sells-group/contact-cli/internal/pipeline"
)

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Forward delivers pipeline events to the UI until events is closed or ctx
// is done.
func Forward(ctx context.Context, events <-chan pipeline.Event, to Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			to.Send(EventMsg{Event: ev})
		}
	}
}
