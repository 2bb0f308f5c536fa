package pipeline

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/model"
)

// Listener receives run events. Methods are called from the pipeline
// goroutine and must not block for long.
type Listener interface {
	OnProgress(current, total, percent int)
	OnSubjectStart(name string)
	OnSubjectComplete(name string, rec model.ContactRecord, status model.SubjectStatus)
	// OnError reports a subject that ended as StatusError or StatusChallenge.
	OnError(name string, status model.SubjectStatus, message string)
	OnChallenge(name, message string)
	OnRunComplete(stats model.RunStatistics)
}

// NopListener ignores every event. Embed it to implement a subset.
type NopListener struct{}

func (NopListener) OnProgress(int, int, int)                                           {}
func (NopListener) OnSubjectStart(string)                                              {}
func (NopListener) OnSubjectComplete(string, model.ContactRecord, model.SubjectStatus) {}
func (NopListener) OnError(string, model.SubjectStatus, string)                        {}
func (NopListener) OnChallenge(string, string)                                         {}
func (NopListener) OnRunComplete(model.RunStatistics)                                  {}

// MultiListener fans every event out to each listener in order.
type MultiListener []Listener

func (m MultiListener) OnProgress(current, total, percent int) {
	for _, l := range m {
		l.OnProgress(current, total, percent)
	}
}

func (m MultiListener) OnSubjectStart(name string) {
	for _, l := range m {
		l.OnSubjectStart(name)
	}
}

func (m MultiListener) OnSubjectComplete(name string, rec model.ContactRecord, status model.SubjectStatus) {
	for _, l := range m {
		l.OnSubjectComplete(name, rec, status)
	}
}

func (m MultiListener) OnError(name string, status model.SubjectStatus, message string) {
	for _, l := range m {
		l.OnError(name, status, message)
	}
}

func (m MultiListener) OnChallenge(name, message string) {
	for _, l := range m {
		l.OnChallenge(name, message)
	}
}

func (m MultiListener) OnRunComplete(stats model.RunStatistics) {
	for _, l := range m {
		l.OnRunComplete(stats)
	}
}

// LogListener writes events to the global zap logger.
type LogListener struct{}

func (LogListener) OnProgress(current, total, percent int) {
	zap.L().Debug("pipeline: progress",
		zap.Int("current", current),
		zap.Int("total", total),
		zap.Int("percent", percent),
	)
}

func (LogListener) OnSubjectStart(name string) {
	zap.L().Info(fmt.Sprintf("======== %s ========", name))
}

func (LogListener) OnSubjectComplete(name string, rec model.ContactRecord, status model.SubjectStatus) {
	zap.L().Info("pipeline: subject complete",
		zap.String("subject", name),
		zap.String("status", string(status)),
		zap.String("phone", rec.Phone),
		zap.String("website", rec.Website),
		zap.String("social", rec.SocialLink),
		zap.String("email", rec.Email),
		zap.String("messaging", rec.MessagingNumber),
	)
}

func (LogListener) OnError(name string, status model.SubjectStatus, message string) {
	zap.L().Error("pipeline: subject failed",
		zap.String("subject", name),
		zap.String("status", string(status)),
		zap.String("error", message),
	)
}

func (LogListener) OnChallenge(name, message string) {
	zap.L().Warn("pipeline: challenge", zap.String("subject", name), zap.String("message", message))
}

func (LogListener) OnRunComplete(stats model.RunStatistics) {
	zap.L().Info("pipeline: run complete",
		zap.Int("total", stats.Total),
		zap.Int("processed", stats.Processed),
		zap.Int("with_data", stats.WithData),
		zap.Int("without_data", stats.WithoutData),
		zap.Int("errors", stats.Errors),
		zap.Int("challenges", stats.Challenges),
	)
}

// Event is a run event posted by ChannelListener.
type Event interface{ event() }

type (
	ProgressEvent struct{ Current, Total, Percent int }
	StartEvent    struct{ Name string }
	CompleteEvent struct {
		Name   string
		Record model.ContactRecord
		Status model.SubjectStatus
	}
	ErrorEvent struct {
		Name    string
		Status  model.SubjectStatus
		Message string
	}
	ChallengeEvent   struct{ Name, Message string }
	RunCompleteEvent struct{ Stats model.RunStatistics }
)

func (ProgressEvent) event()    {}
func (StartEvent) event()       {}
func (CompleteEvent) event()    {}
func (ErrorEvent) event()       {}
func (ChallengeEvent) event()   {}
func (RunCompleteEvent) event() {}

// ChannelListener posts events to a buffered channel for a single consumer.
// Once Stop is called further events are dropped instead of blocking.
type ChannelListener struct {
	ch   chan Event
	done chan struct{}

	stopOnce  sync.Once
	closeOnce sync.Once
}

// NewChannelListener returns a listener with the given buffer size.
func NewChannelListener(buffer int) *ChannelListener {
	return &ChannelListener{ch: make(chan Event, buffer), done: make(chan struct{})}
}

// Events is the consumer side.
func (c *ChannelListener) Events() <-chan Event { return c.ch }

// Stop tells the listener the consumer is gone.
func (c *ChannelListener) Stop() { c.stopOnce.Do(func() { close(c.done) }) }

// Close closes the event channel. Call it from the producer once the run ends.
func (c *ChannelListener) Close() { c.closeOnce.Do(func() { close(c.ch) }) }

func (c *ChannelListener) post(ev Event) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.ch <- ev:
	case <-c.done:
	}
}

func (c *ChannelListener) OnProgress(current, total, percent int) {
	c.post(ProgressEvent{Current: current, Total: total, Percent: percent})
}

func (c *ChannelListener) OnSubjectStart(name string) { c.post(StartEvent{Name: name}) }

func (c *ChannelListener) OnSubjectComplete(name string, rec model.ContactRecord, status model.SubjectStatus) {
	c.post(CompleteEvent{Name: name, Record: rec, Status: status})
}

func (c *ChannelListener) OnError(name string, status model.SubjectStatus, message string) {
	c.post(ErrorEvent{Name: name, Status: status, Message: message})
}

func (c *ChannelListener) OnChallenge(name, message string) {
	c.post(ChallengeEvent{Name: name, Message: message})
}

func (c *ChannelListener) OnRunComplete(stats model.RunStatistics) {
	c.post(RunCompleteEvent{Stats: stats})
}
