// Package pipeline drives the per-subject extraction loop.
package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/browser"
	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/store"
)

// Searcher runs the primary lookup for one subject.
type Searcher interface {
	Search(ctx context.Context, name string) model.Outcome
}

// Enricher reads secondary contact fields from a social profile. It never
// fails; problems yield an empty contact.
type Enricher interface {
	Enrich(ctx context.Context, profileURL string) model.ProfileContact
}

// Orchestrator processes subjects strictly in order, one at a time.
type Orchestrator struct {
	search   Searcher
	enrich   Enricher
	repo     store.Repository
	listener Listener

	paceMin, paceMax time.Duration
	sleep            func(context.Context, time.Duration) error
	runID            string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPace sets the uniform jitter window slept between subjects.
func WithPace(lo, hi time.Duration) Option {
	return func(o *Orchestrator) { o.paceMin, o.paceMax = lo, hi }
}

// WithSleep replaces the context-aware sleep used for pacing.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithRunID sets the correlation id logged with every subject.
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// New builds an Orchestrator. A nil repo runs without persistence and a nil
// listener drops events.
func New(search Searcher, enrich Enricher, repo store.Repository, listener Listener, opts ...Option) *Orchestrator {
	if listener == nil {
		listener = NopListener{}
	}
	o := &Orchestrator{
		search:   search,
		enrich:   enrich,
		repo:     repo,
		listener: listener,
		paceMin:  3 * time.Second,
		paceMax:  7 * time.Second,
		sleep:    browser.Sleep,
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunID returns the correlation id of this orchestrator.
func (o *Orchestrator) RunID() string { return o.runID }

// Run processes subjects and returns the statistics. Per-subject failures
// never stop the run. When ctx is cancelled the loop stops before the next
// subject and returns the partial statistics with ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, subjects []string) (model.RunStatistics, error) {
	stats := model.RunStatistics{Total: len(subjects)}
	log := zap.L().With(zap.String("run_id", o.runID))
	log.Info("pipeline: starting run", zap.Int("subjects", len(subjects)))

	var runErr error
	for i, name := range subjects {
		if i > 0 {
			if err := o.sleep(ctx, o.pace()); err != nil {
				runErr = err
				break
			}
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		idx := i + 1
		o.listener.OnSubjectStart(name)
		o.listener.OnProgress(idx, stats.Total, model.Percent(idx, stats.Total))

		rec, status, err := o.process(ctx, name)
		if ctx.Err() != nil {
			// Interrupted mid-subject: nothing was written, nothing is counted.
			runErr = ctx.Err()
			log.Warn("pipeline: interrupted", zap.String("subject", name))
			break
		}
		stats.Record(status)

		switch status {
		case model.StatusChallenge:
			o.listener.OnError(name, status, "CAPTCHA: "+err.Error())
		case model.StatusError:
			o.listener.OnError(name, status, err.Error())
		default:
			o.listener.OnSubjectComplete(name, rec, status)
		}
	}

	o.listener.OnRunComplete(stats)
	log.Info("pipeline: run finished",
		zap.Int("processed", stats.Processed),
		zap.Int("challenges", stats.Challenges),
		zap.Bool("aborted", runErr != nil),
	)
	return stats, runErr
}

// process runs both stages for one subject, then persists.
func (o *Orchestrator) process(ctx context.Context, name string) (model.ContactRecord, model.SubjectStatus, error) {
	log := zap.L().With(zap.String("run_id", o.runID), zap.String("subject", name))

	out := o.search.Search(ctx, name)
	switch out.Kind {
	case model.OutcomeChallenged:
		return model.ContactRecord{}, model.StatusChallenge, out.Err
	case model.OutcomeFailed:
		return model.ContactRecord{}, model.StatusError, out.Err
	}

	rec := model.ContactRecord{
		SubjectName: name,
		Phone:       out.Fields.Phone,
		Website:     out.Fields.Website,
		SocialLink:  out.Fields.SocialLink,
	}
	if out.Kind == model.OutcomeFound && rec.SocialLink != "" && o.enrich != nil {
		c := o.enrich.Enrich(ctx, rec.SocialLink)
		rec.Email = c.Email
		rec.MessagingNumber = c.MessagingNumber
	}
	if ctx.Err() != nil {
		return rec, model.StatusError, ctx.Err()
	}

	if o.repo != nil {
		if err := o.repo.Upsert(ctx, rec); err != nil {
			log.Error("pipeline: persist failed", zap.Error(err))
			return rec, model.StatusError, err
		}
	}

	if rec.HasData() {
		return rec, model.StatusFound, nil
	}
	return rec, model.StatusNone, nil
}

func (o *Orchestrator) pace() time.Duration {
	if o.paceMax <= o.paceMin {
		return o.paceMin
	}
	return o.paceMin + rand.N(o.paceMax-o.paceMin+1)
}
