// Package poller runs independent periodic poll jobs.
//
// Every job has its own ticker. Each tick starts the poll in its own
// goroutine, so a slow or hung poll never delays the next tick of the same
// job or any tick of another job. There is no de-duplication, cancellation
// or retry of in-flight polls; a failed poll is logged and the next tick
// tries again.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/energydash/energydash/pkg/log"
	"github.com/energydash/energydash/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// PollFunc performs one poll.
type PollFunc func(ctx context.Context) error

// Job is a named poll run every Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Poll     PollFunc
}

// Poller runs a set of jobs.
type Poller struct {
	jobs    map[string]Job
	order   []string
	metrics *metrics.Metrics

	inflight sync.WaitGroup
}

// New validates jobs and returns a Poller for them.
func New(m *metrics.Metrics, jobs ...Job) (*Poller, error) {
	p := &Poller{
		jobs:    make(map[string]Job, len(jobs)),
		metrics: m,
	}
	for _, j := range jobs {
		switch {
		case j.Name == "":
			return nil, fmt.Errorf("poll job name is required")
		case j.Interval <= 0:
			return nil, fmt.Errorf("poll job %s: interval must be positive", j.Name)
		case j.Poll == nil:
			return nil, fmt.Errorf("poll job %s: poll func is required", j.Name)
		}
		if _, ok := p.jobs[j.Name]; ok {
			return nil, fmt.Errorf("poll job %s registered twice", j.Name)
		}
		p.jobs[j.Name] = j
		p.order = append(p.order, j.Name)
	}
	return p, nil
}

// Run fires every job immediately and then on its interval until ctx is
// done. It waits for in-flight polls before returning.
func (p *Poller) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range p.order {
		job := p.jobs[name]
		g.Go(func() error {
			p.loop(ctx, job)
			return nil
		})
	}
	err := g.Wait()
	p.inflight.Wait()
	return err
}

func (p *Poller) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	log.Ctx(ctx).DebugContext(
		ctx,
		"starting poll job",
		slog.String("job", job.Name),
		slog.Duration("interval", job.Interval),
	)
	p.fire(ctx, job)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fire(ctx, job)
		}
	}
}

// Fire starts one poll of the named job now, outside its schedule.
func (p *Poller) Fire(ctx context.Context, name string) error {
	job, ok := p.jobs[name]
	if !ok {
		return fmt.Errorf("unknown poll job: %s", name)
	}
	p.fire(ctx, job)
	return nil
}

// FireAll starts one poll of every job now.
func (p *Poller) FireAll(ctx context.Context) {
	for _, name := range p.order {
		p.fire(ctx, p.jobs[name])
	}
}

// fire runs job.Poll in its own goroutine. The poll outlives cancellation of
// ctx so a shutdown never leaves a half-applied reading.
func (p *Poller) fire(ctx context.Context, job Job) {
	ctx = log.WithAttrs(context.WithoutCancel(ctx), slog.String("job", job.Name))
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				log.Ctx(ctx).ErrorContext(
					ctx,
					"poll panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				p.metrics.Poll(job.Name, metrics.OutcomePanic, time.Since(start))
			}
		}()

		if err := job.Poll(ctx); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "poll failed", slog.Any("error", err))
			p.metrics.Poll(job.Name, metrics.OutcomeError, time.Since(start))
			return
		}
		p.metrics.Poll(job.Name, metrics.OutcomeOK, time.Since(start))
	}()
}
