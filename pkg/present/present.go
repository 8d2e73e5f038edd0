// Package present owns the presentation state: which text each slot shows
// and which chart is live on each canvas.
package present

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/energydash/energydash/pkg/log"
	"github.com/energydash/energydash/pkg/types"
)

// SlotWriter receives slot text updates.
type SlotWriter interface {
	SetSlot(ctx context.Context, slot types.Slot, text string) error
}

// Chart is a live chart bound to a canvas.
type Chart interface {
	ID() string
	// Destroy releases the chart. A destroyed chart must not be used again.
	Destroy() error
}

// ChartBuilder constructs charts on canvases.
type ChartBuilder interface {
	NewChart(ctx context.Context, canvas string, spec types.ChartSpec) (Chart, error)
}

// Sink is everything the Presenter writes to.
type Sink interface {
	SlotWriter
	ChartBuilder
}

// Presenter tracks the last text written to every slot and the live chart on
// every canvas. It is safe for concurrent use. Writes to one slot are
// serialized but different slots are written in parallel, so a slow sink
// only holds up polls writing the same slot. Chart replacement on a
// presenter is serialized.
type Presenter struct {
	sink Sink

	// closed after every chart is destroyed
	closers []io.Closer

	mu        sync.Mutex
	last      map[types.Slot]string
	slotLocks map[types.Slot]*sync.Mutex

	chartMu sync.Mutex
	charts  map[string]Chart
}

// New returns a Presenter writing to sink.
func New(sink Sink) *Presenter {
	return &Presenter{
		sink:      sink,
		last:      make(map[types.Slot]string),
		slotLocks: make(map[types.Slot]*sync.Mutex),
		charts:    make(map[string]Chart),
	}
}

// Apply writes the reading's slots, skipping slots whose text has not changed,
// and returns how many slots were written. A failed write is retried on the
// next Apply.
func (p *Presenter) Apply(ctx context.Context, r types.Reading) (int, error) {
	return p.ApplySlots(ctx, r.Slots)
}

// ApplySlots is Apply for a bare list of slot values.
func (p *Presenter) ApplySlots(ctx context.Context, values []types.SlotValue) (int, error) {
	var written int
	var errs []error
	for _, sv := range values {
		ok, err := p.applySlot(ctx, sv)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to set slot %s: %w", sv.Slot, err))
			continue
		}
		if ok {
			written++
		}
	}
	return written, errors.Join(errs...)
}

// applySlot writes sv unless the slot already shows its text. The sink is
// called without p.mu held.
func (p *Presenter) applySlot(ctx context.Context, sv types.SlotValue) (bool, error) {
	p.mu.Lock()
	l, ok := p.slotLocks[sv.Slot]
	if !ok {
		l = &sync.Mutex{}
		p.slotLocks[sv.Slot] = l
	}
	p.mu.Unlock()

	l.Lock()
	defer l.Unlock()

	p.mu.Lock()
	prev, ok := p.last[sv.Slot]
	p.mu.Unlock()
	if ok && prev == sv.Text {
		return false, nil
	}

	if err := p.sink.SetSlot(ctx, sv.Slot, sv.Text); err != nil {
		return false, err
	}

	p.mu.Lock()
	p.last[sv.Slot] = sv.Text
	p.mu.Unlock()
	return true, nil
}

// RenderChart replaces the chart on canvas. The previous chart is destroyed
// before the new one is built; if it cannot be destroyed it stays live and
// nothing new is built.
func (p *Presenter) RenderChart(ctx context.Context, canvas string, spec types.ChartSpec) error {
	p.chartMu.Lock()
	defer p.chartMu.Unlock()

	if old, ok := p.charts[canvas]; ok {
		if err := old.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy chart %s on %s: %w", old.ID(), canvas, err)
		}
		delete(p.charts, canvas)
	}

	c, err := p.sink.NewChart(ctx, canvas, spec)
	if err != nil {
		return fmt.Errorf("failed to build chart on %s: %w", canvas, err)
	}
	p.charts[canvas] = c
	log.Ctx(ctx).DebugContext(
		ctx,
		"chart rendered",
		slog.String("canvas", canvas),
		slog.String("chartID", c.ID()),
	)
	return nil
}

// Slot returns the last text written to slot.
func (p *Presenter) Slot(slot types.Slot) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.last[slot]
	return t, ok
}

// Canvases returns the canvases that currently have a live chart.
func (p *Presenter) Canvases() []string {
	p.chartMu.Lock()
	defer p.chartMu.Unlock()
	out := make([]string, 0, len(p.charts))
	for c := range p.charts {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Close destroys every live chart and closes any publishers the presenter
// writes through.
func (p *Presenter) Close(ctx context.Context) error {
	p.chartMu.Lock()
	defer p.chartMu.Unlock()

	var errs []error
	for canvas, c := range p.charts {
		if err := c.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy chart on %s: %w", canvas, err))
			continue
		}
		delete(p.charts, canvas)
	}
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
		}
	}
	p.closers = nil
	if len(errs) == 0 {
		log.Ctx(ctx).DebugContext(ctx, "presenter closed")
	}
	return errors.Join(errs...)
}
