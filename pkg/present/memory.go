package present

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/energydash/energydash/pkg/types"
	"github.com/google/uuid"
)

// ErrNoChart is returned when a canvas has no live chart.
var ErrNoChart = errors.New("no live chart on canvas")

// MemorySink keeps slot text and charts in memory so they can be served over
// HTTP.
type MemorySink struct {
	now func() time.Time

	mu        sync.RWMutex
	slots     map[types.Slot]SlotState
	charts    map[string][]*memoryChart
	destroyed int
}

// SlotState is the current text of a slot and when it last changed.
type SlotState struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChartState is a live chart as stored by the MemorySink.
type ChartState struct {
	ID        string          `json:"id"`
	Canvas    string          `json:"canvas"`
	Spec      types.ChartSpec `json:"spec"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		now:    time.Now,
		slots:  make(map[types.Slot]SlotState),
		charts: make(map[string][]*memoryChart),
	}
}

// SetSlot implements SlotWriter.
func (m *MemorySink) SetSlot(ctx context.Context, slot types.Slot, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = SlotState{Text: text, UpdatedAt: m.now()}
	return nil
}

// NewChart implements ChartBuilder. It does not destroy anything already on
// the canvas; that is the caller's job.
func (m *MemorySink) NewChart(ctx context.Context, canvas string, spec types.ChartSpec) (Chart, error) {
	if canvas == "" {
		return nil, fmt.Errorf("canvas is required")
	}
	c := &memoryChart{
		sink: m,
		state: ChartState{
			ID:        uuid.NewString(),
			Canvas:    canvas,
			Spec:      spec,
			CreatedAt: m.now(),
		},
	}
	m.mu.Lock()
	m.charts[canvas] = append(m.charts[canvas], c)
	m.mu.Unlock()
	return c, nil
}

// Slots returns a copy of every slot.
func (m *MemorySink) Slots() map[types.Slot]SlotState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[types.Slot]SlotState, len(m.slots))
	for k, v := range m.slots {
		out[k] = v
	}
	return out
}

// LiveCharts returns how many undestroyed charts are bound to canvas.
func (m *MemorySink) LiveCharts(canvas string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.charts[canvas])
}

// DestroyedCharts returns how many charts have been destroyed in total.
func (m *MemorySink) DestroyedCharts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.destroyed
}

// Charts returns the newest live chart on every canvas, ordered by canvas.
func (m *MemorySink) Charts() []ChartState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ChartState, 0, len(m.charts))
	for _, list := range m.charts {
		if len(list) > 0 {
			out = append(out, list[len(list)-1].state)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Canvas < out[j].Canvas
	})
	return out
}

// Chart returns the newest live chart on canvas.
func (m *MemorySink) Chart(canvas string) (ChartState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.charts[canvas]
	if len(list) == 0 {
		return ChartState{}, false
	}
	return list[len(list)-1].state, true
}

// RenderPNG draws the live chart on canvas as a PNG.
func (m *MemorySink) RenderPNG(canvas string, w io.Writer) error {
	c, ok := m.Chart(canvas)
	if !ok {
		return ErrNoChart
	}
	return RenderPNG(w, c.Spec)
}

func (m *MemorySink) destroy(c *memoryChart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.charts[c.state.Canvas]
	for i, existing := range list {
		if existing == c {
			m.charts[c.state.Canvas] = append(list[:i], list[i+1:]...)
			if len(m.charts[c.state.Canvas]) == 0 {
				delete(m.charts, c.state.Canvas)
			}
			m.destroyed++
			return nil
		}
	}
	return fmt.Errorf("chart %s already destroyed", c.state.ID)
}

type memoryChart struct {
	sink  *MemorySink
	state ChartState
}

func (c *memoryChart) ID() string {
	return c.state.ID
}

func (c *memoryChart) Destroy() error {
	return c.sink.destroy(c)
}
