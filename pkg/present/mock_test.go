package present

import (
	"context"

	"github.com/energydash/energydash/pkg/types"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) SetSlot(ctx context.Context, slot types.Slot, text string) error {
	args := m.Called(ctx, slot, text)
	return args.Error(0)
}

func (m *mockSink) NewChart(ctx context.Context, canvas string, spec types.ChartSpec) (Chart, error) {
	args := m.Called(ctx, canvas, spec)
	if c := args.Get(0); c != nil {
		return c.(Chart), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockChart struct {
	mock.Mock
	id string
}

func (m *mockChart) ID() string {
	return m.id
}

func (m *mockChart) Destroy() error {
	args := m.Called()
	return args.Error(0)
}

type mockMessageWriter struct {
	mock.Mock
}

func (m *mockMessageWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockMessageWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}
