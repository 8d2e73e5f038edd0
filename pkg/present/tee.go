package present

import (
	"context"
	"log/slog"

	"github.com/energydash/energydash/pkg/log"
	"github.com/energydash/energydash/pkg/types"
)

type teeSink struct {
	Sink
	writers []SlotWriter
}

// Tee returns a Sink that also forwards slot updates to writers. Only the
// primary sink's result is reported; writer failures are logged.
func Tee(sink Sink, writers ...SlotWriter) Sink {
	if len(writers) == 0 {
		return sink
	}
	return &teeSink{Sink: sink, writers: writers}
}

func (t *teeSink) SetSlot(ctx context.Context, slot types.Slot, text string) error {
	if err := t.Sink.SetSlot(ctx, slot, text); err != nil {
		return err
	}
	for _, w := range t.writers {
		if err := w.SetSlot(ctx, slot, text); err != nil {
			log.Ctx(ctx).WarnContext(
				ctx,
				"failed to forward slot update",
				slog.String("slot", string(slot)),
				slog.Any("error", err),
			)
		}
	}
	return nil
}
