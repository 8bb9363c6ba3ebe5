package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.RunID != "" {
		attrs = append(attrs, slog.String("run_id", event.RunID))
	}
	if event.ConnID != nil {
		attrs = append(attrs, slog.Uint64("conn", uint64(*event.ConnID)))
	}
	if event.Capability != 0 {
		attrs = append(attrs, slog.String("capability", fmt.Sprintf("0x%04X", event.Capability)))
	}

	switch {
	case event.Value != nil:
		attrs = append(attrs,
			slog.String("action", event.Value.Action.String()),
			slog.Uint64("value", uint64(event.Value.Value)),
		)
		if event.Value.Baseline != nil {
			attrs = append(attrs, slog.Uint64("baseline", uint64(*event.Value.Baseline)))
		}
		if event.Value.Delta != nil {
			attrs = append(attrs, slog.Uint64("delta", uint64(*event.Value.Delta)))
		}
		if event.Value.Indicate {
			attrs = append(attrs, slog.Bool("indicate", true))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Frame != nil:
		attrs = append(attrs,
			slog.String("direction", event.Direction.String()),
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "event", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
