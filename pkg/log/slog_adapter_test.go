package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func decodeSlogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsValueEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	delta := uint32(12)
	adapter.Log(Event{
		Timestamp:  time.Now(),
		Layer:      LayerPipeline,
		Category:   CategoryValue,
		Capability: 0x2B7D,
		Value:      &ValueEvent{Action: ValueForwarded, Value: 512, Delta: &delta},
	})

	entry := decodeSlogLine(t, &buf)
	if entry["layer"] != "PIPELINE" {
		t.Errorf("layer: got %v, want PIPELINE", entry["layer"])
	}
	if entry["action"] != "FORWARDED" {
		t.Errorf("action: got %v, want FORWARDED", entry["action"])
	}
	if entry["value"] != float64(512) {
		t.Errorf("value: got %v, want 512", entry["value"])
	}
	if entry["delta"] != float64(12) {
		t.Errorf("delta: got %v, want 12", entry["delta"])
	}
	if entry["capability"] != "0x2B7D" {
		t.Errorf("capability: got %v, want 0x2B7D", entry["capability"])
	}
}

func TestSlogAdapterLogsStateChange(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		Timestamp: time.Now(),
		Layer:     LayerDelivery,
		Category:  CategoryState,
		ConnID:    ConnRef(1),
		StateChange: &StateChangeEvent{
			Entity:   StateEntitySubscription,
			OldState: "SUBSCRIBED(1)",
			NewState: "UNSUBSCRIBED",
			Reason:   "disconnect",
		},
	})

	entry := decodeSlogLine(t, &buf)
	if entry["conn"] != float64(1) {
		t.Errorf("conn: got %v, want 1", entry["conn"])
	}
	if entry["new_state"] != "UNSUBSCRIBED" {
		t.Errorf("new_state: got %v", entry["new_state"])
	}
	if entry["reason"] != "disconnect" {
		t.Errorf("reason: got %v", entry["reason"])
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	adapter.Log(Event{Timestamp: time.Now(), Category: CategoryValue, Value: &ValueEvent{Value: 1}})

	if buf.Len() != 0 {
		t.Errorf("expected no output at Info level, got %q", buf.String())
	}
}
