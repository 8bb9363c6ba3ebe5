package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dialsense/dialsense-go/pkg/log"
)

var testTime = time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.dlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}
	return path
}

func u16(v uint16) *uint16 { return &v }

func sampleEvents() []log.Event {
	return []log.Event{
		{
			Timestamp: testTime, RunID: "run-a", Direction: log.DirectionOut,
			Layer: log.LayerPipeline, Category: log.CategoryValue,
			Value: &log.ValueEvent{Action: log.ValueForwarded, Value: 812, Baseline: u16(700)},
		},
		{
			Timestamp: testTime.Add(10 * time.Millisecond), RunID: "run-a", Direction: log.DirectionOut,
			Layer: log.LayerDelivery, Category: log.CategoryValue, ConnID: log.ConnRef(1), Capability: 0x2B7D,
			Value: &log.ValueEvent{Action: log.ValuePushed, Value: 812},
		},
		{
			Timestamp: testTime.Add(20 * time.Millisecond), RunID: "run-a", Direction: log.DirectionIn,
			Layer: log.LayerTransport, Category: log.CategoryFrame, ConnID: log.ConnRef(1),
			Frame: &log.FrameEvent{Size: 6, Data: []byte{0x00, 0x02, 0x2b, 0x7d, 0x01, 0x00}},
		},
		{
			Timestamp: testTime.Add(30 * time.Millisecond), RunID: "run-a", Direction: log.DirectionIn,
			Layer: log.LayerDelivery, Category: log.CategoryValue, ConnID: log.ConnRef(2), Capability: 0x2B7D,
			Value: &log.ValueEvent{Action: log.ValuePulled, Value: 812},
		},
		{
			Timestamp: testTime.Add(40 * time.Millisecond), RunID: "run-b", Direction: log.DirectionOut,
			Layer: log.LayerDelivery, Category: log.CategoryError, ConnID: log.ConnRef(2),
			Error: &log.ErrorEventData{Layer: log.LayerDelivery, Message: "connection reset", Context: "push"},
		},
	}
}
