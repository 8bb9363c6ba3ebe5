package log

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	baseline := uint16(100)
	delta := uint32(4)
	logger.Log(Event{
		Timestamp: time.Now(),
		RunID:     "run-1",
		Layer:     LayerPipeline,
		Category:  CategoryValue,
		Value: &ValueEvent{
			Action:   ValueForwarded,
			Value:    104,
			Baseline: &baseline,
			Delta:    &delta,
		},
	})
	logger.Log(Event{
		Timestamp:  time.Now(),
		RunID:      "run-1",
		Layer:      LayerDelivery,
		Category:   CategoryState,
		ConnID:     ConnRef(7),
		Capability: 0x2B7D,
		StateChange: &StateChangeEvent{
			Entity:   StateEntitySubscription,
			OldState: "UNSUBSCRIBED",
			NewState: "SUBSCRIBED(7)",
		},
	})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	first, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first.Value == nil || first.Value.Value != 104 {
		t.Fatalf("first event value: got %+v, want 104", first.Value)
	}
	if first.Value.Baseline == nil || *first.Value.Baseline != 100 {
		t.Errorf("baseline: got %v, want 100", first.Value.Baseline)
	}

	second, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if second.ConnID == nil || *second.ConnID != 7 {
		t.Errorf("ConnID: got %v, want 7", second.ConnID)
	}
	if second.StateChange == nil || second.StateChange.NewState != "SUBSCRIBED(7)" {
		t.Errorf("StateChange: got %+v", second.StateChange)
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestFileLoggerIgnoresLogAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}

	logger.Log(Event{Timestamp: time.Now()})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("file has %d bytes after closed Log, want 0", len(data))
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				logger.Log(Event{
					Timestamp: time.Now(),
					Layer:     LayerPipeline,
					Category:  CategoryValue,
					Value:     &ValueEvent{Action: ValueReceived, Value: uint16(i)},
				})
			}
		}()
	}
	wg.Wait()
	logger.Close()

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	count := 0
	for {
		if _, err := r.Next(); err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("Next failed: %v", err)
			}
			break
		}
		count++
	}
	if count != 400 {
		t.Errorf("read %d events, want 400", count)
	}
	if logger.WriteErrors() != 0 {
		t.Errorf("WriteErrors = %d, want 0", logger.WriteErrors())
	}
}

func TestReaderFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Log(Event{Timestamp: time.Now(), Layer: LayerPipeline, Category: CategoryValue,
		Value: &ValueEvent{Action: ValueDropped, Value: 1}})
	logger.Log(Event{Timestamp: time.Now(), Layer: LayerDelivery, Category: CategoryError, ConnID: ConnRef(3),
		Error: &ErrorEventData{Layer: LayerDelivery, Message: "peer gone"}})
	logger.Log(Event{Timestamp: time.Now(), Layer: LayerDelivery, Category: CategoryValue, ConnID: ConnRef(4),
		Value: &ValueEvent{Action: ValuePushed, Value: 2}})
	logger.Close()

	layer := LayerDelivery
	conn := uint16(4)
	r, err := NewFilteredReader(path, Filter{Layer: &layer, ConnID: &conn})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer r.Close()

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if ev.Value == nil || ev.Value.Action != ValuePushed {
		t.Errorf("got %+v, want the pushed value event", ev)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}
