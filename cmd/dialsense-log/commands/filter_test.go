package commands

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/dialsense/dialsense-go/pkg/log"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	var events []log.Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		events = append(events, event)
	}
}

func TestFilterByConnectionID(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.dlog")

	n, err := RunFilter(path, FilterOptions{Output: out, ConnID: "1"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("RunFilter wrote %d events, want 2", n)
	}

	for _, e := range readAll(t, out) {
		if e.ConnID == nil || *e.ConnID != 1 {
			t.Errorf("unexpected event conn %v", e.ConnID)
		}
	}
}

func TestFilterByRunAndCategory(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.dlog")

	n, err := RunFilter(path, FilterOptions{Output: out, RunID: "run-a", Category: "value"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 3 {
		t.Errorf("RunFilter wrote %d events, want 3", n)
	}
}

func TestFilterByTimeRange(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.dlog")

	n, err := RunFilter(path, FilterOptions{
		Output:    out,
		TimeStart: "2026-03-04T09:30:00Z",
		TimeEnd:   "2026-03-04T09:30:00.015Z",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("RunFilter wrote %d events, want 2", n)
	}
}

func TestBuildFilterRejectsBadInput(t *testing.T) {
	cases := []FilterOptions{
		{ConnID: "70000"},
		{ConnID: "abc"},
		{TimeStart: "yesterday"},
		{TimeEnd: "tomorrow"},
		{Layer: "wire"},
		{Category: "message"},
	}
	for _, opts := range cases {
		if _, err := BuildFilter(opts); err == nil {
			t.Errorf("BuildFilter(%+v) expected error", opts)
		}
	}
}
