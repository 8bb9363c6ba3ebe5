package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dialsense/dialsense-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	ValueActions      map[log.ValueAction]int
	Connections       map[uint16]*ConnectionStats
	Runs              map[string]int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection handle.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Pushes    int
	Pulls     int
}

// CollectStats reads the whole file and aggregates it.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		ValueActions:      make(map[log.ValueAction]int),
		Connections:       make(map[uint16]*ConnectionStats),
		Runs:              make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++
		if event.RunID != "" {
			stats.Runs[event.RunID]++
		}

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Value != nil {
			stats.ValueActions[event.Value.Action]++
		}
		if event.Error != nil {
			stats.Errors++
		}

		if event.ConnID == nil {
			continue
		}
		conn, ok := stats.Connections[*event.ConnID]
		if !ok {
			conn = &ConnectionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			stats.Connections[*event.ConnID] = conn
		}
		conn.Events++
		if event.Timestamp.After(conn.LastSeen) {
			conn.LastSeen = event.Timestamp
		}
		if event.Value != nil {
			switch event.Value.Action {
			case log.ValuePushed:
				conn.Pushes++
			case log.ValuePulled:
				conn.Pulls++
			}
		}
	}

	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== dialsense Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintf(w, "Runs:       %d\n", len(stats.Runs))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerSampler, log.LayerPipeline, log.LayerDelivery, log.LayerTransport} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryValue, log.CategoryState, log.CategoryFrame, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.ValueActions) > 0 {
		fmt.Fprintln(w, "Values:")
		for _, a := range []log.ValueAction{log.ValueForwarded, log.ValueDropped, log.ValueReceived, log.ValuePushed, log.ValuePulled} {
			if count := stats.ValueActions[a]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", a.String()+":", count)
			}
		}
		fmt.Fprintln(w)
	}

	if len(stats.Connections) > 0 {
		ids := make([]int, 0, len(stats.Connections))
		for id := range stats.Connections {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)

		fmt.Fprintf(w, "Connections: %d\n", len(ids))
		for _, id := range ids {
			c := stats.Connections[uint16(id)]
			fmt.Fprintf(w, "  conn %-5d events=%d pushes=%d pulls=%d duration=%s\n",
				id, c.Events, c.Pushes, c.Pulls, c.LastSeen.Sub(c.FirstSeen).Round(time.Millisecond))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
}
