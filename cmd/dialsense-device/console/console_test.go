package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dialsense/dialsense-go/pkg/config"
	"github.com/dialsense/dialsense-go/pkg/delivery/mocks"
	"github.com/dialsense/dialsense-go/pkg/sampler"
	"github.com/dialsense/dialsense-go/pkg/service"
	"github.com/dialsense/dialsense-go/pkg/subscription"
)

const dialCap = subscription.Capability(0x2B7D)

func startService(t *testing.T, manual *sampler.ManualInput) *service.SensorService {
	t.Helper()

	cfg := config.Default()
	cfg.Sensor.WakeupPeriod = 2 * time.Millisecond
	cfg.Producer.PollPeriod = 5 * time.Millisecond
	cfg.Consumer.Wait = 5 * time.Millisecond
	cfg.Gateway.Enabled = false

	stack := mocks.NewMockStack(t)
	stack.EXPECT().Push(mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	svc, err := service.New(cfg, service.Options{
		Driver: sampler.NewSimDriver(manual.Read),
		Stack:  stack,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = svc.Stop()
	})
	return svc
}

// lineSink collects event output written from handler goroutines.
type lineSink struct {
	ch chan string
}

func (b *lineSink) Write(p []byte) (int, error) {
	select {
	case b.ch <- string(p):
	default:
	}
	return len(p), nil
}

func TestSetAndRead(t *testing.T) {
	manual := &sampler.ManualInput{}
	svc := startService(t, manual)
	c := &Console{manual: manual}
	c.Attach(svc, io.Discard)

	var out bytes.Buffer
	assert.False(t, c.Execute(&out, "set 1.0"))
	assert.Contains(t, out.String(), "1.000")

	require.Eventually(t, func() bool { return svc.Current() == 4095 }, 2*time.Second, 5*time.Millisecond)

	out.Reset()
	c.Execute(&out, "read")
	assert.Contains(t, out.String(), "4095")
	assert.Contains(t, out.String(), "0010ff0f")
	assert.Equal(t, uint64(1), svc.Stats().Delivery.Pulls)
}

func TestSetRejectsBadLevel(t *testing.T) {
	manual := &sampler.ManualInput{}
	svc := startService(t, manual)
	c := &Console{manual: manual}
	c.Attach(svc, io.Discard)

	var out bytes.Buffer
	c.Execute(&out, "set 1.5")
	assert.Contains(t, out.String(), "Invalid level")

	out.Reset()
	c.Execute(&out, "set")
	assert.Contains(t, out.String(), "Usage")
}

func TestSetWithoutManualInput(t *testing.T) {
	svc := startService(t, &sampler.ManualInput{})
	c := &Console{}
	c.Attach(svc, io.Discard)

	var out bytes.Buffer
	c.Execute(&out, "set 0.5")
	assert.Contains(t, out.String(), "-input manual")
}

func TestStatusShowsSubscription(t *testing.T) {
	manual := &sampler.ManualInput{}
	svc := startService(t, manual)
	c := &Console{manual: manual}
	events := &lineSink{ch: make(chan string, 16)}
	c.Attach(svc, events)

	require.NoError(t, svc.Delivery().OnSubscribe(7, dialCap, subscription.ModeNotify))

	select {
	case line := <-events.ch:
		assert.Contains(t, line, "subscribe")
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription event printed")
	}

	var out bytes.Buffer
	c.Execute(&out, "status")
	assert.Contains(t, out.String(), "State:   RUNNING")
	assert.Contains(t, out.String(), "SUBSCRIBED(7,NOTIFY)")

	out.Reset()
	c.Execute(&out, "kick 7")
	assert.Contains(t, out.String(), "released")
	assert.False(t, svc.Delivery().Gate().State(dialCap).IsSubscribed())
}

func TestWatchToggle(t *testing.T) {
	manual := &sampler.ManualInput{}
	svc := startService(t, manual)
	c := &Console{manual: manual}
	events := &lineSink{ch: make(chan string, 64)}
	c.Attach(svc, events)

	var out bytes.Buffer
	c.Execute(&out, "watch on")
	assert.Contains(t, out.String(), "Watching")

	manual.Set(0.5)
	deadline := time.After(2 * time.Second)
	for {
		select {
		case line := <-events.ch:
			if strings.HasPrefix(line, "value: ") {
				c.Execute(&out, "watch off")
				assert.Contains(t, out.String(), "Stopped")
				return
			}
		case <-deadline:
			t.Fatal("no value printed while watching")
		}
	}
}

func TestStatsAndUnknownCommand(t *testing.T) {
	svc := startService(t, &sampler.ManualInput{})
	c := &Console{}
	c.Attach(svc, io.Discard)

	var out bytes.Buffer
	c.Execute(&out, "stats")
	assert.Contains(t, out.String(), "Producer: polls=")
	assert.Contains(t, out.String(), "Delivery: pushes=")

	out.Reset()
	c.Execute(&out, "frobnicate")
	assert.Contains(t, out.String(), "Unknown command")

	assert.False(t, c.Execute(&out, "   "))
	assert.True(t, c.Execute(&out, "quit"))
}
