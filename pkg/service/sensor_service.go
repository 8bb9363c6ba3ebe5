package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dialsense/dialsense-go/pkg/config"
	"github.com/dialsense/dialsense-go/pkg/consumer"
	"github.com/dialsense/dialsense-go/pkg/delivery"
	"github.com/dialsense/dialsense-go/pkg/discovery"
	"github.com/dialsense/dialsense-go/pkg/log"
	"github.com/dialsense/dialsense-go/pkg/producer"
	"github.com/dialsense/dialsense-go/pkg/queue"
	"github.com/dialsense/dialsense-go/pkg/sampler"
	"github.com/dialsense/dialsense-go/pkg/subscription"
	"github.com/dialsense/dialsense-go/pkg/transport"
)

// Options carries the collaborators of a SensorService.
type Options struct {
	// Driver is the sensor driver. Required.
	Driver sampler.Driver

	// Stack receives pushes. If nil and the gateway is enabled, the
	// service runs a transport.Server and uses it as the stack.
	Stack delivery.Stack

	// Advertiser publishes the gateway. If nil and discovery is enabled,
	// an mDNS advertiser is used.
	Advertiser discovery.Advertiser

	// Logger receives operational logs. Nil means slog.Default().
	Logger *slog.Logger

	// EventLogger captures pipeline events (optional).
	EventLogger log.Logger

	// RunID stamps captured events. Empty generates a UUID.
	RunID string
}

// SensorService runs the sensor pipeline.
type SensorService struct {
	mu    sync.RWMutex
	state ServiceState

	config config.Config
	driver sampler.Driver
	logger *slog.Logger
	events log.Logger
	runID  string

	queue    *queue.Queue[sampler.Reading]
	producer *producer.Producer
	consumer *consumer.Consumer
	delivery *delivery.Delivery

	stack      *deferredStack
	gateway    *transport.Server
	advertiser discovery.Advertiser

	eventSinks []*eventSink
	done       chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a service from cfg. Nothing runs until Start.
func New(cfg config.Config, opts Options) (*SensorService, error) {
	if opts.Driver == nil {
		return nil, ErrNoDriver
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	q, err := queue.New[sampler.Reading](cfg.Queue.Capacity)
	if err != nil {
		return nil, err
	}

	s := &SensorService{
		config: cfg,
		driver: opts.Driver,
		logger: logger,
		events: log.OrNoop(opts.EventLogger),
		runID:  runID,
		queue:  q,
		stack:  &deferredStack{target: opts.Stack},
		done:   make(chan struct{}),
	}

	s.consumer = consumer.New(q, consumer.ListenerFunc(s.onNewValue), consumer.Config{
		Wait:        cfg.Consumer.Wait,
		PinThread:   cfg.Consumer.PinThread,
		Logger:      logger,
		EventLogger: opts.EventLogger,
		RunID:       runID,
	})

	capability := subscription.Capability(cfg.Delivery.CharacteristicUUID)
	s.delivery, err = delivery.New(subscription.NewGate(capability), s.stack, s.consumer.Current(), delivery.Config{
		Capability:        capability,
		Tag:               cfg.Delivery.Tag,
		HeartbeatInterval: cfg.Delivery.Heartbeat,
		Logger:            logger,
		EventLogger:       opts.EventLogger,
		RunID:             runID,
		OnChange:          s.onSubscriptionChange,
	})
	if err != nil {
		return nil, err
	}

	if opts.Stack == nil && cfg.Gateway.Enabled {
		s.gateway, err = transport.NewServer(transport.ServerConfig{
			Address:        cfg.Gateway.Address,
			MaxConnections: cfg.Gateway.MaxConnections,
			WriteTimeout:   cfg.Gateway.WriteTimeout,
			Handler:        s.delivery,
			Logger:         logger,
			EventLogger:    opts.EventLogger,
			RunID:          runID,
		})
		if err != nil {
			return nil, err
		}
		s.stack.target = s.gateway
	}

	if cfg.Discovery.Enabled && s.gateway != nil {
		s.advertiser = opts.Advertiser
		if s.advertiser == nil {
			s.advertiser = discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{
				Interface: cfg.Discovery.Interface,
			})
		}
	}

	return s, nil
}

// RunID returns the identifier stamped on captured events.
func (s *SensorService) RunID() string {
	return s.runID
}

// State returns the lifecycle state.
func (s *SensorService) State() ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// OnEvent registers a handler for service events. The handler runs on its
// own goroutine until Stop.
func (s *SensorService) OnEvent(handler EventHandler) {
	sink := &eventSink{handler: handler, ch: make(chan Event, eventBuffer)}
	s.mu.Lock()
	s.eventSinks = append(s.eventSinks, sink)
	s.mu.Unlock()
	go sink.run(s.done)
}

// Start initialises the driver and starts every loop. Driver failures are
// returned wrapped in sampler.ErrDriverFault and leave the service idle.
func (s *SensorService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateStarting
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)

	if err := s.startDriver(ctx); err != nil {
		cancel()
		s.setState(StateIdle)
		return err
	}

	p := producer.New(s.driver.Source(), s.queue, producer.Config{
		PollPeriod:  s.config.Producer.PollPeriod,
		Tolerance:   s.config.Producer.Tolerance,
		PinThread:   s.config.Producer.PinThread,
		Logger:      s.logger,
		EventLogger: s.events,
		RunID:       s.runID,
	})
	baseline := p.Baseline().Value()
	s.mu.Lock()
	s.producer = p
	s.mu.Unlock()

	if s.gateway != nil {
		if err := s.gateway.Start(ctx); err != nil {
			cancel()
			s.setState(StateIdle)
			return fmt.Errorf("failed to start gateway: %w", err)
		}
	}

	s.cancel = cancel
	s.spawn("producer", func() error { return p.Run(ctx) })
	s.spawn("consumer", func() error { return s.consumer.Run(ctx) })
	s.spawn("heartbeat", func() error { return s.delivery.RunHeartbeat(ctx) })

	if s.advertiser != nil {
		if err := s.advertise(ctx); err != nil {
			// The gateway still serves peers that know its address.
			s.logger.Warn("mDNS advertising failed", "error", err)
		}
	}

	s.setState(StateRunning)
	s.logger.Info("sensor service started",
		"run_id", s.runID,
		"baseline", baseline,
		"capability", subscription.Capability(s.config.Delivery.CharacteristicUUID))
	return nil
}

// Stop cancels all loops and waits for them to exit. The gateway closes its
// connections first so a push blocked on a slow peer cannot hold up the wait.
func (s *SensorService) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.state = StateStopping
	s.mu.Unlock()

	if s.advertiser != nil {
		s.advertiser.Stop()
	}
	s.cancel()
	if s.gateway != nil {
		s.gateway.Stop()
	}
	s.wg.Wait()
	close(s.done)

	s.setState(StateStopped)
	s.logger.Info("sensor service stopped")
	return nil
}

// Current returns the consumer's current value.
func (s *SensorService) Current() uint16 {
	return s.delivery.ReadCurrent()
}

// Delivery returns the delivery layer, for in-process peers.
func (s *SensorService) Delivery() *delivery.Delivery {
	return s.delivery
}

// GatewayAddr returns the gateway listen address, or nil without a gateway.
func (s *SensorService) GatewayAddr() net.Addr {
	if s.gateway == nil {
		return nil
	}
	return s.gateway.Addr()
}

// Stats returns a snapshot of all pipeline counters.
func (s *SensorService) Stats() Stats {
	st := Stats{
		Consumer: s.consumer.Stats(),
		Delivery: s.delivery.Stats(),
		QueueLen: s.queue.Len(),
	}
	s.mu.RLock()
	p := s.producer
	s.mu.RUnlock()
	if p != nil {
		st.Producer = p.Stats()
	}
	if s.gateway != nil {
		st.Connections = s.gateway.ConnectionCount()
	}
	return st
}

func (s *SensorService) startDriver(ctx context.Context) error {
	if err := s.driver.Init(s.config.Sensor); err != nil {
		return driverFault("init", err)
	}
	if err := s.driver.Start(ctx); err != nil {
		return driverFault("start", err)
	}
	s.events.Log(log.Event{
		Timestamp: time.Now(),
		RunID:     s.runID,
		Layer:     log.LayerSampler,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityDriver,
			OldState: "STOPPED",
			NewState: "RUNNING",
		},
	})
	return nil
}

func driverFault(stage string, err error) error {
	if errors.Is(err, sampler.ErrDriverFault) {
		return fmt.Errorf("driver %s: %w", stage, err)
	}
	return fmt.Errorf("%w: driver %s: %w", sampler.ErrDriverFault, stage, err)
}

func (s *SensorService) advertise(ctx context.Context) error {
	_, portStr, err := net.SplitHostPort(s.gateway.Addr().String())
	if err != nil {
		return err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return err
	}
	return s.advertiser.Advertise(ctx, &discovery.Info{
		Name:               s.config.Discovery.Name,
		Port:               uint16(port),
		ServiceUUID:        s.config.Delivery.ServiceUUID,
		CharacteristicUUID: s.config.Delivery.CharacteristicUUID,
		Tag:                s.config.Delivery.Tag,
	})
}

// spawn runs fn on a tracked goroutine. Loops only return on cancellation;
// anything else is logged.
func (s *SensorService) spawn(name string, fn func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("loop exited", "loop", name, "error", err)
		}
	}()
}

func (s *SensorService) setState(state ServiceState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *SensorService) onNewValue(v uint16) {
	s.delivery.OnNewValue(v)
	s.emitEvent(Event{Type: EventValueChanged, Value: v})
}

func (s *SensorService) onSubscriptionChange(c subscription.Change) {
	s.emitEvent(Event{Type: EventSubscriptionChanged, Change: c})
}

func (s *SensorService) emitEvent(event Event) {
	s.mu.RLock()
	sinks := s.eventSinks
	s.mu.RUnlock()
	for _, sink := range sinks {
		select {
		case sink.ch <- event:
		default:
			s.logger.Debug("event handler behind, dropping event", "type", event.Type)
		}
	}
}

const eventBuffer = 64

// eventSink feeds one handler from its own queue.
type eventSink struct {
	handler EventHandler
	ch      chan Event
}

func (k *eventSink) run(done <-chan struct{}) {
	for {
		select {
		case event := <-k.ch:
			k.handler(event)
		case <-done:
			return
		}
	}
}

// deferredStack forwards pushes to a stack that may be created after the
// delivery layer that uses it.
type deferredStack struct {
	target delivery.Stack
}

func (d *deferredStack) Push(conn subscription.ConnID, capability subscription.Capability, data []byte, mode subscription.Mode) error {
	if d.target == nil {
		return transport.ErrUnknownConnection
	}
	return d.target.Push(conn, capability, data, mode)
}
