// Command dialsense-device runs the dial sensor pipeline on a host.
//
// The coprocessor is emulated by a simulated driver whose analog input either
// sweeps back and forth on its own or is set by hand from the console. Peers
// reach the characteristic through the TCP gateway and find it via mDNS.
//
// Usage:
//
//	dialsense-device [flags]
//
// Examples:
//
//	# Sweeping dial, gateway on :7447, advertised via mDNS
//	dialsense-device -mdns
//
//	# Manual dial with an interactive console and an event capture file
//	dialsense-device -input manual -interactive -log-file device.dlog
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dialsense/dialsense-go/cmd/dialsense-device/console"
	"github.com/dialsense/dialsense-go/pkg/config"
	"github.com/dialsense/dialsense-go/pkg/log"
	"github.com/dialsense/dialsense-go/pkg/sampler"
	"github.com/dialsense/dialsense-go/pkg/service"
)

type flags struct {
	ConfigFile  string
	Address     string
	LogLevel    string
	LogFile     string
	Interactive bool
	Input       string
	SweepPeriod time.Duration
	NoGateway   bool
	MDNS        bool
}

var opts flags

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&opts.Address, "addr", "", "Gateway listen address (overrides config)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.StringVar(&opts.LogFile, "log-file", "", "Event capture file (.dlog)")
	flag.BoolVar(&opts.Interactive, "interactive", false, "Start the interactive console")
	flag.StringVar(&opts.Input, "input", "sweep", "Simulated analog input: sweep, manual")
	flag.DurationVar(&opts.SweepPeriod, "sweep-period", 10*time.Second, "Period of the sweep input")
	flag.BoolVar(&opts.NoGateway, "no-gateway", false, "Disable the TCP gateway")
	flag.BoolVar(&opts.MDNS, "mdns", false, "Advertise the gateway via mDNS")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	var manual *sampler.ManualInput
	var input sampler.Input
	switch opts.Input {
	case "sweep":
		input = sampler.SweepInput(opts.SweepPeriod)
	case "manual":
		manual = &sampler.ManualInput{}
		input = manual.Read
	default:
		return fmt.Errorf("unknown input %q (must be sweep or manual)", opts.Input)
	}

	var con *console.Console
	var out io.Writer = os.Stderr
	if opts.Interactive {
		con, err = console.New(manual)
		if err != nil {
			return err
		}
		out = con.Stderr()
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	runID := uuid.New().String()
	var events log.Logger
	if cfg.Log.File != "" {
		fileLogger, err := log.NewFileLogger(cfg.Log.File)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		defer func() {
			if err := fileLogger.Close(); err != nil {
				logger.Warn("closing event log failed", "error", err)
			}
			if n := fileLogger.WriteErrors(); n > 0 {
				logger.Warn("events lost while writing capture file", "count", n)
			}
		}()
		events = fileLogger
		if level <= slog.LevelDebug {
			events = log.NewMultiLogger(fileLogger, log.NewSlogAdapter(logger))
		}
	} else if level <= slog.LevelDebug {
		events = log.NewSlogAdapter(logger)
	}

	driver := sampler.NewSimDriver(input)
	svc, err := service.New(cfg, service.Options{
		Driver:      driver,
		Logger:      logger,
		EventLogger: events,
		RunID:       runID,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	logger.Info("dialsense device started",
		"run_id", runID,
		"characteristic", fmt.Sprintf("0x%04X", cfg.Delivery.CharacteristicUUID),
		"input", opts.Input)
	if addr := svc.GatewayAddr(); addr != nil {
		logger.Info("gateway listening", "addr", addr.String())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	if con != nil {
		con.Run(ctx, cancel, svc)
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down")
	if err := svc.Stop(); err != nil {
		return fmt.Errorf("stop service: %w", err)
	}
	driver.Wait()
	return nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return cfg, err
	}
	if opts.Address != "" {
		cfg.Gateway.Address = opts.Address
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFile != "" {
		cfg.Log.File = opts.LogFile
	}
	if opts.NoGateway {
		cfg.Gateway.Enabled = false
	}
	if opts.MDNS {
		cfg.Discovery.Enabled = true
	}
	return cfg, cfg.Validate()
}
