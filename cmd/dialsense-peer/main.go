// Command dialsense-peer connects to a dialsense gateway as a remote peer.
//
// Without -addr the gateway is located via mDNS. By default the peer
// subscribes and prints every pushed value until interrupted; with -read it
// reads the current value once and exits.
//
// Usage:
//
//	dialsense-peer [flags]
//
// Examples:
//
//	# Find the gateway on the LAN and follow the dial
//	dialsense-peer
//
//	# Read once from a known gateway
//	dialsense-peer -addr 192.168.1.40:7447 -read
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dialsense/dialsense-go/pkg/config"
	"github.com/dialsense/dialsense-go/pkg/delivery"
	"github.com/dialsense/dialsense-go/pkg/discovery"
	"github.com/dialsense/dialsense-go/pkg/transport"
	"github.com/dialsense/dialsense-go/pkg/wire"
)

var (
	address        = flag.String("addr", "", "Gateway address host:port (default: discover via mDNS)")
	characteristic = flag.Uint("char", uint(delivery.DefaultCapabilityUUID), "Characteristic UUID (16-bit)")
	readOnce       = flag.Bool("read", false, "Read the current value once and exit")
	indicate       = flag.Bool("indicate", false, "Subscribe with indications instead of notifications")
	iface          = flag.String("iface", "", "Network interface for mDNS (default: all)")
	timeout        = flag.Duration("timeout", discovery.DefaultBrowseTimeout, "Discovery and connect timeout")
	logLevel       = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	level, err := config.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *characteristic > 0xFFFF {
		return fmt.Errorf("characteristic %d does not fit in 16 bits", *characteristic)
	}
	capability := uint16(*characteristic)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	addr, err := resolve(ctx, capability, logger)
	if err != nil {
		return err
	}

	client, err := transport.Dial(ctx, addr, transport.ClientConfig{
		ConnectTimeout: *timeout,
		Logger:         logger,
		OnNotification: func(n *wire.Notification) {
			printValue(n.Capability, n.Value, n.Indicate)
		},
	})
	if err != nil {
		return err
	}
	defer client.Close()
	logger.Info("connected", "addr", addr)

	if *readOnce {
		data, err := client.Read(ctx, capability)
		if err != nil {
			return err
		}
		printValue(capability, data, false)
		return nil
	}

	mode := wire.ModeNotify
	if *indicate {
		mode = wire.ModeIndicate
	}
	if err := client.Subscribe(ctx, capability, mode); err != nil {
		return err
	}
	logger.Info("subscribed", "characteristic", fmt.Sprintf("0x%04X", capability), "indicate", *indicate)

	select {
	case <-ctx.Done():
		unsubCtx, unsubCancel := context.WithTimeout(context.Background(), time.Second)
		defer unsubCancel()
		if err := client.Unsubscribe(unsubCtx, capability); err != nil && !errors.Is(err, transport.ErrConnectionClosed) {
			logger.Warn("unsubscribe failed", "error", err)
		}
		return nil
	case <-client.Done():
		return client.Err()
	}
}

// resolve returns -addr, or browses for a gateway exposing capability.
func resolve(ctx context.Context, capability uint16, logger *slog.Logger) (string, error) {
	if *address != "" {
		return *address, nil
	}

	logger.Info("browsing for gateway", "service", discovery.ServiceType, "timeout", timeout.String())
	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{
		Interface:     *iface,
		BrowseTimeout: *timeout,
	})
	gw, err := browser.Find(ctx, capability)
	if err != nil {
		return "", err
	}
	logger.Info("found gateway", "instance", gw.InstanceName, "name", gw.Info.Name, "host", gw.Host)
	return gw.Address(), nil
}

func printValue(capability uint16, data []byte, indicated bool) {
	v, tag, err := wire.DecodeValue(data)
	if err != nil {
		fmt.Printf("%s 0x%04X invalid value %x: %v\n", time.Now().Format(time.TimeOnly), capability, data, err)
		return
	}
	kind := "notify"
	if indicated {
		kind = "indicate"
	}
	fmt.Printf("%s 0x%04X value=%d tag=0x%02X %s\n", time.Now().Format(time.TimeOnly), capability, v, tag, kind)
}
