// Package console provides the interactive command line of dialsense-device.
package console

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/chzyer/readline"

	"github.com/dialsense/dialsense-go/pkg/sampler"
	"github.com/dialsense/dialsense-go/pkg/service"
	"github.com/dialsense/dialsense-go/pkg/subscription"
	"github.com/dialsense/dialsense-go/pkg/wire"
)

// LocalConn is the connection handle the console uses for its own reads.
// The gateway allocates handles from 1, so 0 never collides with a peer.
const LocalConn subscription.ConnID = 0

// Console handles interactive mode for dialsense-device.
type Console struct {
	rl     *readline.Instance
	manual *sampler.ManualInput
	svc    *service.SensorService

	watch    atomic.Bool
	attached bool
}

// New creates a console. manual may be nil when the input is not set by hand,
// in which case the set command is unavailable.
func New(manual *sampler.ManualInput) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dial> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl, manual: manual}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that coordinates with the prompt. Use it for log
// output so lines do not tear the input.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Attach binds the console to a service. Run calls it; tests call it directly.
func (c *Console) Attach(svc *service.SensorService, out io.Writer) {
	c.svc = svc
	if c.attached {
		return
	}
	c.attached = true
	svc.OnEvent(func(e service.Event) {
		switch e.Type {
		case service.EventValueChanged:
			if c.watch.Load() {
				fmt.Fprintf(out, "value: %d\n", e.Value)
			}
		case service.EventSubscriptionChanged:
			fmt.Fprintf(out, "subscription %s: %s -> %s (%s)\n", e.Change.Capability, e.Change.Old, e.Change.New, e.Change.Reason)
		}
	})
}

// Run reads commands until quit, EOF, or ctx is done. cancel is called when
// the user leaves the console.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc, svc *service.SensorService) {
	out := c.rl.Stdout()
	c.Attach(svc, out)

	go func() {
		<-ctx.Done()
		c.rl.Close()
	}()
	defer c.rl.Close()

	c.printHelp(out)

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt && ctx.Err() == nil {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}
		if c.Execute(out, line) {
			cancel()
			return
		}
	}
}

// Execute runs a single command line and reports whether the user asked to quit.
func (c *Console) Execute(w io.Writer, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp(w)
	case "status", "s":
		c.cmdStatus(w)
	case "set":
		c.cmdSet(w, args)
	case "read", "r":
		c.cmdRead(w)
	case "kick", "k":
		c.cmdKick(w, args)
	case "stats":
		c.cmdStats(w)
	case "watch", "w":
		c.cmdWatch(w, args)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help')\n", cmd)
	}
	return false
}

func (c *Console) printHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  status (s)          Service state, current value and subscriptions
  set <level>         Set the manual dial level (0.0 .. 1.0)
  read (r)            Read the current value as a peer would
  kick (k) <conn>     Drop a peer connection's subscriptions
  stats               Pipeline counters
  watch (w) [on|off]  Print every new value
  help (?)            Show this help
  quit (q)            Exit
`)
}

func (c *Console) cmdStatus(w io.Writer) {
	fmt.Fprintf(w, "State:   %s\n", c.svc.State())
	fmt.Fprintf(w, "Run:     %s\n", c.svc.RunID())
	fmt.Fprintf(w, "Current: %d\n", c.svc.Current())
	if addr := c.svc.GatewayAddr(); addr != nil {
		fmt.Fprintf(w, "Gateway: %s\n", addr)
	}
	for _, capability := range c.capabilities() {
		fmt.Fprintf(w, "%s:  %s\n", capability, c.svc.Delivery().Gate().State(capability))
	}
}

func (c *Console) cmdSet(w io.Writer, args []string) {
	if c.manual == nil {
		fmt.Fprintln(w, "set needs -input manual")
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: set <level>")
		return
	}
	level, err := strconv.ParseFloat(args[0], 64)
	if err != nil || level < 0 || level > 1 {
		fmt.Fprintf(w, "Invalid level %q (must be 0.0 .. 1.0)\n", args[0])
		return
	}
	c.manual.Set(level)
	fmt.Fprintf(w, "Dial level set to %.3f\n", level)
}

func (c *Console) cmdRead(w io.Writer) {
	for _, capability := range c.capabilities() {
		data, err := c.svc.Delivery().OnPullRequest(LocalConn, capability)
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", capability, err)
			continue
		}
		v, _, err := wire.DecodeValue(data)
		if err != nil {
			fmt.Fprintf(w, "%s: %s (%v)\n", capability, hex.EncodeToString(data), err)
			continue
		}
		fmt.Fprintf(w, "%s: %d [%s]\n", capability, v, hex.EncodeToString(data))
	}
}

func (c *Console) cmdKick(w io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: kick <conn>")
		return
	}
	id, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		fmt.Fprintf(w, "Invalid connection handle %q\n", args[0])
		return
	}
	c.svc.Delivery().OnDisconnect(subscription.ConnID(id))
	fmt.Fprintf(w, "Connection %d released\n", id)
}

func (c *Console) cmdStats(w io.Writer) {
	st := c.svc.Stats()
	fmt.Fprintf(w, "Producer: polls=%d forwarded=%d dropped=%d\n", st.Producer.Polls, st.Producer.Forwarded, st.Producer.Dropped)
	fmt.Fprintf(w, "Queue:    len=%d\n", st.QueueLen)
	fmt.Fprintf(w, "Consumer: received=%d timeouts=%d\n", st.Consumer.Received, st.Consumer.Timeouts)
	fmt.Fprintf(w, "Delivery: pushes=%d failures=%d pulls=%d heartbeats=%d\n",
		st.Delivery.Pushes, st.Delivery.PushFailures, st.Delivery.Pulls, st.Delivery.Heartbeats)
	fmt.Fprintf(w, "Peers:    %d\n", st.Connections)
}

func (c *Console) cmdWatch(w io.Writer, args []string) {
	on := !c.watch.Load()
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "on":
			on = true
		case "off":
			on = false
		default:
			fmt.Fprintln(w, "Usage: watch [on|off]")
			return
		}
	}
	c.watch.Store(on)
	if on {
		fmt.Fprintln(w, "Watching values")
	} else {
		fmt.Fprintln(w, "Stopped watching values")
	}
}

func (c *Console) capabilities() []subscription.Capability {
	return c.svc.Delivery().Gate().Capabilities()
}
