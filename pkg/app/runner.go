package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"serial-maze/pkg/host"
)

// Runner provides a high-level interface to run the application
type Runner struct {
	app    *Application
	host   host.Host
	config AppConfig
	out    io.Writer
}

// NewRunner creates a new application runner
func NewRunner(h host.Host, config AppConfig) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Runner{
		host:   h,
		config: config,
		out:    os.Stdout,
	}, nil
}

// SetOutput sets where the session summary is printed
func (r *Runner) SetOutput(w io.Writer) {
	r.out = w
}

// Run starts the application and blocks until it's stopped by a shortcut or
// a signal
func (r *Runner) Run() error {
	app, err := NewApplication(r.host, nil, r.config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	r.app = app

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("application failed: %w", err)
	}

	if ctx.Err() != nil {
		fmt.Fprintln(r.out, "Received interrupt signal, shutting down...")
	}

	r.printSessionSummary()
	return nil
}

// printSessionSummary prints a summary of the session
func (r *Runner) printSessionSummary() {
	if r.app == nil {
		return
	}
	writeSessionSummary(r.out, r.app.Controller())
}

func writeSessionSummary(w io.Writer, c *Controller) {
	stats := c.Session().GetStats()

	ports := "none"
	if len(stats.Ports) > 0 {
		ports = strings.Join(stats.Ports, ", ")
	}

	fmt.Fprintf(w, "\n=== Session Summary ===\n")
	fmt.Fprintf(w, "Duration: %v\n", stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Ports opened: %s\n", ports)
	fmt.Fprintf(w, "Bytes Received: %d\n", stats.BytesRecv)
	fmt.Fprintf(w, "Direction tokens: %d\n", stats.Tokens)
	fmt.Fprintf(w, "Moves: %d\n", stats.Moves)
	fmt.Fprintf(w, "Marker: %s\n", c.Maze().Marker())
	fmt.Fprintf(w, "Scrollback: %d entries, %d bytes\n", c.Scrollback().GetEntryCount(), c.Scrollback().GetSize())
	fmt.Fprintf(w, "=======================\n")
}

// Stop stops the running application
func (r *Runner) Stop() {
	if r.app != nil {
		r.app.Stop()
	}
}

// RunInteractive runs the application on the terminal until it is quit
func RunInteractive(h host.Host, config AppConfig) error {
	runner, err := NewRunner(h, config)
	if err != nil {
		return err
	}

	return runner.Run()
}
