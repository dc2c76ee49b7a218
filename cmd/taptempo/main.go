// Command taptempo estimates a tempo from Enter presses on standard input.
//
// Usage:
//
//	taptempo                  # tap Enter along with the music, Ctrl-D to quit
//	taptempo -precision 2 -idle 3s
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"

	beatgrid "github.com/tphakala/go-beatgrid"
)

const defaultTapPrecision = 1

var (
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow)
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	precision := flag.Int("precision", defaultTapPrecision, "Decimal places for the BPM estimate")
	idle := flag.Duration("idle", beatgrid.DefaultTapIdleTimeout, "Reset after this long without a tap")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tracker := beatgrid.NewTapTracker(
		beatgrid.TapConfig{Precision: *precision, IdleTimeout: *idle},
		func(r beatgrid.TapResult) { printResult(os.Stdout, r) },
	)
	defer tracker.Stop()

	fmt.Println("Tap Enter in time with the music. Ctrl-D to quit.")

	err := tracker.Listen(ctx, readTaps(os.Stdin, time.Now))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readTaps emits the time of every line read from r and closes the channel
// at EOF.
func readTaps(r io.Reader, now func() time.Time) <-chan time.Time {
	taps := make(chan time.Time)
	go func() {
		defer close(taps)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			taps <- now()
		}
	}()
	return taps
}

func printResult(w io.Writer, r beatgrid.TapResult) {
	if !r.OK {
		_, _ = yellow.Fprintln(w, r.String())
		return
	}
	_, _ = green.Fprintf(w, "%s BPM\n", r.String())
}
