// If you are AI: This is the error-stat utility. It attaches to a driver's CnC
// file, reads the distinct error log, and prints every observation.

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"aeronmd/internal/config"
	"aeronmd/internal/core/cnc"
	"aeronmd/internal/core/errcode"
	"aeronmd/internal/core/errorlog"
)

// Exit codes: 0 success, 1 failure, 2 usage.
const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

// main parses flags, waits for the driver's CnC metadata, and prints the
// distinct error observations.
func main() {
	os.Exit(run())
}

// run implements main so deferred cleanup survives os.Exit.
func run() int {
	flags := flag.NewFlagSet("errorstat", flag.ContinueOnError)
	basePath := flags.String("d", config.Default().Dir, "Base path to shared memory")
	timeoutMs := flags.Int64("t", 1000, "Milliseconds to wait for the driver metadata")
	help := flags.Bool("h", false, "Display help information")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return exitUsage
	}
	if *help {
		flags.PrintDefaults()
		return exitSuccess
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %v\n", flags.Args())
		flags.PrintDefaults()
		return exitUsage
	}

	layout, ok := attach(*basePath, *timeoutMs)
	if !ok {
		return exitFailure
	}
	defer layout.Close()

	count := errorlog.Read(layout.ErrorLog, func(count int32, firstMs, lastMs int64, code int32, description string) {
		fmt.Printf(
			"***\n%d observations from %s to %s for:\n [%s] %s\n",
			count,
			time.UnixMilli(firstMs).Format(time.RFC3339Nano),
			time.UnixMilli(lastMs).Format(time.RFC3339Nano),
			errcode.Code(code),
			description)
	})

	fmt.Printf("\n%d distinct errors observed.\n", count)
	return exitSuccess
}

// attach maps the CnC file, retrying until the timeout while the driver
// has not published its metadata yet.
func attach(basePath string, timeoutMs int64) (*cnc.Layout, bool) {
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)

	for {
		layout, err := cnc.MapExisting(basePath)
		if err == nil {
			return layout, true
		}

		var derr *errcode.DriverError
		if errors.As(err, &derr) && derr.Code == errcode.ProtocolViolation {
			fmt.Fprintln(os.Stderr, err)
			return nil, false
		}

		if time.Now().After(deadline) {
			fmt.Fprintln(os.Stderr, "Timed out trying to get driver's CnC metadata")
			return nil, false
		}
		time.Sleep(16 * time.Millisecond)
	}
}
