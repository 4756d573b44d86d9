// If you are AI: This file handles graceful shutdown orchestration for the driver process.

package driver

import (
	"os"
	"os/signal"
	"syscall"
)

// ShutdownHandler stops the driver cleanly on SIGINT or SIGTERM.
type ShutdownHandler struct {
	driver *Driver
}

// NewShutdownHandler creates a handler bound to a running driver.
func NewShutdownHandler(driver *Driver) *ShutdownHandler {
	return &ShutdownHandler{driver: driver}
}

// Wait blocks until a termination signal is received, then stops every
// agent and unmaps the shared regions. This method should be called from
// the main goroutine.
func (h *ShutdownHandler) Wait() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	return h.driver.Shutdown()
}
