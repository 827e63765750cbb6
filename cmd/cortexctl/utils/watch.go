// Package utils provides watch mode functionality for continuous CLI monitoring.
//
// Watch mode turns static commands into live dashboards: the display refreshes
// every 2 seconds until the operator interrupts with Ctrl+C. Display errors
// during a refresh are logged and the loop keeps going, so a hub restart mid
// watch doesn't kill the session.
package utils

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cortexhq/cortex/internal/logging"
)

// RunWithWatch executes a function either once or repeatedly in watch mode
// with terminal clearing and graceful shutdown on SIGINT/SIGTERM.
func RunWithWatch(fn func() error, enableWatch bool) error {
	if !enableWatch {
		return fn()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	// Clear screen and show initial data
	fmt.Print("\033[2J\033[H")
	if err := fn(); err != nil {
		return err
	}

	for {
		select {
		case <-ticker.C:
			fmt.Print("\033[2J\033[H")
			if err := fn(); err != nil {
				logging.Error("Error updating display: %v", err)
				continue
			}
		case <-sigChan:
			fmt.Println("\nWatch mode interrupted")
			return nil
		}
	}
}
