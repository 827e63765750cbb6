package ipc

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/cortexhq/cortex/internal/logging"
)

// reconnectDelay paces reconnect attempts when the hub is down.
const reconnectDelay = 2 * time.Second

// Subscribe connects to a hub's IPC port and delivers each published line to
// the handler. When the connection drops, it reconnects until the context is
// canceled, so `cortexctl watch` survives hub restarts.
func Subscribe(ctx context.Context, addr string, handler func(line string)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
		if err != nil {
			logging.Debug("IPC connect to %s failed: %v, retrying", addr, err)
			select {
			case <-time.After(reconnectDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		readLines(ctx, conn, handler)
	}
}

// readLines consumes lines until the connection or context ends.
func readLines(ctx context.Context, conn net.Conn, handler func(line string)) {
	defer conn.Close()

	// Close the connection when the context ends so the scanner unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		handler(scanner.Text())
	}
}
