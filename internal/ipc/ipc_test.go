package ipc

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"
)

func testPublisher(t *testing.T) *Publisher {
	t.Helper()

	p := &Publisher{
		config: &Config{BindAddr: "127.0.0.1", BindPort: 0},
		subs:   make(map[*subscriber]struct{}),
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to bind: %v", err)
	}
	p.listener = l
	p.wg.Add(1)
	go p.acceptLoop()

	t.Cleanup(func() { p.Shutdown() })
	return p
}

// TestPublishFanOut verifies every subscriber gets every line
func TestPublishFanOut(t *testing.T) {
	p := testPublisher(t)

	conns := make([]net.Conn, 2)
	for i := range conns {
		conn, err := net.Dial("tcp", p.Addr().String())
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
		defer conn.Close()
		conns[i] = conn
	}

	waitFor(t, func() bool { return p.SubscriberCount() == 2 }, "subscribers never registered")

	p.Publish(`{"node_id":1,"temp_c":21.5}`)
	p.Publish(`{"node_id":2,"temp_c":22.0}`)

	for i, conn := range conns {
		scanner := bufio.NewScanner(conn)
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		for j := 0; j < 2; j++ {
			if !scanner.Scan() {
				t.Fatalf("subscriber %d missing line %d: %v", i, j, scanner.Err())
			}
		}
		if line := scannerLastText(scanner); line != `{"node_id":2,"temp_c":22.0}` {
			t.Errorf("subscriber %d last line = %q", i, line)
		}
	}
}

// scannerLastText returns the text of the most recent Scan
func scannerLastText(s *bufio.Scanner) string { return s.Text() }

// TestDisconnectedSubscriberEvicted verifies cleanup after close
func TestDisconnectedSubscriberEvicted(t *testing.T) {
	p := testPublisher(t)

	conn, err := net.Dial("tcp", p.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitFor(t, func() bool { return p.SubscriberCount() == 1 }, "subscriber never registered")

	conn.Close()

	// The eviction happens on the next failed write
	waitFor(t, func() bool {
		p.Publish(`{"ping":true}`)
		return p.SubscriberCount() == 0
	}, "closed subscriber never evicted")
}

// TestPublishNeverBlocks verifies a stalled subscriber cannot stall Publish
func TestPublishNeverBlocks(t *testing.T) {
	p := testPublisher(t)

	// Connect but never read
	conn, err := net.Dial("tcp", p.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return p.SubscriberCount() == 1 }, "subscriber never registered")

	done := make(chan struct{})
	go func() {
		// Far more lines than the queue plus socket buffers can hold
		for i := 0; i < subscriberQueueDepth*20; i++ {
			p.Publish(`{"filler":"xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"}`)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a stalled subscriber")
	}
}

// TestSubscribeReceivesLines drives the client against a live publisher
func TestSubscribeReceivesLines(t *testing.T) {
	p := testPublisher(t)

	var mu sync.Mutex
	var got []string
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Subscribe(ctx, p.Addr().String(), func(line string) {
		mu.Lock()
		got = append(got, line)
		mu.Unlock()
	})

	waitFor(t, func() bool { return p.SubscriberCount() == 1 }, "client never connected")

	p.Publish(`{"seq":1}`)
	p.Publish(`{"seq":2}`)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, "client never received the lines")

	mu.Lock()
	defer mu.Unlock()
	if got[0] != `{"seq":1}` || got[1] != `{"seq":2}` {
		t.Errorf("received lines = %v", got)
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
