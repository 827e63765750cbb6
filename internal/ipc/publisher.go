// Package ipc implements the hub's local event stream.
//
// Every ingested reading is published as one JSON line to any process
// connected to the loopback IPC port. This is how the display, the watch
// command, and ad-hoc scripts observe live telemetry without touching the
// database or the HTTP API. Subscribers are passive: the hub writes, they
// read.
package ipc

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/cortexhq/cortex/internal/config"
	"github.com/cortexhq/cortex/internal/logging"
	"github.com/cortexhq/cortex/internal/validate"
)

// Config holds the IPC publisher configuration
type Config struct {
	BindAddr string `validate:"required,ip"`              // Loopback only in practice
	BindPort int    `validate:"required,min=1,max=65535"` // Port for subscribers
}

// DefaultConfig returns the default IPC publisher configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddr: config.DefaultIPCAddr,
		BindPort: config.DefaultIPCPort,
	}
}

// subscriberQueueDepth bounds the per-subscriber backlog. A subscriber that
// falls this far behind is evicted rather than allowed to stall the stream.
const subscriberQueueDepth = 256

// subscriber is one connected consumer.
type subscriber struct {
	conn  net.Conn
	lines chan string
}

// Publisher fans JSON lines out to connected subscribers.
type Publisher struct {
	config   *Config
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	subLock sync.Mutex
	subs    map[*subscriber]struct{}
}

// NewPublisher creates an IPC publisher.
func NewPublisher(cfg *Config) (*Publisher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := validate.ValidateField(cfg.BindAddr, "required,ip"); err != nil {
		return nil, fmt.Errorf("invalid IPC bind address %q: must be a valid IP address", cfg.BindAddr)
	}
	if err := validate.ValidatePortRange(cfg.BindPort); err != nil {
		return nil, fmt.Errorf("invalid IPC port: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Publisher{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[*subscriber]struct{}),
	}, nil
}

// Start binds the IPC listener and begins accepting subscribers.
func (p *Publisher) Start() error {
	addr := fmt.Sprintf("%s:%d", p.config.BindAddr, p.config.BindPort)
	logging.Info("Starting IPC publisher on %s", addr)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind IPC publisher to %s: %w", addr, err)
	}
	p.listener = listener

	p.wg.Add(1)
	go p.acceptLoop()

	logging.Success("IPC publisher started successfully")
	return nil
}

// Addr returns the bound address.
func (p *Publisher) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Shutdown disconnects all subscribers and stops the publisher.
func (p *Publisher) Shutdown() error {
	logging.Info("Shutting down IPC publisher")

	p.cancel()
	if p.listener != nil {
		p.listener.Close()
	}

	p.subLock.Lock()
	for sub := range p.subs {
		sub.conn.Close()
	}
	p.subLock.Unlock()

	p.wg.Wait()
	return nil
}

// SubscriberCount returns the number of connected subscribers.
func (p *Publisher) SubscriberCount() int {
	p.subLock.Lock()
	defer p.subLock.Unlock()
	return len(p.subs)
}

// Publish queues one line for every connected subscriber. Never blocks: a
// subscriber with a full backlog is evicted.
func (p *Publisher) Publish(line string) {
	p.subLock.Lock()
	defer p.subLock.Unlock()

	for sub := range p.subs {
		select {
		case sub.lines <- line:
		default:
			logging.Warn("IPC subscriber %s too slow, evicting", sub.conn.RemoteAddr())
			sub.conn.Close()
			delete(p.subs, sub)
		}
	}
}

func (p *Publisher) acceptLoop() {
	defer p.wg.Done()

	for {
		conn, err := p.listener.Accept()
		if err != nil {
			select {
			case <-p.ctx.Done():
				return
			default:
			}
			logging.Warn("IPC accept failed: %v", err)
			continue
		}

		sub := &subscriber{
			conn:  conn,
			lines: make(chan string, subscriberQueueDepth),
		}

		p.subLock.Lock()
		p.subs[sub] = struct{}{}
		p.subLock.Unlock()

		logging.Debug("IPC subscriber connected: %s", conn.RemoteAddr())

		p.wg.Add(1)
		go p.writeLoop(sub)
	}
}

// writeLoop drains one subscriber's queue onto its connection.
func (p *Publisher) writeLoop(sub *subscriber) {
	defer p.wg.Done()
	defer func() {
		sub.conn.Close()
		p.subLock.Lock()
		delete(p.subs, sub)
		p.subLock.Unlock()
		logging.Debug("IPC subscriber disconnected: %s", sub.conn.RemoteAddr())
	}()

	for {
		select {
		case line := <-sub.lines:
			if _, err := sub.conn.Write([]byte(line + "\n")); err != nil {
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}
