package cluster

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cortexhq/cortex/internal/logging"
	"github.com/hashicorp/serf/serf"
)

// Hub represents one federated hub with its metadata.
type Hub struct {
	ID     string            `json:"id"`     // Random hex identifier
	Name   string            `json:"name"`   // Hub name
	Addr   net.IP            `json:"addr"`   // Gossip address
	Port   uint16            `json:"port"`   // Gossip port
	Status serf.MemberStatus `json:"status"` // Membership status
	Tags   map[string]string `json:"tags"`   // Advertised tags

	LastSeen time.Time `json:"lastSeen"`
}

// StatusFunc supplies this hub's live summary for federation status queries.
type StatusFunc func() map[string]any

// Manager runs Serf membership for a hub.
type Manager struct {
	serf     *serf.Serf
	HubID    string
	HubName  string
	statusFn StatusFunc

	eventQueue chan serf.Event

	memberLock sync.RWMutex
	members    map[string]*Hub

	shutdownCh chan struct{}
	wg         sync.WaitGroup
	config     *Config
}

// NewManager creates a federation manager. statusFn may be nil; status
// queries then answer with an empty object.
func NewManager(cfg *Config, statusFn StatusFunc) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	hubID, err := generateHubID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate hub ID: %w", err)
	}

	return &Manager{
		HubID:      hubID,
		HubName:    cfg.HubName,
		statusFn:   statusFn,
		eventQueue: make(chan serf.Event, cfg.EventBufferSize),
		members:    make(map[string]*Hub),
		shutdownCh: make(chan struct{}),
		config:     cfg,
	}, nil
}

// Start starts the federation manager.
func (m *Manager) Start() error {
	logging.Info("Starting federation manager for hub %s (%s)", m.HubName, m.HubID)

	serfConfig := serf.DefaultConfig()

	if !logging.IsConfiguredByCLI() {
		logging.SetLevel(m.config.LogLevel)
	}

	// Route Serf's internal logs through our logger, or silence them
	// entirely at ERROR level
	if m.config.LogLevel == "ERROR" {
		serfConfig.LogOutput = io.Discard
		serfConfig.MemberlistConfig.LogOutput = io.Discard
	} else {
		colorfulWriter := logging.NewColorfulSerfWriter()
		serfConfig.LogOutput = colorfulWriter
		serfConfig.MemberlistConfig.LogOutput = colorfulWriter
	}

	serfConfig.Init()
	serfConfig.NodeName = m.HubName
	serfConfig.MemberlistConfig.BindAddr = m.config.BindAddr
	serfConfig.MemberlistConfig.BindPort = m.config.BindPort
	serfConfig.EventCh = m.eventQueue
	serfConfig.Tags = m.buildTags()

	var err error
	m.serf, err = serf.Create(serfConfig)
	if err != nil {
		return fmt.Errorf("failed to create serf instance: %w", err)
	}

	m.wg.Add(1)
	go m.processEvents()

	m.addMember(m.serf.LocalMember())

	logging.Success("Federation manager started on %s:%d",
		m.config.BindAddr, m.config.BindPort)
	return nil
}

// Join joins an existing federation through one or more seed hubs, retrying
// with backoff. Serf tries each address until one answers, so a single dead
// seed does not block the join.
func (m *Manager) Join(addresses []string) error {
	if len(addresses) == 0 {
		return fmt.Errorf("no join addresses provided")
	}

	logging.Info("Joining federation via %v", addresses)

	var lastErr error
	for attempt := 1; attempt <= m.config.JoinRetries; attempt++ {
		n, err := m.serf.Join(addresses, false)
		if err == nil {
			logging.Success("Joined federation, discovered %d hubs", n)
			return nil
		}

		lastErr = err
		logging.Warn("Join attempt %d/%d failed: %v", attempt, m.config.JoinRetries, err)
		if attempt < m.config.JoinRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	return fmt.Errorf("failed to join federation after %d attempts: %w",
		m.config.JoinRetries, lastErr)
}

// Leave gracefully leaves the federation.
func (m *Manager) Leave() error {
	logging.Info("Leaving federation gracefully")

	if m.serf != nil {
		if err := m.serf.Leave(); err != nil {
			return fmt.Errorf("failed to leave federation: %w", err)
		}
	}
	return nil
}

// Shutdown stops the manager and cleans up resources.
func (m *Manager) Shutdown() error {
	logging.Info("Shutting down federation manager")

	if err := m.Leave(); err != nil {
		logging.Warn("Error during graceful leave: %v", err)
	}
	if m.serf != nil {
		if err := m.serf.Shutdown(); err != nil {
			logging.Error("Error shutting down Serf: %v", err)
		}
	}

	close(m.shutdownCh)
	m.wg.Wait()

	logging.Success("Federation manager shutdown completed")
	return nil
}

// Hubs returns a copy of all known federation members.
func (m *Manager) Hubs() map[string]*Hub {
	m.memberLock.RLock()
	defer m.memberLock.RUnlock()

	hubs := make(map[string]*Hub, len(m.members))
	for id, hub := range m.members {
		hubs[id] = copyHub(hub)
	}
	return hubs
}

// GetHub returns one federation member by ID.
func (m *Manager) GetHub(id string) (*Hub, bool) {
	m.memberLock.RLock()
	defer m.memberLock.RUnlock()

	hub, ok := m.members[id]
	if !ok {
		return nil, false
	}
	return copyHub(hub), true
}

// QueryStatus asks every hub for its live summary.
func (m *Manager) QueryStatus() (map[string]json.RawMessage, error) {
	resp, err := m.serf.Query("hub-status", nil, &serf.QueryParam{
		RequestAck: true,
		Timeout:    5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send hub-status query: %w", err)
	}

	statuses := make(map[string]json.RawMessage)
	for response := range resp.ResponseCh() {
		statuses[response.From] = append(json.RawMessage(nil), response.Payload...)
	}
	return statuses, nil
}

func (m *Manager) processEvents() {
	defer m.wg.Done()

	for {
		select {
		case event := <-m.eventQueue:
			m.handleEvent(event)
		case <-m.shutdownCh:
			return
		}
	}
}

func (m *Manager) handleEvent(event serf.Event) {
	switch e := event.(type) {
	case serf.MemberEvent:
		m.handleMemberEvent(e)
	case *serf.Query:
		m.handleQuery(e)
	default:
		logging.Debug("Unhandled federation event: %T", event)
	}
}

func (m *Manager) handleMemberEvent(event serf.MemberEvent) {
	for _, member := range event.Members {
		switch event.EventType() {
		case serf.EventMemberJoin:
			logging.Info("Hub joined federation: %s (%s:%d)", member.Name, member.Addr, member.Port)
			m.addMember(member)

		case serf.EventMemberLeave:
			logging.Info("Hub left federation: %s (%s:%d)", member.Name, member.Addr, member.Port)
			m.removeMember(member)

		case serf.EventMemberFailed:
			logging.Warn("Hub failed: %s (%s:%d)", member.Name, member.Addr, member.Port)
			m.updateStatus(member, serf.StatusFailed)

		case serf.EventMemberUpdate:
			m.addMember(member)

		case serf.EventMemberReap:
			logging.Info("Hub reaped: %s (%s:%d)", member.Name, member.Addr, member.Port)
			m.removeMember(member)
		}
	}
}

func (m *Manager) handleQuery(query *serf.Query) {
	if query.Name != "hub-status" {
		logging.Debug("Unhandled federation query: %s", query.Name)
		return
	}

	summary := map[string]any{}
	if m.statusFn != nil {
		summary = m.statusFn()
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		logging.Error("Failed to serialize hub status: %v", err)
		return
	}
	if err := query.Respond(payload); err != nil {
		logging.Warn("Failed to respond to hub-status query: %v", err)
	}
}

func (m *Manager) addMember(member serf.Member) {
	hub := m.hubFromSerf(member)

	m.memberLock.Lock()
	m.members[hub.ID] = hub
	m.memberLock.Unlock()
}

func (m *Manager) updateStatus(member serf.Member, status serf.MemberStatus) {
	id := constructHubID(member)

	m.memberLock.Lock()
	if hub, ok := m.members[id]; ok {
		hub.Status = status
	}
	m.memberLock.Unlock()
}

func (m *Manager) removeMember(member serf.Member) {
	m.memberLock.Lock()
	delete(m.members, constructHubID(member))
	m.memberLock.Unlock()
}

func (m *Manager) hubFromSerf(member serf.Member) *Hub {
	hub := &Hub{
		ID:       constructHubID(member),
		Name:     member.Name,
		Addr:     member.Addr,
		Port:     member.Port,
		Status:   member.Status,
		Tags:     make(map[string]string, len(member.Tags)),
		LastSeen: time.Now(),
	}
	for k, v := range member.Tags {
		hub.Tags[k] = v
	}
	return hub
}

// constructHubID derives a stable member key. The gossiped hub_id tag wins;
// the name/address tuple covers members from hubs too old to gossip one.
func constructHubID(member serf.Member) string {
	if id, ok := member.Tags["hub_id"]; ok && id != "" {
		return id
	}
	return fmt.Sprintf("%s@%s:%d", member.Name, member.Addr, member.Port)
}

func copyHub(hub *Hub) *Hub {
	hubCopy := *hub
	hubCopy.Tags = make(map[string]string, len(hub.Tags))
	for k, v := range hub.Tags {
		hubCopy.Tags[k] = v
	}
	return &hubCopy
}

func (m *Manager) buildTags() map[string]string {
	tags := make(map[string]string, len(m.config.Tags)+2)
	for k, v := range m.config.Tags {
		tags[k] = v
	}
	tags["hub_id"] = m.HubID
	return tags
}

// generateHubID generates a random hex hub identifier.
func generateHubID() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
