package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/RomRMX/mothership/internal/logging"
	"github.com/RomRMX/mothership/internal/zone"
)

const (
	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// eventBuffer absorbs advertisement bursts without blocking resolvers
	eventBuffer = 64
)

// ServiceBinding pairs an mDNS service type with the protocol family its
// advertisers speak.
type ServiceBinding struct {
	ServiceType string
	Family      zone.Family
}

// DefaultBindings covers the two supported vendor namespaces.
var DefaultBindings = []ServiceBinding{
	{ServiceType: "_linkplay._tcp", Family: zone.FamilyWiiM},
	{ServiceType: "_musc._tcp", Family: zone.FamilyBluesound},
}

// EventKind discriminates discovery events.
type EventKind int

const (
	// EventFound reports a device advertisement resolved to an address
	EventFound EventKind = iota
	// EventLost reports a device withdrawing its advertisement
	EventLost
	// EventError reports a browser-level failure
	EventError
)

// Event is one discovery notification. Found events carry the full
// endpoint; lost events carry only the name; error events carry Err.
type Event struct {
	Kind      EventKind
	Name      string
	IPAddress string
	Port      int
	Family    zone.Family
	Err       error
}

// Browser watches the configured service namespaces and streams events.
// Start and Stop may be called repeatedly; each Start opens a fresh session
// with a fresh event channel.
type Browser struct {
	bindings []ServiceBinding

	mu     sync.Mutex
	cancel context.CancelFunc
	events chan Event
	wg     sync.WaitGroup

	// lastAddr caches the last emitted address per instance so repeated
	// identical advertisements don't spam consumers. Cleared on Stop.
	lastAddr map[string]string
}

// NewBrowser creates a browser for the given service bindings, or the
// default two when none are given.
func NewBrowser(bindings ...ServiceBinding) *Browser {
	if len(bindings) == 0 {
		bindings = DefaultBindings
	}
	return &Browser{
		bindings: bindings,
		lastAddr: make(map[string]string),
	}
}

// Start begins browsing and returns the event channel for this session.
// Any previous session is stopped first. The returned channel is closed
// when the session ends.
func (b *Browser) Start(ctx context.Context) <-chan Event {
	b.Stop()

	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.events = make(chan Event, eventBuffer)
	events := b.events

	for _, binding := range b.bindings {
		b.wg.Add(1)
		go b.browse(ctx, binding, events)
	}

	// Close the channel once every per-binding goroutine has drained
	go func(ch chan Event) {
		b.wg.Wait()
		close(ch)
	}(events)

	return events
}

// Stop cancels all browsers and clears the endpoint cache. Safe to call
// when not running.
func (b *Browser) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.wg.Wait()

	b.mu.Lock()
	b.lastAddr = make(map[string]string)
	b.events = nil
	b.mu.Unlock()
}

// browse runs one zeroconf session for a single service type until the
// session context is cancelled.
func (b *Browser) browse(ctx context.Context, binding ServiceBinding, events chan<- Event) {
	defer b.wg.Done()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		emit(ctx, events, Event{Kind: EventError, Err: fmt.Errorf("failed to create mDNS resolver for %s: %w", binding.ServiceType, err)})
		return
	}

	entries := make(chan *zeroconf.ServiceEntry)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for entry := range entries {
			if entry == nil {
				continue
			}
			b.handleEntry(ctx, entry, binding, events)
		}
	}()

	if err := resolver.Browse(ctx, binding.ServiceType, ServiceDomain, entries); err != nil {
		emit(ctx, events, Event{Kind: EventError, Err: fmt.Errorf("failed to browse %s: %w", binding.ServiceType, err)})
		return
	}

	<-ctx.Done()
}

// handleEntry converts one service entry into a found or lost event.
// Entries that cannot be resolved to a usable address are dropped, never
// surfaced.
func (b *Browser) handleEntry(ctx context.Context, entry *zeroconf.ServiceEntry, binding ServiceBinding, events chan<- Event) {
	name := entry.Instance

	// A goodbye packet withdraws the advertisement
	if entry.TTL == 0 {
		b.mu.Lock()
		delete(b.lastAddr, name)
		b.mu.Unlock()

		logging.LogDiscoveryEvent("lost", name, "")
		emit(ctx, events, Event{Kind: EventLost, Name: name})
		return
	}

	ip := pickAddress(entry)
	if ip == "" {
		logging.Debug("Dropping advertisement with unresolved address",
			zap.String("device", name))
		return
	}

	b.mu.Lock()
	prev, known := b.lastAddr[name]
	b.lastAddr[name] = ip
	b.mu.Unlock()

	if known && prev == ip {
		return
	}

	logging.LogDiscoveryEvent("found", name, ip)
	emit(ctx, events, Event{
		Kind:      EventFound,
		Name:      name,
		IPAddress: ip,
		Port:      entry.Port,
		Family:    binding.Family,
	})
}

// emit delivers an event unless the session has been cancelled; a stopped
// session must never block a resolver goroutine on a full channel.
func emit(ctx context.Context, events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// pickAddress resolves an entry to a reachable address, preferring IPv4 and
// stripping any interface scope suffix. Returns "" when nothing usable is
// advertised.
func pickAddress(entry *zeroconf.ServiceEntry) string {
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	// Strip interface identifier (e.g. fe80::1%en0)
	if i := strings.IndexByte(ip, '%'); i >= 0 {
		ip = ip[:i]
	}

	ip = strings.TrimSpace(ip)
	if ip == "" || ip == "unknown" || ip == "<nil>" {
		return ""
	}
	return ip
}
