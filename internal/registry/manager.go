// Package registry is the stateful core of mothership: it owns the
// canonical device collection, filters and batches discovery events, runs
// one status-polling loop per device and exposes the command surface the
// UI bindings consume.
//
// All mutable state is guarded by one mutex; polling loops, the discovery
// listener, the batch flusher and command handlers run as independent
// goroutines that take the lock only for short, non-blocking sections.
// Network calls never happen under the lock.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RomRMX/mothership/internal/alert"
	"github.com/RomRMX/mothership/internal/config"
	"github.com/RomRMX/mothership/internal/control"
	"github.com/RomRMX/mothership/internal/discovery"
	"github.com/RomRMX/mothership/internal/logging"
	"github.com/RomRMX/mothership/internal/zone"
)

// Store is the persistence collaborator. Implemented by *config.Store;
// substituted by fakes in tests.
type Store interface {
	LoadPreferences() map[string]zone.Preferences
	SavePreference(name string, mutate func(*zone.Preferences))
	LoadGroups() []zone.SavedGroup
	SaveGroups(groups []zone.SavedGroup)
}

// Discoverer is the discovery collaborator. Implemented by
// *discovery.Browser.
type Discoverer interface {
	Start(ctx context.Context) <-chan discovery.Event
	Stop()
}

// Manager owns the device collection and drives all device lifecycle.
type Manager struct {
	settings config.Settings
	clients  map[zone.Family]control.Client
	browser  Discoverer
	store    Store
	alerts   alert.Reporter

	mu          sync.Mutex
	devices     map[string]*zone.Device // committed, keyed by corrected display name
	pending     map[string]*zone.Device // buffered until the next flush
	pollCancels map[string]context.CancelFunc
	knownPrefs  map[string]zone.Preferences
	savedGroups []zone.SavedGroup

	scanning     bool
	scanGen      uint64 // session identity; stale timers check it and bow out
	masterVolume float64

	sessionCtx    context.Context
	sessionCancel context.CancelFunc
}

// New creates a manager wired to its collaborators. Clients maps each
// protocol family to its transport client.
func New(settings config.Settings, clients map[zone.Family]control.Client, browser Discoverer, store Store, alerts alert.Reporter) *Manager {
	m := &Manager{
		settings:     settings,
		clients:      clients,
		browser:      browser,
		store:        store,
		alerts:       alerts,
		devices:      make(map[string]*zone.Device),
		pending:      make(map[string]*zone.Device),
		pollCancels:  make(map[string]context.CancelFunc),
		knownPrefs:   store.LoadPreferences(),
		savedGroups:  store.LoadGroups(),
		masterVolume: 50,
	}
	return m
}

// StartDiscovery begins a new scan session: it cancels any previous
// session, starts the discovery listener and the batch flusher, and arms
// the grace timer that ends the "scanning" state.
func (m *Manager) StartDiscovery(ctx context.Context) {
	m.stopSession(false)

	m.mu.Lock()
	m.scanGen++
	gen := m.scanGen
	m.scanning = true
	m.pending = make(map[string]*zone.Device)
	sessionCtx, cancel := context.WithCancel(ctx)
	m.sessionCtx = sessionCtx
	m.sessionCancel = cancel
	mock := m.settings.MockZones
	m.mu.Unlock()

	if mock {
		m.addMockZones()
		m.mu.Lock()
		m.scanning = false
		m.mu.Unlock()
		return
	}

	events := m.browser.Start(sessionCtx)

	go m.consumeEvents(sessionCtx, events)
	go m.runFlusher(sessionCtx, gen)
	go m.armScanTimeout(sessionCtx, gen)
}

// StopDiscovery cancels the discovery listener, every polling loop and the
// batch flusher, then performs one final flush so no in-flight update is
// lost.
func (m *Manager) StopDiscovery() {
	m.stopSession(true)
}

// RefreshNetwork rebuilds the registry: stop everything, clear the device
// collection, start a new scan.
func (m *Manager) RefreshNetwork(ctx context.Context) {
	m.StopDiscovery()

	m.mu.Lock()
	m.devices = make(map[string]*zone.Device)
	m.mu.Unlock()

	m.StartDiscovery(ctx)
}

func (m *Manager) stopSession(finalFlush bool) {
	m.mu.Lock()
	cancel := m.sessionCancel
	m.sessionCancel = nil
	m.sessionCtx = nil
	for name, stop := range m.pollCancels {
		stop()
		delete(m.pollCancels, name)
	}
	m.scanning = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.browser.Stop()

	if finalFlush {
		m.flushPending()
	}
}

// IsScanning reports whether a scan session is in its active window.
func (m *Manager) IsScanning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanning
}

// consumeEvents is the discovery listener task.
func (m *Manager) consumeEvents(ctx context.Context, events <-chan discovery.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case discovery.EventFound:
				m.handleFound(ev)
			case discovery.EventLost:
				m.handleLost(ev.Name)
			case discovery.EventError:
				// The alert handler flags permission denials itself
				m.alerts.Report(control.NewDiscoveryError("discovery failure", ev.Err))
			}
		}
	}
}

// handleFound runs the filtering pipeline and queues a create or update
// into the pending buffer. Nothing is committed here; the flusher owns
// commits.
func (m *Manager) handleFound(ev discovery.Event) {
	displayName, ok := admitFound(&m.settings, ev.Name, ev.IPAddress)
	if !ok {
		logging.Debug("Rejected discovery event",
			zap.String("device", ev.Name),
			zap.String("ip", ev.IPAddress))
		return
	}

	family := ev.Family
	if m.settings.ForcedFamily != "" {
		family = m.settings.ForcedFamily
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.devices[displayName]
	if existing == nil {
		existing = m.pending[displayName]
	}

	if existing != nil {
		// Same address: nothing to do
		if existing.IPAddress == ev.IPAddress {
			return
		}
		// IPv4-preference tie-break: keep an IPv4 address over an
		// incoming IPv6 one
		if isIPv4(existing.IPAddress) && !isIPv4(ev.IPAddress) {
			return
		}

		updated := existing.Clone()
		updated.IPAddress = ev.IPAddress
		updated.Port = ev.Port
		updated.Family = family
		updated.IsOnline = true
		updated.LastSeen = time.Now()
		m.pending[displayName] = updated
		logging.Debug("Queued device update",
			zap.String("device", displayName),
			zap.String("ip", ev.IPAddress))
		return
	}

	device := zone.NewDevice(displayName, ev.IPAddress, ev.Port, family)
	if prefs, ok := m.knownPrefs[displayName]; ok {
		device.Preferences = prefs
	}
	m.pending[displayName] = device
	logging.Debug("Queued new device",
		zap.String("device", displayName),
		zap.String("ip", ev.IPAddress))
}

// handleLost marks a committed device offline and cancels its polling
// loop. The device object stays for the rest of the session.
func (m *Manager) handleLost(name string) {
	displayName := correctName(&m.settings, name)

	m.mu.Lock()
	defer m.mu.Unlock()

	device, ok := m.devices[displayName]
	if !ok {
		return
	}
	device.IsOnline = false
	if stop, ok := m.pollCancels[displayName]; ok {
		stop()
		delete(m.pollCancels, displayName)
	}
}

// runFlusher commits the pending buffer at a fixed cadence while the scan
// session is alive. Bounds UI churn to ~2Hz regardless of advertisement
// burstiness.
func (m *Manager) runFlusher(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(m.settings.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.isCurrentGen(gen) {
				return
			}
			m.flushPending()
		}
	}
}

// armScanTimeout ends the "scanning" state after the grace period with one
// final flush. The generation check means a timer from a superseded
// session can never touch a newer one.
func (m *Manager) armScanTimeout(ctx context.Context, gen uint64) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.settings.ScanGracePeriod):
	}

	m.mu.Lock()
	if m.scanGen != gen || !m.scanning {
		m.mu.Unlock()
		return
	}
	m.scanning = false
	m.mu.Unlock()

	m.flushPending()
}

func (m *Manager) isCurrentGen(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanGen == gen
}

// flushPending commits the pending buffer into the device collection in
// one pass and (re)starts polling for every flushed device. Observers
// never see a partial flush.
func (m *Manager) flushPending() {
	m.mu.Lock()
	if len(m.pending) == 0 {
		m.mu.Unlock()
		return
	}

	flushed := make([]string, 0, len(m.pending))
	for name, device := range m.pending {
		m.devices[name] = device
		flushed = append(flushed, name)
	}
	m.pending = make(map[string]*zone.Device)
	ctx := m.sessionCtx
	m.mu.Unlock()

	if ctx == nil {
		// Session already stopped; commit without restarting polls
		return
	}
	for _, name := range flushed {
		m.startPolling(ctx, name)
	}
}

// startPolling launches the polling loop for a device, cancelling any
// previous loop first so a device never has two concurrent polls.
func (m *Manager) startPolling(ctx context.Context, name string) {
	m.mu.Lock()
	if stop, ok := m.pollCancels[name]; ok {
		stop()
	}
	pollCtx, cancel := context.WithCancel(ctx)
	m.pollCancels[name] = cancel
	m.mu.Unlock()

	go m.pollLoop(pollCtx, name)
}

// pollLoop polls one device until cancelled. Failures are logged and the
// previous status stands; no error terminates the loop.
func (m *Manager) pollLoop(ctx context.Context, name string) {
	for {
		m.pollOnce(ctx, name)

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.settings.PollInterval):
		}
	}
}

func (m *Manager) pollOnce(ctx context.Context, name string) {
	snapshot, client := m.snapshotAndClient(name)
	if snapshot == nil || client == nil {
		return
	}

	status, err := client.GetStatus(ctx, snapshot)
	if err != nil {
		// Background polling stays quiet; only interactive commands
		// surface errors
		logging.LogPollFailure(name, err)
		return
	}

	m.mu.Lock()
	if device, ok := m.devices[name]; ok {
		device.Status = status
		device.IsOnline = true
		device.LastSeen = time.Now()
	}
	m.updateMasterVolumeLocked()
	m.mu.Unlock()
}

// snapshotAndClient returns a detached copy of a device plus the transport
// client for its family.
func (m *Manager) snapshotAndClient(name string) (*zone.Device, control.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, ok := m.devices[name]
	if !ok {
		return nil, nil
	}
	return device.Clone(), m.clients[device.Family]
}

// Devices returns detached copies of all committed devices, sorted by
// name.
func (m *Manager) Devices() []*zone.Device {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*zone.Device, 0, len(m.devices))
	for _, device := range m.devices {
		out = append(out, device.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Device returns a detached copy of one device by display name.
func (m *Manager) Device(name string) (*zone.Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, ok := m.devices[name]
	if !ok {
		return nil, false
	}
	return device.Clone(), true
}
