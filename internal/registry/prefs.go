package registry

import (
	"strings"

	"github.com/RomRMX/mothership/internal/zone"
)

// ToggleFavorite flips the favorite flag for a device and writes the
// preference through, keyed by display name so it survives re-discovery.
func (m *Manager) ToggleFavorite(name string) {
	m.mu.Lock()
	device, ok := m.devices[name]
	if !ok {
		m.mu.Unlock()
		return
	}
	device.Preferences.IsFavorite = !device.Preferences.IsFavorite
	target := device.Preferences.IsFavorite

	prefs := m.knownPrefs[name]
	prefs.IsFavorite = target
	m.knownPrefs[name] = prefs
	m.mu.Unlock()

	m.store.SavePreference(name, func(p *zone.Preferences) {
		p.IsFavorite = target
	})
}

// SetCustomName sets (or clears, with an empty string) the user-defined
// name for a device.
func (m *Manager) SetCustomName(customName, name string) {
	cleaned := strings.TrimSpace(customName)

	m.mu.Lock()
	device, ok := m.devices[name]
	if !ok {
		m.mu.Unlock()
		return
	}
	device.Preferences.CustomName = cleaned

	prefs := m.knownPrefs[name]
	prefs.CustomName = cleaned
	m.knownPrefs[name] = prefs
	m.mu.Unlock()

	m.store.SavePreference(name, func(p *zone.Preferences) {
		p.CustomName = cleaned
	})
}
