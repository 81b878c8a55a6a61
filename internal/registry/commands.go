package registry

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/RomRMX/mothership/internal/control"
	"github.com/RomRMX/mothership/internal/logging"
	"github.com/RomRMX/mothership/internal/zone"
)

// Command methods never return errors to the caller: failures on
// user-initiated commands are forwarded to the alert sink for presentation
// and the registry keeps going. Successful commands update local status
// optimistically so the UI doesn't wait a poll cycle.

// SetVolume sets the output level of one device.
func (m *Manager) SetVolume(ctx context.Context, level int, name string) {
	snapshot, client := m.snapshotAndClient(name)
	if snapshot == nil || client == nil {
		return
	}

	level = zone.ClampVolume(level)
	err := client.SetVolume(ctx, level, snapshot)
	logging.LogCommand(name, "set volume", err)
	if err != nil {
		m.alerts.Report(err)
		return
	}

	m.mu.Lock()
	if device, ok := m.devices[name]; ok {
		device.Status.Volume = level
	}
	m.updateMasterVolumeLocked()
	m.mu.Unlock()
}

// ToggleMute flips the mute flag of one device.
func (m *Manager) ToggleMute(ctx context.Context, name string) {
	snapshot, client := m.snapshotAndClient(name)
	if snapshot == nil || client == nil {
		return
	}

	target := !snapshot.Status.IsMuted
	err := client.SetMute(ctx, target, snapshot)
	logging.LogCommand(name, "toggle mute", err)
	if err != nil {
		m.alerts.Report(err)
		return
	}

	m.mu.Lock()
	if device, ok := m.devices[name]; ok {
		device.Status.IsMuted = target
	}
	m.mu.Unlock()
}

// TogglePlayPause toggles playback of one device.
func (m *Manager) TogglePlayPause(ctx context.Context, name string) {
	snapshot, client := m.snapshotAndClient(name)
	if snapshot == nil || client == nil {
		return
	}

	err := client.TogglePlayPause(ctx, snapshot)
	logging.LogCommand(name, "toggle play/pause", err)
	if err != nil {
		m.alerts.Report(err)
		return
	}

	m.mu.Lock()
	if device, ok := m.devices[name]; ok {
		if device.Status.PlaybackState == zone.StatePlaying {
			device.Status.PlaybackState = zone.StatePaused
		} else {
			device.Status.PlaybackState = zone.StatePlaying
		}
	}
	m.mu.Unlock()
}

// NextTrack skips one device forward. Families without track skip report
// the explicit not-supported outcome to the log only.
func (m *Manager) NextTrack(ctx context.Context, name string) {
	m.trackSkip(ctx, name, "next track", control.Client.NextTrack)
}

// PreviousTrack skips one device backward.
func (m *Manager) PreviousTrack(ctx context.Context, name string) {
	m.trackSkip(ctx, name, "previous track", control.Client.PreviousTrack)
}

func (m *Manager) trackSkip(ctx context.Context, name, label string, op func(control.Client, context.Context, *zone.Device) error) {
	snapshot, client := m.snapshotAndClient(name)
	if snapshot == nil || client == nil {
		return
	}

	err := op(client, ctx, snapshot)
	if control.IsNotSupported(err) {
		logging.Debug("Track skip unsupported",
			zap.String("device", name),
			zap.String("command", label))
		return
	}
	logging.LogCommand(name, label, err)
	if err != nil {
		m.alerts.Report(err)
	}
}

// TriggerPreset fires a preset on one device. When the device belongs to
// the linked keyword group, the preset fans out concurrently to every
// online device in that group instead.
func (m *Manager) TriggerPreset(ctx context.Context, preset int, name string) {
	if matchesAny(name, m.settings.LinkedKeywords) {
		m.triggerLinkedPreset(ctx, preset)
		return
	}
	m.performTriggerPreset(ctx, preset, name)
}

func (m *Manager) performTriggerPreset(ctx context.Context, preset int, name string) {
	snapshot, client := m.snapshotAndClient(name)
	if snapshot == nil || client == nil {
		return
	}

	err := client.TriggerPreset(ctx, preset, snapshot)
	logging.LogCommand(name, "trigger preset", err)
	if err != nil {
		m.alerts.Report(err)
	}
}

// triggerLinkedPreset fans a preset out to every online device whose name
// matches the linked keyword set. Sends run in parallel; one failure never
// blocks the others.
func (m *Manager) triggerLinkedPreset(ctx context.Context, preset int) {
	m.mu.Lock()
	targets := make([]string, 0, len(m.devices))
	for name, device := range m.devices {
		if device.IsOnline && matchesAny(name, m.settings.LinkedKeywords) {
			targets = append(targets, name)
		}
	}
	m.mu.Unlock()

	logging.Info("Triggering linked preset",
		zap.Int("preset", preset),
		zap.Int("targets", len(targets)))

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			m.performTriggerPreset(ctx, preset, name)
		}(target)
	}
	wg.Wait()
}

// UpdateIPAddress manually overrides a device's address.
func (m *Manager) UpdateIPAddress(ip, name string) {
	if strings.TrimSpace(ip) == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if device, ok := m.devices[name]; ok {
		device.IPAddress = ip
	}
}

// MasterVolume returns the derived global volume: the arithmetic mean of
// all online devices' volumes.
func (m *Manager) MasterVolume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.masterVolume
}

// updateMasterVolumeLocked recomputes the mean. Callers hold m.mu.
func (m *Manager) updateMasterVolumeLocked() {
	total, count := 0, 0
	for _, device := range m.devices {
		if device.IsOnline {
			total += device.Status.Volume
			count++
		}
	}
	if count == 0 {
		return
	}
	m.masterVolume = float64(total) / float64(count)
}

// SetGlobalVolume moves every online device by the delta between the
// target level and the current mean, clamped per device, so relative
// differences between devices are preserved.
func (m *Manager) SetGlobalVolume(ctx context.Context, level int) {
	m.mu.Lock()
	delta := float64(level) - m.masterVolume
	m.masterVolume = float64(level)
	targets := make(map[string]int, len(m.devices))
	for name, device := range m.devices {
		if device.IsOnline {
			targets[name] = zone.ClampVolume(device.Status.Volume + int(delta))
		}
	}
	m.mu.Unlock()

	for name, volume := range targets {
		m.SetVolume(ctx, volume, name)
	}
}

// ActivateSoloMode isolates one device's audio:
//
//  1. mute every other device that isn't muted (concurrently)
//  2. unmute the target if muted
//  3. raise the target to a comfortable default iff it is nearly silent
//  4. toggle it to play if not already playing
//
// Steps run in this order because later steps read state the earlier ones
// settle; concurrency is confined to the independent mute fan-out.
func (m *Manager) ActivateSoloMode(ctx context.Context, name string) {
	const (
		lowVolumeThreshold = 10
		comfortableVolume  = 25
	)

	m.mu.Lock()
	others := make([]string, 0, len(m.devices))
	for otherName, device := range m.devices {
		if otherName != name && !device.Status.IsMuted {
			others = append(others, otherName)
		}
	}
	m.mu.Unlock()

	logging.Info("Activating solo mode", zap.String("device", name))

	var wg sync.WaitGroup
	for _, other := range others {
		wg.Add(1)
		go func(n string) {
			defer wg.Done()
			m.ToggleMute(ctx, n)
		}(other)
	}
	wg.Wait()

	target, ok := m.Device(name)
	if !ok {
		return
	}

	if target.Status.IsMuted {
		m.ToggleMute(ctx, name)
	}

	if target.Status.Volume < lowVolumeThreshold {
		m.SetVolume(ctx, comfortableVolume, name)
	}

	if target.Status.PlaybackState != zone.StatePlaying {
		m.TogglePlayPause(ctx, name)
	}
}
