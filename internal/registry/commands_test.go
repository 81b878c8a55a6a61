package registry

import (
	"context"
	"sort"
	"testing"

	"github.com/RomRMX/mothership/internal/control"
	"github.com/RomRMX/mothership/internal/zone"
)

func TestSetVolume_OptimisticUpdate(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Lobby Speaker", zone.Status{Volume: 30})

	h.manager.SetVolume(context.Background(), 55, "Lobby Speaker")

	device, _ := h.manager.Device("Lobby Speaker")
	if device.Status.Volume != 55 {
		t.Errorf("Volume = %d, want 55 before the next poll", device.Status.Volume)
	}
	calls := h.client.callsFor("volume")
	if len(calls) != 1 || calls[0].value != 55 {
		t.Errorf("transport calls = %+v, want one volume call at 55", calls)
	}
}

func TestSetVolume_ClampsOutOfRange(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Lobby Speaker", zone.Status{Volume: 30})

	h.manager.SetVolume(context.Background(), 140, "Lobby Speaker")

	calls := h.client.callsFor("volume")
	if len(calls) != 1 || calls[0].value != 100 {
		t.Errorf("transport calls = %+v, want one volume call clamped to 100", calls)
	}
}

func TestSetVolume_FailureReportsAndSkipsUpdate(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Lobby Speaker", zone.Status{Volume: 30})
	h.client.err = control.NewNetworkError("command failed", context.DeadlineExceeded, "192.168.1.10")

	h.manager.SetVolume(context.Background(), 55, "Lobby Speaker")

	device, _ := h.manager.Device("Lobby Speaker")
	if device.Status.Volume != 30 {
		t.Errorf("Volume = %d, failed command must not update state", device.Status.Volume)
	}
	if h.reporter.count() != 1 {
		t.Errorf("reported errors = %d, want 1", h.reporter.count())
	}
}

func TestToggleMute_FlipsFlag(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Lobby Speaker", zone.Status{IsMuted: false})

	h.manager.ToggleMute(context.Background(), "Lobby Speaker")

	device, _ := h.manager.Device("Lobby Speaker")
	if !device.Status.IsMuted {
		t.Error("device should be muted after toggle")
	}
	calls := h.client.callsFor("mute")
	if len(calls) != 1 || !calls[0].flag {
		t.Errorf("transport calls = %+v, want one mute(true)", calls)
	}
}

func TestTogglePlayPause_OptimisticState(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Lobby Speaker", zone.Status{PlaybackState: zone.StatePlaying})

	h.manager.TogglePlayPause(context.Background(), "Lobby Speaker")
	device, _ := h.manager.Device("Lobby Speaker")
	if device.Status.PlaybackState != zone.StatePaused {
		t.Errorf("state = %q, want paused", device.Status.PlaybackState)
	}

	h.manager.TogglePlayPause(context.Background(), "Lobby Speaker")
	device, _ = h.manager.Device("Lobby Speaker")
	if device.Status.PlaybackState != zone.StatePlaying {
		t.Errorf("state = %q, want playing", device.Status.PlaybackState)
	}
}

func TestTrackSkip_NotSupportedStaysQuiet(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Planter ASM63", zone.IdleStatus())
	h.client.err = control.NewNotSupportedError("next track", "bluesound")

	h.manager.NextTrack(context.Background(), "Planter ASM63")

	if h.reporter.count() != 0 {
		t.Error("not-supported skips must not reach the alert sink")
	}
}

func TestCommandOnUnknownDeviceIsNoop(t *testing.T) {
	h := newHarness(testSettings())

	h.manager.SetVolume(context.Background(), 50, "Ghost")
	h.manager.ToggleMute(context.Background(), "Ghost")
	h.manager.TogglePlayPause(context.Background(), "Ghost")

	h.client.mu.Lock()
	n := len(h.client.calls)
	h.client.mu.Unlock()
	if n != 0 {
		t.Errorf("transport calls = %d, want none for an unknown device", n)
	}
}

func TestMasterVolume_MeanOfOnlineDevices(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("A", zone.Status{Volume: 40})
	h.addDevice("B", zone.Status{Volume: 60})
	offline := h.addDevice("C", zone.Status{Volume: 0})
	h.manager.mu.Lock()
	offline.IsOnline = false
	h.manager.updateMasterVolumeLocked()
	h.manager.mu.Unlock()

	if got := h.manager.MasterVolume(); got != 50 {
		t.Errorf("MasterVolume = %v, want 50 (offline devices excluded)", got)
	}
}

func TestSetGlobalVolume_PreservesRelativeLevels(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("A", zone.Status{Volume: 40})
	h.addDevice("B", zone.Status{Volume: 60})

	// Mean is 50; raising to 70 is a +20 delta for everyone
	h.manager.SetGlobalVolume(context.Background(), 70)

	a, _ := h.manager.Device("A")
	b, _ := h.manager.Device("B")
	if a.Status.Volume != 60 || b.Status.Volume != 80 {
		t.Errorf("volumes = %d/%d, want 60/80", a.Status.Volume, b.Status.Volume)
	}
	if got := h.manager.MasterVolume(); got != 70 {
		t.Errorf("MasterVolume = %v, want 70", got)
	}
}

func TestSetGlobalVolume_ClampsPerDevice(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("A", zone.Status{Volume: 90})
	h.addDevice("B", zone.Status{Volume: 10})

	// Mean is 50; +40 delta pushes A past the ceiling
	h.manager.SetGlobalVolume(context.Background(), 90)

	a, _ := h.manager.Device("A")
	b, _ := h.manager.Device("B")
	if a.Status.Volume != 100 {
		t.Errorf("A volume = %d, want clamped 100", a.Status.Volume)
	}
	if b.Status.Volume != 50 {
		t.Errorf("B volume = %d, want 50", b.Status.Volume)
	}
}

func TestTriggerPreset_SingleDevice(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Lobby Speaker", zone.IdleStatus())

	h.manager.TriggerPreset(context.Background(), 3, "Lobby Speaker")

	calls := h.client.callsFor("preset")
	if len(calls) != 1 || calls[0].value != 3 || calls[0].device != "Lobby Speaker" {
		t.Errorf("preset calls = %+v, want one preset 3 on Lobby Speaker", calls)
	}
}

func TestTriggerPreset_LinkedFanOut(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Planter ASM63", zone.IdleStatus())
	h.addDevice("Planter LSH80", zone.IdleStatus())
	h.addDevice("Lobby Speaker", zone.IdleStatus())
	offline := h.addDevice("Planter ALSB85", zone.IdleStatus())
	h.manager.mu.Lock()
	offline.IsOnline = false
	h.manager.mu.Unlock()

	h.manager.TriggerPreset(context.Background(), 2, "Planter ASM63")

	var got []string
	for _, rec := range h.client.callsFor("preset") {
		got = append(got, rec.device)
	}
	sort.Strings(got)
	want := []string{"Planter ASM63", "Planter LSH80"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("fan-out targets = %v, want %v", got, want)
	}
}

func TestUpdateIPAddress(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Lobby Speaker", zone.IdleStatus())

	h.manager.UpdateIPAddress("10.0.0.9", "Lobby Speaker")
	device, _ := h.manager.Device("Lobby Speaker")
	if device.IPAddress != "10.0.0.9" {
		t.Errorf("IPAddress = %q, want 10.0.0.9", device.IPAddress)
	}

	h.manager.UpdateIPAddress("   ", "Lobby Speaker")
	device, _ = h.manager.Device("Lobby Speaker")
	if device.IPAddress != "10.0.0.9" {
		t.Error("blank override must be rejected")
	}
}

func TestActivateSoloMode(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Target", zone.Status{Volume: 5, IsMuted: true, PlaybackState: zone.StateStopped})
	h.addDevice("Other A", zone.Status{Volume: 50, IsMuted: false, PlaybackState: zone.StatePlaying})
	h.addDevice("Other B", zone.Status{Volume: 50, IsMuted: true, PlaybackState: zone.StatePlaying})

	h.manager.ActivateSoloMode(context.Background(), "Target")

	target, _ := h.manager.Device("Target")
	if target.Status.IsMuted {
		t.Error("target should be unmuted")
	}
	if target.Status.Volume != 25 {
		t.Errorf("target volume = %d, want raised to 25", target.Status.Volume)
	}
	if target.Status.PlaybackState != zone.StatePlaying {
		t.Errorf("target state = %q, want playing", target.Status.PlaybackState)
	}

	otherA, _ := h.manager.Device("Other A")
	if !otherA.Status.IsMuted {
		t.Error("unmuted sibling should be muted")
	}
	otherB, _ := h.manager.Device("Other B")
	if !otherB.Status.IsMuted {
		t.Error("already-muted sibling should stay muted")
	}
}

func TestActivateSoloMode_ComfortableVolumeLeftAlone(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Target", zone.Status{Volume: 45, PlaybackState: zone.StatePlaying})

	h.manager.ActivateSoloMode(context.Background(), "Target")

	target, _ := h.manager.Device("Target")
	if target.Status.Volume != 45 {
		t.Errorf("volume = %d, audible target must keep its level", target.Status.Volume)
	}
	if calls := h.client.callsFor("playpause"); len(calls) != 0 {
		t.Error("already-playing target must not be toggled")
	}
}
