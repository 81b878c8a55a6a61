package registry

import (
	"fmt"

	"github.com/RomRMX/mothership/internal/zone"
)

// mockZones are deterministic fixture devices for working on the display
// layers without hardware on the network.
var mockZones = []struct {
	name   string
	model  string
	family zone.Family
}{
	{"Conference Room: MOS", "WiiM Pro", zone.FamilyWiiM},
	{"Conference Room: 602", "WiiM Amp", zone.FamilyWiiM},
	{"Conference Room: 803", "WiiM Amp", zone.FamilyWiiM},
	{"Lobby: Pendants", "WiiM Amp", zone.FamilyWiiM},
	{"Showroom: Pendants", "WiiM Pro", zone.FamilyWiiM},
	{"Planter ASM63", "Node 2i", zone.FamilyBluesound},
	{"Planter ALSB106", "Powernode", zone.FamilyBluesound},
	{"Planter ALSB85", "Node 2i", zone.FamilyBluesound},
	{"Planter LSH80", "Node 2i", zone.FamilyBluesound},
	{"Planter LSH60", "Powernode", zone.FamilyBluesound},
	{"Corkroom Towers", "WiiM Amp", zone.FamilyWiiM},
}

var mockTracks = []struct {
	artist string
	title  string
}{
	{"Pink Floyd", "Time"},
	{"Daft Punk", "Get Lucky"},
	{"Tame Impala", "The Less I Know The Better"},
	{"Dire Straits", "Money for Nothing"},
	{"Queen", "Bohemian Rhapsody"},
}

// addMockZones seeds the registry with fixture devices. The deny-list
// still applies so hidden devices stay hidden in fixture mode, but the
// allow-list does not: fixtures exist precisely to exercise the full wall.
func (m *Manager) addMockZones() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, mock := range mockZones {
		if matchesAny(mock.name, m.settings.DenyList) {
			continue
		}

		device := zone.NewDevice(mock.name, mockAddress(i), 80, mock.family)
		device.Model = mock.model

		track := mockTracks[i%len(mockTracks)]
		switch i % 5 {
		case 3:
			device.Status = zone.Status{
				Source:        zone.SourceAirPlay,
				PlaybackState: zone.StatePaused,
				Artist:        track.artist,
				Title:         track.title,
				Volume:        30 + i%20,
			}
		case 4:
			device.Status = zone.IdleStatus()
		default:
			source := zone.SourceSpotify
			if i%2 == 1 {
				source = zone.SourceTidal
			}
			device.Status = zone.Status{
				Source:        source,
				PlaybackState: zone.StatePlaying,
				Artist:        track.artist,
				Title:         track.title,
				Volume:        40 + (i*7)%40,
				Duration:      240,
				Position:      120,
			}
		}

		m.devices[device.Name] = device
	}
	m.updateMasterVolumeLocked()
}

func mockAddress(i int) string {
	return fmt.Sprintf("192.168.1.%d", 100+i)
}
