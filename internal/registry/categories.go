package registry

import (
	"github.com/RomRMX/mothership/internal/config"
	"github.com/RomRMX/mothership/internal/zone"
)

// CategoryGroup is one named display group with its member devices.
type CategoryGroup struct {
	Title   string
	Devices []*zone.Device
}

// Categorize partitions devices into the ordered category rules by keyword
// match against the device name. Each device lands in at most one group:
// rules are evaluated in priority order and already-assigned devices are
// skipped by later rules. Devices matching no rule are omitted entirely;
// empty groups don't appear. Pure function, exported for the display
// layers.
func Categorize(rules []config.CategoryRule, devices []*zone.Device) []CategoryGroup {
	assigned := make(map[string]bool, len(devices))
	groups := make([]CategoryGroup, 0, len(rules))

	for _, rule := range rules {
		var members []*zone.Device
		for _, device := range devices {
			if assigned[device.Name] {
				continue
			}
			if matchesAny(device.Name, rule.Keywords) {
				members = append(members, device)
				assigned[device.Name] = true
			}
		}
		if len(members) > 0 {
			groups = append(groups, CategoryGroup{Title: rule.Title, Devices: members})
		}
	}
	return groups
}

// CategorizedGroups returns the committed devices partitioned by the
// configured category rules, each group sorted by name.
func (m *Manager) CategorizedGroups() []CategoryGroup {
	return Categorize(m.settings.Categories, m.Devices())
}

// SortedDevices returns the devices flattened in category order, for
// single-list views.
func (m *Manager) SortedDevices() []*zone.Device {
	var out []*zone.Device
	for _, group := range m.CategorizedGroups() {
		out = append(out, group.Devices...)
	}
	return out
}
