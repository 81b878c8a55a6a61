package registry

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RomRMX/mothership/internal/logging"
	"github.com/RomRMX/mothership/internal/zone"
)

// SavedGroups returns a copy of the persisted groups.
func (m *Manager) SavedGroups() []zone.SavedGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]zone.SavedGroup(nil), m.savedGroups...)
}

// SaveGroup creates a named group and persists it.
func (m *Manager) SaveGroup(name string, members []uuid.UUID, masterID uuid.UUID) zone.SavedGroup {
	group := zone.NewSavedGroup(name, members, masterID)

	m.mu.Lock()
	m.savedGroups = append(m.savedGroups, group)
	snapshot := append([]zone.SavedGroup(nil), m.savedGroups...)
	m.mu.Unlock()

	m.store.SaveGroups(snapshot)
	return group
}

// DeleteGroup removes a group by ID and persists the change.
func (m *Manager) DeleteGroup(id uuid.UUID) {
	m.mu.Lock()
	kept := m.savedGroups[:0]
	for _, g := range m.savedGroups {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	m.savedGroups = kept
	snapshot := append([]zone.SavedGroup(nil), m.savedGroups...)
	m.mu.Unlock()

	m.store.SaveGroups(snapshot)
}

// deviceNameByID resolves a device ID to its registry key. Callers hold
// m.mu.
func (m *Manager) deviceNameByIDLocked(id uuid.UUID) (string, *zone.Device) {
	for name, device := range m.devices {
		if device.ID == id {
			return name, device
		}
	}
	return "", nil
}

// ActivateGroup joins every online member of a saved group to its master's
// multi-room session. Per-member failures are logged and skipped; one
// member failing never aborts the rest.
func (m *Manager) ActivateGroup(ctx context.Context, group zone.SavedGroup) {
	m.mu.Lock()
	masterName, master := m.deviceNameByIDLocked(group.MasterID)
	if master == nil || !master.IsOnline {
		m.mu.Unlock()
		logging.Warn("Cannot activate group: master offline",
			zap.String("group", group.Name))
		return
	}

	master.Status.IsMaster = true
	master.Status.GroupID = group.ID.String()
	masterIP := master.IPAddress
	masterID := master.ID.String()

	type member struct {
		name     string
		snapshot *zone.Device
	}
	members := make([]member, 0, len(group.Members))
	for _, id := range group.Members {
		if id == group.MasterID {
			continue
		}
		if name, device := m.deviceNameByIDLocked(id); device != nil && device.IsOnline {
			members = append(members, member{name: name, snapshot: device.Clone()})
		}
	}
	m.mu.Unlock()

	logging.Info("Activating group",
		zap.String("group", group.Name),
		zap.String("master", masterName),
		zap.Int("members", len(members)))

	for _, mem := range members {
		client := m.clients[mem.snapshot.Family]
		if client == nil {
			continue
		}
		if err := client.JoinGroup(ctx, masterIP, mem.snapshot); err != nil {
			logging.Warn("Failed to join group",
				zap.String("group", group.Name),
				zap.String("device", mem.name),
				zap.Error(err))
			continue
		}

		m.mu.Lock()
		if device, ok := m.devices[mem.name]; ok {
			device.Status.GroupID = group.ID.String()
			device.Status.IsMaster = false
			device.Status.MasterID = masterID
		}
		m.mu.Unlock()
	}
}

// DeactivateGroup detaches every member of a saved group from its
// multi-room session, clearing the grouping status fields.
func (m *Manager) DeactivateGroup(ctx context.Context, group zone.SavedGroup) {
	m.mu.Lock()
	type member struct {
		name     string
		snapshot *zone.Device
	}
	members := make([]member, 0, len(group.Members))
	for _, id := range group.Members {
		if name, device := m.deviceNameByIDLocked(id); device != nil && device.IsOnline {
			members = append(members, member{name: name, snapshot: device.Clone()})
		}
	}
	m.mu.Unlock()

	for _, mem := range members {
		leaver, ok := m.clients[mem.snapshot.Family].(interface {
			LeaveGroup(ctx context.Context, device *zone.Device) error
		})
		if !ok {
			continue
		}
		if err := leaver.LeaveGroup(ctx, mem.snapshot); err != nil {
			logging.Warn("Failed to leave group",
				zap.String("device", mem.name),
				zap.Error(err))
			continue
		}

		m.mu.Lock()
		if device, ok := m.devices[mem.name]; ok {
			device.Status.GroupID = ""
			device.Status.IsMaster = false
			device.Status.MasterID = ""
		}
		m.mu.Unlock()
	}
}
