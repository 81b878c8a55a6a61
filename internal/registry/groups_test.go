package registry

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/RomRMX/mothership/internal/control"
	"github.com/RomRMX/mothership/internal/zone"
)

func TestSaveAndDeleteGroup(t *testing.T) {
	h := newHarness(testSettings())
	a := h.addDevice("A", zone.IdleStatus())
	b := h.addDevice("B", zone.IdleStatus())

	group := h.manager.SaveGroup("Morning", []uuid.UUID{a.ID, b.ID}, a.ID)

	saved := h.manager.SavedGroups()
	if len(saved) != 1 || saved[0].Name != "Morning" {
		t.Fatalf("SavedGroups = %+v, want the Morning group", saved)
	}
	if len(h.store.LoadGroups()) != 1 {
		t.Error("group should be persisted on save")
	}

	h.manager.DeleteGroup(group.ID)
	if len(h.manager.SavedGroups()) != 0 {
		t.Error("group should be gone after delete")
	}
	if len(h.store.LoadGroups()) != 0 {
		t.Error("deletion should be persisted")
	}
}

func TestActivateGroup_JoinsMembersToMaster(t *testing.T) {
	h := newHarness(testSettings())
	master := h.addDevice("Master", zone.IdleStatus())
	member := h.addDevice("Member", zone.IdleStatus())
	h.manager.mu.Lock()
	master.IPAddress = "192.168.1.30"
	h.manager.mu.Unlock()

	group := h.manager.SaveGroup("Party", []uuid.UUID{master.ID, member.ID}, master.ID)
	h.manager.ActivateGroup(context.Background(), group)

	joins := h.client.callsFor("join")
	if len(joins) != 1 || joins[0].device != "Member" || joins[0].master != "192.168.1.30" {
		t.Fatalf("join calls = %+v, want Member joining 192.168.1.30", joins)
	}

	got, _ := h.manager.Device("Master")
	if !got.Status.IsMaster || got.Status.GroupID != group.ID.String() {
		t.Errorf("master status = %+v, want IsMaster with the group ID", got.Status)
	}
	got, _ = h.manager.Device("Member")
	if got.Status.IsMaster || got.Status.MasterID != master.ID.String() {
		t.Errorf("member status = %+v, want MasterID pointing at the master", got.Status)
	}
}

func TestActivateGroup_MemberFailureDoesNotAbort(t *testing.T) {
	h := newHarness(testSettings())
	master := h.addDevice("Master", zone.IdleStatus())
	bad := h.addDevice("Bad", zone.IdleStatus())
	good := h.addDevice("Good", zone.IdleStatus())
	h.client.joinErrs = map[string]error{
		"Bad": control.NewNetworkError("join failed", context.DeadlineExceeded, "192.168.1.10"),
	}

	group := h.manager.SaveGroup("Party", []uuid.UUID{master.ID, bad.ID, good.ID}, master.ID)
	h.manager.ActivateGroup(context.Background(), group)

	joined, _ := h.manager.Device("Good")
	if joined.Status.GroupID != group.ID.String() {
		t.Error("healthy member should join despite a sibling failing")
	}
	failed, _ := h.manager.Device("Bad")
	if failed.Status.GroupID != "" {
		t.Error("failed member must not be marked grouped")
	}
}

func TestActivateGroup_OfflineMasterAborts(t *testing.T) {
	h := newHarness(testSettings())
	master := h.addDevice("Master", zone.IdleStatus())
	member := h.addDevice("Member", zone.IdleStatus())
	h.manager.mu.Lock()
	master.IsOnline = false
	h.manager.mu.Unlock()

	group := h.manager.SaveGroup("Party", []uuid.UUID{master.ID, member.ID}, master.ID)
	h.manager.ActivateGroup(context.Background(), group)

	if joins := h.client.callsFor("join"); len(joins) != 0 {
		t.Errorf("join calls = %+v, want none with the master offline", joins)
	}
}

func TestDeactivateGroup_ClearsGroupingState(t *testing.T) {
	h := newHarness(testSettings())
	master := h.addDevice("Master", zone.IdleStatus())
	member := h.addDevice("Member", zone.IdleStatus())

	group := h.manager.SaveGroup("Party", []uuid.UUID{master.ID, member.ID}, master.ID)
	h.manager.ActivateGroup(context.Background(), group)
	h.manager.DeactivateGroup(context.Background(), group)

	if leaves := h.client.callsFor("leave"); len(leaves) != 2 {
		t.Errorf("leave calls = %d, want both members detached", len(leaves))
	}
	for _, name := range []string{"Master", "Member"} {
		device, _ := h.manager.Device(name)
		if device.Status.GroupID != "" || device.Status.IsMaster || device.Status.MasterID != "" {
			t.Errorf("%s status = %+v, want grouping fields cleared", name, device.Status)
		}
	}
}

func TestPreferenceWriteThrough(t *testing.T) {
	h := newHarness(testSettings())
	h.addDevice("Lobby Speaker", zone.IdleStatus())

	h.manager.ToggleFavorite("Lobby Speaker")
	device, _ := h.manager.Device("Lobby Speaker")
	if !device.Preferences.IsFavorite {
		t.Error("favorite flag should flip on the live device")
	}
	if !h.store.LoadPreferences()["Lobby Speaker"].IsFavorite {
		t.Error("favorite flag should be written through to the store")
	}

	h.manager.SetCustomName("  Front Desk  ", "Lobby Speaker")
	device, _ = h.manager.Device("Lobby Speaker")
	if device.Preferences.CustomName != "Front Desk" {
		t.Errorf("CustomName = %q, want trimmed Front Desk", device.Preferences.CustomName)
	}
	if h.store.LoadPreferences()["Lobby Speaker"].CustomName != "Front Desk" {
		t.Error("custom name should be written through to the store")
	}
}
