package zone

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Family identifies which vendor control API a device speaks.
type Family string

const (
	// FamilyWiiM covers WiiM/Linkplay devices (HTTP query-string API on port 80)
	FamilyWiiM Family = "wiim"
	// FamilyBluesound covers Bluesound/BluOS devices (HTTP XML API on port 11000)
	FamilyBluesound Family = "bluesound"
)

// Device represents one discovered controllable audio endpoint.
//
// Identity is the generated ID; the display name is the deduplication key
// used by the registry, so two advertisements resolving to the same corrected
// name merge into one device. Devices are never deleted during a session,
// only marked offline.
type Device struct {
	// ID is a stable opaque identifier, generated once and kept across
	// IP and status changes.
	ID uuid.UUID `json:"id"`

	// Name is the corrected display name derived from the discovery
	// advertisement.
	Name string `json:"name"`

	// Model is the hardware model string, when known.
	Model string `json:"model,omitempty"`

	// IPAddress is the current reachable address.
	IPAddress string `json:"ipAddress"`

	// Port is the advertised service port.
	Port int `json:"port"`

	// Family selects the transport client used for this device.
	Family Family `json:"family"`

	// Status is the last known player state, overwritten by polling and
	// optimistically updated by commands.
	Status Status `json:"status"`

	// Preferences holds user-set metadata, keyed by display name in the
	// persistent store so it survives re-discovery.
	Preferences Preferences `json:"preferences"`

	// IsOnline reports whether the device is currently reachable.
	IsOnline bool `json:"isOnline"`

	// LastSeen is the time of the last successful poll or discovery event.
	LastSeen time.Time `json:"lastSeen"`
}

// NewDevice creates a device with a fresh identifier.
func NewDevice(name, ip string, port int, family Family) *Device {
	return &Device{
		ID:        uuid.New(),
		Name:      name,
		IPAddress: ip,
		Port:      port,
		Family:    family,
		Status:    IdleStatus(),
		IsOnline:  true,
		LastSeen:  time.Now(),
	}
}

// DisplayName returns the user's custom name when set, the discovered
// name otherwise.
func (d *Device) DisplayName() string {
	if d.Preferences.CustomName != "" {
		return d.Preferences.CustomName
	}
	return d.Name
}

// String returns a human-readable description of the device.
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) at %s:%d", d.Name, d.Family, d.IPAddress, d.Port)
}

// Clone returns a copy of the device safe to hand across goroutine
// boundaries. Status and Preferences are value types, so a shallow copy
// is a deep copy.
func (d *Device) Clone() *Device {
	c := *d
	return &c
}

// Preferences holds user-set metadata for a device.
type Preferences struct {
	CustomName string `json:"customName,omitempty" yaml:"custom_name,omitempty"`
	IsFavorite bool   `json:"isFavorite" yaml:"is_favorite"`
	SortOrder  int    `json:"sortOrder" yaml:"sort_order"`
	IsHidden   bool   `json:"isHidden" yaml:"is_hidden"`
}

// SavedGroup is a named, user-created, persisted set of devices with one
// designated master. Activating a group joins every other online member to
// the master's multi-room session.
type SavedGroup struct {
	ID       uuid.UUID   `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Members  []uuid.UUID `json:"members" yaml:"members"`
	MasterID uuid.UUID   `json:"masterId" yaml:"master_id"`
}

// NewSavedGroup creates a group with a fresh identifier.
func NewSavedGroup(name string, members []uuid.UUID, masterID uuid.UUID) SavedGroup {
	return SavedGroup{
		ID:       uuid.New(),
		Name:     name,
		Members:  members,
		MasterID: masterID,
	}
}
