// Package control defines the command surface shared by the per-family
// transport clients and the error taxonomy for everything that can go wrong
// while talking to a device.
//
// Two implementations exist: linkplay (WiiM, HTTP query-string API) and
// bluos (Bluesound, HTTP XML API). Both are stateless apart from their
// underlying connection pool and are safe for concurrent use.
package control

import (
	"context"

	"github.com/RomRMX/mothership/internal/zone"
)

// Client is the capability set a transport client offers the registry.
// Implementations take a device snapshot rather than a live reference so
// the registry's state never escapes its lock.
type Client interface {
	// GetStatus fetches and normalizes the current player status.
	GetStatus(ctx context.Context, device *zone.Device) (zone.Status, error)

	// SetVolume sets the output level, clamped to [0,100].
	SetVolume(ctx context.Context, level int, device *zone.Device) error

	// SetMute sets the mute flag.
	SetMute(ctx context.Context, muted bool, device *zone.Device) error

	// TogglePlayPause toggles between playing and paused.
	TogglePlayPause(ctx context.Context, device *zone.Device) error

	// NextTrack skips forward. Families without transport skip return a
	// not-supported error instead of attempting the request.
	NextTrack(ctx context.Context, device *zone.Device) error

	// PreviousTrack skips backward, with the same not-supported contract.
	PreviousTrack(ctx context.Context, device *zone.Device) error

	// TriggerPreset fires a stored preset (1-based index).
	TriggerPreset(ctx context.Context, preset int, device *zone.Device) error

	// JoinGroup joins the device to the multi-room session of the master
	// at the given IP.
	JoinGroup(ctx context.Context, masterIP string, device *zone.Device) error
}
