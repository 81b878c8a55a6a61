// Package bluos implements the control client for Bluesound/BluOS devices.
//
// BluOS exposes a plain-HTTP API on port 11000; commands are GET requests
// to paths like /Volume?level=30 and status is an XML document. The service
// is plaintext-only, so unlike the Linkplay client there is no HTTPS
// fallback. Track skip is not part of the preset/zone control surface this
// client covers and reports an explicit not-supported outcome.
package bluos

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/RomRMX/mothership/internal/control"
	"github.com/RomRMX/mothership/internal/zone"
)

const (
	// DefaultPort is the fixed BluOS control port
	DefaultPort = 11000

	// StatusTimeout bounds status requests
	StatusTimeout = 4 * time.Second

	// CommandTimeout is shorter for responsiveness on interactive commands
	CommandTimeout = 2 * time.Second
)

// Client talks to one or more BluOS devices. Safe for concurrent use.
type Client struct {
	// StatusClient serves status polls
	StatusClient *http.Client

	// CommandClient serves control commands with a tighter timeout
	CommandClient *http.Client

	// Port defaults to 11000. Overridable for tests.
	Port int
}

// New creates a BluOS client with default timeouts.
func New() *Client {
	return &Client{
		StatusClient:  &http.Client{Timeout: StatusTimeout},
		CommandClient: &http.Client{Timeout: CommandTimeout},
		Port:          DefaultPort,
	}
}

// GetStatus fetches /Status and normalizes the XML payload.
func (c *Client) GetStatus(ctx context.Context, device *zone.Device) (zone.Status, error) {
	requestURL := c.buildURL(device.IPAddress, "Status", nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return zone.Status{}, control.NewNetworkError("failed to create status request", err, device.IPAddress)
	}

	resp, err := c.StatusClient.Do(req)
	if err != nil {
		return zone.Status{}, control.NewNetworkError(fmt.Sprintf("connection failed to %s", requestURL), err, device.IPAddress)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zone.Status{}, control.NewInvalidResponseError(resp.StatusCode, device.IPAddress)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zone.Status{}, control.NewNetworkError("failed to read status body", err, device.IPAddress)
	}

	return ParseStatusXML(string(body)), nil
}

// SetVolume sets the output level (clamped to 0-100).
func (c *Client) SetVolume(ctx context.Context, level int, device *zone.Device) error {
	return c.send(ctx, device, "Volume", url.Values{"level": {strconv.Itoa(zone.ClampVolume(level))}})
}

// SetMute sets the mute flag via the Volume endpoint.
func (c *Client) SetMute(ctx context.Context, muted bool, device *zone.Device) error {
	v := "0"
	if muted {
		v = "1"
	}
	return c.send(ctx, device, "Volume", url.Values{"mute": {v}})
}

// TogglePlayPause issues Pause when the device is playing and Play
// otherwise. BluOS has no single toggle endpoint, so the decision rides on
// the device's last known state.
func (c *Client) TogglePlayPause(ctx context.Context, device *zone.Device) error {
	if device.Status.PlaybackState == zone.StatePlaying {
		return c.send(ctx, device, "Pause", nil)
	}
	return c.send(ctx, device, "Play", nil)
}

// NextTrack reports not-supported: track skip is unimplemented for BluOS.
func (c *Client) NextTrack(_ context.Context, _ *zone.Device) error {
	return control.NewNotSupportedError("next track", string(zone.FamilyBluesound))
}

// PreviousTrack reports not-supported: track skip is unimplemented for BluOS.
func (c *Client) PreviousTrack(_ context.Context, _ *zone.Device) error {
	return control.NewNotSupportedError("previous track", string(zone.FamilyBluesound))
}

// TriggerPreset fires a stored preset (1-based index).
func (c *Client) TriggerPreset(ctx context.Context, preset int, device *zone.Device) error {
	return c.send(ctx, device, "Preset", url.Values{"id": {strconv.Itoa(preset)}})
}

// JoinGroup adds this device as a slave of the master at the given IP.
func (c *Client) JoinGroup(ctx context.Context, masterIP string, device *zone.Device) error {
	return c.send(ctx, device, "AddSlave", url.Values{"slave": {device.IPAddress}, "master": {masterIP}})
}

func (c *Client) send(ctx context.Context, device *zone.Device, command string, query url.Values) error {
	requestURL := c.buildURL(device.IPAddress, command, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return control.NewNetworkError("failed to create command request", err, device.IPAddress)
	}

	resp, err := c.CommandClient.Do(req)
	if err != nil {
		return control.NewNetworkError(fmt.Sprintf("connection failed to %s", requestURL), err, device.IPAddress)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return control.NewCommandError(command, resp.StatusCode, device.IPAddress)
	}
	return nil
}

func (c *Client) buildURL(ip, command string, query url.Values) string {
	u := url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", ip, c.Port),
		Path:   "/" + command,
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// ParseStatusXML normalizes a BluOS /Status XML document. Missing tags take
// documented defaults; the parser never fails, it degrades.
func ParseStatusXML(xml string) zone.Status {
	volume := 0
	if v, err := strconv.Atoi(ExtractTag(xml, "volume")); err == nil {
		volume = zone.ClampVolume(v)
	}

	var state zone.PlaybackState
	switch strings.ToLower(ExtractTag(xml, "state")) {
	case "play", "stream":
		state = zone.StatePlaying
	case "pause":
		state = zone.StatePaused
	case "stop":
		state = zone.StateStopped
	default:
		// "connecting" and anything unrecognized count as idle
		state = zone.StateIdle
	}

	artist := firstTag(xml, "artist", "title2")
	title := firstTag(xml, "name", "title1")

	// Streamed radio puts metadata in line1/line2 instead
	if title == "" {
		title = ExtractTag(xml, "line1")
	}
	if artist == "" {
		artist = ExtractTag(xml, "line2")
	}

	return zone.Status{
		Source:        zone.SourceFromBluOS(ExtractTag(xml, "service"), ExtractTag(xml, "inputId")),
		PlaybackState: state,
		Artist:        artist,
		Title:         title,
		Volume:        volume,
		IsMuted:       ExtractTag(xml, "mute") == "1",
	}
}

func firstTag(xml string, tags ...string) string {
	for _, tag := range tags {
		if v := ExtractTag(xml, tag); v != "" {
			return v
		}
	}
	return ""
}
