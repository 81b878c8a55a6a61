// Package linkplay implements the control client for WiiM/Linkplay devices.
//
// The Linkplay HTTP API is a GET endpoint at /httpapi.asp taking a single
// "command" query parameter. Many units expose it on plain HTTP port 80,
// some only on HTTPS port 443 with a self-signed certificate, so every
// request falls back to HTTPS once when the plain attempt fails.
package linkplay

import (
	"context"
	"encoding/json"
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
	// DefaultTimeout bounds a single request attempt
	DefaultTimeout = 5 * time.Second

	httpPort  = 80
	httpsPort = 443

	apiPath = "/httpapi.asp"
)

// Client talks to one or more Linkplay devices. Safe for concurrent use.
type Client struct {
	// HTTPClient serves plain-HTTP attempts
	HTTPClient *http.Client

	// TLSClient serves the HTTPS fallback. It trusts self-signed
	// certificates: local-network devices have no CA chain.
	TLSClient *http.Client

	// HTTPPort and HTTPSPort default to 80/443. Overridable for tests.
	HTTPPort  int
	HTTPSPort int
}

// New creates a Linkplay client with default timeouts.
func New() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		TLSClient:  newInsecureClient(DefaultTimeout),
		HTTPPort:   httpPort,
		HTTPSPort:  httpsPort,
	}
}

// GetStatus fetches the player status via getPlayerStatus and normalizes
// the JSON payload.
func (c *Client) GetStatus(ctx context.Context, device *zone.Device) (zone.Status, error) {
	body, err := c.fetch(ctx, device.IPAddress, "getPlayerStatus")
	if err != nil {
		return zone.Status{}, err
	}
	return parseStatus(body)
}

// SetVolume sets the output level (clamped to 0-100).
func (c *Client) SetVolume(ctx context.Context, level int, device *zone.Device) error {
	return c.send(ctx, device.IPAddress, fmt.Sprintf("setPlayerCmd:vol:%d", zone.ClampVolume(level)))
}

// SetMute sets the mute flag.
func (c *Client) SetMute(ctx context.Context, muted bool, device *zone.Device) error {
	v := 0
	if muted {
		v = 1
	}
	return c.send(ctx, device.IPAddress, fmt.Sprintf("setPlayerCmd:mute:%d", v))
}

// TogglePlayPause toggles playback via the onepause command.
func (c *Client) TogglePlayPause(ctx context.Context, device *zone.Device) error {
	return c.send(ctx, device.IPAddress, "setPlayerCmd:onepause")
}

// NextTrack skips to the next track.
func (c *Client) NextTrack(ctx context.Context, device *zone.Device) error {
	return c.send(ctx, device.IPAddress, "setPlayerCmd:next")
}

// PreviousTrack skips to the previous track.
func (c *Client) PreviousTrack(ctx context.Context, device *zone.Device) error {
	return c.send(ctx, device.IPAddress, "setPlayerCmd:prev")
}

// TriggerPreset fires a hardware preset (1-based index).
func (c *Client) TriggerPreset(ctx context.Context, preset int, device *zone.Device) error {
	return c.send(ctx, device.IPAddress, fmt.Sprintf("MCUKeyShortClick:%d", preset))
}

// JoinGroup joins the device to the multi-room session of the master at
// the given IP.
func (c *Client) JoinGroup(ctx context.Context, masterIP string, device *zone.Device) error {
	return c.send(ctx, device.IPAddress, fmt.Sprintf("multiroom:join:%s", masterIP))
}

// LeaveGroup detaches the device from its current multi-room session.
func (c *Client) LeaveGroup(ctx context.Context, device *zone.Device) error {
	return c.send(ctx, device.IPAddress, "multiroom:leave")
}

// fetch performs a status GET, falling back to HTTPS once on any transport
// failure, and returns the response body.
func (c *Client) fetch(ctx context.Context, ip, command string) ([]byte, error) {
	body, err := c.attempt(ctx, ip, command, false)
	if err == nil {
		return body, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	return c.attempt(ctx, ip, command, true)
}

// send performs a command GET with the same single HTTPS fallback.
func (c *Client) send(ctx context.Context, ip, command string) error {
	_, err := c.attempt(ctx, ip, command, false)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	_, err = c.attempt(ctx, ip, command, true)
	return err
}

func (c *Client) attempt(ctx context.Context, ip, command string, useTLS bool) ([]byte, error) {
	requestURL := c.buildURL(ip, command, useTLS)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, control.NewNetworkError("failed to create request", err, ip)
	}

	client := c.HTTPClient
	if useTLS {
		client = c.TLSClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, control.NewNetworkError(fmt.Sprintf("connection failed to %s", requestURL), err, ip)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, control.NewCommandError(command, resp.StatusCode, ip)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, control.NewNetworkError("failed to read response body", err, ip)
	}
	return body, nil
}

// buildURL assembles the API URL, bracketing IPv6 hosts.
func (c *Client) buildURL(ip, command string, useTLS bool) string {
	scheme, port := "http", c.HTTPPort
	if useTLS {
		scheme, port = "https", c.HTTPSPort
	}

	host := ip
	if strings.Contains(ip, ":") && !strings.HasPrefix(ip, "[") {
		host = "[" + ip + "]"
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     apiPath,
		RawQuery: url.Values{"command": {command}}.Encode(),
	}
	return u.String()
}

// playerStatus mirrors the Linkplay getPlayerStatus payload. Every field is
// a string on the wire, including the numeric ones.
type playerStatus struct {
	Mode        string `json:"mode"`
	Vol         string `json:"vol"`
	Mute        string `json:"mute"`
	Status      string `json:"status"`
	Artist      string `json:"Artist"`
	Title       string `json:"Title"`
	Song        string `json:"song"`
	StationName string `json:"stationName"`
	TotLen      string `json:"totlen"`
	CurPos      string `json:"curpos"`
}

// parseStatus normalizes a getPlayerStatus JSON body. Missing fields take
// documented defaults; a malformed body is a parse error, never a panic.
func parseStatus(body []byte) (zone.Status, error) {
	var raw playerStatus
	if err := json.Unmarshal(body, &raw); err != nil {
		return zone.Status{}, control.NewParseError("failed to parse player status JSON", err)
	}

	vol := 50
	if raw.Vol != "" {
		if v, err := strconv.Atoi(raw.Vol); err == nil {
			vol = zone.ClampVolume(v)
		}
	}

	var state zone.PlaybackState
	switch strings.ToLower(raw.Status) {
	case "play":
		state = zone.StatePlaying
	case "pause":
		state = zone.StatePaused
	case "stop":
		state = zone.StateStopped
	default:
		state = zone.StateIdle
	}

	artist := DecodeHexText(raw.Artist)

	title := DecodeHexText(firstNonEmpty(raw.Title, raw.Song))
	if title == "" {
		// Fallback for some radio stations
		title = raw.StationName
	}

	return zone.Status{
		Source:        zone.SourceFromLinkplayMode(raw.Mode),
		PlaybackState: state,
		Artist:        artist,
		Title:         title,
		Volume:        vol,
		IsMuted:       raw.Mute == "1",
		Duration:      millisField(raw.TotLen),
		Position:      millisField(raw.CurPos),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// millisField converts a millisecond string field to seconds, tolerating
// absent or junk values.
func millisField(s string) float64 {
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return ms / 1000.0
}
