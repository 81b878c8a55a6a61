package bluos

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/RomRMX/mothership/internal/control"
	"github.com/RomRMX/mothership/internal/zone"
)

type recordingHandler struct {
	mu       sync.Mutex
	requests []string
	status   int
	body     string
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.requests = append(h.requests, r.URL.RequestURI())
	status, body := h.status, h.body
	h.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (h *recordingHandler) received() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.requests...)
}

func newTestClient(t *testing.T, srv *httptest.Server) (*Client, *zone.Device) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("failed to split server address: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	c := New()
	c.Port = port
	device := zone.NewDevice("Planter ASM63", host, port, zone.FamilyBluesound)
	return c, device
}

func TestCommandsSendExpectedRequests(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *Client, ctx context.Context, d *zone.Device) error
		want string
	}{
		{
			name: "set volume",
			run: func(c *Client, ctx context.Context, d *zone.Device) error {
				return c.SetVolume(ctx, 30, d)
			},
			want: "/Volume?level=30",
		},
		{
			name: "set volume clamps negative",
			run: func(c *Client, ctx context.Context, d *zone.Device) error {
				return c.SetVolume(ctx, -5, d)
			},
			want: "/Volume?level=0",
		},
		{
			name: "mute on",
			run: func(c *Client, ctx context.Context, d *zone.Device) error {
				return c.SetMute(ctx, true, d)
			},
			want: "/Volume?mute=1",
		},
		{
			name: "mute off",
			run: func(c *Client, ctx context.Context, d *zone.Device) error {
				return c.SetMute(ctx, false, d)
			},
			want: "/Volume?mute=0",
		},
		{
			name: "trigger preset",
			run: func(c *Client, ctx context.Context, d *zone.Device) error {
				return c.TriggerPreset(ctx, 2, d)
			},
			want: "/Preset?id=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &recordingHandler{}
			srv := httptest.NewServer(handler)
			defer srv.Close()
			c, device := newTestClient(t, srv)

			if err := tt.run(c, context.Background(), device); err != nil {
				t.Fatalf("command failed: %v", err)
			}
			got := handler.received()
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("requests = %v, want [%s]", got, tt.want)
			}
		})
	}
}

func TestTogglePlayPause_UsesLastKnownState(t *testing.T) {
	handler := &recordingHandler{}
	srv := httptest.NewServer(handler)
	defer srv.Close()
	c, device := newTestClient(t, srv)

	device.Status.PlaybackState = zone.StatePlaying
	if err := c.TogglePlayPause(context.Background(), device); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	device.Status.PlaybackState = zone.StatePaused
	if err := c.TogglePlayPause(context.Background(), device); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	got := handler.received()
	if len(got) != 2 || got[0] != "/Pause" || got[1] != "/Play" {
		t.Errorf("requests = %v, want [/Pause /Play]", got)
	}
}

func TestJoinGroup(t *testing.T) {
	handler := &recordingHandler{}
	srv := httptest.NewServer(handler)
	defer srv.Close()
	c, device := newTestClient(t, srv)
	host := device.IPAddress

	if err := c.JoinGroup(context.Background(), "192.168.1.30", device); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	got := handler.received()
	want := "/AddSlave?master=192.168.1.30&slave=" + host
	if len(got) != 1 || got[0] != want {
		t.Errorf("requests = %v, want [%s]", got, want)
	}
}

func TestTrackSkipNotSupported(t *testing.T) {
	// No server: the not-supported outcome must come back without any
	// network attempt
	c := New()
	device := zone.NewDevice("Planter ASM63", "192.0.2.1", DefaultPort, zone.FamilyBluesound)

	if err := c.NextTrack(context.Background(), device); !control.IsNotSupported(err) {
		t.Errorf("NextTrack error = %v, want not-supported", err)
	}
	if err := c.PreviousTrack(context.Background(), device); !control.IsNotSupported(err) {
		t.Errorf("PreviousTrack error = %v, want not-supported", err)
	}
}

func TestGetStatus(t *testing.T) {
	handler := &recordingHandler{body: `<status etag="abc">
		<state>stream</state>
		<service>Spotify</service>
		<artist>Queen</artist>
		<name>Bohemian Rhapsody</name>
		<volume>45</volume>
		<mute>0</mute>
	</status>`}
	srv := httptest.NewServer(handler)
	defer srv.Close()
	c, device := newTestClient(t, srv)

	status, err := c.GetStatus(context.Background(), device)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if got := handler.received(); len(got) != 1 || got[0] != "/Status" {
		t.Errorf("requests = %v, want [/Status]", got)
	}
	if status.PlaybackState != zone.StatePlaying {
		t.Errorf("state = %q, stream must count as playing", status.PlaybackState)
	}
	if status.Source != zone.SourceSpotify {
		t.Errorf("source = %q, want spotify", status.Source)
	}
	if status.Artist != "Queen" || status.Title != "Bohemian Rhapsody" {
		t.Errorf("metadata = %q/%q", status.Artist, status.Title)
	}
	if status.Volume != 45 || status.IsMuted {
		t.Errorf("volume/mute = %d/%v, want 45/false", status.Volume, status.IsMuted)
	}
}

func TestGetStatus_Non2xxIsError(t *testing.T) {
	handler := &recordingHandler{status: http.StatusNotFound}
	srv := httptest.NewServer(handler)
	defer srv.Close()
	c, device := newTestClient(t, srv)

	_, err := c.GetStatus(context.Background(), device)
	if control.TypeOf(err) != control.ErrTypeInvalidResponse {
		t.Errorf("error = %v, want invalid-response", err)
	}
}

func TestParseStatusXML(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want zone.Status
	}{
		{
			name: "empty document degrades to idle",
			xml:  "",
			want: zone.Status{Source: zone.SourceUnknown, PlaybackState: zone.StateIdle},
		},
		{
			name: "paused with mute",
			xml:  "<status><state>pause</state><mute>1</mute><volume>20</volume></status>",
			want: zone.Status{Source: zone.SourceUnknown, PlaybackState: zone.StatePaused, Volume: 20, IsMuted: true},
		},
		{
			name: "stopped",
			xml:  "<status><state>stop</state></status>",
			want: zone.Status{Source: zone.SourceUnknown, PlaybackState: zone.StateStopped},
		},
		{
			name: "connecting counts as idle",
			xml:  "<status><state>connecting</state></status>",
			want: zone.Status{Source: zone.SourceUnknown, PlaybackState: zone.StateIdle},
		},
		{
			name: "title2 backs absent artist",
			xml:  "<status><title1>Time</title1><title2>Pink Floyd</title2></status>",
			want: zone.Status{Source: zone.SourceUnknown, PlaybackState: zone.StateIdle, Artist: "Pink Floyd", Title: "Time"},
		},
		{
			name: "radio metadata in line tags",
			xml:  "<status><state>stream</state><line1>Morning Show</line1><line2>Radio Paradise</line2></status>",
			want: zone.Status{Source: zone.SourceUnknown, PlaybackState: zone.StatePlaying, Artist: "Radio Paradise", Title: "Morning Show"},
		},
		{
			name: "capture input is optical",
			xml:  "<status><inputId>capture1</inputId></status>",
			want: zone.Status{Source: zone.SourceOptical, PlaybackState: zone.StateIdle},
		},
		{
			name: "named service without constant",
			xml:  "<status><service>Qobuz</service></status>",
			want: zone.Status{Source: zone.Source("qobuz"), PlaybackState: zone.StateIdle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseStatusXML(tt.xml); got != tt.want {
				t.Errorf("ParseStatusXML(%q)\n got %+v\nwant %+v", tt.xml, got, tt.want)
			}
		})
	}
}
