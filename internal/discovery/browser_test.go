package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/RomRMX/mothership/internal/zone"
)

func entryWith(name string, v4 []string, v6 []string) *zeroconf.ServiceEntry {
	entry := &zeroconf.ServiceEntry{Port: 80, TTL: 120}
	entry.Instance = name
	for _, s := range v4 {
		entry.AddrIPv4 = append(entry.AddrIPv4, net.ParseIP(s))
	}
	for _, s := range v6 {
		entry.AddrIPv6 = append(entry.AddrIPv6, net.ParseIP(s))
	}
	return entry
}

func TestPickAddress(t *testing.T) {
	tests := []struct {
		name  string
		entry *zeroconf.ServiceEntry
		want  string
	}{
		{
			name:  "IPv4 only",
			entry: entryWith("a", []string{"192.168.1.5"}, nil),
			want:  "192.168.1.5",
		},
		{
			name:  "IPv4 preferred over IPv6",
			entry: entryWith("a", []string{"192.168.1.5"}, []string{"fe80::1"}),
			want:  "192.168.1.5",
		},
		{
			name:  "IPv6 when nothing else",
			entry: entryWith("a", nil, []string{"fe80::1"}),
			want:  "fe80::1",
		},
		{
			name:  "no addresses",
			entry: entryWith("a", nil, nil),
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickAddress(tt.entry); got != tt.want {
				t.Errorf("pickAddress = %q, want %q", got, tt.want)
			}
		})
	}
}

func collect(events <-chan Event, n int, timeout time.Duration) []Event {
	var out []Event
	deadline := time.After(timeout)
	for len(out) < n {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			return out
		}
	}
	return out
}

func TestHandleEntry_FoundEvent(t *testing.T) {
	b := NewBrowser()
	ctx := context.Background()
	events := make(chan Event, 8)
	binding := ServiceBinding{ServiceType: "_linkplay._tcp", Family: zone.FamilyWiiM}

	b.handleEntry(ctx, entryWith("Lobby Speaker", []string{"192.168.1.5"}, nil), binding, events)

	got := collect(events, 1, time.Second)
	if len(got) != 1 {
		t.Fatalf("events = %d, want 1", len(got))
	}
	ev := got[0]
	if ev.Kind != EventFound || ev.Name != "Lobby Speaker" || ev.IPAddress != "192.168.1.5" || ev.Family != zone.FamilyWiiM {
		t.Errorf("event = %+v", ev)
	}
}

func TestHandleEntry_RepeatAdvertisementSuppressed(t *testing.T) {
	b := NewBrowser()
	ctx := context.Background()
	events := make(chan Event, 8)
	binding := DefaultBindings[0]
	entry := entryWith("Lobby Speaker", []string{"192.168.1.5"}, nil)

	b.handleEntry(ctx, entry, binding, events)
	b.handleEntry(ctx, entry, binding, events)

	if got := collect(events, 2, 100*time.Millisecond); len(got) != 1 {
		t.Errorf("events = %d, repeated identical advertisement must be suppressed", len(got))
	}
}

func TestHandleEntry_AddressChangeEmitsAgain(t *testing.T) {
	b := NewBrowser()
	ctx := context.Background()
	events := make(chan Event, 8)
	binding := DefaultBindings[0]

	b.handleEntry(ctx, entryWith("Lobby Speaker", []string{"192.168.1.5"}, nil), binding, events)
	b.handleEntry(ctx, entryWith("Lobby Speaker", []string{"192.168.1.9"}, nil), binding, events)

	got := collect(events, 2, time.Second)
	if len(got) != 2 || got[1].IPAddress != "192.168.1.9" {
		t.Errorf("events = %+v, want a second found at the new address", got)
	}
}

func TestHandleEntry_GoodbyeEmitsLost(t *testing.T) {
	b := NewBrowser()
	ctx := context.Background()
	events := make(chan Event, 8)
	binding := DefaultBindings[0]

	b.handleEntry(ctx, entryWith("Lobby Speaker", []string{"192.168.1.5"}, nil), binding, events)

	bye := entryWith("Lobby Speaker", []string{"192.168.1.5"}, nil)
	bye.TTL = 0
	b.handleEntry(ctx, bye, binding, events)

	got := collect(events, 2, time.Second)
	if len(got) != 2 || got[1].Kind != EventLost || got[1].Name != "Lobby Speaker" {
		t.Fatalf("events = %+v, want found then lost", got)
	}

	// The goodbye cleared the cache, so the same address announces again
	b.handleEntry(ctx, entryWith("Lobby Speaker", []string{"192.168.1.5"}, nil), binding, events)
	if got := collect(events, 1, time.Second); len(got) != 1 || got[0].Kind != EventFound {
		t.Error("re-advertisement after goodbye should emit a fresh found event")
	}
}

func TestHandleEntry_UnresolvableAddressDropped(t *testing.T) {
	b := NewBrowser()
	ctx := context.Background()
	events := make(chan Event, 8)

	b.handleEntry(ctx, entryWith("Ghost", nil, nil), DefaultBindings[0], events)

	if got := collect(events, 1, 100*time.Millisecond); len(got) != 0 {
		t.Errorf("events = %+v, unresolvable entries must be dropped", got)
	}
}

func TestEmit_CancelledSessionNeverBlocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	events := make(chan Event) // unbuffered and never read

	done := make(chan struct{})
	go func() {
		emit(ctx, events, Event{Kind: EventFound, Name: "x"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a cancelled session")
	}
}

func TestStop_WithoutStartIsSafe(t *testing.T) {
	b := NewBrowser()
	b.Stop()
	b.Stop()
}
