package registry

import (
	"testing"

	"github.com/RomRMX/mothership/internal/config"
)

func filterSettings() *config.Settings {
	return &config.Settings{
		ModelKeywords: []string{"ASM64", "ASM63", "LSH80"},
		GroupPrefix:   "Planter",
	}
}

func TestAdmitFound_NameAndIPValidation(t *testing.T) {
	s := filterSettings()

	tests := []struct {
		name     string
		devName  string
		ip       string
		wantOK   bool
		wantName string
	}{
		{
			name:     "valid device",
			devName:  "Lobby Speaker",
			ip:       "192.168.1.50",
			wantOK:   true,
			wantName: "Lobby Speaker",
		},
		{
			name:    "empty name rejected",
			devName: "",
			ip:      "192.168.1.50",
			wantOK:  false,
		},
		{
			name:    "placeholder name rejected",
			devName: "Unknown Device",
			ip:      "192.168.1.50",
			wantOK:  false,
		},
		{
			name:    "blank IP rejected",
			devName: "Lobby Speaker",
			ip:      "   ",
			wantOK:  false,
		},
		{
			name:    "unknown IP rejected",
			devName: "Lobby Speaker",
			ip:      "unknown",
			wantOK:  false,
		},
		{
			name:    "zero IP rejected",
			devName: "Lobby Speaker",
			ip:      "0.0.0.0",
			wantOK:  false,
		},
		{
			name:     "model keyword gets prefix",
			devName:  "ASM64",
			ip:       "192.168.1.51",
			wantOK:   true,
			wantName: "Planter ASM64",
		},
		{
			name:     "existing prefix not doubled",
			devName:  "Planter ASM64",
			ip:       "192.168.1.51",
			wantOK:   true,
			wantName: "Planter ASM64",
		},
		{
			name:     "case-insensitive prefix detection",
			devName:  "planter LSH80",
			ip:       "192.168.1.52",
			wantOK:   true,
			wantName: "planter LSH80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := admitFound(s, tt.devName, tt.ip)
			if ok != tt.wantOK {
				t.Fatalf("admitFound(%q, %q) ok = %v, want %v", tt.devName, tt.ip, ok, tt.wantOK)
			}
			if ok && got != tt.wantName {
				t.Errorf("admitFound(%q, %q) name = %q, want %q", tt.devName, tt.ip, got, tt.wantName)
			}
		})
	}
}

func TestAdmitFound_AllowAndDenyLists(t *testing.T) {
	tests := []struct {
		name    string
		allow   []string
		deny    []string
		devName string
		wantOK  bool
	}{
		{
			name:    "allow-list substring match admits",
			allow:   []string{"ASM64"},
			devName: "Planter ASM64",
			wantOK:  true,
		},
		{
			name:    "allow-list mismatch rejects",
			allow:   []string{"ASM64"},
			devName: "Lobby Speaker",
			wantOK:  false,
		},
		{
			name:    "empty allow-list admits everything",
			devName: "Lobby Speaker",
			wantOK:  true,
		},
		{
			name:    "deny-list exact match rejects",
			deny:    []string{"Lobby Speaker"},
			devName: "Lobby Speaker",
			wantOK:  false,
		},
		{
			name:    "deny-list substring rejects",
			deny:    []string{"lobby"},
			devName: "Lobby Speaker",
			wantOK:  false,
		},
		{
			name:    "deny-list wins over allow-list",
			allow:   []string{"Speaker"},
			deny:    []string{"Lobby"},
			devName: "Lobby Speaker",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &config.Settings{AllowList: tt.allow, DenyList: tt.deny}
			_, ok := admitFound(s, tt.devName, "192.168.1.10")
			if ok != tt.wantOK {
				t.Errorf("admitFound(%q) ok = %v, want %v", tt.devName, ok, tt.wantOK)
			}
		})
	}
}

func TestIsIPv4(t *testing.T) {
	if !isIPv4("192.168.1.4") {
		t.Error("dotted quad should be IPv4")
	}
	if isIPv4("fe80::1234") {
		t.Error("address with colon should not be IPv4")
	}
}
