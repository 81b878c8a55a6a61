package config

import (
	"time"

	"github.com/RomRMX/mothership/internal/zone"
)

// Registry represents the entire configuration file.
type Registry struct {
	Version     int                         `yaml:"version"`
	Settings    *Settings                   `yaml:"settings,omitempty"`
	Preferences map[string]zone.Preferences `yaml:"preferences,omitempty"` // Keyed by device display name
	Groups      []zone.SavedGroup           `yaml:"groups,omitempty"`
}

// CategoryRule assigns devices whose names contain one of the keywords to a
// named display group. Rules are evaluated in order, first match wins, and
// devices matching no rule are omitted from the grouped view.
type CategoryRule struct {
	Title    string   `yaml:"title"`
	Keywords []string `yaml:"keywords"`
}

// Settings holds application-wide behavior knobs.
type Settings struct {
	// DenyList hides devices whose corrected name matches an entry
	// (case-insensitive, exact or substring). Empty = hide nothing.
	DenyList []string `yaml:"deny_list,omitempty"`

	// AllowList, when non-empty, admits only devices whose corrected name
	// contains one of the entries (case-insensitive). Empty = allow all.
	AllowList []string `yaml:"allow_list,omitempty"`

	// ModelKeywords are the known model identifiers that should carry the
	// group prefix in their display name.
	ModelKeywords []string `yaml:"model_keywords,omitempty"`

	// GroupPrefix is prepended to a model-keyword name that lacks it.
	GroupPrefix string `yaml:"group_prefix,omitempty"`

	// LinkedKeywords define the linked preset group: triggering a preset
	// on any matching device fans out to all matching devices.
	LinkedKeywords []string `yaml:"linked_keywords,omitempty"`

	// Categories are the ordered display-grouping rules.
	Categories []CategoryRule `yaml:"categories,omitempty"`

	// ForcedFamily, when set, overrides the discovered protocol family of
	// every device. Compatibility policy, off by default.
	ForcedFamily zone.Family `yaml:"forced_family,omitempty"`

	// PollInterval is the delay between status polls per device.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`

	// FlushInterval is the cadence of batched discovery commits.
	FlushInterval time.Duration `yaml:"flush_interval,omitempty"`

	// ScanGracePeriod is how long a scan stays in the "scanning" state
	// before it self-terminates.
	ScanGracePeriod time.Duration `yaml:"scan_grace_period,omitempty"`

	// MockZones injects deterministic fixture devices instead of browsing
	// the network. For UI work without hardware.
	MockZones bool `yaml:"mock_zones,omitempty"`

	// ListenAddr is the bind address of the HTTP/WebSocket bridge.
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

// planterKeywords identify the linked "Planter" wall of amplifiers; they
// double as the model keywords that get the prefix correction.
var planterKeywords = []string{"ASM64", "ASM63", "LSH80", "LSH60", "LSH40", "ALSB106", "ALSB85", "ALSB64"}

// DefaultSettings returns the stock configuration.
func DefaultSettings() *Settings {
	return &Settings{
		ModelKeywords:  append([]string(nil), planterKeywords...),
		GroupPrefix:    "Planter",
		LinkedKeywords: append([]string(nil), planterKeywords...),
		AllowList:      append([]string(nil), planterKeywords...),
		Categories: []CategoryRule{
			{Title: "Planter", Keywords: append([]string(nil), planterKeywords...)},
			{Title: "Lobby & Showroom", Keywords: []string{"Lobby", "Showroom", "PSUB10x2"}},
			{Title: "Entertainment", Keywords: []string{"THTR"}},
			{Title: "Conference", Keywords: []string{"803", "602", "802", "MOS"}},
			{Title: "Corkroom", Keywords: []string{"Towers", "ASBR6"}},
			{Title: "Other", Keywords: []string{"Hallway Planter", "Bollards"}},
		},
		PollInterval:    1500 * time.Millisecond,
		FlushInterval:   500 * time.Millisecond,
		ScanGracePeriod: 3 * time.Second,
		ListenAddr:      "127.0.0.1:8590",
	}
}

// NewRegistry creates a Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Settings:    DefaultSettings(),
		Preferences: make(map[string]zone.Preferences),
	}
}

// normalize fills in anything a hand-edited or older config file left out.
func (r *Registry) normalize() {
	if r.Settings == nil {
		r.Settings = DefaultSettings()
	}
	defaults := DefaultSettings()
	if r.Settings.PollInterval <= 0 {
		r.Settings.PollInterval = defaults.PollInterval
	}
	if r.Settings.FlushInterval <= 0 {
		r.Settings.FlushInterval = defaults.FlushInterval
	}
	if r.Settings.ScanGracePeriod <= 0 {
		r.Settings.ScanGracePeriod = defaults.ScanGracePeriod
	}
	if r.Settings.ListenAddr == "" {
		r.Settings.ListenAddr = defaults.ListenAddr
	}
	if r.Preferences == nil {
		r.Preferences = make(map[string]zone.Preferences)
	}
}
