package zone

import "strings"

// PlaybackState is the transport state of a device.
type PlaybackState string

const (
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
	StateStopped PlaybackState = "stopped"
	StateIdle    PlaybackState = "idle"
)

// Source is the active input/streaming service on a device.
type Source string

const (
	SourceSpotify Source = "spotify"
	SourceTidal   Source = "tidal"
	SourceAirPlay Source = "airplay"
	SourceOptical Source = "optical"
	SourceUnknown Source = "unknown"
)

// linkplayModes maps the Linkplay "mode" status field to a source.
// Values observed on WiiM firmware; unlisted modes report unknown.
var linkplayModes = map[string]Source{
	"31": SourceSpotify,
	"32": SourceTidal,
	"36": SourceSpotify,
	"40": SourceOptical,
	"41": SourceAirPlay,
	"43": SourceOptical,
}

// SourceFromLinkplayMode maps a Linkplay mode code to a source.
func SourceFromLinkplayMode(mode string) Source {
	if s, ok := linkplayModes[mode]; ok {
		return s
	}
	return SourceUnknown
}

// SourceFromBluOS classifies a source from the BluOS service and inputId
// fields by substring match.
func SourceFromBluOS(service, inputID string) Source {
	svc := strings.ToLower(service)
	input := strings.ToLower(inputID)
	switch {
	case strings.Contains(svc, "spotify") || strings.Contains(input, "spotify"):
		return SourceSpotify
	case strings.Contains(svc, "tidal") || strings.Contains(input, "tidal"):
		return SourceTidal
	case strings.Contains(svc, "airplay"):
		return SourceAirPlay
	case strings.Contains(input, "capture"):
		return SourceOptical
	case service != "":
		// Named third-party service without a dedicated constant
		return Source(strings.ToLower(service))
	default:
		return SourceUnknown
	}
}

// Status is the normalized player state shared by both transport clients.
type Status struct {
	Source        Source        `json:"source"`
	PlaybackState PlaybackState `json:"playbackState"`
	Artist        string        `json:"artist,omitempty"`
	Title         string        `json:"title,omitempty"`
	Volume        int           `json:"volume"`
	IsMuted       bool          `json:"isMuted"`

	// Duration and Position are in seconds; zero when the source does not
	// report them (e.g. radio streams).
	Duration float64 `json:"duration,omitempty"`
	Position float64 `json:"position,omitempty"`

	// Multi-room grouping fields
	GroupID  string `json:"groupId,omitempty"`
	IsMaster bool   `json:"isMaster,omitempty"`
	MasterID string `json:"masterId,omitempty"`
}

// IdleStatus returns the zero-value status for a freshly discovered device.
func IdleStatus() Status {
	return Status{
		Source:        SourceUnknown,
		PlaybackState: StateIdle,
		Volume:        50,
	}
}

// ClampVolume bounds a volume level to the valid [0,100] range.
func ClampVolume(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}
