// Package tui renders the interactive zone dashboard.
//
// The dashboard is a read-mostly view over the registry: it re-snapshots
// the committed device list on a fixed tick and dispatches control
// commands as asynchronous bubbletea commands so a slow speaker never
// blocks the event loop.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/RomRMX/mothership/internal/alert"
	"github.com/RomRMX/mothership/internal/registry"
	"github.com/RomRMX/mothership/internal/zone"
)

// refreshInterval is how often the dashboard re-reads the registry.
const refreshInterval = 500 * time.Millisecond

// volumeStep is the per-keypress volume increment.
const volumeStep = 5

// Controller is the slice of the registry the dashboard consumes.
// Implemented by *registry.Manager; substituted by stubs in tests.
type Controller interface {
	CategorizedGroups() []registry.CategoryGroup
	IsScanning() bool
	RefreshNetwork(ctx context.Context)
	MasterVolume() float64

	SetVolume(ctx context.Context, level int, name string)
	ToggleMute(ctx context.Context, name string)
	TogglePlayPause(ctx context.Context, name string)
	NextTrack(ctx context.Context, name string)
	PreviousTrack(ctx context.Context, name string)
	TriggerPreset(ctx context.Context, preset int, name string)
	SetGlobalVolume(ctx context.Context, level int)
	ActivateSoloMode(ctx context.Context, name string)
	ToggleFavorite(name string)
}

// tickMsg drives the periodic registry snapshot.
type tickMsg time.Time

// commandDoneMsg reports that an async control command finished. The
// registry routes failures to the alert sink, so there is nothing to
// carry here.
type commandDoneMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// keyMap defines the dashboard key bindings.
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	GlobalUp   key.Binding
	GlobalDown key.Binding
	Mute       key.Binding
	PlayPause  key.Binding
	Next       key.Binding
	Previous   key.Binding
	Preset     key.Binding
	Solo       key.Binding
	Favorite   key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.VolumeUp, k.VolumeDown, k.PlayPause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.VolumeUp, k.VolumeDown},
		{k.GlobalUp, k.GlobalDown, k.Mute, k.PlayPause},
		{k.Next, k.Previous, k.Preset, k.Solo},
		{k.Favorite, k.Refresh, k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous zone"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next zone"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "volume down"),
		),
		GlobalUp: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "all volumes up"),
		),
		GlobalDown: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "all volumes down"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		PlayPause: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "play/pause"),
		),
		Next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next track"),
		),
		Previous: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "previous track"),
		),
		Preset: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6"),
			key.WithHelp("1-6", "preset"),
		),
		Solo: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "solo zone"),
		),
		Favorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "favorite"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan network"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the dashboard bubbletea model.
type Model struct {
	controller Controller
	alerts     *alert.Handler

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	Width  int
	Height int

	cursor int

	// Snapshot taken on each tick; View never touches the registry
	groups           []registry.CategoryGroup
	scanning         bool
	masterVolume     float64
	lastError        string
	permissionDenied bool

	quitting bool
}

// NewModel creates the dashboard model and takes the initial snapshot.
func NewModel(controller Controller, alerts *alert.Handler) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	m := Model{
		controller: controller,
		alerts:     alerts,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		Width:      80,
		Height:     24,
	}
	m.snapshot()
	return m
}

// Run starts the dashboard program and blocks until the user quits.
func Run(controller Controller, alerts *alert.Handler) error {
	p := tea.NewProgram(NewModel(controller, alerts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

// snapshot copies the registry state into the model.
func (m *Model) snapshot() {
	m.groups = m.controller.CategorizedGroups()
	m.scanning = m.controller.IsScanning()
	m.masterVolume = m.controller.MasterVolume()
	if m.alerts != nil {
		m.lastError = m.alerts.LastError()
		m.permissionDenied = m.alerts.PermissionDenied()
	}
	if total := m.zoneCount(); m.cursor >= total && total > 0 {
		m.cursor = total - 1
	}
}

func (m Model) zoneCount() int {
	total := 0
	for _, g := range m.groups {
		total += len(g.Devices)
	}
	return total
}

// selectedZone returns the device under the cursor, nil when the list is
// empty.
func (m Model) selectedZone() *zone.Device {
	i := m.cursor
	for _, g := range m.groups {
		if i < len(g.Devices) {
			return g.Devices[i]
		}
		i -= len(g.Devices)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.snapshot()
		return m, tick()

	case commandDoneMsg:
		m.snapshot()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.zoneCount()-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.VolumeUp):
		return m, m.zoneVolumeCmd(volumeStep)

	case key.Matches(msg, m.keys.VolumeDown):
		return m, m.zoneVolumeCmd(-volumeStep)

	case key.Matches(msg, m.keys.GlobalUp):
		return m, m.globalVolumeCmd(volumeStep)

	case key.Matches(msg, m.keys.GlobalDown):
		return m, m.globalVolumeCmd(-volumeStep)

	case key.Matches(msg, m.keys.Mute):
		return m, m.zoneCmd(m.controller.ToggleMute)

	case key.Matches(msg, m.keys.PlayPause):
		return m, m.zoneCmd(m.controller.TogglePlayPause)

	case key.Matches(msg, m.keys.Next):
		return m, m.zoneCmd(m.controller.NextTrack)

	case key.Matches(msg, m.keys.Previous):
		return m, m.zoneCmd(m.controller.PreviousTrack)

	case key.Matches(msg, m.keys.Solo):
		return m, m.zoneCmd(m.controller.ActivateSoloMode)

	case key.Matches(msg, m.keys.Preset):
		return m, m.presetCmd(msg.String())

	case key.Matches(msg, m.keys.Favorite):
		if device := m.selectedZone(); device != nil {
			m.controller.ToggleFavorite(device.Name)
			m.snapshot()
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, func() tea.Msg {
			m.controller.RefreshNetwork(context.Background())
			return commandDoneMsg{}
		}
	}
	return m, nil
}

// zoneCmd wraps a per-zone registry call in an async command targeting the
// selected zone.
func (m Model) zoneCmd(op func(context.Context, string)) tea.Cmd {
	device := m.selectedZone()
	if device == nil {
		return nil
	}
	name := device.Name
	return func() tea.Msg {
		op(context.Background(), name)
		return commandDoneMsg{}
	}
}

func (m Model) zoneVolumeCmd(delta int) tea.Cmd {
	device := m.selectedZone()
	if device == nil {
		return nil
	}
	name := device.Name
	level := zone.ClampVolume(device.Status.Volume + delta)
	return func() tea.Msg {
		m.controller.SetVolume(context.Background(), level, name)
		return commandDoneMsg{}
	}
}

func (m Model) globalVolumeCmd(delta int) tea.Cmd {
	level := zone.ClampVolume(int(m.masterVolume) + delta)
	return func() tea.Msg {
		m.controller.SetGlobalVolume(context.Background(), level)
		return commandDoneMsg{}
	}
}

func (m Model) presetCmd(digit string) tea.Cmd {
	device := m.selectedZone()
	if device == nil {
		return nil
	}
	preset := int(digit[0] - '0')
	if preset < 1 || preset > 6 {
		return nil
	}
	name := device.Name
	return func() tea.Msg {
		m.controller.TriggerPreset(context.Background(), preset, name)
		return commandDoneMsg{}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderStatusLine(),
		m.renderZones(),
		m.renderBanners(),
	)

	return RenderApplicationContainer(content, m.help.View(m.keys), m.Width, m.Height)
}

func (m Model) renderStatusLine() string {
	status := fmt.Sprintf("%d zones · master volume %.0f%%", m.zoneCount(), m.masterVolume)
	if m.scanning {
		status = m.spinner.View() + " scanning…  " + status
	}
	return StatusBarStyle.Render(status)
}

func (m Model) renderZones() string {
	if m.zoneCount() == 0 {
		if m.scanning {
			return DetailStyle.Render("Looking for zones on the local network…")
		}
		return DetailStyle.Render("No zones found. Press r to rescan.")
	}

	var sections []string
	index := 0
	for _, group := range m.groups {
		sections = append(sections, CategoryStyle.Render(group.Title))
		for _, device := range group.Devices {
			sections = append(sections, m.renderZoneRow(device, index == m.cursor))
			if index == m.cursor {
				if detail := renderNowPlaying(device); detail != "" {
					sections = append(sections, DetailStyle.Render(detail))
				}
			}
			index++
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderZoneRow(device *zone.Device, selected bool) string {
	marker := "  "
	if selected {
		marker = "→ "
	}
	star := " "
	if device.Preferences.IsFavorite {
		star = "★"
	}

	state := stateIcon(device)
	mute := "  "
	if device.Status.IsMuted {
		mute = "🔇"
	}

	row := fmt.Sprintf("%s%s %s %-28s %s %3d%% %s",
		marker, star, state, device.DisplayName(),
		RenderVolumeBar(device.Status.Volume), device.Status.Volume, mute)

	switch {
	case !device.IsOnline:
		return OfflineZoneRowStyle.Render(row + "  (offline)")
	case selected:
		return SelectedZoneRowStyle.Render(row)
	default:
		return ZoneRowStyle.Render(row)
	}
}

func stateIcon(device *zone.Device) string {
	if !device.IsOnline {
		return "○"
	}
	switch device.Status.PlaybackState {
	case zone.StatePlaying:
		return "▶"
	case zone.StatePaused:
		return "⏸"
	case zone.StateStopped:
		return "■"
	default:
		return "·"
	}
}

// renderNowPlaying builds the metadata line for the selected zone.
func renderNowPlaying(device *zone.Device) string {
	s := device.Status
	if s.Artist == "" && s.Title == "" {
		return ""
	}
	line := s.Title
	if s.Artist != "" {
		line = s.Artist + " · " + line
	}
	if s.Source != zone.SourceUnknown && s.Source != "" {
		line += "  [" + string(s.Source) + "]"
	}
	return line
}

func (m Model) renderBanners() string {
	var banners []string
	if m.permissionDenied {
		banners = append(banners, WarningBannerStyle.Render(
			"⚠ Local network access denied. Allow it in system settings, then press r."))
	}
	if m.lastError != "" {
		banners = append(banners, ErrorBannerStyle.Render("✗ "+m.lastError))
	}
	if len(banners) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, banners...)
}
