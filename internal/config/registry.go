package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/RomRMX/mothership/internal/logging"
	"github.com/RomRMX/mothership/internal/zone"
	"go.uber.org/zap"
)

const (
	appName    = "mothership"
	configFile = "config.yaml"
)

// GetConfigDir returns the OS-appropriate configuration directory for the
// application:
//   - Linux: $XDG_CONFIG_HOME/mothership or $HOME/.config/mothership
//   - macOS: $HOME/.config/mothership (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\mothership
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Store owns the configuration file: settings plus the persisted zone
// preferences and saved groups. One Store is constructed at process start
// and injected into every component that needs it.
//
// Mutating calls write through immediately (last-write-wins); write
// failures are logged, not escalated, per the persistence contract.
type Store struct {
	mu       sync.Mutex
	path     string
	registry *Registry
}

// Open loads (or initializes) the configuration file at path.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenDefault opens the configuration file in the OS config directory,
// creating the directory if needed.
func OpenDefault() (*Store, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return Open(path)
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.registry = NewRegistry()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", s.path, err)
	}
	reg.normalize()
	s.registry = &reg
	return nil
}

// save writes the registry to disk atomically (temp file + rename).
// Callers must hold s.mu.
func (s *Store) save() {
	data, err := yaml.Marshal(s.registry)
	if err != nil {
		logging.Error("Failed to marshal config", zap.Error(err))
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		logging.Error("Failed to write config", zap.String("path", tmp), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		logging.Error("Failed to replace config", zap.String("path", s.path), zap.Error(err))
	}
}

// Settings returns a copy of the application settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.registry.Settings
}

// UpdateSettings mutates the settings and writes through.
func (s *Store) UpdateSettings(mutate func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(s.registry.Settings)
	s.save()
}

// LoadPreferences returns all persisted zone preferences keyed by display
// name.
func (s *Store) LoadPreferences() map[string]zone.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]zone.Preferences, len(s.registry.Preferences))
	for name, prefs := range s.registry.Preferences {
		out[name] = prefs
	}
	return out
}

// SavePreference applies a mutation to the preferences stored for a
// display name and writes through.
func (s *Store) SavePreference(name string, mutate func(*zone.Preferences)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.registry.Preferences[name]
	mutate(&prefs)
	s.registry.Preferences[name] = prefs
	s.save()
}

// LoadGroups returns the persisted saved groups.
func (s *Store) LoadGroups() []zone.SavedGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]zone.SavedGroup(nil), s.registry.Groups...)
}

// SaveGroups replaces the persisted saved groups and writes through.
func (s *Store) SaveGroups(groups []zone.SavedGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.Groups = append([]zone.SavedGroup(nil), groups...)
	s.save()
}
