package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RomRMX/mothership/internal/logging"
	"github.com/RomRMX/mothership/internal/version"
	"github.com/RomRMX/mothership/internal/zone"
)

// zonesResponse is the full snapshot served by /api/zones and pushed over
// the websocket.
type zonesResponse struct {
	Scanning         bool           `json:"scanning"`
	MasterVolume     float64        `json:"masterVolume"`
	Zones            []*zone.Device `json:"zones"`
	Groups           []groupView    `json:"groups"`
	PermissionDenied bool           `json:"permissionDenied"`
	LastError        string         `json:"lastError,omitempty"`
}

type groupView struct {
	Title string         `json:"title"`
	Zones []*zone.Device `json:"zones"`
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /api/zones", s.handleZones)
	mux.HandleFunc("GET /api/zones/{name}", s.handleZone)
	mux.HandleFunc("POST /api/zones/{name}/volume", s.handleZoneVolume)
	mux.HandleFunc("POST /api/zones/{name}/mute", s.handleZoneMute)
	mux.HandleFunc("POST /api/zones/{name}/playpause", s.handleZonePlayPause)
	mux.HandleFunc("POST /api/zones/{name}/next", s.handleZoneNext)
	mux.HandleFunc("POST /api/zones/{name}/previous", s.handleZonePrevious)
	mux.HandleFunc("POST /api/zones/{name}/preset", s.handleZonePreset)
	mux.HandleFunc("POST /api/zones/{name}/solo", s.handleZoneSolo)
	mux.HandleFunc("POST /api/zones/{name}/address", s.handleZoneAddress)
	mux.HandleFunc("POST /api/zones/{name}/favorite", s.handleZoneFavorite)
	mux.HandleFunc("POST /api/zones/{name}/name", s.handleZoneName)
	mux.HandleFunc("POST /api/volume", s.handleGlobalVolume)
	mux.HandleFunc("GET /api/groups", s.handleGroupsList)
	mux.HandleFunc("POST /api/groups", s.handleGroupCreate)
	mux.HandleFunc("DELETE /api/groups/{id}", s.handleGroupDelete)
	mux.HandleFunc("POST /api/groups/{id}/activate", s.handleGroupActivate)
	mux.HandleFunc("POST /api/groups/{id}/deactivate", s.handleGroupDeactivate)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	mux.HandleFunc("POST /api/alerts/clear", s.handleAlertsClear)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return mux
}

func (s *Server) snapshot() zonesResponse {
	groups := s.controller.CategorizedGroups()
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, groupView{Title: g.Title, Zones: g.Devices})
	}

	return zonesResponse{
		Scanning:         s.controller.IsScanning(),
		MasterVolume:     s.controller.MasterVolume(),
		Zones:            s.controller.Devices(),
		Groups:           views,
		PermissionDenied: s.alerts.PermissionDenied(),
		LastError:        s.alerts.LastError(),
	}
}

func (s *Server) snapshotPayload() ([]byte, error) {
	return json.Marshal(s.snapshot())
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.Version})
}

func (s *Server) handleZones(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleZone(w http.ResponseWriter, r *http.Request) {
	device, ok := s.controller.Device(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown zone")
		return
	}
	writeJSON(w, http.StatusOK, device)
}

func (s *Server) handleZoneVolume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Level int `json:"level"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.controller.SetVolume(r.Context(), body.Level, r.PathValue("name"))
	writeAccepted(w)
}

func (s *Server) handleZoneMute(w http.ResponseWriter, r *http.Request) {
	s.controller.ToggleMute(r.Context(), r.PathValue("name"))
	writeAccepted(w)
}

func (s *Server) handleZonePlayPause(w http.ResponseWriter, r *http.Request) {
	s.controller.TogglePlayPause(r.Context(), r.PathValue("name"))
	writeAccepted(w)
}

func (s *Server) handleZoneNext(w http.ResponseWriter, r *http.Request) {
	s.controller.NextTrack(r.Context(), r.PathValue("name"))
	writeAccepted(w)
}

func (s *Server) handleZonePrevious(w http.ResponseWriter, r *http.Request) {
	s.controller.PreviousTrack(r.Context(), r.PathValue("name"))
	writeAccepted(w)
}

func (s *Server) handleZonePreset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Preset int `json:"preset"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Preset < 1 {
		writeError(w, http.StatusBadRequest, "preset must be a positive index")
		return
	}
	s.controller.TriggerPreset(r.Context(), body.Preset, r.PathValue("name"))
	writeAccepted(w)
}

func (s *Server) handleZoneSolo(w http.ResponseWriter, r *http.Request) {
	s.controller.ActivateSoloMode(r.Context(), r.PathValue("name"))
	writeAccepted(w)
}

func (s *Server) handleZoneAddress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IP string `json:"ip"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.controller.UpdateIPAddress(body.IP, r.PathValue("name"))
	writeAccepted(w)
}

func (s *Server) handleZoneFavorite(w http.ResponseWriter, r *http.Request) {
	s.controller.ToggleFavorite(r.PathValue("name"))
	writeAccepted(w)
}

func (s *Server) handleZoneName(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomName string `json:"customName"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.controller.SetCustomName(body.CustomName, r.PathValue("name"))
	writeAccepted(w)
}

func (s *Server) handleGlobalVolume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Level int `json:"level"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.controller.SetGlobalVolume(r.Context(), body.Level)
	writeAccepted(w)
}

func (s *Server) handleGroupsList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.SavedGroups())
}

func (s *Server) handleGroupCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string      `json:"name"`
		Members  []uuid.UUID `json:"members"`
		MasterID uuid.UUID   `json:"masterId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Name == "" || len(body.Members) == 0 {
		writeError(w, http.StatusBadRequest, "group needs a name and members")
		return
	}
	group := s.controller.SaveGroup(body.Name, body.Members, body.MasterID)
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) handleGroupDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	s.controller.DeleteGroup(id)
	writeAccepted(w)
}

func (s *Server) handleGroupActivate(w http.ResponseWriter, r *http.Request) {
	group, ok := s.findGroup(w, r)
	if !ok {
		return
	}
	s.controller.ActivateGroup(r.Context(), group)
	writeAccepted(w)
}

func (s *Server) handleGroupDeactivate(w http.ResponseWriter, r *http.Request) {
	group, ok := s.findGroup(w, r)
	if !ok {
		return
	}
	s.controller.DeactivateGroup(r.Context(), group)
	writeAccepted(w)
}

func (s *Server) findGroup(w http.ResponseWriter, r *http.Request) (zone.SavedGroup, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return zone.SavedGroup{}, false
	}
	for _, group := range s.controller.SavedGroups() {
		if group.ID == id {
			return group, true
		}
	}
	writeError(w, http.StatusNotFound, "unknown group")
	return zone.SavedGroup{}, false
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// The refresh owns its own lifetime; tying it to the request context
	// would cancel the new scan as soon as the response is written
	s.controller.RefreshNetwork(context.WithoutCancel(r.Context()))
	writeAccepted(w)
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"recent":           s.alerts.Recent(),
		"permissionDenied": s.alerts.PermissionDenied(),
	})
}

func (s *Server) handleAlertsClear(w http.ResponseWriter, _ *http.Request) {
	s.alerts.Clear()
	writeAccepted(w)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode response", zap.Error(err))
	}
}

func writeAccepted(w http.ResponseWriter) {
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
