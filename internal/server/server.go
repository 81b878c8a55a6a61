package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RomRMX/mothership/internal/alert"
	"github.com/RomRMX/mothership/internal/logging"
	"github.com/RomRMX/mothership/internal/registry"
	"github.com/RomRMX/mothership/internal/zone"
)

// Controller is the slice of the registry the server consumes. Implemented
// by *registry.Manager; substituted by stubs in tests.
type Controller interface {
	Devices() []*zone.Device
	Device(name string) (*zone.Device, bool)
	CategorizedGroups() []registry.CategoryGroup
	IsScanning() bool
	RefreshNetwork(ctx context.Context)

	SetVolume(ctx context.Context, level int, name string)
	ToggleMute(ctx context.Context, name string)
	TogglePlayPause(ctx context.Context, name string)
	NextTrack(ctx context.Context, name string)
	PreviousTrack(ctx context.Context, name string)
	TriggerPreset(ctx context.Context, preset int, name string)
	MasterVolume() float64
	SetGlobalVolume(ctx context.Context, level int)
	ActivateSoloMode(ctx context.Context, name string)
	UpdateIPAddress(ip, name string)
	ToggleFavorite(name string)
	SetCustomName(customName, name string)

	SavedGroups() []zone.SavedGroup
	SaveGroup(name string, members []uuid.UUID, masterID uuid.UUID) zone.SavedGroup
	DeleteGroup(id uuid.UUID)
	ActivateGroup(ctx context.Context, group zone.SavedGroup)
	DeactivateGroup(ctx context.Context, group zone.SavedGroup)
}

// Config holds the server configuration.
type Config struct {
	// Addr is the listen address, loopback by default
	Addr string

	// PushInterval is how often the websocket hub re-checks the zone
	// snapshot for changes
	PushInterval time.Duration
}

// Server bridges the registry to HTTP and WebSocket clients.
type Server struct {
	config     Config
	controller Controller
	alerts     *alert.Handler
	hub        *hub
	httpServer *http.Server
}

// New creates a server wired to the registry and alert sink.
func New(config Config, controller Controller, alerts *alert.Handler) *Server {
	if config.PushInterval <= 0 {
		config.PushInterval = 500 * time.Millisecond
	}

	s := &Server{
		config:     config,
		controller: controller,
		alerts:     alerts,
		hub:        newHub(),
	}
	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start runs the listener until the context is cancelled, then shuts down
// gracefully. Blocks.
func (s *Server) Start(ctx context.Context) error {
	logging.Info("Starting zone bridge",
		zap.String("addr", s.config.Addr))

	pushCtx, cancelPush := context.WithCancel(ctx)
	defer cancelPush()
	go s.pushLoop(pushCtx)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutting down zone bridge")
		return s.shutdown()
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.hub.closeAll()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", zap.Error(err))
		return err
	}
	logging.Info("Zone bridge stopped")
	return nil
}

// pushLoop broadcasts the zone snapshot whenever it changes. Comparing the
// serialized form sidesteps deep-equality over the device tree.
func (s *Server) pushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.PushInterval)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			payload, err := s.snapshotPayload()
			if err != nil {
				logging.Error("Failed to build snapshot", zap.Error(err))
				continue
			}
			if string(payload) == string(last) {
				continue
			}
			last = payload
			s.hub.broadcast(payload)
		}
	}
}
