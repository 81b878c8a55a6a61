package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/RomRMX/mothership/internal/alert"
	"github.com/RomRMX/mothership/internal/config"
	"github.com/RomRMX/mothership/internal/control"
	"github.com/RomRMX/mothership/internal/control/bluos"
	"github.com/RomRMX/mothership/internal/control/linkplay"
	"github.com/RomRMX/mothership/internal/discovery"
	"github.com/RomRMX/mothership/internal/logging"
	"github.com/RomRMX/mothership/internal/registry"
	"github.com/RomRMX/mothership/internal/server"
	"github.com/RomRMX/mothership/internal/tui"
	"github.com/RomRMX/mothership/internal/zone"
)

// app bundles the wired component graph behind every subcommand.
type app struct {
	store   *config.Store
	manager *registry.Manager
	alerts  *alert.Handler
}

// buildApp wires config, transport clients, discovery, the alert sink and
// the registry together.
func buildApp() (*app, error) {
	var err error
	if logLevel != "" {
		err = logging.Initialize(logLevel)
	} else {
		err = logging.InitializeFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	var store *config.Store
	if configPath != "" {
		store, err = config.Open(configPath)
	} else {
		store, err = config.OpenDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}

	settings := store.Settings()
	if mockZones {
		settings.MockZones = true
	}

	clients := map[zone.Family]control.Client{
		zone.FamilyWiiM:      linkplay.New(),
		zone.FamilyBluesound: bluos.New(),
	}

	alerts := alert.NewHandler()
	manager := registry.New(settings, clients, discovery.NewBrowser(), store, alerts)

	return &app{store: store, manager: manager, alerts: alerts}, nil
}

// Dashboard command
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"run"},
	Short:   "Open the interactive zone dashboard",
	Long: `Open the full-screen terminal dashboard.

Discovery starts in the background and zones appear as they are found.
Navigate with the arrow keys; press ? inside the dashboard for the full
key reference.`,
	Example: `  # Open the dashboard
  mothership dashboard

  # Try the dashboard without any hardware on the network
  mothership dashboard --mock`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.manager.StartDiscovery(ctx)
	defer a.manager.StopDiscovery()

	return tui.Run(a.manager, a.alerts)
}

// Serve command and flags
var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the headless zone bridge",
	Long: `Run the JSON-over-HTTP bridge for local frontends.

The bridge serves the zone snapshot and control endpoints under /api/ and
pushes state changes to websocket clients on /ws. It binds to loopback by
default; it performs no authentication, so keep it on a trusted
interface.`,
	Example: `  # Serve on the configured loopback address
  mothership serve

  # Serve on a custom address with debug logging
  mothership serve --listen 127.0.0.1:9000 --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default: from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	addr := listenAddr
	if addr == "" {
		addr = a.store.Settings().ListenAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.manager.StartDiscovery(ctx)
	defer a.manager.StopDiscovery()

	srv := server.New(server.Config{Addr: addr}, a.manager, a.alerts)
	return srv.Start(ctx)
}

// Scan command and flags
var (
	scanTimeout time.Duration
	scanJSON    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover zones and print them",
	Long: `Run one discovery pass and print every zone that was found.

The scan waits for the discovery grace period to elapse, so slow
advertisers still make the list.`,
	Example: `  # Print found zones as a table
  mothership scan

  # Machine-readable output
  mothership scan --json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 10*time.Second, "Maximum time to wait for the scan to settle")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print zones as JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.manager.StartDiscovery(ctx)

	deadline := time.Now().Add(scanTimeout)
	for a.manager.IsScanning() && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			a.manager.StopDiscovery()
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	a.manager.StopDiscovery()

	devices := a.manager.Devices()
	if scanJSON {
		return json.NewEncoder(os.Stdout).Encode(devices)
	}

	if len(devices) == 0 {
		fmt.Println("No zones found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFAMILY\tADDRESS\tSTATE\tVOLUME")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s:%d\t%s\t%d%%\n",
			d.DisplayName(), d.Family, d.IPAddress, d.Port,
			d.Status.PlaybackState, d.Status.Volume)
	}
	return w.Flush()
}
