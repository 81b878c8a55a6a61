package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/RomRMX/mothership/internal/zone"
)

// Groups command and flags
var (
	groupMembers []string
	groupMaster  string
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage saved zone groups",
	Long: `Manage saved multi-room groups.

A saved group is a named set of zones with one designated master.
Activating a group (from the dashboard or the bridge API) joins every
other online member to the master's multi-room session.`,
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved groups",
	RunE:  runGroupsList,
}

var groupsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a saved group from discovered zones",
	Long: `Create a saved group. Member zones are resolved by display name
against a fresh discovery scan, so the zones must be reachable when the
group is created.`,
	Example: `  mothership groups create "Morning" --members "Kitchen Planter,Patio Speaker" --master "Kitchen Planter"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runGroupsCreate,
}

var groupsDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a saved group by name or id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupsDelete,
}

func init() {
	groupsCreateCmd.Flags().StringSliceVar(&groupMembers, "members", nil, "Member zone names (comma-separated)")
	groupsCreateCmd.Flags().StringVar(&groupMaster, "master", "", "Master zone name (default: first member)")

	groupsCmd.AddCommand(groupsListCmd)
	groupsCmd.AddCommand(groupsCreateCmd)
	groupsCmd.AddCommand(groupsDeleteCmd)
	rootCmd.AddCommand(groupsCmd)
}

func runGroupsList(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	groups := a.manager.SavedGroups()
	if len(groups) == 0 {
		fmt.Println("No saved groups.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tMEMBERS")
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%s\t%d\n", g.Name, g.ID, len(g.Members))
	}
	return w.Flush()
}

func runGroupsCreate(cmd *cobra.Command, args []string) error {
	if len(groupMembers) == 0 {
		return fmt.Errorf("at least one --members zone is required")
	}

	a, err := buildApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Resolve member names against a fresh scan
	a.manager.StartDiscovery(ctx)
	deadline := time.Now().Add(10 * time.Second)
	for a.manager.IsScanning() && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			a.manager.StopDiscovery()
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	a.manager.StopDiscovery()

	var members []uuid.UUID
	var masterID uuid.UUID
	var resolved []*zone.Device
	for _, name := range groupMembers {
		device, ok := a.manager.Device(name)
		if !ok {
			return fmt.Errorf("zone %q not found on the network", name)
		}
		members = append(members, device.ID)
		resolved = append(resolved, device)
	}

	masterID = members[0]
	if groupMaster != "" {
		master, ok := a.manager.Device(groupMaster)
		if !ok {
			return fmt.Errorf("master zone %q not found on the network", groupMaster)
		}
		masterID = master.ID
	}

	group := a.manager.SaveGroup(args[0], members, masterID)
	fmt.Printf("Created group %q (%s) with %d members:\n", group.Name, group.ID, len(resolved))
	for _, d := range resolved {
		fmt.Printf("  %s (%s)\n", d.DisplayName(), d.IPAddress)
	}
	return nil
}

func runGroupsDelete(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	target := args[0]
	for _, g := range a.manager.SavedGroups() {
		if g.Name == target || g.ID.String() == target {
			a.manager.DeleteGroup(g.ID)
			fmt.Printf("Deleted group %q (%s)\n", g.Name, g.ID)
			return nil
		}
	}
	return fmt.Errorf("no saved group named %q", target)
}
