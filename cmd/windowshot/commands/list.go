package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bryanchriswhite/WindowShot/internal/window"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List windows",
	Long: `List every window WindowShot can see.

This command connects to the X11 server and prints one snapshot of all
top-level windows, in the order the resolver would consider them.`,
	Example: `  # List windows in table format (default)
  windowshot list

  # List windows in JSON format
  windowshot list --format json

  # List applications with their window counts
  windowshot list --apps`,
	RunE: runList,
}

var (
	listFormat string
	listApps   bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
	listCmd.Flags().BoolVarP(&listApps, "apps", "a", false, "group windows by application")
}

func runList(cmd *cobra.Command, args []string) error {
	if listFormat != "table" && listFormat != "json" {
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}

	windowMgr, err := window.NewX11Manager()
	if err != nil {
		return fmt.Errorf("failed to connect to X11: %w", err)
	}
	defer windowMgr.Stop()

	out := cmd.OutOrStdout()

	if listApps {
		apps, err := windowMgr.GetApplications()
		if err != nil {
			return fmt.Errorf("failed to get applications: %w", err)
		}
		if listFormat == "json" {
			return encodeJSON(out, apps)
		}
		return printAppsTable(out, apps)
	}

	snap, err := windowMgr.Snapshot()
	if err != nil {
		return err
	}
	if listFormat == "json" {
		return encodeJSON(out, snap.Windows)
	}
	return printWindowsTable(out, snap.Windows)
}

func encodeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printWindowsTable(out io.Writer, windows []*window.Descriptor) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tAPPLICATION\tPID\tSTATE\tTITLE")
	fmt.Fprintln(w, "--\t-----------\t---\t-----\t-----")

	for _, win := range windows {
		fmt.Fprintf(w, "0x%x\t%s\t%d\t%s\t%s\n", win.ID, win.ApplicationName, win.PID, win.Minimized, win.Title)
	}

	return nil
}

func printAppsTable(out io.Writer, apps []window.Application) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tPID\tWINDOWS")
	fmt.Fprintln(w, "----\t---\t-------")

	for _, app := range apps {
		fmt.Fprintf(w, "%s\t%d\t%d\n", app.Name, app.PID, app.WindowCount)
	}

	return nil
}
