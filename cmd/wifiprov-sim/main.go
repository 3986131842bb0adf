// Wifiprov-sim runs the WiFi provisioning state machine against a
// simulated radio on the local machine.
//
// It hosts the full device lifecycle, including the captive portal, the
// capture DNS responder, and all three reset triggers, with state
// persisted to a local file so restarts behave like device reboots.
// Point a browser at the portal address to walk through provisioning
// without any hardware.
//
// Usage:
//
//	wifiprov-sim run [flags]
//
// Running without arguments starts a simulation with defaults.
// See 'wifiprov-sim --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wifiprov/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wifiprov-sim",
	Short: "WiFi Provisioner Simulator",
	Long: `A local simulator for the WiFi provisioning state machine.

Runs the provisioner against a scripted radio environment with the
captive portal served on localhost, so the full provisioning flow can
be exercised from a browser. Device state persists to a file between
runs, and a triggered restart re-enters the state machine the way a
real reboot would.

If no command is specified, a simulation starts with default settings.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the simulation when no subcommand provided
		return runSim(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wifiprov-sim %s (commit: %s)\n", version.Version, version.Commit)
	},
}
