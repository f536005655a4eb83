// Portwalk - topology-aware access port locator and VLAN changer
//
// Portwalk finds the physical access port behind a MAC address (or the IP in
// front of it) by logging into a site's core switch and walking trunk links
// switch by switch until the port that actually faces the endpoint is found.
// It can then move that port to a new access/voice VLAN, verify the change
// stuck, and save it.
//
// Write commands preview their config by default and require -x to execute.
//
// Examples:
//
//	portwalk -s hq locate 0011.2233.4455         # where does this MAC live?
//	portwalk -s hq locate 10.0.50.23             # same, starting from an IP
//	portwalk -s hq vlan set 10.0.50.23 --access 50 --voice 150 -x
//	portwalk audit list --host 10.0.0.2          # what changed recently?
//	portwalk                                     # guided interactive mode
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/portwalk-net/portwalk/pkg/config"
	"github.com/portwalk-net/portwalk/pkg/util"
	"github.com/portwalk-net/portwalk/pkg/version"
)

var (
	cfgPath     string // --config
	siteName    string // -s, --site
	verbose     bool   // -v
	executeMode bool   // -x
	assumeYes   bool   // --yes
	jsonOutput  bool   // --json

	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "portwalk",
	Short:         "Topology-aware access port locator and VLAN changer",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `Portwalk logs into a site's core switch, finds where a MAC (or IP) is
learned, and follows trunk links hop by hop to the access port facing the
endpoint. Write commands preview by default; use -x to execute.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}

		if cfgPath == "" {
			cfgPath = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
	// Bare invocation drops into the guided flow.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Guided locate-and-change flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("portwalk " + version.Info())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default ~/.portwalk/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&siteName, "site", "s", "", "Site name from the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	for _, cmd := range []*cobra.Command{locateCmd} {
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "JSON output")
	}
	vlanSetCmd.Flags().BoolVarP(&executeMode, "execute", "x", false, "Execute the change (default is preview)")
	vlanSetCmd.Flags().BoolVar(&assumeYes, "yes", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(locateCmd, vlanCmd, sitesCmd, auditCmd, interactiveCmd, versionCmd)
}
