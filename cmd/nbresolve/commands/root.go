// Package commands implements the nbresolve CLI: a set of flags-in,
// name-or-address-out subcommands over the resolver library.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nbresolve",
	Short: "NetBIOS/AD name resolution from the command line",
	Long: `nbresolve looks up NetBIOS and Active Directory names the way a
Windows client's name-resolution stack would: lmhosts, hosts, WINS,
broadcast, and DNS SRV against AD, in a configurable order, with the same
caching and proximity ranking the library applies internally.

Use "nbresolve [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults + NBTRESOLVE_* env vars)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(masterCmd)
	rootCmd.AddCommand(pdcCmd)
	rootCmd.AddCommand(dclistCmd)
	rootCmd.AddCommand(versionCmd)
}
