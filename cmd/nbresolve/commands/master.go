package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var masterCmd = &cobra.Command{
	Use:   "master GROUP",
	Short: "Find a workgroup's local master browser",
	Long: `Resolve GROUP's local master browser, trying the master-browser name
type (0x1D) before falling back to the domain master browser type (0x1B).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		result, err := a.Resolver.FindMasterIP(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("finding master browser for %s: %w", args[0], err)
		}
		cmd.Println(formatService(result))
		return nil
	},
}
