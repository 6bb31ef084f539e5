package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pdcAdsSecurity bool

var pdcCmd = &cobra.Command{
	Use:   "pdc DOMAIN",
	Short: "Resolve a domain's primary domain controller",
	Long: `Resolve DOMAIN's primary domain controller (name type 0x1B). With
--ads-security, the ADS SRV lookup is tried first and the configured
resolve order is only used as a fallback.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		result, err := a.Resolver.GetPDCIP(cmd.Context(), args[0], pdcAdsSecurity)
		if err != nil {
			return fmt.Errorf("resolving PDC for %s: %w", args[0], err)
		}
		cmd.Println(formatService(result))
		return nil
	},
}

func init() {
	pdcCmd.Flags().BoolVar(&pdcAdsSecurity, "ads-security", false, "try the ADS SRV lookup ahead of the configured resolve order")
}
