package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netbios-go/nbtresolve/internal/ipservice"
)

var preferIPv4 bool

var resolveCmd = &cobra.Command{
	Use:   "resolve NAME[#xx]",
	Short: "Resolve a single NetBIOS name to one address",
	Long: `Resolve NAME (optionally suffixed "#xx" with a hex name type, default
workstation 0x00) through the configured resolve order, printing the first
address the orchestrator's own preference picks.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := parseName(args[0])
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		result, err := a.Resolver.ResolveName(cmd.Context(), name, preferIPv4)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", name, err)
		}
		cmd.Println(formatService(result))
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&preferIPv4, "prefer-ipv4", true, "prefer a non-broadcast IPv4 result when one is present")
}

func formatService(s ipservice.IPService) string {
	if s.Port == ipservice.None {
		return s.Addr.String()
	}
	return fmt.Sprintf("%s:%d", s.Addr, s.Port)
}
