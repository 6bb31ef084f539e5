package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netbios-go/nbtresolve/internal/resolver"
)

var (
	dclistSite    string
	dclistKDCOnly bool
	dclistADSOnly bool
	dclistSorted  bool
	dclistOrder   string
)

var dclistCmd = &cobra.Command{
	Use:   "dclist DOMAIN",
	Short: "List a domain's candidate domain controllers",
	Long: `Assemble DOMAIN's candidate domain controller list: by default the
SAF-remembered server and configured password server ahead of a "*"
wildcard expansion through the configured resolve order. --ads-only and
--kdc restrict the wildcard to a single method (ADS SRV or Kerberos KDC
SRV respectively); --ads-only additionally requires "host" to appear in
--order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if dclistADSOnly && dclistKDCOnly {
			return fmt.Errorf("--ads-only and --kdc are mutually exclusive")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		lookupType := resolver.DCNormal
		switch {
		case dclistKDCOnly:
			lookupType = resolver.DCKDCOnly
		case dclistADSOnly:
			lookupType = resolver.DCAdsOnly
		}

		var userOrder []string
		if dclistOrder != "" {
			userOrder = strings.Split(dclistOrder, ",")
		}

		list := a.Resolver.GetDCList
		if dclistSorted {
			list = a.Resolver.GetSortedDCList
		}

		services, err := list(cmd.Context(), args[0], dclistSite, lookupType, userOrder)
		if err != nil {
			return fmt.Errorf("listing domain controllers for %s: %w", args[0], err)
		}
		for _, s := range services {
			cmd.Println(formatService(s))
		}
		return nil
	},
}

func init() {
	dclistCmd.Flags().StringVar(&dclistSite, "site", "", "AD site name to narrow SRV queries to")
	dclistCmd.Flags().BoolVar(&dclistKDCOnly, "kdc", false, "list Kerberos KDCs instead of domain controllers")
	dclistCmd.Flags().BoolVar(&dclistADSOnly, "ads-only", false, "restrict the wildcard candidate to the ADS SRV method")
	dclistCmd.Flags().BoolVar(&dclistSorted, "sorted", false, "re-sort the result by proximity when it wasn't already ordered")
	dclistCmd.Flags().StringVar(&dclistOrder, "order", "", "comma-separated resolve order, consulted by --ads-only for a \"host\" token")
}
