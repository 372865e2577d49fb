package main

import (
	"context"

	"github.com/spf13/cobra"
)

var resultLimit int

var addressCmd = &cobra.Command{
	Use:   "address <address>",
	Short: "Build the composite profile of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAnalyzer()
		if err != nil {
			return err
		}
		profile, err := a.AddressProfile(context.Background(), args[0], resultLimit)
		if err != nil {
			return err
		}
		return printJSON(profile)
	},
}

var auctionCmd = &cobra.Command{
	Use:   "auction <auction-id>",
	Short: "Build the composite profile of an auction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAnalyzer()
		if err != nil {
			return err
		}
		profile, err := a.AuctionProfile(context.Background(), args[0], resultLimit)
		if err != nil {
			return err
		}
		return printJSON(profile)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Snapshot committee and network health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAnalyzer()
		if err != nil {
			return err
		}
		health, err := a.NetworkHealth(context.Background())
		if err != nil {
			return err
		}
		return printJSON(health)
	},
}

var finalityCmd = &cobra.Command{
	Use:   "finality <tx-hash>",
	Short: "Verify how settled a transaction is",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAnalyzer()
		if err != nil {
			return err
		}
		report, err := a.VerifyFinality(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var attestationsCmd = &cobra.Command{
	Use:   "attestations",
	Short: "Summarize attestation performance over recent transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAnalyzer()
		if err != nil {
			return err
		}
		perf, err := a.AttestationPerformance(context.Background(), resultLimit)
		if err != nil {
			return err
		}
		return printJSON(perf)
	},
}

var lagCmd = &cobra.Command{
	Use:   "lag",
	Short: "Measure how far past-perfect-time trails the present",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAnalyzer()
		if err != nil {
			return err
		}
		lag, err := a.SettlementLag(context.Background())
		if err != nil {
			return err
		}
		return printJSON(lag)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{addressCmd, auctionCmd, attestationsCmd} {
		cmd.Flags().IntVar(&resultLimit, "limit", 10, "Max entries for list-shaped data")
	}
	rootCmd.AddCommand(addressCmd, auctionCmd, healthCmd, finalityCmd, attestationsCmd, lagCmd)
}
