package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xchain-dex/pkg/chains"
	"xchain-dex/pkg/client"
	"xchain-dex/pkg/orchestrator"
)

var (
	rateRecipient string
	rateRefund    string
	rateAmount    string
)

var rateCmd = &cobra.Command{
	Use:   "rate <source-chain> <destination-chain>",
	Short: "Show the current exchange rate between two chains",
	Long: `Request a dry quote from the 1Click API and show how many destination
units one source unit buys. No funds are moved.

Examples:
  xchain-dex rate ethereum tezos --recipient tz1...
  xchain-dex rate SOL ETH --recipient 0x... --amount 2.5`,
	Args: cobra.ExactArgs(2),
	Run:  runRate,
}

func init() {
	rootCmd.AddCommand(rateCmd)

	rateCmd.Flags().StringVar(&rateRecipient, "recipient", "", "Address on the destination chain used for the quote (REQUIRED)")
	rateCmd.Flags().StringVar(&rateRefund, "refund", "", "Address on the source chain used for the quote (default: refund_address)")
	rateCmd.Flags().StringVar(&rateAmount, "amount", "", "Also estimate the output for this amount")
}

func runRate(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, logger, err := setup(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := cfg.RequireAPIToken(); err != nil {
		printError(err)
		os.Exit(1)
	}

	registry := chains.Default()
	source, err := registry.Resolve(args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	destination, err := registry.Resolve(args[1])
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if source.ID == destination.ID {
		printError(orchestrator.ErrSameChain)
		os.Exit(1)
	}
	if rateRecipient == "" {
		printError(fmt.Errorf("--recipient is required (address on %s)", destination.Name))
		os.Exit(1)
	}

	refund := rateRefund
	if refund == "" {
		refund = cfg.RefundAddress
	}

	oracle := client.NewRateOracle(client.NewOneClickClient(cfg.JWTToken, cfg.BaseURL, logger), registry, logger)
	oracle.SetProbeAddress(destination.ID, rateRecipient)
	if refund != "" {
		oracle.SetProbeAddress(source.ID, refund)
	}

	s := newSpinner("Fetching rate...", !jsonOutput)
	rate, err := oracle.GetRate(context.Background(), source.ID, destination.ID)
	s.Stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	var estimate string
	if rateAmount != "" {
		var ok bool
		estimate, ok = orchestrator.Estimate(rateAmount, rate, destination.Decimals)
		if !ok {
			printError(fmt.Errorf("invalid amount '%s'", rateAmount))
			os.Exit(1)
		}
	}

	if jsonOutput {
		out := map[string]interface{}{
			"source":      source.ID,
			"destination": destination.ID,
			"rate":        rate,
		}
		if estimate != "" {
			out["amount"] = rateAmount
			out["estimated_amount"] = estimate
		}
		printJSON(out)
		return
	}

	fmt.Printf("\n  %s %s → %s %s\n", source.Icon, source.Name, destination.Icon, destination.Name)
	fmt.Printf("  1 %s = %s %s\n", source.Symbol, color.GreenString("%g", rate), destination.Symbol)
	if estimate != "" {
		fmt.Printf("  %s %s ≈ %s %s\n", rateAmount, source.Symbol, color.GreenString(estimate), destination.Symbol)
	}
	fmt.Println()
}
