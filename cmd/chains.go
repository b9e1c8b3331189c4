package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xchain-dex/pkg/chains"
	"xchain-dex/pkg/client"
	"xchain-dex/pkg/deposit"
)

var listTokens bool

var chainsCmd = &cobra.Command{
	Use:     "chains",
	Aliases: []string{"ls"},
	Short:   "List supported chains",
	Long: `List the chains transfers can be made between.

With --tokens, the 1Click API is asked which tokens it supports on those chains.

Examples:
  xchain-dex chains
  xchain-dex chains --tokens`,
	Run: runChains,
}

func init() {
	rootCmd.AddCommand(chainsCmd)

	chainsCmd.Flags().BoolVar(&listTokens, "tokens", false, "Also list 1Click tokens on the supported chains")
}

type chainInfo struct {
	ID          chains.ID `json:"id"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	Decimals    int32     `json:"decimals"`
	RouteChain  string    `json:"route_chain"`
	AutoDeposit bool      `json:"auto_deposit"`
}

func runChains(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, logger, err := setup(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	registry := chains.Default()
	deposits := deposit.NewManager(cfg.AutoDeposit, cfg.Wallet, logger)

	infos := make([]chainInfo, 0, len(registry.IDs()))
	for _, d := range registry.Descriptors() {
		infos = append(infos, chainInfo{
			ID:          d.ID,
			Name:        d.Name,
			Symbol:      d.Symbol,
			Decimals:    d.Decimals,
			RouteChain:  d.RouteChain,
			AutoDeposit: deposits.IsEnabledForChain(d),
		})
	}

	var tokens []oneclick.TokenResponse
	if listTokens {
		if err := cfg.RequireAPIToken(); err != nil {
			printError(err)
			os.Exit(1)
		}

		apiClient := client.NewOneClickClient(cfg.JWTToken, cfg.BaseURL, logger)

		s := newSpinner("Fetching supported tokens...", !jsonOutput)
		tokens, err = apiClient.GetSupportedTokens(context.Background())
		s.Stop()
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		tokens = tokensOnChains(tokens, registry)
	}

	if jsonOutput {
		out := map[string]interface{}{"chains": infos}
		if listTokens {
			out["tokens"] = tokens
		}
		printJSON(out)
		return
	}

	displayChains(registry, infos)
	if listTokens {
		displayTokens(tokens)
	}
}

// tokensOnChains keeps the tokens that live on a registered chain
func tokensOnChains(tokens []oneclick.TokenResponse, registry *chains.Registry) []oneclick.TokenResponse {
	routes := make(map[string]bool)
	for _, d := range registry.Descriptors() {
		routes[strings.ToLower(d.RouteChain)] = true
	}

	var filtered []oneclick.TokenResponse
	for _, token := range tokens {
		if routes[strings.ToLower(token.GetBlockchain())] {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

func displayChains(registry *chains.Registry, infos []chainInfo) {
	banner("SUPPORTED CHAINS", 70)

	fmt.Printf("\n  %-4s %-12s %-10s %-8s %-10s %s\n", "", "ID", "NAME", "SYMBOL", "DECIMALS", "AUTO-DEPOSIT")
	fmt.Println("  " + strings.Repeat("-", 66))
	for _, info := range infos {
		d, _ := registry.Get(info.ID)
		auto := color.HiBlackString("no")
		if info.AutoDeposit {
			auto = color.GreenString("yes")
		}
		fmt.Printf("  %-4s %-12s %-10s %-8s %-10d %s\n",
			d.Icon, info.ID, info.Name, color.YellowString("%-6s", info.Symbol), info.Decimals, auto)
	}

	rule(70)
}

func displayTokens(tokens []oneclick.TokenResponse) {
	if len(tokens) == 0 {
		fmt.Println("No tokens found on the supported chains.")
		return
	}

	banner("SUPPORTED TOKENS", 90)

	byChain := make(map[string][]oneclick.TokenResponse)
	for _, token := range tokens {
		byChain[token.GetBlockchain()] = append(byChain[token.GetBlockchain()], token)
	}

	routes := make([]string, 0, len(byChain))
	for route := range byChain {
		routes = append(routes, route)
	}
	sort.Strings(routes)

	for _, route := range routes {
		color.Cyan("\n%s", strings.ToUpper(route))
		fmt.Println(strings.Repeat("-", 90))

		for _, token := range byChain[route] {
			address := token.GetContractAddress()
			if len(address) > 40 {
				address = address[:37] + "..."
			}

			fmt.Printf("  %-10s  %2.0f decimals  %s\n",
				color.YellowString(token.GetSymbol()),
				token.GetDecimals(),
				color.HiBlackString(address))
		}
	}

	rule(90)
	fmt.Printf("Total: %d tokens across %d blockchains\n\n", len(tokens), len(routes))
}
