package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xchain-dex/pkg/client"
	"xchain-dex/pkg/history"
	"xchain-dex/pkg/monitor"
)

var (
	historyStatusFilter string
	historyRefresh      bool
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show submitted transfers",
	Long: `Show transfers submitted from this machine, newest first.
Pass a transfer ID to see its details.

Examples:
  xchain-dex history
  xchain-dex history --status pending
  xchain-dex history --refresh
  xchain-dex history 3f2c...`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a transfer from the history",
	Args:  cobra.ExactArgs(1),
	Run:   runHistoryDelete,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	historyCmd.Flags().StringVar(&historyStatusFilter, "status", "", "Filter by status (pending, deposited, completed, failed)")
	historyCmd.Flags().BoolVar(&historyRefresh, "refresh", false, "Check open transfers against the 1Click API first")
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, logger, err := setup(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	store, err := history.NewStore(cfg.HistoryPath)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if historyRefresh {
		if err := cfg.RequireAPIToken(); err != nil {
			printError(err)
			os.Exit(1)
		}

		apiClient := client.NewOneClickClient(cfg.JWTToken, cfg.BaseURL, logger)
		watcher := monitor.NewWatcher(apiClient, logger, monitor.WithStore(store))

		s := newSpinner("Refreshing open transfers...", !jsonOutput)
		settled, err := watcher.CheckOpen(context.Background())
		s.Stop()
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		logger.Info().Int("settled", settled).Msg("Open transfers refreshed")
	}

	if len(args) == 1 {
		record, err := store.Resolve(args[0])
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(record)
		} else {
			displayRecord(record)
		}
		return
	}

	var records []*history.Record
	if historyStatusFilter != "" {
		records = store.ListByStatus(history.Status(strings.ToLower(historyStatusFilter)))
	} else {
		records = store.List()
	}

	if jsonOutput {
		printJSON(records)
		return
	}

	if len(records) == 0 {
		color.Yellow("No transfers found.\n")
		fmt.Println("\nStart a transfer with:")
		color.Cyan("  xchain-dex transfer <amount> <source-chain> to <destination-chain> --recipient <address>\n")
		return
	}

	banner("TRANSFER HISTORY", 110)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nID\tCREATED\tROUTE\tAMOUNT\tEXPECTED\tRECEIVED\tSTATUS")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateString(r.ID, 8),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%s -> %s", r.SourceChain, r.DestinationChain),
			r.Amount,
			valueOrDash(r.EstimatedOutput),
			valueOrDash(r.ActualOutput),
			getColoredStatus(string(r.Status)))
	}

	w.Flush()
	rule(110)
}

func runHistoryDelete(cmd *cobra.Command, args []string) {
	cfg, _, err := setup(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	store, err := history.NewStore(cfg.HistoryPath)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	record, err := store.Resolve(args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if err := store.Delete(record.ID); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Transfer %s removed from history", record.ID))
}

func displayRecord(r *history.Record) {
	banner("TRANSFER", 70)

	fmt.Printf("\n  ID:              %s\n", r.ID)
	fmt.Printf("  Status:          %s\n", getColoredStatus(string(r.Status)))
	if r.RemoteStatus != "" {
		fmt.Printf("  API Status:      %s\n", getColoredStatus(r.RemoteStatus))
	}
	fmt.Printf("  Created:         %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if r.CompletedAt != nil {
		fmt.Printf("  Completed:       %s\n", r.CompletedAt.Local().Format("2006-01-02 15:04:05"))
	}

	fmt.Printf("\n  Route:           %s -> %s\n", r.SourceChain, r.DestinationChain)
	fmt.Printf("  Amount:          %s\n", r.Amount)
	fmt.Printf("  Recipient:       %s\n", color.HiBlackString(r.RecipientAddress))
	if r.RefundAddress != "" {
		fmt.Printf("  Refund To:       %s\n", color.HiBlackString(r.RefundAddress))
	}

	if r.DepositAddress != "" {
		fmt.Printf("\n  Deposit Address: %s\n", color.CyanString(r.DepositAddress))
	}
	if r.DepositMemo != "" {
		fmt.Printf("  Deposit Memo:    %s\n", color.MagentaString(r.DepositMemo))
	}
	if r.DepositTxHash != "" {
		fmt.Printf("  Deposit Tx:      %s\n", color.HiBlackString(r.DepositTxHash))
	}
	if r.DestinationTxHash != "" {
		fmt.Printf("  Withdrawal Tx:   %s\n", color.HiBlackString(r.DestinationTxHash))
	}
	fmt.Printf("  Expected:        %s\n", valueOrDash(r.EstimatedOutput))
	fmt.Printf("  Received:        %s\n", valueOrDash(r.ActualOutput))

	if r.ErrorMessage != "" {
		fmt.Printf("\n  Error:           %s\n", color.RedString(r.ErrorMessage))
	}

	rule(70)
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
