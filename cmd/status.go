package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xchain-dex/pkg/client"
	"xchain-dex/pkg/history"
	"xchain-dex/pkg/monitor"
	"xchain-dex/pkg/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <deposit-address>",
	Short: "Check the status of a transfer",
	Long: `Check the execution status of a cross-chain transfer by its deposit address.
Transfers recorded in the local history are updated with the result.

Examples:
  xchain-dex status 0x1234...abcd
  xchain-dex status 0x1234...abcd --watch
  xchain-dex status 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates until the transfer completes")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	depositAddress := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, logger, err := setup(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient := client.NewOneClickClient(cfg.JWTToken, cfg.BaseURL, logger)

	opts := []monitor.Option{}
	if store, err := history.NewStore(cfg.HistoryPath); err != nil {
		logger.Warn().Err(err).Msg("Transfer history unavailable")
	} else {
		opts = append(opts, monitor.WithStore(store))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !watchStatus {
		s := newSpinner("Checking transfer status...", !jsonOutput)
		progress, err := monitor.NewWatcher(apiClient, logger, opts...).Check(ctx, depositAddress)
		s.Stop()
		if err != nil {
			printError(err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(progress)
		} else {
			displayProgress(progress)
		}
		return
	}

	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	interval := time.Duration(watchInterval) * time.Second
	if interval < monitor.MinInterval {
		interval = monitor.MinInterval
	}
	opts = append(opts, monitor.WithInterval(interval), monitor.WithMaxAttempts(0))

	fmt.Printf("\nWatching transfer status (Deposit Address: %s)\n", color.CyanString(depositAddress))
	fmt.Printf("Checking every %s. Press Ctrl+C to stop.\n", interval)

	progress, err := monitor.NewWatcher(apiClient, logger, opts...).Watch(ctx, depositAddress, displayProgress)
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if progress.IsFailed() {
		os.Exit(1)
	}
}

func displayProgress(progress *types.TransferProgress) {
	banner("TRANSFER STATUS", 70)

	fmt.Printf("\n  Deposit Address: %s\n", color.CyanString(progress.DepositAddress))
	fmt.Printf("  Status:          %s\n", getColoredStatus(progress.Status))
	if !progress.UpdatedAt.IsZero() {
		fmt.Printf("  Last Updated:    %s\n", progress.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}

	for _, hash := range progress.OriginTxHashes {
		fmt.Printf("  Deposit Tx:      %s\n", color.HiBlackString(hash))
	}
	if progress.DestinationTxHash != "" {
		fmt.Printf("  Withdrawal Tx:   %s\n", color.HiBlackString(progress.DestinationTxHash))
	}

	if progress.AmountIn != "" {
		fmt.Printf("  Amount In:       %s\n", progress.AmountIn)
	}
	if progress.AmountOut != "" {
		fmt.Printf("  Amount Out:      %s\n", progress.AmountOut)
	}

	rule(70)
}
