package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"xchain-dex/config"
	"xchain-dex/pkg/chains"
	"xchain-dex/pkg/client"
	"xchain-dex/pkg/deposit"
	"xchain-dex/pkg/history"
	"xchain-dex/pkg/monitor"
	"xchain-dex/pkg/orchestrator"
	"xchain-dex/pkg/parser"
	"xchain-dex/pkg/types"
	"xchain-dex/pkg/wallet"
)

var (
	recipientAddr  string
	noConfirm      bool
	waitCompletion bool
	waitInterval   int
)

var transferCmd = &cobra.Command{
	Use:   "transfer <amount> <source-chain> to <destination-chain>",
	Short: "Transfer a native asset to another chain",
	Long: `Transfer a chain's native asset to another chain using the NEAR Intents 1Click API.

Chains can be given by name, identifier or native symbol (ethereum/ETH, tezos/XTZ, solana/SOL).
The wallet configured under "wallet" is connected first; with auto_deposit enabled and an
evm or solana wallet, the deposit is sent for you.

Examples:
  xchain-dex transfer 1.5 ETH to XTZ --recipient tz1...
  xchain-dex transfer 2 solana to ethereum --recipient 0x... --yes
  xchain-dex transfer 10 XTZ to SOL --recipient <solana-addr> --wait`,
	Args: cobra.MinimumNArgs(1),
	Run:  runTransfer,
}

func init() {
	rootCmd.AddCommand(transferCmd)

	transferCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient address on the destination chain (REQUIRED)")
	transferCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompts")
	transferCmd.Flags().BoolVar(&waitCompletion, "wait", false, "Wait until the transfer completes")
	transferCmd.Flags().IntVar(&waitInterval, "interval", 10, "Polling interval in seconds (with --wait)")
}

// confirmingExecutor keeps the last confirmation so it can be displayed after submission
type confirmingExecutor struct {
	next orchestrator.TransferExecutor
	last types.Confirmation
}

func (c *confirmingExecutor) Submit(ctx context.Context, req types.TransferRequest) (types.Confirmation, error) {
	confirmation, err := c.next.Submit(ctx, req)
	if err == nil {
		c.last = confirmation
	}
	return confirmation, err
}

func runTransfer(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	interactive := !jsonOutput

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

	command, err := parser.ParseTransferCommand(strings.Join(args, " "), registry)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if recipientAddr == "" {
		printError(fmt.Errorf("--recipient is required (address on %s)", command.Destination.Name))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, stopMetrics := startMetrics(cmd, logger)
	defer stopMetrics()

	apiClient := client.NewOneClickClient(cfg.JWTToken, cfg.BaseURL, logger)

	provider, err := wallet.New(walletConfig(cfg), command.Source, logger)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	oracle := client.NewRateOracle(apiClient, registry, logger)
	oracle.SetProbeAddress(command.Destination.ID, recipientAddr)
	if cfg.RefundAddress != "" {
		oracle.SetProbeAddress(command.Source.ID, cfg.RefundAddress)
	}

	var deposits client.DepositSender
	depositMgr := deposit.NewManager(cfg.AutoDeposit, cfg.Wallet, logger)
	if depositMgr.IsEnabledForChain(command.Source) {
		deposits = depositMgr
	}

	store, err := history.NewStore(cfg.HistoryPath)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	newExecutor := func(sender client.DepositSender) orchestrator.TransferExecutor {
		return history.NewRecorder(
			client.NewExecutor(apiClient, registry, sender, cfg.RefundAddress, logger),
			store,
			logger,
		)
	}
	executor := &confirmingExecutor{next: newExecutor(deposits)}

	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithChainPair(command.Source.ID, command.Destination.ID),
	}
	if cfg.ValidateAddresses {
		opts = append(opts, orchestrator.WithAddressValidation())
	}
	if reg != nil {
		opts = append(opts, orchestrator.WithMetrics(reg))
	}

	orch, err := orchestrator.New(registry, provider, oracle, executor, opts...)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if interactive {
		unsubscribe := orch.Subscribe(statusPrinter())
		defer unsubscribe()
	}

	// Connect wallet
	s := newSpinner("Connecting wallet...", interactive)
	state := orch.ConnectWallet(ctx)
	s.Stop()
	if state != orchestrator.Connected {
		os.Exit(1)
	}

	snap := orch.Snapshot()
	if cfg.RefundAddress == "" && snap.WalletAddress != "" {
		oracle.SetProbeAddress(command.Source.ID, snap.WalletAddress)
	}

	// Fetch rate
	s = newSpinner("Fetching rate...", interactive)
	orch.RefreshRate(ctx)
	s.Stop()

	orch.SetAmount(command.Amount)
	orch.SetRecipientAddress(recipientAddr)
	snap = orch.Snapshot()

	if interactive {
		displayEstimate(snap, command)
	}

	if interactive && !noConfirm {
		if !confirm("Proceed with transfer?") {
			fmt.Println("\nTransfer cancelled.")
			os.Exit(0)
		}
		if deposits != nil && !cfg.AutoDeposit.AutoConfirm {
			if !confirm(fmt.Sprintf("Send %s %s from your wallet automatically?", command.Amount, command.Source.Symbol)) {
				executor.next = newExecutor(nil)
			}
		}
	}

	s = newSpinner("Submitting transfer...", interactive)
	status := orch.SubmitTransfer(ctx)
	s.Stop()

	if jsonOutput {
		printJSON(map[string]interface{}{
			"state":        orch.Snapshot(),
			"confirmation": executor.last,
		})
	}

	if !status.IsSuccess() {
		os.Exit(1)
	}

	if interactive {
		displayConfirmation(executor.last, command)
	}

	if !waitCompletion {
		if interactive {
			fmt.Println("You can monitor the transfer status using:")
			color.Cyan("  xchain-dex status %s\n", executor.last.DepositAddress)
		}
		return
	}

	waitForTransfer(ctx, apiClient, store, executor.last.DepositAddress, interactive, logger)
}

// walletConfig falls back to the refund address for a watch-only wallet
func walletConfig(cfg *config.Config) config.WalletConfig {
	w := cfg.Wallet
	if w.Address == "" {
		w.Address = cfg.RefundAddress
	}
	return w
}

// statusPrinter prints each status the orchestrator moves to
func statusPrinter() func(orchestrator.Snapshot) {
	var last orchestrator.TransactionStatus
	return func(snap orchestrator.Snapshot) {
		if snap.Status == last {
			return
		}
		last = snap.Status

		switch {
		case snap.Status.IsSuccess():
			color.Green("\n✓ %s", snap.Status.Message)
		case snap.Status.IsFailure():
			color.Red("\n✗ %s", snap.Status.Message)
		case snap.Status.IsPending():
			color.Yellow("\n… Transfer pending")
		}
	}
}

func displayEstimate(snap orchestrator.Snapshot, command *parser.TransferCommand) {
	banner("TRANSFER", 60)

	fmt.Printf("\n  From:              %s %s %s\n", command.Source.Icon, command.Source.Name, color.HiBlackString(snap.WalletAddress))
	fmt.Printf("  To:                %s %s %s\n", command.Destination.Icon, command.Destination.Name, color.HiBlackString(snap.RecipientAddress))
	fmt.Printf("  Amount:            %s %s\n", snap.Amount, color.YellowString(command.Source.Symbol))
	fmt.Printf("  Rate:              1 %s = %g %s\n", command.Source.Symbol, snap.Rate, command.Destination.Symbol)
	if snap.HasEstimate {
		fmt.Printf("  Estimated Output:  ~%s %s\n", snap.EstimatedAmount, color.YellowString(command.Destination.Symbol))
	}

	rule(60)
}

func displayConfirmation(confirmation types.Confirmation, command *parser.TransferCommand) {
	if confirmation.DepositTxHash != "" {
		color.Green("\n✓ Deposit sent successfully!")
		fmt.Printf("  Transaction ID:    %s\n", color.CyanString(confirmation.DepositTxHash))
		fmt.Printf("  Expected Output:   ~%s %s\n", confirmation.EstimatedOutput, command.Destination.Symbol)
		if confirmation.TimeEstimate > 0 {
			fmt.Printf("  Estimated Time:    %s\n", confirmation.TimeEstimate.Round(time.Second))
		}
		fmt.Println()
		return
	}

	banner("DEPOSIT INSTRUCTIONS", 60)
	fmt.Printf("\nTo complete the transfer, send %s %s to:\n\n", confirmation.AmountIn, command.Source.Symbol)
	color.Cyan("  %s\n", confirmation.DepositAddress)

	if confirmation.DepositMemo != "" {
		fmt.Printf("\nMemo (REQUIRED): %s\n", color.MagentaString(confirmation.DepositMemo))
	}
	fmt.Printf("\nExpected output: ~%s %s\n", confirmation.EstimatedOutput, command.Destination.Symbol)

	rule(60)
}

func waitForTransfer(ctx context.Context, apiClient *client.OneClickClient, store *history.Store, depositAddress string, interactive bool, logger zerolog.Logger) {
	interval := time.Duration(waitInterval) * time.Second
	if interval < monitor.MinInterval {
		interval = monitor.MinInterval
	}

	watcher := monitor.NewWatcher(apiClient, logger,
		monitor.WithStore(store),
		monitor.WithInterval(interval),
		monitor.WithMaxAttempts(0),
	)

	if interactive {
		fmt.Printf("Waiting for completion (checking every %s, Ctrl+C to stop)...\n", interval)
	}

	progress, err := watcher.Watch(ctx, depositAddress, func(p *types.TransferProgress) {
		if interactive {
			fmt.Printf("  %s  %s\n", time.Now().Format("15:04:05"), getColoredStatus(p.Status))
		}
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if interactive {
		displayProgress(progress)
	} else {
		printJSON(progress)
	}

	if progress.IsFailed() {
		os.Exit(1)
	}
}
