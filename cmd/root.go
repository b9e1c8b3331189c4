package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"xchain-dex/config"
)

var rootCmd = &cobra.Command{
	Use:   "xchain-dex",
	Short: "A CLI for cross-chain transfers between Ethereum, Tezos and Solana",
	Long: `xchain-dex moves native assets between chains using the NEAR Intents 1Click API.
Connect a wallet, pick a chain pair, enter an amount and a recipient, and the
transfer is initiated for you.

Examples:
  xchain-dex transfer 1.5 ETH to XTZ --recipient tz1...
  xchain-dex rate ethereum solana --recipient <solana-addr>
  xchain-dex chains
  xchain-dex status <deposit-address> --watch
  xchain-dex history`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address while the command runs (e.g. :9090)")
}

// setup loads the configuration and builds the logger for a command
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		return nil, newLogger("info", verbose), err
	}

	return cfg, newLogger(cfg.LogLevel, verbose), nil
}

// newLogger writes human-readable logs to stderr so stdout stays clean for JSON output
func newLogger(level string, verbose bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(out).With().Timestamp().Logger()

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}

	return logger.Level(lvl)
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}

func printJSON(v interface{}) {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(jsonData))
}

func newSpinner(suffix string, enabled bool) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	if enabled {
		s.Start()
	}
	return s
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func banner(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	pad := (width - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	color.Green("%s%s", strings.Repeat(" ", pad), title)
	fmt.Println(strings.Repeat("=", width))
}

func rule(width int) {
	fmt.Println("\n" + strings.Repeat("=", width) + "\n")
}

func getColoredStatus(status string) string {
	status = strings.ToUpper(status)

	switch status {
	case "SUCCESS", "COMPLETED":
		return color.GreenString(status)
	case "PENDING_DEPOSIT", "PENDING", "PROCESSING", "DEPOSITED":
		return color.YellowString(status)
	case "FAILED", "REFUNDED", "ERROR":
		return color.RedString(status)
	case "INCOMPLETE_DEPOSIT":
		return color.MagentaString(status)
	default:
		return status
	}
}
