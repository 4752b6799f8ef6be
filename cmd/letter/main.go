// Command letter opens the Valentine letter in a terminal or submits an answer directly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	configPath string
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:           "letter",
	Short:         "A Valentine letter for the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config (optional)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "letter server base URL (overrides config)")
	rootCmd.AddCommand(playCmd, submitCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
