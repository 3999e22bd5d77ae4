package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/wordtip/internal/cli"
	"codeberg.org/snonux/wordtip/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	// Create processor
	proc, err := processor.NewProcessor(flags)
	if err != nil {
		return err
	}
	defer proc.Close()

	// Handle --list-models flag
	if flags.ListModels {
		return proc.ListModels()
	}

	// Handle --recent flag
	if flags.Recent > 0 {
		return proc.ShowRecent(flags.Recent)
	}

	// Handle --serve flag
	if flags.Serve {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return proc.Serve(ctx)
	}

	// Handle batch processing
	if flags.BatchFile != "" {
		return proc.ProcessBatch()
	}

	// Process single word
	if len(args) > 0 {
		return proc.ProcessSingleWord(args[0])
	}

	fmt.Println("Nothing to do. Pass a word, --batch FILE or --serve (see --help).")
	return nil
}
