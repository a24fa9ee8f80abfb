package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ValentinKolb/gridlock/cmd/bench"
	"github.com/ValentinKolb/gridlock/cmd/internal/config"
	"github.com/ValentinKolb/gridlock/cmd/serve"
)

const Version = "0.1.0"

var (
	// RootCmd represents the base command when called without any subcommands.
	RootCmd = &cobra.Command{
		Use:   "gridlock",
		Short: "spatial grid lock toy server and benchmark tool",
		Long: fmt.Sprintf(`gridlock (v%s)

A library and CLI around a spatial grid lock: a concurrency primitive
that partitions 3D space into a uniform grid and lets many goroutines
acquire exclusive access to individual cells or axis-aligned cubic
neighborhoods around them.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of gridlock",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gridlock v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	key := "backend"
	RootCmd.PersistentFlags().String(key, "priority", config.Wrap("lock-table back-end to use (non-blocking, priority, mutex)"))
	key = "n"
	RootCmd.PersistentFlags().Int(key, 16, config.Wrap("number of cells per axis (grid holds n^3 cells total)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", config.Wrap("log level for the bench/serve commands (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(); it only needs to
// happen once to the RootCmd.
func Execute() {
	config.Init()
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
