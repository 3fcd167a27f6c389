package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by goreleaser)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	natsURL    string
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "jsq",
	Short: "NATS JetStream client toolkit",
	Long:  `Manage JetStream streams and consumers, publish with acknowledgements, and subscribe through durable or ephemeral consumers`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jsq version %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&natsURL, "server", "s", "", "NATS server URL (overrides config file)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(consumerCmd)
	rootCmd.AddCommand(pubCmd)
	rootCmd.AddCommand(subCmd)
	rootCmd.AddCommand(msgCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
