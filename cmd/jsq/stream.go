package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shubhamrasal/jsq/internal/app"
	"github.com/shubhamrasal/jsq/internal/jetstream"
	"github.com/shubhamrasal/jsq/internal/models"
)

var (
	streamSubjects  []string
	streamRetention string
	streamStorage   string
	streamReplicas  int
	streamMaxAge    time.Duration
	streamMaxMsgs   int64
	streamMaxBytes  int64
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Manage JetStream streams",
}

var streamAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := jetstream.StreamConfig{
			Name:      args[0],
			Subjects:  streamSubjects,
			Retention: jetstream.RetentionPolicy(streamRetention),
			Storage:   jetstream.StorageType(streamStorage),
			Replicas:  streamReplicas,
			MaxAge:    streamMaxAge,
			MaxMsgs:   streamMaxMsgs,
			MaxBytes:  streamMaxBytes,
		}

		info, err := a.JS.AddStream(cfg)
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}

		fmt.Printf("Created stream %s (subjects: %s)\n",
			info.Config.Name, strings.Join(info.Config.Subjects, ", "))
		return nil
	},
}

var streamRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.JS.DeleteStream(args[0]); err != nil {
			return fmt.Errorf("failed to delete stream: %w", err)
		}

		fmt.Printf("Deleted stream %s\n", args[0])
		return nil
	},
}

var streamPurgeCmd = &cobra.Command{
	Use:   "purge <name>",
	Short: "Purge all messages from a stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		purged, err := a.JS.PurgeStream(args[0])
		if err != nil {
			return fmt.Errorf("failed to purge stream: %w", err)
		}

		fmt.Printf("Purged %d messages from stream %s\n", purged, args[0])
		return nil
	},
}

var streamInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show stream information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.JS.StreamInfo(args[0])
		if err != nil {
			return fmt.Errorf("failed to get stream info: %w", err)
		}

		s := models.FromStreamInfo(info)
		fmt.Printf("Stream:    %s\n", s.Name)
		fmt.Printf("Subjects:  %s\n", strings.Join(s.Subjects, ", "))
		fmt.Printf("Retention: %s / %s, replicas %d\n", s.Retention, s.Storage, s.Replicas)
		fmt.Printf("Messages:  %d (%d bytes), seq %d-%d\n", s.Messages, s.Bytes, s.FirstSeq, s.LastSeq)
		fmt.Printf("Consumers: %d\n", s.Consumers)
		return nil
	},
}

var streamLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List streams",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.JS.StreamNames("")
		if err != nil {
			return fmt.Errorf("failed to list streams: %w", err)
		}

		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	streamAddCmd.Flags().StringSliceVar(&streamSubjects, "subjects", nil, "Subjects bound to the stream")
	streamAddCmd.Flags().StringVar(&streamRetention, "retention", "limits", "Retention policy (limits, interest, workqueue)")
	streamAddCmd.Flags().StringVar(&streamStorage, "storage", "file", "Storage backend (file, memory)")
	streamAddCmd.Flags().IntVar(&streamReplicas, "replicas", 1, "Number of replicas")
	streamAddCmd.Flags().DurationVar(&streamMaxAge, "max-age", 0, "Maximum message age (0 for unlimited)")
	streamAddCmd.Flags().Int64Var(&streamMaxMsgs, "max-msgs", -1, "Maximum message count (-1 for unlimited)")
	streamAddCmd.Flags().Int64Var(&streamMaxBytes, "max-bytes", -1, "Maximum total size (-1 for unlimited)")

	streamCmd.AddCommand(streamAddCmd, streamRmCmd, streamPurgeCmd, streamInfoCmd, streamLsCmd)
}
