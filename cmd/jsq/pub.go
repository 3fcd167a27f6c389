package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shubhamrasal/jsq/internal/app"
	"github.com/shubhamrasal/jsq/internal/jetstream"
)

var (
	pubMsgID       string
	pubExpectSeq   uint64
	pubExpectMsgID string
	pubStream      string
)

var pubCmd = &cobra.Command{
	Use:   "pub <subject> <payload>",
	Short: "Publish a message and wait for the acknowledgement",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		var opts []jetstream.PubOpt
		if pubMsgID != "" {
			opts = append(opts, jetstream.WithMsgID(pubMsgID))
		}
		if pubExpectSeq > 0 {
			opts = append(opts, jetstream.WithExpectLastSequence(pubExpectSeq))
		}
		if pubExpectMsgID != "" {
			opts = append(opts, jetstream.WithExpectLastMsgID(pubExpectMsgID))
		}
		if pubStream != "" {
			opts = append(opts,
				jetstream.WithStream(pubStream),
				jetstream.WithExpectStream(pubStream))
		}

		ack, err := a.JS.Publish(args[0], []byte(args[1]), opts...)
		if err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}

		if ack.Duplicate {
			fmt.Printf("Duplicate: stream %s already stored this message at seq %d\n", ack.Stream, ack.Sequence)
		} else {
			fmt.Printf("Stored in stream %s at seq %d\n", ack.Stream, ack.Sequence)
		}
		return nil
	},
}

func init() {
	pubCmd.Flags().StringVar(&pubMsgID, "msg-id", "", "Deduplication message id")
	pubCmd.Flags().Uint64Var(&pubExpectSeq, "expect-last-seq", 0, "Require the stream's last sequence to match")
	pubCmd.Flags().StringVar(&pubExpectMsgID, "expect-last-msg-id", "", "Require the stream's last message id to match")
	pubCmd.Flags().StringVar(&pubStream, "stream", "", "Require the ack to come from this stream")
}
