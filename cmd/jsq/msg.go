package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shubhamrasal/jsq/internal/app"
	"github.com/shubhamrasal/jsq/internal/models"
)

var msgCmd = &cobra.Command{
	Use:   "msg",
	Short: "Inspect and delete stored messages",
}

var msgGetCmd = &cobra.Command{
	Use:   "get <stream> <seq>",
	Short: "Get a message from a stream by sequence",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid sequence %q: %w", args[1], err)
		}

		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		stored, err := a.JS.GetMsg(args[0], seq)
		if err != nil {
			return fmt.Errorf("failed to get message: %w", err)
		}

		m := models.FromStoredMsg(stored)
		fmt.Printf("Seq %d on %s at %s (%d bytes)\n", m.Sequence, m.Subject, m.Timestamp, m.Size)
		fmt.Println(string(m.Data))
		return nil
	},
}

var msgRmCmd = &cobra.Command{
	Use:   "rm <stream> <seq>",
	Short: "Delete a message from a stream by sequence",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid sequence %q: %w", args[1], err)
		}

		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.JS.DeleteMsg(args[0], seq); err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}

		fmt.Printf("Deleted message %d from stream %s\n", seq, args[0])
		return nil
	},
}

func init() {
	msgCmd.AddCommand(msgGetCmd, msgRmCmd)
}
