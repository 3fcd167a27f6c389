package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shubhamrasal/jsq/internal/app"
	"github.com/shubhamrasal/jsq/internal/models"
)

var consumerCmd = &cobra.Command{
	Use:   "consumer",
	Short: "Manage JetStream consumers",
}

var consumerInfoCmd = &cobra.Command{
	Use:   "info <stream> <consumer>",
	Short: "Show consumer information",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.JS.ConsumerInfo(args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to get consumer info: %w", err)
		}

		c := models.FromConsumerInfo(info)
		fmt.Printf("Consumer:      %s (stream %s)\n", c.Name, c.Stream)
		if c.Durable != "" {
			fmt.Printf("Durable:       %s\n", c.Durable)
		}
		if c.FilterSubject != "" {
			fmt.Printf("Filter:        %s\n", c.FilterSubject)
		}
		if c.DeliverSubject != "" {
			fmt.Printf("Deliver to:    %s\n", c.DeliverSubject)
		} else {
			fmt.Printf("Mode:          pull\n")
		}
		fmt.Printf("Policies:      deliver=%s ack=%s replay=%s\n", c.DeliverPolicy, c.AckPolicy, c.ReplayPolicy)
		fmt.Printf("Ack wait:      %s, max deliver %d, max ack pending %d\n", c.AckWait, c.MaxDeliver, c.MaxAckPending)
		fmt.Printf("Pending:       %d, ack pending %d, redelivered %d\n", c.NumPending, c.NumAckPending, c.NumRedelivered)
		return nil
	},
}

var consumerRmCmd = &cobra.Command{
	Use:   "rm <stream> <consumer>",
	Short: "Delete a consumer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.JS.DeleteConsumer(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to delete consumer: %w", err)
		}

		fmt.Printf("Deleted consumer %s from stream %s\n", args[1], args[0])
		return nil
	},
}

var consumerLsCmd = &cobra.Command{
	Use:   "ls <stream>",
	Short: "List consumers of a stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.JS.ConsumerNames(args[0])
		if err != nil {
			return fmt.Errorf("failed to list consumers: %w", err)
		}

		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	consumerCmd.AddCommand(consumerInfoCmd, consumerRmCmd, consumerLsCmd)
}
