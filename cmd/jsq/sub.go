package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shubhamrasal/jsq/internal/app"
	"github.com/shubhamrasal/jsq/internal/jetstream"
)

var (
	subStream      string
	subDurable     string
	subQueue       string
	subManualAck   bool
	subMetricsAddr string
)

var subCmd = &cobra.Command{
	Use:   "sub <subject>",
	Short: "Subscribe through a JetStream consumer and print messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(natsURL, configPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		if subMetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
			go func() {
				if err := http.ListenAndServe(subMetricsAddr, mux); err != nil {
					fmt.Fprintf(os.Stderr, "metrics endpoint failed: %v\n", err)
				}
			}()
		}

		handler := func(msg *nats.Msg) {
			fmt.Printf("[%s] %s\n", msg.Subject, string(msg.Data))
		}

		var opts []jetstream.SubOpt
		if subStream != "" {
			opts = append(opts, jetstream.BindStream(subStream))
		}
		if subDurable != "" {
			opts = append(opts, jetstream.Durable(subDurable))
		}
		if subManualAck {
			opts = append(opts, jetstream.ManualAck())
		}

		var sub *jetstream.Subscription
		if subQueue != "" {
			sub, err = a.JS.QueueSubscribe(args[0], subQueue, handler, opts...)
		} else {
			sub, err = a.JS.Subscribe(args[0], handler, opts...)
		}
		if err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}
		defer sub.Unsubscribe()

		fmt.Printf("Listening on %s (stream %s, consumer %s)\n", args[0], sub.Stream(), sub.Consumer())

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		return nil
	},
}

func init() {
	subCmd.Flags().StringVar(&subStream, "stream", "", "Bind to this stream instead of resolving by subject")
	subCmd.Flags().StringVar(&subDurable, "durable", "", "Durable consumer name")
	subCmd.Flags().StringVar(&subQueue, "queue", "", "Queue group name")
	subCmd.Flags().BoolVar(&subManualAck, "manual-ack", false, "Disable automatic acknowledgement")
	subCmd.Flags().StringVar(&subMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}
