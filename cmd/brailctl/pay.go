package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/brail/marketplace/internal/client"
	"github.com/brail/marketplace/internal/pkg/poll"
)

func newPayCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Follow PIX payments",
	}
	cmd.AddCommand(newPayWaitCmd(g))
	return cmd
}

func newPayWaitCmd(g *globals) *cobra.Command {
	var (
		interval time.Duration
		attempts int
	)
	cmd := &cobra.Command{
		Use:   "wait <intent-id>",
		Short: "Poll a payment intent until it succeeds or fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := g.client().WaitForPaymentWith(cmd.Context(), args[0], client.PaymentWait{Interval: interval, MaxAttempts: attempts})
			switch {
			case errors.Is(err, poll.ErrTimeout):
				return fmt.Errorf("payment %s still pending after %d checks", args[0], attempts)
			case errors.Is(err, client.ErrPaymentFailed):
				return fmt.Errorf("payment %s failed: %s", args[0], in.Status)
			case err != nil:
				return fmt.Errorf("payment %s: %s", args[0], client.ErrorMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "payment %s %s\n", in.IntentID, in.Status)
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", poll.DefaultInterval, "time between checks")
	cmd.Flags().IntVar(&attempts, "attempts", poll.DefaultMaxAttempts, "maximum number of checks")
	return cmd
}
