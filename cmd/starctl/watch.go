package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"star-notary/internal/domain"
	"star-notary/internal/stream"
)

func (c *cli) watchCmd() *cobra.Command {
	var (
		types []string
		token string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream committed events as JSON",
		Example: `  # Every event
  starctl watch

  # Sales of one star, stop after the first
  starctl watch --type StarSold --token 7 --limit 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter stream.Filter
			for _, t := range types {
				filter.Types = append(filter.Types, domain.EventType(t))
			}
			if token != "" {
				id, err := parseTokenID(token)
				if err != nil {
					return err
				}
				filter.TokenID = id
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.watch(ctx, filter, limit)
		},
	}

	cmd.Flags().StringArrayVarP(&types, "type", "t", nil, "event type to include (repeatable)")
	cmd.Flags().StringVar(&token, "token", "", "only events about this token id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "exit after this many events (0 = unlimited)")
	return cmd
}

// watch prints matching events until ctx ends, the stream closes, or limit
// events have been printed.
func (c *cli) watch(ctx context.Context, filter stream.Filter, limit int) error {
	cl, err := c.client()
	if err != nil {
		return err
	}

	conn, err := stream.Dial(ctx, cl.EventsURL(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	events, err := conn.Subscribe(ctx, filter)
	if err != nil {
		return err
	}

	for n := 0; limit == 0 || n < limit; n++ {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := c.print(e); err != nil {
				return err
			}
		}
	}
	return nil
}
