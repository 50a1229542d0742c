package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/cache"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/config"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/presence"
)

func presenceCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "presence <board-id>",
		Short: "Show the participants mirrored to Redis for a board",
		Long: `Show the participants mirrored to Redis for a board.

With --follow, keep printing join/leave updates for the board until
interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("REDIS_ADDR is not set")
			}

			client, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return err
			}
			defer client.Close()

			mirror := presence.NewMirror(client.Client(), 1)
			members, err := mirror.Members(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d participant(s) on %s\n", len(members), args[0])
			for _, m := range members {
				fmt.Fprintf(out, "  %s  %s (%s)\n", m.SID, m.DisplayName, m.UserID)
			}
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sub := mirror.Subscribe(ctx)
			defer sub.Close()
			return followPresence(ctx, sub, args[0], out)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream join/leave updates")
	return cmd
}

// followPresence prints updates for boardID until ctx is done.
func followPresence(ctx context.Context, sub *redis.PubSub, boardID string, out io.Writer) error {
	// wait for the subscription before reporting ready
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	fmt.Fprintf(out, "Following %s (Ctrl+C to stop)\n", boardID)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var u presence.Update
			if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil || u.BoardID != boardID {
				continue
			}
			at := time.Unix(u.At, 0).Format("15:04:05")
			fmt.Fprintf(out, "%s %-6s %s  %s (%s)\n", at, u.Action, u.SID, u.DisplayName, u.UserID)
		}
	}
}
