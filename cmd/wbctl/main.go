package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wbctl",
		Short: "Operator tool for the collaborative whiteboard server",
		Long: `wbctl inspects and maintains a whiteboard deployment.

Configuration is read from the same environment variables (and optional
.env file) as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		tokenCmd(),
		checkDBCmd(),
		boardsCmd(),
		presenceCmd(),
	)
	return root
}
