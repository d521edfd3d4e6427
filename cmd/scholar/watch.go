package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xiaot623/scholar/internal/frame"
)

var watchCmd = &cobra.Command{
	Use:   "watch [conversation-id]",
	Short: "Mirror the frames of a conversation as they are produced",
	Long: `Watch connects to the server's WebSocket endpoint and prints every frame
produced for the conversation, whichever client sent the request. Without an
argument the stored conversation identity is watched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	var conversationID string
	if len(args) == 1 {
		conversationID = args[0]
	} else if conversationID, err = a.identity.Load(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", conversationID)
	return a.client.Watch(ctx, conversationID, func(f frame.Frame) {
		a.view.Labeled(string(f.Type()), describe(f))
	})
}

// describe is the one-line text of a mirrored frame.
func describe(f frame.Frame) string {
	switch v := f.(type) {
	case frame.Status:
		return v.Message
	case frame.Progress:
		return fmt.Sprintf("%d/%d %s", v.Step, v.TotalSteps, v.Message)
	case frame.Response:
		if v.Intent != "" {
			return fmt.Sprintf("(%s) %s", v.Intent, v.Response)
		}
		return v.Response
	case frame.Error:
		return v.Message
	case frame.Complete:
		return v.Message
	case frame.Unknown:
		return string(v.Raw)
	}
	return ""
}
