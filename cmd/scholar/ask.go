package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xiaot623/scholar/internal/client"
	"github.com/xiaot623/scholar/internal/stream"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask one question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	conversationID, err := a.identity.Load()
	if err != nil {
		return err
	}
	return a.exchange(cmd.Context(), conversationID, strings.Join(args, " "))
}

// exchange sends one message and renders the reply. It returns errReported
// when the reply ended in an error the view already showed.
func (a *app) exchange(ctx context.Context, conversationID, message string) error {
	if a.profile.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.profile.Timeout)
		defer cancel()
	}

	var outcome stream.Outcome
	if a.profile.Stream {
		session, err := a.client.Stream(ctx, conversationID, message, a.view)
		if err != nil {
			a.logger.Debug("stream failed", "error", err)
		}
		outcome = session.Outcome()
	} else {
		resp, err := a.client.Ask(ctx, conversationID, message)
		if err != nil {
			a.logger.Debug("request failed", "error", err)
			a.view.RenderError(stream.TransportFailureMessage)
			return errReported
		}
		outcome = client.RenderAnswer(a.view, resp, a.logger).Outcome()
	}

	switch outcome {
	case stream.OutcomeProducerError, stream.OutcomeTransportFailure:
		return errReported
	}
	return nil
}
