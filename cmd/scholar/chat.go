package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session; type /quit to exit",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	conversationID, err := a.identity.Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Conversation %s. Commands: /new, /quit\n", conversationID)

	ctx := cmd.Context()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, a.view.Prompt())
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			if conversationID, err = a.identity.Reset(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Started conversation %s\n", conversationID)
			continue
		}

		if err := a.exchange(ctx, conversationID, line); err != nil && !errors.Is(err, errReported) {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}
