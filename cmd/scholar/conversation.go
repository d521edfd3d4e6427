package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var conversationCmd = &cobra.Command{
	Use:   "conversation",
	Short: "Inspect or reset the conversation identity",
}

var conversationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the conversation identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		id, err := a.identity.Load()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var conversationResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start a new conversation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		id, err := a.identity.Reset()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Started conversation %s\n", id)
		return nil
	},
}

var conversationHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the latest messages of the conversation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		id, err := a.identity.Load()
		if err != nil {
			return err
		}
		messages, err := a.client.Messages(cmd.Context(), id, historyLimit)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No messages yet.")
			return nil
		}
		for _, m := range messages {
			a.view.Labeled(string(m.Role), m.Content)
		}
		return nil
	},
}

func init() {
	conversationHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of messages to show")

	conversationCmd.AddCommand(conversationShowCmd, conversationResetCmd, conversationHistoryCmd)
	rootCmd.AddCommand(conversationCmd)
}
