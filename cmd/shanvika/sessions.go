package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shanvika-ai/shanvika/client/internal/render"
	"github.com/shanvika-ai/shanvika/client/internal/transcript"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history [query]",
		Short: "List saved conversations, optionally filtered by title",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.workspace.History(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to list conversations: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No conversations found.")
				return nil
			}
			current := a.controller.SessionID()
			for _, item := range items {
				marker := " "
				if item.ID == current {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-12s %s\n", marker, item.ID, item.Title)
			}
			return nil
		},
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Open a saved conversation and print it",
		Long:  "Open a saved conversation, print it, and make it the one \"send\" continues.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.workspace.LoadChat(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to load conversation: %w", err)
			}

			term, err := render.NewTerminal(a.cfg.UI.MarkdownStyle, render.DefaultWordWrap)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, entry := range a.transcript.Entries() {
				if entry.Role == transcript.RoleUser {
					fmt.Fprintf(out, "You: %s\n\n", entry.Source)
					continue
				}
				fmt.Fprintf(out, "Shanvika:\n%s\n\n", term.Render(entry.Format, entry.Source))
			}
			return nil
		},
	}
}

func newRenameCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <session-id> <title>",
		Short: "Rename a saved conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			renamed, err := a.workspace.RenameChat(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("failed to rename conversation: %w", err)
			}
			if renamed {
				fmt.Fprintln(cmd.OutOrStdout(), "Renamed.")
			}
			return nil
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			wasCurrent, err := a.workspace.DeleteChat(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete conversation: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			if wasCurrent {
				fmt.Fprintln(cmd.OutOrStdout(), "The next message starts a new conversation.")
			}
			return nil
		},
	}
}

func newDeleteAllCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every saved conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete every conversation without --yes")
			}

			a, err := newApp(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.workspace.DeleteAllChats(cmd.Context()); err != nil {
				return fmt.Errorf("failed to delete conversations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All conversations deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deleting everything")
	return cmd
}
