package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shanvika-ai/shanvika/client/internal/client"
	"github.com/shanvika-ai/shanvika/client/internal/model/profile"
)

func newAPI(opts *rootOptions) *client.Client {
	return client.New(opts.cfg.Backend.BaseURL, client.WithLogger(opts.logger.Named("client")))
}

func reportStatus(w io.Writer, status profile.StatusResponse, done string) error {
	if !status.OK() {
		msg := status.Message
		if msg == "" {
			msg = status.Status
		}
		return fmt.Errorf("backend refused the request: %s", msg)
	}
	if status.Message != "" {
		done = status.Message
	}
	fmt.Fprintln(w, done)
	return nil
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the account profile, or rename it with --name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := newAPI(opts)
			out := cmd.OutOrStdout()

			if strings.TrimSpace(name) != "" {
				status, err := api.UpdateProfile(cmd.Context(), strings.TrimSpace(name))
				if err != nil {
					return fmt.Errorf("failed to update profile: %w", err)
				}
				return reportStatus(out, status, "Profile updated.")
			}

			p, err := api.Profile(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load profile: %w", err)
			}
			plan := p.Plan
			if p.IsPro() {
				plan += " 👑"
			}
			fmt.Fprintf(out, "Name:   %s\n", p.Name)
			fmt.Fprintf(out, "Plan:   %s\n", plan)
			fmt.Fprintf(out, "Avatar: %s\n", p.AvatarURL())
			if p.CustomInstruction != "" {
				fmt.Fprintf(out, "Instruction:\n  %s\n", p.CustomInstruction)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	return cmd
}

func newInstructionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "instruction <text>",
		Short: "Save the custom instruction Shanvika follows in every chat",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newAPI(opts).SaveInstruction(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to save instruction: %w", err)
			}
			return reportStatus(cmd.OutOrStdout(), status, "Instruction saved.")
		},
	}
}

func newMemoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "List what Shanvika remembers about you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			memories, err := newAPI(opts).Memories(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load memories: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(memories) == 0 {
				fmt.Fprintln(out, "No memories yet.")
				return nil
			}
			for _, m := range memories {
				fmt.Fprintf(out, "• %s\n", m)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <text>",
		Short: "Teach Shanvika a new fact",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newAPI(opts).AddMemory(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to add memory: %w", err)
			}
			return reportStatus(cmd.OutOrStdout(), status, "Memory added.")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "forget <text>",
		Short: "Delete a memory by its exact text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newAPI(opts).DeleteMemory(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to delete memory: %w", err)
			}
			return reportStatus(cmd.OutOrStdout(), status, "Memory deleted.")
		},
	})
	return cmd
}

func newDiaryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diary",
		Short: "Read Shanvika's diary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := newAPI(opts).DiaryEntries(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load diary: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "The diary is empty.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s %s  %s\n%s\n\n", e.MoodEmoji(), e.Date, e.Mood, e.Content)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "write",
		Short: "Ask Shanvika to write today's diary entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newAPI(opts).TriggerDiary(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to trigger diary: %w", err)
			}
			return reportStatus(cmd.OutOrStdout(), status, "Diary entry written.")
		},
	})
	return cmd
}
