package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
	"github.com/shanvika-ai/shanvika/client/internal/render"
	"github.com/shanvika-ai/shanvika/client/internal/service/turn"
	"github.com/shanvika-ai/shanvika/client/internal/transcript"
	"github.com/shanvika-ai/shanvika/client/internal/tui"
)

var errTurnFailed = errors.New("message was not answered")

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}
}

func runChat(cmd *cobra.Command, opts *rootOptions) error {
	a, err := newApp(opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(cmd.Context(), tui.Options{
		Controller:    a.controller,
		Workspace:     a.workspace,
		Transcript:    a.transcript,
		Catalog:       a.catalog,
		MarkdownStyle: a.cfg.UI.MarkdownStyle,
		Logger:        opts.logger.Named("tui"),
	})
}

func newSendCmd(opts *rootOptions) *cobra.Command {
	var (
		mode    string
		attach  string
		fresh   bool
		session string
	)

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send one message and print the reply",
		Long: `Send one message in the current conversation and print the reply.

The conversation continues the one used last, unless --new or --session is given.`,
		Example: `  shanvika send "Summarise this" --attach report.pdf
  shanvika send --mode qr_generator https://example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" && attach == "" {
				return errors.New("nothing to send: give a message or --attach a file")
			}

			a, err := newApp(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			switch {
			case fresh:
				a.controller.ResetSession()
			case session != "":
				a.controller.BindSession(session)
			}
			if mode != "" {
				a.controller.SetMode(mode)
			}
			if attach != "" {
				att, err := chat.LoadAttachment(attach)
				if err != nil {
					return err
				}
				a.controller.Attach(att)
			}

			outcome := a.controller.Submit(cmd.Context(), text)

			term, err := render.NewTerminal(a.cfg.UI.MarkdownStyle, render.DefaultWordWrap)
			if err != nil {
				return err
			}
			printReplies(cmd.OutOrStdout(), term, a.transcript.Entries())

			if a.controller.Voice() && outcome == turn.OutcomeReplied {
				_ = a.speech.Wait(cmd.Context())
			}

			switch outcome {
			case turn.OutcomeFailed, turn.OutcomeAborted:
				return errTurnFailed
			case turn.OutcomeCanceled:
				return cmd.Context().Err()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Tool mode for this message, e.g. image_gen")
	cmd.Flags().StringVarP(&attach, "attach", "a", "", "File to attach")
	cmd.Flags().BoolVar(&fresh, "new", false, "Start a new conversation")
	cmd.Flags().StringVar(&session, "session", "", "Send into this conversation")
	cmd.MarkFlagsMutuallyExclusive("new", "session")
	return cmd
}

// printReplies writes the assistant side of entries.
func printReplies(w io.Writer, term *render.Terminal, entries []transcript.Entry) {
	for _, entry := range entries {
		if entry.Role == transcript.RoleUser || entry.Kind == transcript.KindPlaceholder {
			continue
		}
		fmt.Fprintln(w, term.Render(entry.Format, entry.Source))
	}
}
