package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	speechModel "github.com/shanvika-ai/shanvika/client/internal/model/speech"
	speechService "github.com/shanvika-ai/shanvika/client/internal/service/speech"
)

func newSpeakCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Read text aloud with the backend voice",
		Long: `Fetch speech for text from the backend and play it with SHANVIKA_AUDIO_PLAYER.
With --out the audio is saved instead of played.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := speechService.CleanText(strings.Join(args, " "))
			if text == "" {
				return errors.New("nothing to say after cleaning the text")
			}
			api := newAPI(opts)

			if out != "" {
				audio, contentType, err := api.Speak(cmd.Context(), text)
				if err != nil {
					return fmt.Errorf("failed to synthesise speech: %w", err)
				}
				clip := speechModel.Clip{Audio: audio, ContentType: contentType}
				if clip.Empty() {
					return errors.New("backend returned no audio")
				}
				if err := os.WriteFile(out, audio, 0o644); err != nil {
					return fmt.Errorf("failed to write audio: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes (%s) to %s\n", len(audio), clip.Extension(), out)
				return nil
			}

			svc := speechService.NewService(api, speechService.ExecPlayer{Command: opts.cfg.Voice.Player}, "", opts.logger.Named("speech"))
			defer svc.Stop()
			if err := svc.Speak(cmd.Context(), text); err != nil {
				return err
			}
			return svc.Wait(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Save the audio to this file instead of playing it")
	return cmd
}
