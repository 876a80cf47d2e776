package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
)

func newToolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tool modes usable with --mode and /mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := chat.LoadCatalog(opts.cfg.UI.ToolsFile)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODE\tTITLE\tATTACHMENT")
			for _, tool := range catalog.Tools() {
				attach := ""
				if tool.WantsAttachment {
					attach = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", tool.Mode, tool.Title, attach)
			}
			return tw.Flush()
		},
	}
}
