package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/scaffold/internal/messages"
)

func newTemplatesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.TemplatesUse,
		Short: messages.TemplatesShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			cat := cfg.Catalog()
			out := cmd.OutOrStdout()
			src := cat.Source()
			_, _ = fmt.Fprintf(out, messages.TemplatesHeaderFmt, src.Owner+"/"+src.RepoPrefix+"*")
			for _, name := range cat.Names() {
				format := messages.TemplatesLineFmt
				if name == cat.Default() {
					format = messages.TemplatesDefaultFmt
				}
				_, _ = fmt.Fprintf(out, format, name)
			}
			return nil
		},
	}
}
