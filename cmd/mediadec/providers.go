package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thesyncim/mediadec"
)

func providersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the decoder engines available on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.registry.EnsureInitialized()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODEC\tPROVIDER\tLICENSE\tNATIVE\tINTER FRAMES")
			for _, codec := range []mediadec.Codec{mediadec.CodecAAC, mediadec.CodecVP8, mediadec.CodecTheora} {
				providers := a.registry.Providers(codec)
				if len(providers) == 0 {
					fmt.Fprintf(w, "%s\t-\t\t\t\n", codec)
					continue
				}
				for _, p := range providers {
					f := p.Features()
					fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%v\n", codec, p, p.License(),
						f.Has(mediadec.FeatureNative), f.Has(mediadec.FeatureInterFrames))
				}
			}
			return w.Flush()
		},
	}
}
