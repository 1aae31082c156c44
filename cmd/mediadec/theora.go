package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thesyncim/mediadec"
)

func theoraHeadersCommand(a *app) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "theora-headers FILE",
		Short: "Split and describe a Theora header blob",
		Long: `Split a Theora header blob (container codec-private data) into its
identification, comment and setup headers and print the stream description.
With --open the headers are also fed to a decoder engine.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			headers, err := mediadec.SplitTheoraHeaders(blob)
			if err != nil {
				return err
			}
			info, err := headers.Info()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "offsets:   %v\n", headers.Offsets)
			fmt.Fprintf(out, "lengths:   %v\n", headers.Lengths())
			fmt.Fprintf(out, "version:   %d.%d.%d\n", info.Version[0], info.Version[1], info.Version[2])
			fmt.Fprintf(out, "frame:     %dx%d\n", info.FrameWidth, info.FrameHeight)
			fmt.Fprintf(out, "picture:   %dx%d+%d+%d\n", info.PictureWidth, info.PictureHeight, info.PictureX, info.PictureY)
			fmt.Fprintf(out, "format:    %s\n", info.PixelFormat)
			fmt.Fprintf(out, "framerate: %.3f\n", info.FrameRate())
			fmt.Fprintf(out, "vendor:    %s\n", info.Vendor)
			for _, c := range info.Comments {
				fmt.Fprintf(out, "comment:   %s\n", c)
			}

			if !open {
				return nil
			}
			dec, err := mediadec.NewTheoraDecoder(blob, a.decoderConfig())
			if err != nil {
				return err
			}
			defer dec.Close()
			fmt.Fprintf(out, "engine:    %s\n", dec.Provider())
			return nil
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "Also open a decoder with the headers")
	return cmd
}
