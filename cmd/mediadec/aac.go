package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thesyncim/mediadec"
)

func aacCommand(a *app) *cobra.Command {
	var rate, channels int

	cmd := &cobra.Command{
		Use:   "aac FILE.aac",
		Short: "Decode an ADTS AAC stream and report PCM statistics",
		Long: `Decode an ADTS AAC stream. The sample rate and channel count default to
the values in the first ADTS header.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			frames, err := splitADTS(data)
			if len(frames) == 0 {
				if err == nil {
					err = fmt.Errorf("%s: no ADTS frames", args[0])
				}
				return err
			}
			if err != nil {
				a.log.Warnf("%s: %v, decoding %d frames", args[0], err, len(frames))
			}
			if rate == 0 {
				rate = frames[0].SampleRate
			}
			if channels == 0 {
				channels = frames[0].Channels
			}

			dec, err := mediadec.NewAACDecoder(rate, channels, a.decoderConfig())
			if err != nil {
				return err
			}
			defer dec.Close()

			var samples, failed int
			var peak float32
			for i, f := range frames {
				if err := dec.Decode(f.Payload); err != nil {
					failed++
					a.log.Warnf("frame %d: %v", i, err)
					continue
				}
				view, err := dec.PCM()
				if err != nil {
					return err
				}
				samples += view.Frames()
				for _, s := range view.Samples() {
					if s < 0 {
						s = -s
					}
					peak = max(peak, s)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d Hz, %d channels, %d frames, %d samples per channel, peak %.3f, %d errors\n",
				args[0], rate, channels, len(frames), samples, peak, failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&rate, "rate", 0, "Sample rate in Hz (0 = from the stream)")
	cmd.Flags().IntVar(&channels, "channels", 0, "Channel count (0 = from the stream)")
	return cmd
}
