package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thesyncim/mediadec"
)

// vp8Summary is the result of decoding one IVF file.
type vp8Summary struct {
	Path          string
	Width, Height int
	Units         int
	Pictures      int
	Errors        int
}

func vp8Command(a *app) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "vp8 FILE.ivf...",
		Short: "Decode VP8 IVF files and report picture counts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobs < 1 {
				return fmt.Errorf("--jobs must be at least 1, got %d", jobs)
			}
			summaries := make([]vp8Summary, len(args))

			var g errgroup.Group
			g.SetLimit(jobs)
			for i, path := range args {
				g.Go(func() error {
					s, err := a.decodeIVF(path)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					summaries[i] = s
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range summaries {
				fmt.Fprintf(out, "%s: %dx%d, %d units, %d pictures, %d errors\n",
					s.Path, s.Width, s.Height, s.Units, s.Pictures, s.Errors)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Files decoded in parallel")
	return cmd
}

// decodeIVF decodes every frame of an IVF file on its own decoder. Frames
// that fail to decode are counted and skipped.
func (a *app) decodeIVF(path string) (vp8Summary, error) {
	s := vp8Summary{Path: path}

	f, err := os.Open(path)
	if err != nil {
		return s, err
	}
	defer f.Close()

	reader, header, err := ivfreader.NewWith(f)
	if err != nil {
		return s, fmt.Errorf("failed to read IVF header: %w", err)
	}
	if header.FourCC != "VP80" {
		return s, fmt.Errorf("unsupported IVF codec %q", header.FourCC)
	}

	dec, err := mediadec.NewVP8Decoder(a.decoderConfig())
	if err != nil {
		return s, err
	}
	defer dec.Close()
	a.log.Debugf("%s: decoding with %s", path, dec.Provider())

	for {
		frame, _, err := reader.ParseNextFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s, fmt.Errorf("failed to read frame %d: %w", s.Units, err)
		}
		s.Units++

		if err := dec.Decode(frame); err != nil {
			s.Errors++
			a.log.Warnf("%s: frame %d: %v", path, s.Units-1, err)
			continue
		}
		if img, ok := dec.Image(); ok {
			s.Width, s.Height = img.Width(), img.Height()
		}
	}
	s.Pictures = int(dec.Stats().FramesDecoded)
	return s, nil
}
