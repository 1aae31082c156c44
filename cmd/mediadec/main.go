// Command mediadec decodes AAC, VP8 and Theora streams with the engines
// available on this machine and reports what it found.
//
// Usage:
//
//	mediadec providers
//	mediadec vp8 clip.ivf other.ivf
//	mediadec aac --rate 44100 --channels 2 audio.aac
//	mediadec theora-headers codec-private.bin
//
// Every flag can also be set through the environment with the MEDIADEC_
// prefix, e.g. MEDIADEC_LIB_PATH=/opt/media/lib.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
