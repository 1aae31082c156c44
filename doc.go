// Package mediadec provides per-stream decoder adapters for AAC audio, VP8
// video and Theora video, backed by native codec engines or pure Go fallbacks.
//
// Each adapter owns exactly one engine context and follows the same lifecycle:
//
//	dec, err := mediadec.NewVP8Decoder(mediadec.DecoderConfig{})
//	...
//	for unit := range units {
//		if err := dec.Decode(unit); err != nil { ... }
//		if img, ok := dec.Image(); ok { ... }
//	}
//	dec.Close()
//
// The caller demultiplexes the container and feeds one compressed access unit
// per Decode call. Decoded output (PCMView, PlanarImage) is borrowed: it stays
// valid until the next Decode or Close on the same decoder. Use Clone to keep
// it longer.
//
// # Engines
//
// Engines are registered in a Registry. The process-wide DefaultRegistry loads
// the built-in engines on first use:
//
//   - AAC: libmedia_aac (libavcodec wrapper), github.com/llehouerou/go-aac (AAC-LC)
//   - VP8: libmedia_vpx (libvpx wrapper), golang.org/x/image/vp8 (key frames only)
//   - Theora: libtheoradec
//
// # Native Libraries
//
// Native libraries are loaded with purego, so no cgo toolchain is required.
// Set MEDIA_SDK_LIB_PATH to the directory containing the libraries, or
// MEDIA_AAC_LIB_PATH, MEDIA_VPX_LIB_PATH and MEDIA_THEORA_LIB_PATH to point
// at individual files.
//
// # Build Tags
//
// Optional tags disable native providers:
//   - noaac, novpx, notheora
//
// Decoders are not safe for concurrent use. Independent decoders may be used
// from independent goroutines.
package mediadec
