package mediadec

import "github.com/pion/logging"

// Engines are the codec collaborators behind each decoder. A decoder owns
// exactly one engine and calls it from a single goroutine. Output returned by
// an engine (planes, PCM slices) is borrowed and may be overwritten by the
// next call on the same engine.

// EngineConfig is passed to engine factories.
type EngineConfig struct {
	Threads int                   // 0 lets the engine decide
	Logger  logging.LeveledLogger // never nil
}

// AudioParams describes the stream an audio engine is opened for.
type AudioParams struct {
	SampleRate int
	Channels   int
}

// AudioFrame is one decoded audio frame as produced by an engine.
type AudioFrame struct {
	Format   SampleFormat
	Samples  int         // samples per channel
	Channels int         // channels actually decoded
	Planes   [][]float32 // one plane per channel for SampleFormatF32Planar
}

// AudioEngine decodes a raw compressed audio stream.
type AudioEngine interface {
	// Submit decodes from the start of data. It reports how many bytes the
	// engine consumed and whether a frame is ready in Frame.
	Submit(data []byte) (consumed int, gotFrame bool, err error)
	// Frame returns the most recently decoded frame.
	Frame() AudioFrame
	Close() error
}

// Picture is one decoded picture as produced by an engine.
type Picture struct {
	Format PixelFormat
	Width  int
	Height int
	Planes [3]Plane
}

// VideoEngine decodes whole compressed units, one picture at most per unit.
type VideoEngine interface {
	Submit(unit []byte) error
	// NextPicture returns the next displayable picture produced by the last
	// Submit. It returns false once none remain.
	NextPicture() (Picture, bool)
	Close() error
}

// TheoraEngine decodes a Theora stream after its three headers are ingested.
type TheoraEngine interface {
	// HeaderIn ingests one header packet. Headers arrive in stream order.
	HeaderIn(packet []byte) error
	// Start sets up the main decode state from the ingested headers.
	Start() error
	PacketIn(packet []byte, packetNo int64) error
	// Picture returns the current output picture.
	Picture() (Picture, error)
	Info() TheoraInfo
	Close() error
}

// AudioEngineFactory opens an AudioEngine.
type AudioEngineFactory func(params AudioParams, cfg EngineConfig) (AudioEngine, error)

// VideoEngineFactory opens a VideoEngine.
type VideoEngineFactory func(cfg EngineConfig) (VideoEngine, error)

// TheoraEngineFactory opens a TheoraEngine.
type TheoraEngineFactory func(cfg EngineConfig) (TheoraEngine, error)
