package mediadec

import (
	"time"
)

// VP8Decoder decodes VP8 access units into I420 planar images.
//
// Each Decode call submits one whole compressed unit and yields at most one
// picture. Units that produce no displayable picture succeed and leave the
// previous image in place.
type VP8Decoder struct {
	handle

	engine       VideoEngine
	pic          Picture
	hasPic       bool
	depacketizer *VP8Depacketizer
}

// NewVP8Decoder opens a VP8 decoder.
func NewVP8Decoder(config DecoderConfig) (*VP8Decoder, error) {
	reg := config.registry()
	d, err := newVP8Decoder(reg, config)
	if err != nil {
		reg.metrics.constructionFailed(CodecVP8, err)
		reg.log.Warnf("failed to create VP8 decoder: %v", err)
		return nil, err
	}
	return d, nil
}

func newVP8Decoder(reg *Registry, config DecoderConfig) (*VP8Decoder, error) {
	reg.EnsureInitialized()
	factory, provider, err := resolveFactory(reg, reg.video, CodecVP8, config.Provider)
	if err != nil {
		return nil, newDecoderError(CodecVP8, "open", ErrEngineUnavailable, err)
	}

	engine, err := factory(reg.engineConfig(CodecVP8, config))
	if err != nil {
		return nil, newDecoderError(CodecVP8, "open", openErrorKind(err), err)
	}
	if engine == nil {
		return nil, decoderErrorf(CodecVP8, "open", ErrEngineInitFailed, "%s returned no engine", provider)
	}

	d := &VP8Decoder{
		handle: newHandle(reg, CodecVP8, provider),
		engine: engine,
	}
	d.metrics.opened(CodecVP8)
	d.log.Debugf("opened decoder (%s)", provider)
	return d, nil
}

// Decode submits one compressed VP8 unit. An empty unit is treated as a
// dropped frame: it succeeds without touching the engine.
func (d *VP8Decoder) Decode(unit []byte) (err error) {
	if d == nil || d.closed {
		return newDecoderError(CodecVP8, "decode", ErrUseAfterTeardown, nil)
	}

	d.out.advance()
	start := time.Now()
	frames := 0
	defer func() { d.record(len(unit), frames, start, err) }()

	if len(unit) == 0 {
		return nil
	}
	if err := d.engine.Submit(unit); err != nil {
		return newDecoderError(CodecVP8, "decode", ErrDecodeFailed, err)
	}

	pic, ok := d.engine.NextPicture()
	if !ok {
		return nil
	}
	if pic.Format != PixelFormatI420 {
		return decoderErrorf(CodecVP8, "decode", ErrUnsupportedFormat, "engine produced %s, want I420", pic.Format)
	}
	d.pic = pic
	d.hasPic = true
	frames = 1
	return nil
}

// Image returns the most recently decoded picture. It returns false before the
// first picture and after Close. The image is invalidated by the next Decode
// or Close.
func (d *VP8Decoder) Image() (PlanarImage, bool) {
	if d == nil || d.closed || !d.hasPic {
		return PlanarImage{}, false
	}
	return newPlanarImage(d.pic, &d.out), true
}

// Reset drops the decoder's reference frames and any partially reassembled RTP
// unit, so decoding resumes cleanly at the next key frame. The last image is
// released. Engines without reset support keep their references.
func (d *VP8Decoder) Reset() error {
	if d == nil || d.closed {
		return newDecoderError(CodecVP8, "reset", ErrUseAfterTeardown, nil)
	}
	d.out.advance()
	d.pic = Picture{}
	d.hasPic = false
	if d.depacketizer != nil {
		d.depacketizer.Reset()
	}
	if r, ok := d.engine.(interface{ Reset() error }); ok {
		if err := r.Reset(); err != nil {
			return newDecoderError(CodecVP8, "reset", ErrDecodeFailed, err)
		}
	}
	return nil
}

// Close releases the engine. It is safe to call more than once and never fails.
func (d *VP8Decoder) Close() error {
	if d == nil || !d.release() {
		return nil
	}
	closeEngine(d.log, d.engine)
	d.engine = nil
	d.pic = Picture{}
	d.hasPic = false
	if d.depacketizer != nil {
		d.depacketizer.Reset()
	}
	return nil
}
