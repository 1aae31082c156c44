package mediadec

import (
	"time"
)

// TheoraDecoder decodes Theora packets into planar images.
//
// The decoder is configured from one opaque header blob holding the
// identification, comment and setup headers back to back, as carried by
// container codec-private data.
type TheoraDecoder struct {
	handle

	engine   TheoraEngine
	headers  TheoraHeaders
	info     TheoraInfo
	packetNo int64
	pic      Picture
	hasPic   bool
}

// NewTheoraDecoder splits headers, feeds them to a Theora engine and starts
// the decoder.
func NewTheoraDecoder(headers []byte, config DecoderConfig) (*TheoraDecoder, error) {
	reg := config.registry()
	d, err := newTheoraDecoder(reg, headers, config)
	if err != nil {
		reg.metrics.constructionFailed(CodecTheora, err)
		reg.log.Warnf("failed to create Theora decoder: %v", err)
		return nil, err
	}
	return d, nil
}

func newTheoraDecoder(reg *Registry, blob []byte, config DecoderConfig) (_ *TheoraDecoder, err error) {
	headers, err := SplitTheoraHeaders(blob)
	if err != nil {
		return nil, err
	}

	reg.EnsureInitialized()
	factory, provider, err := resolveFactory(reg, reg.theora, CodecTheora, config.Provider)
	if err != nil {
		return nil, newDecoderError(CodecTheora, "open", ErrEngineUnavailable, err)
	}

	cfg := reg.engineConfig(CodecTheora, config)
	engine, err := factory(cfg)
	if err != nil {
		return nil, newDecoderError(CodecTheora, "open", openErrorKind(err), err)
	}
	if engine == nil {
		return nil, decoderErrorf(CodecTheora, "open", ErrEngineInitFailed, "%s returned no engine", provider)
	}
	defer func() {
		if err != nil {
			closeEngine(cfg.Logger, engine)
		}
	}()

	names := [3]string{"identification", "comment", "setup"}
	for i, pkt := range headers.Packets() {
		if err := engine.HeaderIn(pkt); err != nil {
			return nil, decoderErrorf(CodecTheora, "open", ErrMalformedHeaders, "%s header rejected: %w", names[i], err)
		}
	}
	if err := engine.Start(); err != nil {
		return nil, newDecoderError(CodecTheora, "open", ErrEngineInitFailed, err)
	}

	d := &TheoraDecoder{
		handle:  newHandle(reg, CodecTheora, provider),
		engine:  engine,
		headers: headers,
		info:    engine.Info(),
	}
	d.metrics.opened(CodecTheora)
	d.log.Debugf("opened %dx%d decoder (%s), header lengths %v",
		d.info.PictureWidth, d.info.PictureHeight, provider, headers.Lengths())
	return d, nil
}

// Decode submits one Theora data packet and fetches the resulting picture.
// The packet counter advances on every attempt, successful or not.
func (d *TheoraDecoder) Decode(packet []byte) (err error) {
	if d == nil || d.closed {
		return newDecoderError(CodecTheora, "decode", ErrUseAfterTeardown, nil)
	}

	d.out.advance()
	start := time.Now()
	frames := 0
	defer func() { d.record(len(packet), frames, start, err) }()

	d.packetNo++
	if err := d.engine.PacketIn(packet, d.packetNo); err != nil {
		return newDecoderError(CodecTheora, "decode", ErrDecodeFailed, err)
	}
	pic, err := d.engine.Picture()
	if err != nil {
		return newDecoderError(CodecTheora, "decode", ErrDecodeFailed, err)
	}
	if pic.Format != PixelFormatI420 {
		return decoderErrorf(CodecTheora, "decode", ErrUnsupportedFormat, "engine produced %s, want I420", pic.Format)
	}
	d.pic = pic
	d.hasPic = true
	frames = 1
	return nil
}

// Image returns the most recently decoded picture. It returns false before the
// first picture and after Close.
func (d *TheoraDecoder) Image() (PlanarImage, bool) {
	if d == nil || d.closed || !d.hasPic {
		return PlanarImage{}, false
	}
	return newPlanarImage(d.pic, &d.out), true
}

// Info returns the stream description from the headers.
func (d *TheoraDecoder) Info() TheoraInfo {
	if d == nil || d.closed {
		return TheoraInfo{}
	}
	return d.info
}

// Headers returns the header packets the decoder was configured with.
func (d *TheoraDecoder) Headers() TheoraHeaders {
	if d == nil || d.closed {
		return TheoraHeaders{}
	}
	return d.headers
}

// PacketCount returns the number of Decode attempts, or -1 after Close.
func (d *TheoraDecoder) PacketCount() int64 {
	if d == nil || d.closed {
		return -1
	}
	return d.packetNo
}

// Close releases the decode state and header metadata. It is safe to call more
// than once and never fails.
func (d *TheoraDecoder) Close() error {
	if d == nil || !d.release() {
		return nil
	}
	closeEngine(d.log, d.engine)
	d.engine = nil
	d.headers = TheoraHeaders{}
	d.info = TheoraInfo{}
	d.pic = Picture{}
	d.hasPic = false
	return nil
}
