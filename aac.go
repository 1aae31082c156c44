package mediadec

import (
	"time"
)

// maxAACChannels is the largest channel configuration of an AAC stream (7.1).
const maxAACChannels = 8

// AACDecoder decodes raw AAC access units into interleaved float32 PCM.
//
// Each Decode call may carry several back-to-back AAC frames; they are decoded
// in order and only the last frame's PCM is kept. The PCM buffer grows to the
// largest frame seen and is never shrunk while the decoder is open.
type AACDecoder struct {
	handle

	sampleRate int
	channels   int

	engine        AudioEngine
	pcm           PCMBuffer
	sampleCount   int
	frameChannels int
}

// NewAACDecoder opens an AAC decoder for a stream with the given sample rate
// and channel count.
func NewAACDecoder(sampleRate, channels int, config DecoderConfig) (*AACDecoder, error) {
	reg := config.registry()
	d, err := newAACDecoder(reg, sampleRate, channels, config)
	if err != nil {
		reg.metrics.constructionFailed(CodecAAC, err)
		reg.log.Warnf("failed to create AAC decoder: %v", err)
		return nil, err
	}
	return d, nil
}

func newAACDecoder(reg *Registry, sampleRate, channels int, config DecoderConfig) (*AACDecoder, error) {
	if sampleRate <= 0 || channels <= 0 || channels > maxAACChannels {
		return nil, decoderErrorf(CodecAAC, "open", ErrEngineInitFailed,
			"invalid stream parameters: %d Hz, %d channels", sampleRate, channels)
	}

	reg.EnsureInitialized()
	factory, provider, err := resolveFactory(reg, reg.audio, CodecAAC, config.Provider)
	if err != nil {
		return nil, newDecoderError(CodecAAC, "open", ErrEngineUnavailable, err)
	}

	engine, err := factory(AudioParams{SampleRate: sampleRate, Channels: channels}, reg.engineConfig(CodecAAC, config))
	if err != nil {
		return nil, newDecoderError(CodecAAC, "open", openErrorKind(err), err)
	}
	if engine == nil {
		return nil, decoderErrorf(CodecAAC, "open", ErrEngineInitFailed, "%s returned no engine", provider)
	}

	d := &AACDecoder{
		handle:     newHandle(reg, CodecAAC, provider),
		sampleRate: sampleRate,
		channels:   channels,
		engine:     engine,
	}
	d.metrics.opened(CodecAAC)
	d.log.Debugf("opened %d Hz %d ch decoder (%s)", sampleRate, channels, provider)
	return d, nil
}

// Decode decodes every AAC frame in data. Zero-length input is a no-op.
// On failure, PCM from frames decoded earlier in the same call is kept.
func (d *AACDecoder) Decode(data []byte) (err error) {
	if d == nil || d.closed {
		return newDecoderError(CodecAAC, "decode", ErrUseAfterTeardown, nil)
	}
	if len(data) == 0 {
		return nil
	}

	d.out.advance()
	start := time.Now()
	frames := 0
	defer func() { d.record(len(data), frames, start, err) }()

	remaining := data
	for len(remaining) > 0 {
		consumed, gotFrame, err := d.engine.Submit(remaining)
		if err != nil {
			return newDecoderError(CodecAAC, "decode", ErrDecodeFailed, err)
		}
		if consumed <= 0 {
			return decoderErrorf(CodecAAC, "decode", ErrDecodeFailed,
				"engine consumed no input with %d bytes left", len(remaining))
		}
		if consumed > len(remaining) {
			return decoderErrorf(CodecAAC, "decode", ErrDecodeFailed,
				"engine consumed %d bytes, only %d left", consumed, len(remaining))
		}
		if gotFrame {
			if err := d.store(d.engine.Frame()); err != nil {
				return err
			}
			frames++
		}
		remaining = remaining[consumed:]
	}
	return nil
}

// store interleaves a planar float frame into the PCM buffer.
func (d *AACDecoder) store(f AudioFrame) error {
	if f.Format != SampleFormatF32Planar {
		return decoderErrorf(CodecAAC, "decode", ErrUnsupportedFormat,
			"engine produced %s samples, want %s", f.Format, SampleFormatF32Planar)
	}
	channels := f.Channels
	if channels <= 0 {
		channels = d.channels
	}
	if f.Samples < 0 || len(f.Planes) < channels {
		return decoderErrorf(CodecAAC, "decode", ErrDecodeFailed,
			"engine frame has %d planes for %d channels", len(f.Planes), channels)
	}
	for ch := 0; ch < channels; ch++ {
		if len(f.Planes[ch]) < f.Samples {
			return decoderErrorf(CodecAAC, "decode", ErrDecodeFailed,
				"channel %d has %d samples, want %d", ch, len(f.Planes[ch]), f.Samples)
		}
	}

	total := f.Samples * channels
	if d.pcm.EnsureCapacity(total * 4) {
		d.log.Tracef("pcm buffer grown to %d bytes", d.pcm.Cap())
		d.metrics.pcmBuffer(d.pcm.Cap())
	}
	out := d.pcm.Samples(total)
	for ch := 0; ch < channels; ch++ {
		for i, v := range f.Planes[ch][:f.Samples] {
			out[i*channels+ch] = v
		}
	}
	d.sampleCount = total
	d.frameChannels = channels
	return nil
}

// SampleRate returns the configured sample rate, or -1 after Close.
func (d *AACDecoder) SampleRate() int {
	if d == nil || d.closed {
		return -1
	}
	return d.sampleRate
}

// Channels returns the configured channel count, or -1 after Close.
func (d *AACDecoder) Channels() int {
	if d == nil || d.closed {
		return -1
	}
	return d.channels
}

// SampleCount returns the interleaved sample count (samples per channel times
// channels) of the last decoded frame, or -1 after Close.
func (d *AACDecoder) SampleCount() int {
	if d == nil || d.closed {
		return -1
	}
	return d.sampleCount
}

// Capacity returns the PCM buffer capacity in bytes.
func (d *AACDecoder) Capacity() int {
	if d == nil || d.closed {
		return 0
	}
	return d.pcm.Cap()
}

// PCM returns a view of the last decoded frame. The view is invalidated by the
// next Decode or Close.
func (d *AACDecoder) PCM() (PCMView, error) {
	if d == nil || d.closed {
		return PCMView{}, newDecoderError(CodecAAC, "pcm", ErrUseAfterTeardown, nil)
	}
	return PCMView{
		samples:    d.pcm.Samples(d.sampleCount),
		channels:   d.frameChannels,
		sampleRate: d.sampleRate,
		owner:      &d.out,
		at:         d.out.n,
	}, nil
}

// Close releases the engine and the PCM buffer. It is safe to call more than
// once and never fails.
func (d *AACDecoder) Close() error {
	if d == nil || !d.release() {
		return nil
	}
	closeEngine(d.log, d.engine)
	d.engine = nil
	d.pcm.Release()
	d.sampleCount = 0
	return nil
}
