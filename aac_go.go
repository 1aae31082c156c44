package mediadec

import (
	"errors"
	"fmt"

	aac "github.com/llehouerou/go-aac"
)

// aacSampleRates lists the MPEG-4 sampling frequencies by index.
var aacSampleRates = [...]int{
	96000, 88200, 64000, 48000, 44100, 32000, 24000,
	22050, 16000, 12000, 11025, 8000, 7350,
}

// aacChannelConfig maps a channel count to its MPEG-4 channel configuration.
// Seven channels have no standard layout.
func aacChannelConfig(channels int) (int, bool) {
	switch {
	case channels >= 1 && channels <= 6:
		return channels, true
	case channels == 8:
		return 7, true
	default:
		return 0, false
	}
}

// audioSpecificConfig builds the two byte AAC-LC AudioSpecificConfig for a
// raw stream: object type, sampling frequency index, channel configuration
// and an all-zero GASpecificConfig (1024 sample frames, no core coder, no
// extension).
func audioSpecificConfig(sampleRate, channels int) ([]byte, error) {
	index := -1
	for i, r := range aacSampleRates {
		if r == sampleRate {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: no AAC sampling frequency index for %d Hz", ErrEngineInitFailed, sampleRate)
	}
	chanConfig, ok := aacChannelConfig(channels)
	if !ok {
		return nil, fmt.Errorf("%w: no AAC channel configuration for %d channels", ErrEngineInitFailed, channels)
	}

	const objectType = int(aac.ObjectTypeLC)
	return []byte{
		byte(objectType<<3 | index>>1),
		byte((index&1)<<7 | chanConfig<<3),
	}, nil
}

// goAACEngine implements AudioEngine with github.com/llehouerou/go-aac, a
// pure Go AAC-LC decoder. It needs no native library and sits behind
// libavcodec under ProviderAuto.
type goAACEngine struct {
	dec      *aac.Decoder
	channels int
	samples  int
	planes   [][]float32
}

func newGoAACEngine(params AudioParams, _ EngineConfig) (AudioEngine, error) {
	asc, err := audioSpecificConfig(params.SampleRate, params.Channels)
	if err != nil {
		return nil, err
	}

	dec := aac.NewDecoder()
	cfg := dec.Config()
	cfg.DefObjectType = aac.ObjectTypeLC
	cfg.DefSampleRate = uint32(params.SampleRate)
	cfg.OutputFormat = aac.OutputFormatFloat
	dec.SetConfiguration(cfg)

	if _, err := dec.Init2(asc); err != nil {
		dec.Close()
		return nil, fmt.Errorf("%w: go-aac: %v", ErrEngineInitFailed, err)
	}
	return &goAACEngine{
		dec:      dec,
		channels: params.Channels,
		planes:   make([][]float32, 0, maxAACChannels),
	}, nil
}

// Submit decodes one raw_data_block from the start of data. The first block
// only primes the overlap-add window and yields no samples.
func (e *goAACEngine) Submit(data []byte) (int, bool, error) {
	e.samples = 0
	if e.dec == nil {
		return 0, false, errors.New("go-aac: decoder closed")
	}

	out, info, err := e.dec.Decode(data)
	if err != nil {
		return 0, false, fmt.Errorf("go-aac: %w", err)
	}
	consumed := int(info.BytesConsumed)

	var pcm []float32
	switch s := out.(type) {
	case nil:
	case []float32:
		pcm = s
	default:
		return consumed, false, fmt.Errorf("go-aac: unexpected sample type %T", out)
	}
	channels := int(info.Channels)
	if len(pcm) == 0 || channels == 0 {
		return consumed, false, nil
	}
	if channels > maxAACChannels {
		return consumed, false, fmt.Errorf("go-aac: %d channels in frame", channels)
	}

	e.deinterleave(pcm, channels)
	return consumed, true, nil
}

// deinterleave splits interleaved samples into per-channel planes, reusing
// the plane buffers between frames.
func (e *goAACEngine) deinterleave(pcm []float32, channels int) {
	n := len(pcm) / channels
	if cap(e.planes) < channels {
		e.planes = make([][]float32, channels)
	}
	e.planes = e.planes[:channels]
	for ch := range e.planes {
		if cap(e.planes[ch]) < n {
			e.planes[ch] = make([]float32, n)
		}
		e.planes[ch] = e.planes[ch][:n]
	}
	for i := 0; i < n; i++ {
		frame := pcm[i*channels : (i+1)*channels]
		for ch, v := range frame {
			e.planes[ch][i] = v
		}
	}
	e.channels = channels
	e.samples = n
}

func (e *goAACEngine) Frame() AudioFrame {
	if e.samples == 0 {
		return AudioFrame{Format: SampleFormatF32Planar, Channels: e.channels}
	}
	return AudioFrame{
		Format:   SampleFormatF32Planar,
		Samples:  e.samples,
		Channels: e.channels,
		Planes:   e.planes,
	}
}

func (e *goAACEngine) Close() error {
	if e.dec != nil {
		e.dec.Close()
		e.dec = nil
	}
	e.planes = nil
	e.samples = 0
	return nil
}

func init() {
	registerBuiltinEngine(ProviderGoAAC, func(r *Registry) error {
		r.RegisterAudioEngine(CodecAAC, ProviderGoAAC, newGoAACEngine)
		return nil
	})
}
