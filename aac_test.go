package mediadec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAACDecoder(t *testing.T, engine *fakeAudioEngine) *AACDecoder {
	t.Helper()
	reg := newTestRegistry()
	reg.RegisterAudioEngine(CodecAAC, ProviderCustom, func(AudioParams, EngineConfig) (AudioEngine, error) {
		return engine, nil
	})
	dec, err := NewAACDecoder(44100, engine.channels, DecoderConfig{Registry: reg})
	require.NoError(t, err)
	t.Cleanup(func() { dec.Close() })
	return dec
}

func TestAACDecoder_Interleaves(t *testing.T) {
	dec := newTestAACDecoder(t, newFakeAudioEngine(2))

	require.NoError(t, dec.Decode([]byte{1}))
	assert.Equal(t, 32, dec.SampleCount())

	view, err := dec.PCM()
	require.NoError(t, err)
	samples := view.Samples()
	require.Len(t, samples, 32)
	assert.Equal(t, []float32{0, 1000, 1, 1001, 2, 1002}, samples[:6])
	assert.Equal(t, float32(1015), samples[31])
	assert.Equal(t, 2, view.Channels())
	assert.Equal(t, 16, view.Frames())
	assert.Equal(t, 44100, view.SampleRate())
}

func TestAACDecoder_LastFrameWins(t *testing.T) {
	engine := newFakeAudioEngine(2)
	dec := newTestAACDecoder(t, engine)

	require.NoError(t, dec.Decode([]byte{4, 1}))

	assert.Equal(t, 2, engine.submits)
	assert.Equal(t, 1*16*2, dec.SampleCount())
	assert.Equal(t, 4*16*2*4, dec.Capacity())
	assert.Equal(t, uint64(2), dec.Stats().FramesDecoded)
}

func TestAACDecoder_BufferNeverShrinks(t *testing.T) {
	dec := newTestAACDecoder(t, newFakeAudioEngine(2))

	tests := []struct {
		frameSize    byte
		wantCount    int
		wantCapacity int
	}{
		{4, 4 * 32, 4 * 32 * 4},
		{1, 1 * 32, 4 * 32 * 4},
		{8, 8 * 32, 8 * 32 * 4},
		{2, 2 * 32, 8 * 32 * 4},
		{8, 8 * 32, 8 * 32 * 4},
	}
	for _, tt := range tests {
		require.NoError(t, dec.Decode([]byte{tt.frameSize}))
		assert.Equal(t, tt.wantCount, dec.SampleCount(), "frame size %d", tt.frameSize)
		assert.Equal(t, tt.wantCapacity, dec.Capacity(), "frame size %d", tt.frameSize)
	}
}

func TestAACDecoder_NoProgressFails(t *testing.T) {
	engine := newFakeAudioEngine(1)
	engine.consume = func([]byte) int { return 0 }
	dec := newTestAACDecoder(t, engine)

	err := dec.Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrDecodeFailed)
	assert.Equal(t, 1, engine.submits)
	assert.Equal(t, uint64(1), dec.Stats().DecodeErrors)
}

func TestAACDecoder_OverrunFails(t *testing.T) {
	engine := newFakeAudioEngine(1)
	engine.consume = func(remaining []byte) int { return len(remaining) + 1 }
	dec := newTestAACDecoder(t, engine)

	err := dec.Decode([]byte{1, 2})
	require.ErrorIs(t, err, ErrDecodeFailed)
	assert.Equal(t, 0, dec.SampleCount())
}

func TestAACDecoder_UnsupportedFormat(t *testing.T) {
	engine := newFakeAudioEngine(2)
	engine.format = SampleFormatS16Planar
	dec := newTestAACDecoder(t, engine)

	err := dec.Decode([]byte{1})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, 0, dec.SampleCount())
	assert.Equal(t, 0, dec.Capacity())
}

func TestAACDecoder_EngineErrorKeepsEarlierFrame(t *testing.T) {
	engine := newFakeAudioEngine(2)
	engine.failAt = 2
	dec := newTestAACDecoder(t, engine)

	err := dec.Decode([]byte{3, 5})
	require.ErrorIs(t, err, ErrDecodeFailed)
	assert.ErrorIs(t, err, errFakeCorrupt)
	assert.Equal(t, 3*16*2, dec.SampleCount())
}

func TestAACDecoder_ZeroLengthInput(t *testing.T) {
	engine := newFakeAudioEngine(2)
	dec := newTestAACDecoder(t, engine)

	require.NoError(t, dec.Decode([]byte{1}))
	view, err := dec.PCM()
	require.NoError(t, err)

	require.NoError(t, dec.Decode(nil))
	require.NoError(t, dec.Decode([]byte{}))

	assert.Equal(t, 1, engine.submits)
	assert.True(t, view.Valid())
	assert.Equal(t, 32, dec.SampleCount())
	assert.Equal(t, uint64(1), dec.Stats().UnitsDecoded)
}

func TestAACDecoder_ViewInvalidatedByDecode(t *testing.T) {
	dec := newTestAACDecoder(t, newFakeAudioEngine(1))

	require.NoError(t, dec.Decode([]byte{1}))
	view, err := dec.PCM()
	require.NoError(t, err)
	kept := view.Clone()
	require.NotNil(t, kept)

	require.NoError(t, dec.Decode([]byte{2}))
	assert.False(t, view.Valid())
	assert.Nil(t, view.Samples())
	assert.Equal(t, 0, view.Len())
	assert.Nil(t, view.Clone())

	assert.Equal(t, 16, kept.SampleCount)
	assert.Equal(t, 1, kept.Channels)
	assert.Equal(t, float32(15), kept.Float32()[15])

	fresh, err := dec.PCM()
	require.NoError(t, err)
	assert.True(t, fresh.Valid())
	assert.Equal(t, 32, fresh.Len())
}

func TestAACDecoder_Teardown(t *testing.T) {
	engine := newFakeAudioEngine(2)
	dec := newTestAACDecoder(t, engine)
	require.NoError(t, dec.Decode([]byte{1}))
	view, err := dec.PCM()
	require.NoError(t, err)

	require.NoError(t, dec.Close())
	require.NoError(t, dec.Close())
	assert.Equal(t, 1, engine.closes)
	assert.False(t, view.Valid())

	err = dec.Decode([]byte{1})
	assert.ErrorIs(t, err, ErrUseAfterTeardown)
	assert.Equal(t, 1, engine.submits)

	_, err = dec.PCM()
	assert.ErrorIs(t, err, ErrUseAfterTeardown)
	assert.Equal(t, -1, dec.SampleCount())
	assert.Equal(t, -1, dec.SampleRate())
	assert.Equal(t, -1, dec.Channels())
	assert.Equal(t, 0, dec.Capacity())
}

func TestAACDecoder_NilHandle(t *testing.T) {
	var dec *AACDecoder
	assert.NoError(t, dec.Close())
	assert.ErrorIs(t, dec.Decode([]byte{1}), ErrUseAfterTeardown)
	assert.Equal(t, -1, dec.SampleCount())
	_, err := dec.PCM()
	assert.ErrorIs(t, err, ErrUseAfterTeardown)
}

func TestAACDecoder_CreateClose(t *testing.T) {
	engine := newFakeAudioEngine(2)
	dec := newTestAACDecoder(t, engine)

	assert.Equal(t, 44100, dec.SampleRate())
	assert.Equal(t, 2, dec.Channels())
	assert.Equal(t, 0, dec.SampleCount())
	assert.Equal(t, 0, dec.Capacity())
	assert.Equal(t, CodecAAC, dec.Codec())
	assert.Equal(t, ProviderCustom, dec.Provider())

	require.NoError(t, dec.Close())
	assert.Equal(t, 1, engine.closes)
}

func TestNewAACDecoder_Errors(t *testing.T) {
	failing := errors.New("avcodec_open2 failed")

	tests := []struct {
		name       string
		rate, chns int
		factory    AudioEngineFactory
		wantErr    error
	}{
		{"zero rate", 0, 2, nil, ErrEngineInitFailed},
		{"zero channels", 48000, 0, nil, ErrEngineInitFailed},
		{"too many channels", 48000, 9, nil, ErrEngineInitFailed},
		{"no engine", 48000, 2, nil, ErrEngineUnavailable},
		{"engine open fails", 48000, 2, func(AudioParams, EngineConfig) (AudioEngine, error) {
			return nil, failing
		}, ErrEngineInitFailed},
		{"engine unavailable at open", 48000, 2, func(AudioParams, EngineConfig) (AudioEngine, error) {
			return nil, ErrEngineUnavailable
		}, ErrEngineUnavailable},
		{"nil engine", 48000, 2, func(AudioParams, EngineConfig) (AudioEngine, error) {
			return nil, nil
		}, ErrEngineInitFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newTestRegistry()
			if tt.factory != nil {
				reg.RegisterAudioEngine(CodecAAC, ProviderCustom, tt.factory)
			}
			dec, err := NewAACDecoder(tt.rate, tt.chns, DecoderConfig{Registry: reg})
			assert.Nil(t, dec)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewAACDecoder_PassesParams(t *testing.T) {
	reg := newTestRegistry()
	var got AudioParams
	var threads int
	reg.RegisterAudioEngine(CodecAAC, ProviderCustom, func(p AudioParams, cfg EngineConfig) (AudioEngine, error) {
		got = p
		threads = cfg.Threads
		require.NotNil(t, cfg.Logger)
		return newFakeAudioEngine(p.Channels), nil
	})

	dec, err := NewAACDecoder(22050, 1, DecoderConfig{Registry: reg, Threads: 3})
	require.NoError(t, err)
	defer dec.Close()

	assert.Equal(t, AudioParams{SampleRate: 22050, Channels: 1}, got)
	assert.Equal(t, 3, threads)
}
