package mediadec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// theoraTestRegistry registers engine as the custom Theora engine and counts
// factory calls.
func theoraTestRegistry(engine *fakeTheoraEngine, calls *int) *Registry {
	reg := newTestRegistry()
	reg.RegisterTheoraEngine(ProviderCustom, func(EngineConfig) (TheoraEngine, error) {
		*calls++
		return engine, nil
	})
	return reg
}

func newTestTheoraDecoder(t *testing.T, engine *fakeTheoraEngine) *TheoraDecoder {
	t.Helper()
	var calls int
	dec, err := NewTheoraDecoder(theoraHeaderBlob(32, 16), DecoderConfig{Registry: theoraTestRegistry(engine, &calls)})
	require.NoError(t, err)
	t.Cleanup(func() { dec.Close() })
	return dec
}

func TestTheoraDecoder_HeadersInOrder(t *testing.T) {
	engine := newFakeTheoraEngine(32, 16)
	dec := newTestTheoraDecoder(t, engine)

	require.Len(t, engine.headers, 3)
	for i, kind := range []byte{theoraHeaderIdentification, theoraHeaderComment, theoraHeaderSetup} {
		assert.Equal(t, kind, engine.headers[i][0], "header %d", i)
	}
	assert.True(t, engine.started)
	assert.Equal(t, dec.Headers().Setup, engine.headers[2])
	assert.Equal(t, "fake", dec.Info().Vendor)
	assert.Equal(t, ProviderCustom, dec.Provider())
	assert.Equal(t, CodecTheora, dec.Codec())
}

func TestTheoraDecoder_MalformedBlobSkipsEngine(t *testing.T) {
	blobs := map[string][]byte{
		"empty":   nil,
		"swapped": append(append(theoraIdentification(16, 16), theoraSetup(8)...), theoraComment("v")...),
	}
	for name, blob := range blobs {
		t.Run(name, func(t *testing.T) {
			var calls int
			reg := theoraTestRegistry(newFakeTheoraEngine(16, 16), &calls)

			dec, err := NewTheoraDecoder(blob, DecoderConfig{Registry: reg})
			assert.Nil(t, dec)
			assert.ErrorIs(t, err, ErrMalformedHeaders)
			assert.Zero(t, calls, "engine must not be created")
		})
	}
}

func TestTheoraDecoder_HeaderRejected(t *testing.T) {
	engine := newFakeTheoraEngine(16, 16)
	engine.rejectHeader = 2
	var calls int

	dec, err := NewTheoraDecoder(theoraHeaderBlob(16, 16), DecoderConfig{Registry: theoraTestRegistry(engine, &calls)})
	assert.Nil(t, dec)
	require.ErrorIs(t, err, ErrMalformedHeaders)
	assert.ErrorIs(t, err, errFakeCorrupt)
	assert.Len(t, engine.headers, 2, "setup header is not fed after a rejection")
	assert.False(t, engine.started)
	assert.Equal(t, 1, engine.closes)
}

func TestTheoraDecoder_StartFails(t *testing.T) {
	engine := newFakeTheoraEngine(16, 16)
	engine.startErr = errors.New("setup tables")
	var calls int

	_, err := NewTheoraDecoder(theoraHeaderBlob(16, 16), DecoderConfig{Registry: theoraTestRegistry(engine, &calls)})
	require.ErrorIs(t, err, ErrEngineInitFailed)

	var de *DecoderError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodecTheora, de.Codec)
	assert.Equal(t, "open", de.Op)
	assert.Equal(t, 1, engine.closes)
}

func TestTheoraDecoder_NoEngine(t *testing.T) {
	_, err := NewTheoraDecoder(theoraHeaderBlob(16, 16), DecoderConfig{Registry: newTestRegistry()})
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestTheoraDecoder_Decode(t *testing.T) {
	engine := newFakeTheoraEngine(32, 16)
	dec := newTestTheoraDecoder(t, engine)

	require.NoError(t, dec.Decode([]byte{fakePicture, 0x42}))
	img, ok := dec.Image()
	require.True(t, ok)
	assert.Equal(t, 32, img.Width())
	assert.Equal(t, 16, img.Height())
	assert.Equal(t, byte(0x42), img.Y().Row(15)[31])
	assert.Equal(t, 8, img.V().Height)

	require.NoError(t, dec.Decode([]byte{fakePicture, 0x43}))
	assert.False(t, img.Valid(), "earlier view is stale")
	assert.Equal(t, int64(2), dec.PacketCount())
}

func TestTheoraDecoder_PacketNumbers(t *testing.T) {
	engine := newFakeTheoraEngine(16, 16)
	dec := newTestTheoraDecoder(t, engine)

	require.NoError(t, dec.Decode([]byte{fakePicture}))
	assert.ErrorIs(t, dec.Decode([]byte{fakeError}), ErrDecodeFailed)
	assert.ErrorIs(t, dec.Decode([]byte{fakeNoPicture}), ErrDecodeFailed)
	require.NoError(t, dec.Decode([]byte{fakePicture}))

	assert.Equal(t, []int64{1, 2, 3, 4}, engine.packetNos)
	assert.Equal(t, int64(4), dec.PacketCount())

	stats := dec.Stats()
	assert.Equal(t, uint64(2), stats.UnitsDecoded)
	assert.Equal(t, uint64(2), stats.FramesDecoded)
	assert.Equal(t, uint64(2), stats.DecodeErrors)
}

func TestTheoraDecoder_DroppedFrame(t *testing.T) {
	dec := newTestTheoraDecoder(t, newFakeTheoraEngine(16, 16))

	require.NoError(t, dec.Decode([]byte{fakePicture, 7}))
	require.NoError(t, dec.Decode([]byte{}))

	img, ok := dec.Image()
	require.True(t, ok)
	assert.Equal(t, byte(7), img.Y().Row(0)[0])
}

func TestTheoraDecoder_UnsupportedFormat(t *testing.T) {
	dec := newTestTheoraDecoder(t, newFakeTheoraEngine(16, 16))

	require.ErrorIs(t, dec.Decode([]byte{fakeI444}), ErrUnsupportedFormat)
	_, ok := dec.Image()
	assert.False(t, ok)
}

func TestTheoraDecoder_Teardown(t *testing.T) {
	engine := newFakeTheoraEngine(16, 16)
	dec := newTestTheoraDecoder(t, engine)

	require.NoError(t, dec.Decode([]byte{fakePicture}))
	img, _ := dec.Image()

	require.NoError(t, dec.Close())
	require.NoError(t, dec.Close())
	assert.Equal(t, 1, engine.closes)
	assert.False(t, img.Valid())
	assert.Nil(t, img.Y().Data)

	assert.ErrorIs(t, dec.Decode([]byte{fakePicture}), ErrUseAfterTeardown)
	_, ok := dec.Image()
	assert.False(t, ok)
	assert.Equal(t, int64(-1), dec.PacketCount())
	assert.Empty(t, dec.Info().Vendor)
	assert.Nil(t, dec.Headers().Setup)
}

func TestTheoraDecoder_CreateClose(t *testing.T) {
	for i := 0; i < 100; i++ {
		engine := newFakeTheoraEngine(16, 16)
		var calls int
		dec, err := NewTheoraDecoder(theoraHeaderBlob(16, 16), DecoderConfig{Registry: theoraTestRegistry(engine, &calls)})
		require.NoError(t, err)
		require.NoError(t, dec.Close())
		require.Equal(t, 1, engine.closes)
	}
}
