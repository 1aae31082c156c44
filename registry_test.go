package mediadec

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRegistry_EnsureInitializedRunsOnce(t *testing.T) {
	reg := newTestRegistry()

	var loads atomic.Int32
	reg.builtins = append(reg.builtins, builtinEngine{
		provider: ProviderCustom,
		load: func(r *Registry) error {
			loads.Add(1)
			r.RegisterVideoEngine(CodecVP8, ProviderCustom, func(EngineConfig) (VideoEngine, error) {
				return newFakeVideoEngine(16, 16), nil
			})
			return nil
		},
	})

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			dec, err := NewVP8Decoder(DecoderConfig{Registry: reg})
			if err != nil {
				return err
			}
			if err := dec.Decode([]byte{fakePicture, 7}); err != nil {
				return err
			}
			return dec.Close()
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), loads.Load())

	reg.EnsureInitialized()
	assert.Equal(t, int32(1), loads.Load())
}

func TestRegistry_FailedBuiltinIsSkipped(t *testing.T) {
	reg := newTestRegistry()
	reg.builtins = append(reg.builtins, builtinEngine{
		provider: ProviderLibvpx,
		load:     func(*Registry) error { return errors.New("library not found") },
	})

	reg.EnsureInitialized()

	assert.False(t, reg.Available(ProviderLibvpx))
	assert.Empty(t, reg.Providers(CodecVP8))

	_, err := NewVP8Decoder(DecoderConfig{Registry: reg})
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestRegistry_ProviderResolution(t *testing.T) {
	reg := newTestRegistry()
	var chosen []Provider
	factory := func(p Provider) VideoEngineFactory {
		return func(EngineConfig) (VideoEngine, error) {
			chosen = append(chosen, p)
			return newFakeVideoEngine(16, 16), nil
		}
	}
	reg.RegisterVideoEngine(CodecVP8, ProviderGoVP8, factory(ProviderGoVP8))
	reg.RegisterVideoEngine(CodecVP8, ProviderLibvpx, factory(ProviderLibvpx))

	tests := []struct {
		name string
		want Provider
		got  Provider
	}{
		{"auto prefers native", ProviderAuto, ProviderLibvpx},
		{"explicit pure go", ProviderGoVP8, ProviderGoVP8},
		{"explicit native", ProviderLibvpx, ProviderLibvpx},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := NewVP8Decoder(DecoderConfig{Registry: reg, Provider: tt.want})
			require.NoError(t, err)
			defer dec.Close()
			assert.Equal(t, tt.got, dec.Provider())
			assert.Equal(t, tt.got, chosen[len(chosen)-1])
		})
	}

	assert.Equal(t, []Provider{ProviderLibvpx, ProviderGoVP8}, reg.Providers(CodecVP8))
}

func TestRegistry_CustomEngineWinsUnderAuto(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterVideoEngine(CodecVP8, ProviderGoVP8, newGoVP8Engine)
	reg.RegisterVideoEngine(CodecVP8, ProviderCustom, func(EngineConfig) (VideoEngine, error) {
		return newFakeVideoEngine(16, 16), nil
	})

	dec, err := NewVP8Decoder(DecoderConfig{Registry: reg})
	require.NoError(t, err)
	defer dec.Close()
	assert.Equal(t, ProviderCustom, dec.Provider())
}

func TestRegistry_UnregisteredProvider(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterVideoEngine(CodecVP8, ProviderGoVP8, newGoVP8Engine)

	_, err := NewVP8Decoder(DecoderConfig{Registry: reg, Provider: ProviderLibvpx})
	require.ErrorIs(t, err, ErrEngineUnavailable)

	var decErr *DecoderError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, CodecVP8, decErr.Codec)
	assert.Equal(t, "open", decErr.Op)
}

func TestRegistry_IgnoresAutoRegistration(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterVideoEngine(CodecVP8, ProviderAuto, newGoVP8Engine)

	assert.False(t, reg.Available(ProviderAuto))
	assert.Empty(t, reg.Providers(CodecVP8))
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
	assert.Same(t, DefaultRegistry(), DecoderConfig{}.registry())

	reg := newTestRegistry()
	assert.Same(t, reg, DecoderConfig{Registry: reg}.registry())
}

func TestDefaultRegistry_HasPureGoVP8(t *testing.T) {
	reg := DefaultRegistry()
	reg.EnsureInitialized()
	assert.True(t, reg.Available(ProviderGoVP8))
	assert.Contains(t, reg.Providers(CodecVP8), ProviderGoVP8)
}
