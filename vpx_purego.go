//go:build (darwin || linux) && !novpx

// VP8 engine over libmedia_vpx, a thin wrapper around libvpx with a
// primitive-only API, loaded at runtime with purego.
//
// Library locations checked (in order):
//   - Registry library path (WithLibraryPath)
//   - MEDIA_VPX_LIB_PATH environment variable
//   - MEDIA_SDK_LIB_PATH environment variable
//   - executable and build/ directories
//   - System library paths

package mediadec

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"
)

var libMediaVPX = &nativeLibrary{name: "media_vpx", envVar: "MEDIA_VPX_LIB_PATH"}

// libmedia_vpx function pointers
var (
	mediaVPXDecoderCreate   func(codec, threads int32) uint64
	mediaVPXDecoderDecodeV2 func(decoder uint64, data uintptr, dataLen int32, resultOut uintptr) int32
	mediaVPXDecoderReset    func(decoder uint64) int32
	mediaVPXDecoderDestroy  func(decoder uint64)

	mediaVPXGetError       func() uintptr
	mediaVPXCodecAvailable func(codec int32) int32
)

// mediaVPXDecodeResult matches media_vpx_decode_result_t in C.
// It must be heap-allocated for purego to work correctly on arm64.
type mediaVPXDecodeResult struct {
	YPtr     uint64 // Pointer to Y plane
	UPtr     uint64 // Pointer to U plane
	VPtr     uint64 // Pointer to V plane
	YStride  int32  // Y plane stride
	UVStride int32  // UV plane stride
	Width    int32  // Frame width
	Height   int32  // Frame height
	Result   int32  // 1=decoded, 0=no picture, <0=error
	Reserved int32  // Padding for alignment
}

// Constants from media_vpx.h
const (
	mediaVPXCodecVP8 = 0

	mediaVPXOK = 0
)

func bindMediaVPX(handle uintptr) error {
	return bindSymbols(handle, []symbol{
		{&mediaVPXDecoderCreate, "media_vpx_decoder_create"},
		{&mediaVPXDecoderDecodeV2, "media_vpx_decoder_decode_v2"},
		{&mediaVPXDecoderReset, "media_vpx_decoder_reset"},
		{&mediaVPXDecoderDestroy, "media_vpx_decoder_destroy"},
		{&mediaVPXGetError, "media_vpx_get_error"},
		{&mediaVPXCodecAvailable, "media_vpx_codec_available"},
	})
}

func getVPXError() string {
	ptr := mediaVPXGetError()
	if ptr == 0 {
		return "unknown error"
	}
	return goStringFromPtr(ptr)
}

// vpxEngine implements VideoEngine using libmedia_vpx.
type vpxEngine struct {
	handle       uint64
	decodeResult *mediaVPXDecodeResult
	pending      bool
}

func newVPXEngine(cfg EngineConfig) (VideoEngine, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = 1
	}

	handle := mediaVPXDecoderCreate(mediaVPXCodecVP8, int32(threads))
	if handle == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEngineInitFailed, getVPXError())
	}
	return &vpxEngine{
		handle:       handle,
		decodeResult: &mediaVPXDecodeResult{},
	}, nil
}

func (e *vpxEngine) Submit(unit []byte) error {
	if e.handle == 0 {
		return errors.New("decoder not initialized")
	}
	e.pending = false

	out := e.decodeResult
	result := mediaVPXDecoderDecodeV2(
		e.handle,
		uintptr(unsafe.Pointer(&unit[0])),
		int32(len(unit)),
		uintptr(unsafe.Pointer(out)),
	)
	runtime.KeepAlive(unit)
	runtime.KeepAlive(out)

	if result < 0 {
		return fmt.Errorf("libvpx: %s", getVPXError())
	}
	// A successful call without dimensions has no displayable picture.
	e.pending = result > 0 && out.Width > 0 && out.Height > 0 && out.YPtr != 0
	return nil
}

func (e *vpxEngine) NextPicture() (Picture, bool) {
	if !e.pending {
		return Picture{}, false
	}
	e.pending = false

	out := e.decodeResult
	w, h := int(out.Width), int(out.Height)
	cw, ch := (w+1)/2, (h+1)/2
	return Picture{
		Format: PixelFormatI420,
		Width:  w,
		Height: h,
		Planes: [3]Plane{
			nativePlane(uintptr(out.YPtr), w, h, int(out.YStride)),
			nativePlane(uintptr(out.UPtr), cw, ch, int(out.UVStride)),
			nativePlane(uintptr(out.VPtr), cw, ch, int(out.UVStride)),
		},
	}, true
}

// Reset drops reference frames so decoding can resume at the next key frame.
func (e *vpxEngine) Reset() error {
	if e.handle == 0 {
		return errors.New("decoder not initialized")
	}
	if mediaVPXDecoderReset(e.handle) != mediaVPXOK {
		return fmt.Errorf("failed to reset decoder: %s", getVPXError())
	}
	e.pending = false
	return nil
}

func (e *vpxEngine) Close() error {
	if e.handle != 0 {
		mediaVPXDecoderDestroy(e.handle)
		e.handle = 0
	}
	return nil
}

func init() {
	registerBuiltinEngine(ProviderLibvpx, func(r *Registry) error {
		if _, err := libMediaVPX.load(r.libraryPath, bindMediaVPX); err != nil {
			return err
		}
		if mediaVPXCodecAvailable(mediaVPXCodecVP8) == 0 {
			return errors.New("libvpx built without VP8 decoder")
		}
		r.RegisterVideoEngine(CodecVP8, ProviderLibvpx, newVPXEngine)
		return nil
	})
}
