//go:build (darwin || linux) && (amd64 || arm64) && !noaac

// AAC engine over libmedia_aac, a thin wrapper around libavcodec's AAC
// decoder, loaded at runtime with purego.
//
// Library locations checked (in order):
//   - Registry library path (WithLibraryPath)
//   - MEDIA_AAC_LIB_PATH environment variable
//   - MEDIA_SDK_LIB_PATH environment variable
//   - executable and build/ directories
//   - System library paths

package mediadec

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/pion/logging"
)

var libMediaAAC = &nativeLibrary{name: "media_aac", envVar: "MEDIA_AAC_LIB_PATH"}

// libmedia_aac function pointers
var (
	mediaAACDecoderCreate  func(sampleRate, channels int32) uint64
	mediaAACDecoderDecode  func(decoder uint64, data uintptr, dataLen int32, resultOut uintptr) int32
	mediaAACDecoderDestroy func(decoder uint64)
	mediaAACGetError       func() uintptr
	mediaAACCodecAvailable func() int32
	mediaAACSetLogCallback func(cb uintptr)
)

const mediaAACMaxPlanes = 8

// mediaAACDecodeResult matches media_aac_decode_result_t in C.
// It must be heap-allocated for purego to work correctly on arm64.
type mediaAACDecodeResult struct {
	Planes   [mediaAACMaxPlanes]uint64 // Per-channel sample planes
	Samples  int32                     // Samples per channel
	Channels int32                     // Channels in the frame
	Format   int32                     // AVSampleFormat
	GotFrame int32                     // 1 if a frame was produced
}

// AVSampleFormat values reported by libavcodec.
const (
	avSampleFmtS16  = 1
	avSampleFmtFLT  = 3
	avSampleFmtS16P = 6
	avSampleFmtFLTP = 8
)

func avSampleFormat(f int32) SampleFormat {
	switch f {
	case avSampleFmtS16:
		return SampleFormatS16
	case avSampleFmtFLT:
		return SampleFormatF32
	case avSampleFmtS16P:
		return SampleFormatS16Planar
	case avSampleFmtFLTP:
		return SampleFormatF32Planar
	default:
		return SampleFormatUnknown
	}
}

func bindMediaAAC(handle uintptr) error {
	return bindSymbols(handle, []symbol{
		{&mediaAACDecoderCreate, "media_aac_decoder_create"},
		{&mediaAACDecoderDecode, "media_aac_decoder_decode"},
		{&mediaAACDecoderDestroy, "media_aac_decoder_destroy"},
		{&mediaAACGetError, "media_aac_get_error"},
		{&mediaAACCodecAvailable, "media_aac_codec_available"},
		{&mediaAACSetLogCallback, "media_aac_set_log_callback"},
	})
}

func getAACError() string {
	ptr := mediaAACGetError()
	if ptr == 0 {
		return "unknown error"
	}
	return goStringFromPtr(ptr)
}

// libavcodec log levels
const (
	avLogError   = 16
	avLogWarning = 24
	avLogInfo    = 32
	avLogVerbose = 40
)

var (
	aacLogOnce   sync.Once
	aacLogTarget atomic.Value // logging.LeveledLogger
)

// installAACLogCallback routes libavcodec diagnostics to log. The callback is
// process-wide; the first registry to load the engine owns it.
func installAACLogCallback(log logging.LeveledLogger) {
	aacLogOnce.Do(func() {
		aacLogTarget.Store(log)
		mediaAACSetLogCallback(purego.NewCallback(aacLogCallback))
	})
}

func aacLogCallback(level int32, msg uintptr) {
	log, ok := aacLogTarget.Load().(logging.LeveledLogger)
	if !ok {
		return
	}
	text := strings.TrimRight(goStringFromPtr(msg), "\n")
	switch {
	case level <= avLogError:
		log.Errorf("libav: %s", text)
	case level <= avLogWarning:
		log.Warnf("libav: %s", text)
	case level <= avLogInfo:
		log.Infof("libav: %s", text)
	case level <= avLogVerbose:
		log.Debugf("libav: %s", text)
	default:
		log.Tracef("libav: %s", text)
	}
}

// aacEngine implements AudioEngine using libmedia_aac.
type aacEngine struct {
	handle       uint64
	decodeResult *mediaAACDecodeResult
	planes       [][]float32
}

func newAACEngine(params AudioParams, _ EngineConfig) (AudioEngine, error) {
	handle := mediaAACDecoderCreate(int32(params.SampleRate), int32(params.Channels))
	if handle == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEngineInitFailed, getAACError())
	}
	return &aacEngine{
		handle:       handle,
		decodeResult: &mediaAACDecodeResult{},
		planes:       make([][]float32, 0, mediaAACMaxPlanes),
	}, nil
}

func (e *aacEngine) Submit(data []byte) (int, bool, error) {
	if e.handle == 0 {
		return 0, false, errors.New("decoder not initialized")
	}

	out := e.decodeResult
	consumed := mediaAACDecoderDecode(
		e.handle,
		uintptr(unsafe.Pointer(&data[0])),
		int32(len(data)),
		uintptr(unsafe.Pointer(out)),
	)
	runtime.KeepAlive(data)
	runtime.KeepAlive(out)

	if consumed < 0 {
		return 0, false, fmt.Errorf("libavcodec: %s", getAACError())
	}
	return int(consumed), out.GotFrame != 0, nil
}

func (e *aacEngine) Frame() AudioFrame {
	out := e.decodeResult
	frame := AudioFrame{
		Format:   avSampleFormat(out.Format),
		Samples:  int(out.Samples),
		Channels: int(out.Channels),
	}
	if frame.Format != SampleFormatF32Planar || frame.Samples <= 0 {
		return frame
	}

	e.planes = e.planes[:0]
	for ch := 0; ch < frame.Channels && ch < mediaAACMaxPlanes; ch++ {
		ptr := uintptr(out.Planes[ch])
		if ptr == 0 {
			break
		}
		e.planes = append(e.planes, unsafe.Slice((*float32)(unsafe.Pointer(ptr)), frame.Samples))
	}
	frame.Planes = e.planes
	return frame
}

func (e *aacEngine) Close() error {
	if e.handle != 0 {
		mediaAACDecoderDestroy(e.handle)
		e.handle = 0
	}
	return nil
}

func init() {
	registerBuiltinEngine(ProviderLibavcodec, func(r *Registry) error {
		if _, err := libMediaAAC.load(r.libraryPath, bindMediaAAC); err != nil {
			return err
		}
		if mediaAACCodecAvailable() == 0 {
			return errors.New("libavcodec built without AAC decoder")
		}
		installAACLogCallback(r.logger("engine"))
		r.RegisterAudioEngine(CodecAAC, ProviderLibavcodec, newAACEngine)
		return nil
	})
}
