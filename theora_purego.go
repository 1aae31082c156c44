//go:build (darwin || linux) && (amd64 || arm64) && !notheora

// Theora engine over libtheoradec, loaded at runtime with purego. The C
// structs are mirrored with their LP64 layout.

package mediadec

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"
)

var libTheoraDec = &nativeLibrary{
	name:   "theoradec",
	envVar: "MEDIA_THEORA_LIB_PATH",
	extra:  []string{"libtheoradec.so.1", "libtheoradec.1.dylib"},
}

// libtheoradec function pointers
var (
	thVersionString  func() uintptr
	thInfoInit       func(info uintptr)
	thInfoClear      func(info uintptr)
	thCommentInit    func(tc uintptr)
	thCommentClear   func(tc uintptr)
	thDecodeHeaderin func(info, tc, setup, op uintptr) int32
	thDecodeAlloc    func(info, setup uintptr) uintptr
	thSetupFree      func(setup uintptr)
	thDecodePacketin func(dec, op, granpos uintptr) int32
	thDecodeYCbCrOut func(dec, ycbcr uintptr) int32
	thDecodeFree     func(dec uintptr)
)

// Return codes from theora/codec.h
const (
	thDupFrame   = 1
	thEFault     = -1
	thEInval     = -10
	thEBadHeader = -20
	thENotFormat = -21
	thEVersion   = -22
	thEImpl      = -23
	thEBadPacket = -24
)

func theoraError(code int32) string {
	switch code {
	case thEFault:
		return "invalid pointer"
	case thEInval:
		return "invalid argument"
	case thEBadHeader:
		return "bad header"
	case thENotFormat:
		return "not a Theora stream"
	case thEVersion:
		return "unsupported bitstream version"
	case thEImpl:
		return "unimplemented feature"
	case thEBadPacket:
		return "bad packet"
	default:
		return fmt.Sprintf("error %d", code)
	}
}

// thInfo matches th_info.
type thInfo struct {
	VersionMajor         uint8
	VersionMinor         uint8
	VersionSubminor      uint8
	_                    uint8
	FrameWidth           uint32
	FrameHeight          uint32
	PicWidth             uint32
	PicHeight            uint32
	PicX                 uint32
	PicY                 uint32
	FPSNumerator         uint32
	FPSDenominator       uint32
	AspectNumerator      uint32
	AspectDenominator    uint32
	ColorSpace           int32
	PixelFmt             int32
	TargetBitrate        int32
	Quality              int32
	KeyframeGranuleShift int32
}

// thComment matches th_comment.
type thComment struct {
	UserComments   uintptr // char **
	CommentLengths uintptr // int *
	Comments       int32
	_              int32
	Vendor         uintptr // char *
}

// oggPacket matches ogg_packet with a 64-bit long.
type oggPacket struct {
	Packet     uintptr
	Bytes      int64
	BOS        int64
	EOS        int64
	GranulePos int64
	PacketNo   int64
}

// thImgPlane matches th_img_plane.
type thImgPlane struct {
	Width  int32
	Height int32
	Stride int32
	_      int32
	Data   uintptr
}

// theoraState holds everything libtheoradec reads or writes through pointers.
// It is heap allocated and kept alive by the engine.
type theoraState struct {
	info    thInfo
	comment thComment
	packet  oggPacket
	ycbcr   [3]thImgPlane
	setup   uintptr // th_setup_info *
	granpos int64
}

func bindTheoraDec(handle uintptr) error {
	return bindSymbols(handle, []symbol{
		{&thVersionString, "th_version_string"},
		{&thInfoInit, "th_info_init"},
		{&thInfoClear, "th_info_clear"},
		{&thCommentInit, "th_comment_init"},
		{&thCommentClear, "th_comment_clear"},
		{&thDecodeHeaderin, "th_decode_headerin"},
		{&thDecodeAlloc, "th_decode_alloc"},
		{&thSetupFree, "th_setup_free"},
		{&thDecodePacketin, "th_decode_packetin"},
		{&thDecodeYCbCrOut, "th_decode_ycbcr_out"},
		{&thDecodeFree, "th_decode_free"},
	})
}

// theoraEngine implements TheoraEngine using libtheoradec.
type theoraEngine struct {
	s       *theoraState
	dec     uintptr // th_dec_ctx *
	headers int
}

func newTheoraEngine(EngineConfig) (TheoraEngine, error) {
	s := &theoraState{}
	thInfoInit(uintptr(unsafe.Pointer(&s.info)))
	thCommentInit(uintptr(unsafe.Pointer(&s.comment)))
	runtime.KeepAlive(s)
	return &theoraEngine{s: s}, nil
}

// setPacket points the shared ogg_packet at data. The caller pins data.
func (e *theoraEngine) setPacket(data []byte, bos bool, packetNo int64) {
	e.s.packet = oggPacket{Bytes: int64(len(data)), PacketNo: packetNo}
	if len(data) > 0 {
		e.s.packet.Packet = uintptr(unsafe.Pointer(&data[0]))
	}
	if bos {
		e.s.packet.BOS = 1
	}
}

func (e *theoraEngine) HeaderIn(packet []byte) error {
	if e.s == nil {
		return errors.New("decoder closed")
	}
	if e.dec != 0 {
		return errors.New("decoder already started")
	}
	if len(packet) == 0 {
		return errors.New("empty header packet")
	}

	var pinner runtime.Pinner
	pinner.Pin(&packet[0])
	defer pinner.Unpin()

	s := e.s
	e.setPacket(packet, e.headers == 0, int64(e.headers))
	ret := thDecodeHeaderin(
		uintptr(unsafe.Pointer(&s.info)),
		uintptr(unsafe.Pointer(&s.comment)),
		uintptr(unsafe.Pointer(&s.setup)),
		uintptr(unsafe.Pointer(&s.packet)),
	)
	runtime.KeepAlive(s)
	s.packet = oggPacket{}
	e.headers++

	switch {
	case ret < 0:
		return fmt.Errorf("th_decode_headerin: %s", theoraError(ret))
	case ret == 0:
		return errors.New("th_decode_headerin: not a header packet")
	}
	return nil
}

func (e *theoraEngine) Start() error {
	if e.s == nil {
		return errors.New("decoder closed")
	}
	if e.headers < 3 || e.s.setup == 0 {
		return fmt.Errorf("th_decode_alloc: %d of 3 headers ingested", e.headers)
	}

	s := e.s
	e.dec = thDecodeAlloc(uintptr(unsafe.Pointer(&s.info)), s.setup)
	runtime.KeepAlive(s)
	thSetupFree(s.setup)
	s.setup = 0
	if e.dec == 0 {
		return errors.New("th_decode_alloc failed")
	}
	return nil
}

func (e *theoraEngine) PacketIn(packet []byte, packetNo int64) error {
	if e.dec == 0 {
		return errors.New("decoder not started")
	}

	// A zero-byte packet is a dropped frame; libtheoradec repeats the last one.
	var pinner runtime.Pinner
	if len(packet) > 0 {
		pinner.Pin(&packet[0])
	}
	defer pinner.Unpin()

	s := e.s
	e.setPacket(packet, false, packetNo)
	ret := thDecodePacketin(
		e.dec,
		uintptr(unsafe.Pointer(&s.packet)),
		uintptr(unsafe.Pointer(&s.granpos)),
	)
	runtime.KeepAlive(s)
	s.packet = oggPacket{}

	if ret < 0 {
		return fmt.Errorf("th_decode_packetin: %s", theoraError(ret))
	}
	return nil
}

func (e *theoraEngine) Picture() (Picture, error) {
	if e.dec == 0 {
		return Picture{}, errors.New("decoder not started")
	}

	s := e.s
	if ret := thDecodeYCbCrOut(e.dec, uintptr(unsafe.Pointer(&s.ycbcr))); ret != 0 {
		return Picture{}, fmt.Errorf("th_decode_ycbcr_out: %s", theoraError(ret))
	}
	runtime.KeepAlive(s)

	pic := Picture{
		Format: theoraPixelFormat(int(s.info.PixelFmt)),
		Width:  int(s.ycbcr[0].Width),
		Height: int(s.ycbcr[0].Height),
	}
	for i, p := range s.ycbcr {
		pic.Planes[i] = nativePlane(p.Data, int(p.Width), int(p.Height), int(p.Stride))
	}
	return pic, nil
}

func (e *theoraEngine) Info() TheoraInfo {
	if e.s == nil {
		return TheoraInfo{}
	}
	in := &e.s.info
	info := TheoraInfo{
		Version:              [3]uint8{in.VersionMajor, in.VersionMinor, in.VersionSubminor},
		FrameWidth:           int(in.FrameWidth),
		FrameHeight:          int(in.FrameHeight),
		PictureWidth:         int(in.PicWidth),
		PictureHeight:        int(in.PicHeight),
		PictureX:             int(in.PicX),
		PictureY:             int(in.PicY),
		FPSNumerator:         int(in.FPSNumerator),
		FPSDenominator:       int(in.FPSDenominator),
		AspectNumerator:      int(in.AspectNumerator),
		AspectDenominator:    int(in.AspectDenominator),
		ColorSpace:           int(in.ColorSpace),
		PixelFormat:          theoraPixelFormat(int(in.PixelFmt)),
		TargetBitrate:        int(in.TargetBitrate),
		Quality:              int(in.Quality),
		KeyframeGranuleShift: int(in.KeyframeGranuleShift),
	}

	tc := &e.s.comment
	info.Vendor = goStringFromPtr(tc.Vendor)
	if tc.Comments > 0 && tc.UserComments != 0 && tc.CommentLengths != 0 {
		ptrs := unsafe.Slice((*uintptr)(unsafe.Pointer(tc.UserComments)), tc.Comments)
		lens := unsafe.Slice((*int32)(unsafe.Pointer(tc.CommentLengths)), tc.Comments)
		info.Comments = make([]string, 0, tc.Comments)
		for i := range ptrs {
			info.Comments = append(info.Comments, goStringN(ptrs[i], int(lens[i])))
		}
	}
	return info
}

func (e *theoraEngine) Close() error {
	s := e.s
	if s == nil {
		return nil
	}
	if e.dec != 0 {
		thDecodeFree(e.dec)
		e.dec = 0
	}
	if s.setup != 0 {
		thSetupFree(s.setup)
		s.setup = 0
	}
	thCommentClear(uintptr(unsafe.Pointer(&s.comment)))
	thInfoClear(uintptr(unsafe.Pointer(&s.info)))
	runtime.KeepAlive(s)
	e.s = nil
	return nil
}

func init() {
	registerBuiltinEngine(ProviderLibtheora, func(r *Registry) error {
		if _, err := libTheoraDec.load(r.libraryPath, bindTheoraDec); err != nil {
			return err
		}
		r.log.Debugf("using %s", goStringFromPtr(thVersionString()))
		r.RegisterTheoraEngine(ProviderLibtheora, newTheoraEngine)
		return nil
	})
}
