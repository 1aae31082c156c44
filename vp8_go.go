package mediadec

import (
	"bytes"
	"errors"
	"image"

	"golang.org/x/image/vp8"
)

var errVP8InterFrame = errors.New("inter frames are not supported by the pure Go decoder")

// goVP8Engine implements VideoEngine with golang.org/x/image/vp8. It decodes
// key frames only, which is enough for still images and streams that are
// sent as all-intra.
type goVP8Engine struct {
	dec     *vp8.Decoder
	reader  bytes.Reader
	img     *image.YCbCr
	pending bool
}

func newGoVP8Engine(EngineConfig) (VideoEngine, error) {
	return &goVP8Engine{dec: vp8.NewDecoder()}, nil
}

func (e *goVP8Engine) Submit(unit []byte) error {
	e.pending = false
	e.reader.Reset(unit)
	e.dec.Init(&e.reader, len(unit))

	fh, err := e.dec.DecodeFrameHeader()
	if err != nil {
		return err
	}
	if !fh.KeyFrame {
		return errVP8InterFrame
	}
	// x/image/vp8 decodes into the image it returned last time, which the
	// caller may still be reading. A hidden frame is never displayed and
	// the decoder keeps no reference state, so it is not decoded at all.
	if !fh.ShowFrame {
		return nil
	}
	img, err := e.dec.DecodeFrame()
	if err != nil {
		return err
	}
	e.img = img
	e.pending = true
	return nil
}

func (e *goVP8Engine) NextPicture() (Picture, bool) {
	if !e.pending || e.img == nil {
		return Picture{}, false
	}
	e.pending = false

	img := e.img
	w, h := img.Rect.Dx(), img.Rect.Dy()
	format := PixelFormatUnknown
	if img.SubsampleRatio == image.YCbCrSubsampleRatio420 {
		format = PixelFormatI420
	}
	cw, ch := (w+1)/2, (h+1)/2
	return Picture{
		Format: format,
		Width:  w,
		Height: h,
		Planes: [3]Plane{
			{Data: img.Y, Width: w, Height: h, Stride: img.YStride},
			{Data: img.Cb, Width: cw, Height: ch, Stride: img.CStride},
			{Data: img.Cr, Width: cw, Height: ch, Stride: img.CStride},
		},
	}, true
}

func (e *goVP8Engine) Close() error {
	e.dec = nil
	e.img = nil
	e.pending = false
	return nil
}

func init() {
	registerBuiltinEngine(ProviderGoVP8, func(r *Registry) error {
		r.RegisterVideoEngine(CodecVP8, ProviderGoVP8, newGoVP8Engine)
		return nil
	})
}
