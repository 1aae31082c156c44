package mediadec

import (
	"errors"
)

var errFakeCorrupt = errors.New("corrupt unit")

// fakeAudioEngine treats each input byte as one frame of byte*16 samples per
// channel. Sample i of channel ch has the value ch*1000+i.
type fakeAudioEngine struct {
	channels int
	format   SampleFormat
	consume  func(remaining []byte) int // bytes consumed per Submit, default 1
	failAt   int                        // 1-based Submit call that fails
	submits  int
	closes   int
	frame    AudioFrame
}

func newFakeAudioEngine(channels int) *fakeAudioEngine {
	return &fakeAudioEngine{channels: channels, format: SampleFormatF32Planar}
}

func (e *fakeAudioEngine) Submit(data []byte) (int, bool, error) {
	e.submits++
	if e.submits == e.failAt {
		return 0, false, errFakeCorrupt
	}
	n := 1
	if e.consume != nil {
		n = e.consume(data)
	}

	samples := int(data[0]) * 16
	planes := make([][]float32, e.channels)
	for ch := range planes {
		p := make([]float32, samples)
		for i := range p {
			p[i] = float32(ch*1000 + i)
		}
		planes[ch] = p
	}
	e.frame = AudioFrame{Format: e.format, Samples: samples, Channels: e.channels, Planes: planes}
	return n, samples > 0, nil
}

func (e *fakeAudioEngine) Frame() AudioFrame { return e.frame }

func (e *fakeAudioEngine) Close() error {
	e.closes++
	return nil
}

// Commands understood by fakeVideoEngine, taken from the first unit byte.
const (
	fakePicture   = 'p' // picture filled with unit[1]
	fakeNoPicture = 'n' // accepted, nothing to show
	fakeError     = 'e' // engine error
	fakeI444      = 'f' // 4:4:4 picture
)

// fakeVideoEngine produces width x height pictures into one reused buffer,
// the way native engines overwrite their output.
type fakeVideoEngine struct {
	width, height int
	buf           [3][]byte
	pending       *Picture
	units         [][]byte
	closes        int
	resets        int
}

func newFakeVideoEngine(width, height int) *fakeVideoEngine {
	return &fakeVideoEngine{width: width, height: height}
}

func (e *fakeVideoEngine) Submit(unit []byte) error {
	e.units = append(e.units, append([]byte(nil), unit...))
	e.pending = nil
	switch unit[0] {
	case fakeError:
		return errFakeCorrupt
	case fakeNoPicture:
		return nil
	case fakeI444:
		pic := e.fill(1, 0)
		pic.Format = PixelFormatI444
		e.pending = &pic
	default:
		fill := byte(0)
		if len(unit) > 1 {
			fill = unit[1]
		}
		pic := e.fill(2, fill)
		e.pending = &pic
	}
	return nil
}

func (e *fakeVideoEngine) fill(sub int, v byte) Picture {
	w, h := e.width, e.height
	cw, ch := (w+sub-1)/sub, (h+sub-1)/sub
	dims := [3][2]int{{w, h}, {cw, ch}, {cw, ch}}
	pic := Picture{Format: PixelFormatI420, Width: w, Height: h}
	for i, d := range dims {
		stride := d[0] + 16
		if len(e.buf[i]) < stride*d[1] {
			e.buf[i] = make([]byte, stride*d[1])
		}
		for j := range e.buf[i] {
			e.buf[i][j] = v
		}
		pic.Planes[i] = Plane{Data: e.buf[i], Width: d[0], Height: d[1], Stride: stride}
	}
	return pic
}

func (e *fakeVideoEngine) NextPicture() (Picture, bool) {
	if e.pending == nil {
		return Picture{}, false
	}
	pic := *e.pending
	e.pending = nil
	return pic, true
}

func (e *fakeVideoEngine) Reset() error {
	e.resets++
	return nil
}

func (e *fakeVideoEngine) Close() error {
	e.closes++
	return nil
}

// fakeTheoraEngine records the calls made by TheoraDecoder.
type fakeTheoraEngine struct {
	video        *fakeVideoEngine
	headers      [][]byte
	rejectHeader int // 1-based header that is rejected
	startErr     error
	started      bool
	packetNos    []int64
	last         *Picture
	closes       int
}

func newFakeTheoraEngine(width, height int) *fakeTheoraEngine {
	return &fakeTheoraEngine{video: newFakeVideoEngine(width, height)}
}

func (e *fakeTheoraEngine) HeaderIn(packet []byte) error {
	e.headers = append(e.headers, packet)
	if len(e.headers) == e.rejectHeader {
		return errFakeCorrupt
	}
	return nil
}

func (e *fakeTheoraEngine) Start() error {
	if e.startErr != nil {
		return e.startErr
	}
	e.started = true
	return nil
}

func (e *fakeTheoraEngine) PacketIn(packet []byte, packetNo int64) error {
	e.packetNos = append(e.packetNos, packetNo)
	if len(packet) == 0 {
		// Dropped frame: the previous picture is repeated.
		e.video.pending = e.last
		return nil
	}
	return e.video.Submit(packet)
}

func (e *fakeTheoraEngine) Picture() (Picture, error) {
	pic, ok := e.video.NextPicture()
	if !ok {
		return Picture{}, errors.New("no picture")
	}
	e.last = &pic
	return pic, nil
}

func (e *fakeTheoraEngine) Info() TheoraInfo {
	return TheoraInfo{
		PictureWidth:  e.video.width,
		PictureHeight: e.video.height,
		PixelFormat:   PixelFormatI420,
		Vendor:        "fake",
	}
}

func (e *fakeTheoraEngine) Close() error {
	e.closes++
	return nil
}
