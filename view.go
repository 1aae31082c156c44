package mediadec

// epoch counts output generations of a decoder. Views record the generation
// they were taken at and go stale once the owner advances.
type epoch struct {
	n uint64
}

func (e *epoch) advance() { e.n++ }

func (e *epoch) current(at uint64) bool {
	return e != nil && e.n == at
}

// PCMView borrows the interleaved float32 PCM of the last decoded AAC frame.
// It is valid until the next Decode or Close on the decoder it came from.
type PCMView struct {
	samples    []float32
	channels   int
	sampleRate int
	owner      *epoch
	at         uint64
}

// Valid reports whether the view still refers to the decoder's current output.
func (v PCMView) Valid() bool {
	return v.owner.current(v.at)
}

// Samples returns interleaved samples [s0c0, s0c1, ..., s1c0, ...].
// It returns nil once the view is stale.
func (v PCMView) Samples() []float32 {
	if !v.Valid() {
		return nil
	}
	return v.samples
}

// Len returns the interleaved sample count.
func (v PCMView) Len() int {
	if !v.Valid() {
		return 0
	}
	return len(v.samples)
}

// Channels returns the channel count of the decoded frame.
func (v PCMView) Channels() int { return v.channels }

// SampleRate returns the configured sample rate.
func (v PCMView) SampleRate() int { return v.sampleRate }

// Frames returns the number of samples per channel.
func (v PCMView) Frames() int {
	if v.channels == 0 {
		return 0
	}
	return v.Len() / v.channels
}

// Clone copies the samples into a persistent AudioSamples.
// It returns nil once the view is stale.
func (v PCMView) Clone() *AudioSamples {
	if !v.Valid() {
		return nil
	}
	return &AudioSamples{
		Data:        encodeFloat32(v.samples),
		SampleRate:  v.sampleRate,
		Channels:    v.channels,
		SampleCount: v.Frames(),
	}
}

// Plane describes one image plane in borrowed memory.
//
// Data starts at the lowest-addressed row. Stride is the byte distance from
// row y to row y+1 and is negative for images stored bottom-up, in which case
// row 0 is the last row in Data.
type Plane struct {
	Data   []byte
	Width  int
	Height int
	Stride int
}

// Row returns the Width bytes of row y, or nil if y is out of range.
func (p Plane) Row(y int) []byte {
	if y < 0 || y >= p.Height || p.Width <= 0 {
		return nil
	}
	off := y * p.Stride
	if p.Stride < 0 {
		off = (p.Height - 1 - y) * -p.Stride
	}
	end := off + p.Width
	if off < 0 || end > len(p.Data) {
		return nil
	}
	return p.Data[off:end:end]
}

// packed copies the plane into a new buffer with stride equal to Width.
func (p Plane) packed() []byte {
	out := make([]byte, p.Width*p.Height)
	for y := 0; y < p.Height; y++ {
		copy(out[y*p.Width:], p.Row(y))
	}
	return out
}

// PlanarImage borrows the Y, U and V planes of the last decoded picture.
// It is valid until the next Decode or Close on the decoder it came from;
// after that every accessor returns zero values.
type PlanarImage struct {
	pic   Picture
	owner *epoch
	at    uint64
}

func newPlanarImage(pic Picture, owner *epoch) PlanarImage {
	return PlanarImage{pic: pic, owner: owner, at: owner.n}
}

// Valid reports whether the image still refers to the decoder's current output.
func (img PlanarImage) Valid() bool {
	return img.owner.current(img.at)
}

// Width returns the luma width in pixels.
func (img PlanarImage) Width() int { return img.pic.Width }

// Height returns the luma height in pixels.
func (img PlanarImage) Height() int { return img.pic.Height }

// Format returns the pixel format.
func (img PlanarImage) Format() PixelFormat { return img.pic.Format }

// Plane returns plane i (0 = Y, 1 = U, 2 = V).
func (img PlanarImage) Plane(i int) Plane {
	if i < 0 || i > 2 || !img.Valid() {
		return Plane{}
	}
	return img.pic.Planes[i]
}

// Y returns the luma plane.
func (img PlanarImage) Y() Plane { return img.Plane(0) }

// U returns the Cb plane.
func (img PlanarImage) U() Plane { return img.Plane(1) }

// V returns the Cr plane.
func (img PlanarImage) V() Plane { return img.Plane(2) }

// Clone copies the picture into a persistent, tightly packed VideoFrame.
// It returns nil once the image is stale.
func (img PlanarImage) Clone() *VideoFrame {
	if !img.Valid() {
		return nil
	}
	frame := &VideoFrame{
		Data:   make([][]byte, 3),
		Stride: make([]int, 3),
		Width:  img.pic.Width,
		Height: img.pic.Height,
		Format: img.pic.Format,
	}
	for i, p := range img.pic.Planes {
		frame.Data[i] = p.packed()
		frame.Stride[i] = p.Width
	}
	return frame
}
