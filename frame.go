// Core frame and sample types used across the mediadec package.
package mediadec

import (
	"encoding/binary"
	"math"
)

// PixelFormat represents video pixel formats.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatI420                // YUV 4:2:0 planar (Y + U + V)
	PixelFormatI422                // YUV 4:2:2 planar
	PixelFormatI444                // YUV 4:4:4 planar
	PixelFormatNV12                // YUV 4:2:0 semi-planar (Y + interleaved UV)
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatI420:
		return "I420"
	case PixelFormatI422:
		return "I422"
	case PixelFormatI444:
		return "I444"
	case PixelFormatNV12:
		return "NV12"
	default:
		return "Unknown"
	}
}

// PlaneCount returns the number of planes for this pixel format.
func (p PixelFormat) PlaneCount() int {
	switch p {
	case PixelFormatI420, PixelFormatI422, PixelFormatI444:
		return 3 // Y, U, V
	case PixelFormatNV12:
		return 2 // Y, UV
	default:
		return 0
	}
}

// SampleFormat represents audio sample formats produced by an engine.
type SampleFormat int

const (
	SampleFormatUnknown   SampleFormat = iota
	SampleFormatS16                    // Signed 16-bit PCM, interleaved
	SampleFormatS16Planar              // Signed 16-bit PCM, one plane per channel
	SampleFormatF32                    // 32-bit float, interleaved
	SampleFormatF32Planar              // 32-bit float, one plane per channel
)

func (s SampleFormat) String() string {
	switch s {
	case SampleFormatS16:
		return "S16"
	case SampleFormatS16Planar:
		return "S16P"
	case SampleFormatF32:
		return "F32"
	case SampleFormatF32Planar:
		return "F32P"
	default:
		return "Unknown"
	}
}

// BytesPerSample returns the number of bytes per sample for this format.
func (s SampleFormat) BytesPerSample() int {
	switch s {
	case SampleFormatS16, SampleFormatS16Planar:
		return 2
	case SampleFormatF32, SampleFormatF32Planar:
		return 4
	default:
		return 0
	}
}

// Planar reports whether each channel is stored in its own plane.
func (s SampleFormat) Planar() bool {
	return s == SampleFormatS16Planar || s == SampleFormatF32Planar
}

// VideoFrame is a persistent copy of a decoded picture.
type VideoFrame struct {
	Data      [][]byte    // Plane data (Y, U, V)
	Stride    []int       // Stride for each plane in bytes
	Width     int         // Frame width in pixels
	Height    int         // Frame height in pixels
	Format    PixelFormat // Pixel format
	Timestamp int64       // Presentation timestamp in nanoseconds (set by caller)
}

// Clone creates a deep copy of the video frame.
func (f *VideoFrame) Clone() *VideoFrame {
	clone := &VideoFrame{
		Data:      make([][]byte, len(f.Data)),
		Stride:    make([]int, len(f.Stride)),
		Width:     f.Width,
		Height:    f.Height,
		Format:    f.Format,
		Timestamp: f.Timestamp,
	}
	copy(clone.Stride, f.Stride)
	for i, plane := range f.Data {
		if plane != nil {
			clone.Data[i] = make([]byte, len(plane))
			copy(clone.Data[i], plane)
		}
	}
	return clone
}

// I420Size returns the total buffer size needed for an I420 frame.
func I420Size(width, height int) int {
	cw, ch := (width+1)/2, (height+1)/2
	return width*height + 2*cw*ch
}

// AudioSamples is a persistent copy of decoded PCM.
// Data holds interleaved little-endian float32 samples.
type AudioSamples struct {
	Data        []byte // Sample data
	SampleRate  int    // Sample rate (e.g., 48000)
	Channels    int    // Number of channels (1 = mono, 2 = stereo)
	SampleCount int    // Number of samples (per channel)
	Timestamp   int64  // Presentation timestamp in nanoseconds (set by caller)
}

// Clone creates a deep copy of the audio samples.
func (s *AudioSamples) Clone() *AudioSamples {
	clone := &AudioSamples{
		SampleRate:  s.SampleRate,
		Channels:    s.Channels,
		SampleCount: s.SampleCount,
		Timestamp:   s.Timestamp,
	}
	if s.Data != nil {
		clone.Data = make([]byte, len(s.Data))
		copy(clone.Data, s.Data)
	}
	return clone
}

// Float32 decodes the sample data back into interleaved float32 values.
func (s *AudioSamples) Float32() []float32 {
	out := make([]float32, len(s.Data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(s.Data[i*4:]))
	}
	return out
}

func encodeFloat32(samples []float32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
