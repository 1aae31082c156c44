package mediadec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Theora header packet types. Each header starts with its type byte followed
// by "theora".
const (
	theoraHeaderIdentification = 0x80
	theoraHeaderComment        = 0x81
	theoraHeaderSetup          = 0x82

	theoraMarkerLen = 7
)

var theoraMagic = []byte("theora")

// TheoraHeaders holds the three header packets found in an out-of-band header
// blob. The slices alias the blob.
type TheoraHeaders struct {
	Identification []byte
	Comment        []byte
	Setup          []byte

	// Offsets of the identification, comment and setup markers in the blob.
	Offsets [3]int
}

// SplitTheoraHeaders locates the three Theora header packets in blob by their
// markers. The first occurrence of each marker is used and the markers must
// appear in identification, comment, setup order. A marker repeated inside a
// later packet therefore never moves an earlier split point, unlike scanners
// that keep the last occurrence. Bytes before the
// identification marker, such as Xiph lacing, are ignored. The setup header
// runs to the end of the blob.
func SplitTheoraHeaders(blob []byte) (TheoraHeaders, error) {
	if len(blob) == 0 {
		return TheoraHeaders{}, decoderErrorf(CodecTheora, "headers", ErrMalformedHeaders, "empty header blob")
	}

	offsets := [3]int{-1, -1, -1}
	for pos := 1; pos < len(blob); {
		i := bytes.Index(blob[pos:], theoraMagic)
		if i < 0 {
			break
		}
		at := pos + i - 1
		if kind := int(blob[at]) - theoraHeaderIdentification; kind >= 0 && kind < 3 && offsets[kind] < 0 {
			offsets[kind] = at
		}
		pos += i + 1
	}

	names := [3]string{"identification", "comment", "setup"}
	for i, off := range offsets {
		if off < 0 {
			return TheoraHeaders{}, decoderErrorf(CodecTheora, "headers", ErrMalformedHeaders, "missing %s header", names[i])
		}
	}
	if offsets[0] >= offsets[1] || offsets[1] >= offsets[2] {
		return TheoraHeaders{}, decoderErrorf(CodecTheora, "headers", ErrMalformedHeaders,
			"headers out of order at offsets %d, %d, %d", offsets[0], offsets[1], offsets[2])
	}

	return TheoraHeaders{
		Identification: blob[offsets[0]:offsets[1]:offsets[1]],
		Comment:        blob[offsets[1]:offsets[2]:offsets[2]],
		Setup:          blob[offsets[2]:],
		Offsets:        offsets,
	}, nil
}

// Lengths returns the byte lengths of the identification, comment and setup
// headers.
func (h TheoraHeaders) Lengths() [3]int {
	return [3]int{len(h.Identification), len(h.Comment), len(h.Setup)}
}

// Packets returns the headers in the order they must be fed to an engine.
func (h TheoraHeaders) Packets() [3][]byte {
	return [3][]byte{h.Identification, h.Comment, h.Setup}
}

// TheoraInfo describes a Theora stream as declared by its headers.
type TheoraInfo struct {
	Version              [3]uint8
	FrameWidth           int // coded width, a multiple of 16
	FrameHeight          int // coded height, a multiple of 16
	PictureWidth         int
	PictureHeight        int
	PictureX             int
	PictureY             int
	FPSNumerator         int
	FPSDenominator       int
	AspectNumerator      int
	AspectDenominator    int
	ColorSpace           int
	PixelFormat          PixelFormat
	TargetBitrate        int
	Quality              int
	KeyframeGranuleShift int

	Vendor   string
	Comments []string // "TAG=value" user comments
}

// FrameRate returns the frame rate in frames per second, or 0 if unknown.
func (i TheoraInfo) FrameRate() float64 {
	if i.FPSDenominator == 0 {
		return 0
	}
	return float64(i.FPSNumerator) / float64(i.FPSDenominator)
}

// Comment returns the value of the first user comment with the given tag.
// Tags compare case-insensitively.
func (i TheoraInfo) Comment(tag string) (string, bool) {
	for _, c := range i.Comments {
		k, v, ok := strings.Cut(c, "=")
		if ok && strings.EqualFold(k, tag) {
			return v, true
		}
	}
	return "", false
}

// theoraPixelFormat maps the 2-bit pixel format field of the identification
// header.
func theoraPixelFormat(pf int) PixelFormat {
	switch pf {
	case 0:
		return PixelFormatI420
	case 2:
		return PixelFormatI422
	case 3:
		return PixelFormatI444
	default:
		return PixelFormatUnknown
	}
}

// theoraIdentificationLen is the size of a version 3.2 identification header.
const theoraIdentificationLen = 42

// Info parses the identification and comment headers without a codec engine.
func (h TheoraHeaders) Info() (TheoraInfo, error) {
	id := h.Identification
	if len(id) < theoraIdentificationLen {
		return TheoraInfo{}, decoderErrorf(CodecTheora, "headers", ErrMalformedHeaders,
			"identification header is %d bytes, want %d", len(id), theoraIdentificationLen)
	}

	be24 := func(b []byte) int { return int(b[0])<<16 | int(b[1])<<8 | int(b[2]) }
	p := id[theoraMarkerLen:]
	info := TheoraInfo{
		Version:           [3]uint8{p[0], p[1], p[2]},
		FrameWidth:        int(binary.BigEndian.Uint16(p[3:])) * 16,
		FrameHeight:       int(binary.BigEndian.Uint16(p[5:])) * 16,
		PictureWidth:      be24(p[7:]),
		PictureHeight:     be24(p[10:]),
		PictureX:          int(p[13]),
		PictureY:          int(p[14]),
		FPSNumerator:      int(binary.BigEndian.Uint32(p[15:])),
		FPSDenominator:    int(binary.BigEndian.Uint32(p[19:])),
		AspectNumerator:   be24(p[23:]),
		AspectDenominator: be24(p[26:]),
		ColorSpace:        int(p[29]),
		TargetBitrate:     be24(p[30:]),
	}
	// QUAL(6) KFGSHIFT(5) PF(2) reserved(3)
	bits := int(binary.BigEndian.Uint16(p[33:]))
	info.Quality = bits >> 10
	info.KeyframeGranuleShift = (bits >> 5) & 0x1f
	info.PixelFormat = theoraPixelFormat((bits >> 3) & 0x3)

	if info.Version[0] != 3 {
		return info, decoderErrorf(CodecTheora, "headers", ErrMalformedHeaders, "unsupported bitstream version %d.%d.%d",
			info.Version[0], info.Version[1], info.Version[2])
	}

	vendor, comments, err := parseTheoraComments(h.Comment)
	if err != nil {
		return info, err
	}
	info.Vendor = vendor
	info.Comments = comments
	return info, nil
}

// parseTheoraComments parses a comment header: a vendor string and a list of
// user comments, each prefixed by a little-endian 32-bit length.
func parseTheoraComments(hdr []byte) (string, []string, error) {
	if len(hdr) < theoraMarkerLen {
		return "", nil, decoderErrorf(CodecTheora, "headers", ErrMalformedHeaders, "comment header too short")
	}
	p := hdr[theoraMarkerLen:]
	next := func() (string, error) {
		if len(p) < 4 {
			return "", fmt.Errorf("truncated comment header")
		}
		n := binary.LittleEndian.Uint32(p)
		p = p[4:]
		if uint64(n) > uint64(len(p)) {
			return "", fmt.Errorf("comment length %d exceeds header", n)
		}
		s := string(p[:n])
		p = p[n:]
		return s, nil
	}

	vendor, err := next()
	if err != nil {
		return "", nil, newDecoderError(CodecTheora, "headers", ErrMalformedHeaders, err)
	}
	if len(p) < 4 {
		return "", nil, decoderErrorf(CodecTheora, "headers", ErrMalformedHeaders, "missing comment count")
	}
	count := binary.LittleEndian.Uint32(p)
	p = p[4:]
	if uint64(count)*4 > uint64(len(p)) {
		return "", nil, decoderErrorf(CodecTheora, "headers", ErrMalformedHeaders, "comment count %d exceeds header", count)
	}
	comments := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		c, err := next()
		if err != nil {
			return "", nil, newDecoderError(CodecTheora, "headers", ErrMalformedHeaders, err)
		}
		comments = append(comments, c)
	}
	return vendor, comments, nil
}
