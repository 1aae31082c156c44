package mediadec

// Codec identifies the elementary stream codec handled by a decoder.
type Codec int

const (
	CodecUnknown Codec = iota
	CodecAAC
	CodecVP8
	CodecTheora
	codecCount
)

func (c Codec) String() string {
	switch c {
	case CodecAAC:
		return "AAC"
	case CodecVP8:
		return "VP8"
	case CodecTheora:
		return "Theora"
	default:
		return "Unknown"
	}
}

// MimeType returns the MIME type for this codec.
func (c Codec) MimeType() string {
	switch c {
	case CodecAAC:
		return "audio/AAC"
	case CodecVP8:
		return "video/VP8"
	case CodecTheora:
		return "video/theora"
	default:
		return ""
	}
}

// IsVideo reports whether the codec produces pictures.
func (c Codec) IsVideo() bool {
	return c == CodecVP8 || c == CodecTheora
}

// ClockRate returns the RTP clock rate for this codec.
func (c Codec) ClockRate() uint32 {
	if c.IsVideo() {
		return 90000
	}
	return 48000 // AAC varies with the stream, 48kHz is common
}

// label is the lowercase form used for logger scopes and metric labels.
func (c Codec) label() string {
	switch c {
	case CodecAAC:
		return "aac"
	case CodecVP8:
		return "vp8"
	case CodecTheora:
		return "theora"
	default:
		return "unknown"
	}
}
