package mediadec

import (
	"errors"
	"fmt"
)

// Error kinds returned by decoders. Match them with errors.Is.
var (
	ErrEngineUnavailable = errors.New("codec engine unavailable")
	ErrEngineInitFailed  = errors.New("codec engine initialization failed")
	ErrMalformedHeaders  = errors.New("malformed codec headers")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrDecodeFailed      = errors.New("decode failed")
	ErrUseAfterTeardown  = errors.New("decoder used after teardown")
)

// DecoderError describes a failed decoder operation.
// Kind is one of the Err* sentinels; Err is the underlying cause, if any.
type DecoderError struct {
	Codec Codec
	Op    string
	Kind  error
	Err   error
}

func (e *DecoderError) Error() string {
	msg := e.Codec.label() + " " + e.Op + ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecoderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newDecoderError(codec Codec, op string, kind, cause error) *DecoderError {
	return &DecoderError{Codec: codec, Op: op, Kind: kind, Err: cause}
}

func decoderErrorf(codec Codec, op string, kind error, format string, args ...any) *DecoderError {
	return newDecoderError(codec, op, kind, fmt.Errorf(format, args...))
}

// errorKind maps an error to a short label for metrics.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUseAfterTeardown):
		return "use_after_teardown"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrMalformedHeaders):
		return "malformed_headers"
	case errors.Is(err, ErrEngineUnavailable):
		return "engine_unavailable"
	case errors.Is(err, ErrEngineInitFailed):
		return "engine_init_failed"
	case errors.Is(err, ErrDecodeFailed):
		return "decode_failed"
	default:
		return "other"
	}
}
