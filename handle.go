package mediadec

import (
	"errors"
	"sync"
	"time"

	"github.com/pion/logging"
)

// handle carries the lifecycle state shared by all decoders: the teardown
// flag, the output epoch, logging, metrics and statistics.
type handle struct {
	codec    Codec
	provider Provider
	closed   bool
	out      epoch

	log     logging.LeveledLogger
	metrics *Metrics

	stats   DecoderStats
	statsMu sync.Mutex
}

func newHandle(reg *Registry, codec Codec, provider Provider) handle {
	return handle{
		codec:    codec,
		provider: provider,
		log:      reg.logger(codec.label()),
		metrics:  reg.metrics,
	}
}

// Codec returns the codec this decoder handles.
func (h *handle) Codec() Codec { return h.codec }

// Provider returns the engine provider chosen at construction.
func (h *handle) Provider() Provider { return h.provider }

// Stats returns decoder statistics. It is safe to call from any goroutine.
func (h *handle) Stats() DecoderStats {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return h.stats
}

// record accounts for one Decode call.
func (h *handle) record(bytes, frames int, start time.Time, err error) {
	h.statsMu.Lock()
	if err != nil {
		h.stats.DecodeErrors++
	} else {
		h.stats.UnitsDecoded++
		h.stats.BytesDecoded += uint64(bytes)
		h.stats.FramesDecoded += uint64(frames)
		if frames == 0 {
			h.stats.EmptyUnits++
		}
	}
	h.statsMu.Unlock()

	h.metrics.observe(h.codec, bytes, frames, start, err)
	if err != nil {
		h.log.Debugf("%v", err)
	}
}

// release marks the handle torn down. It reports false if it already was.
func (h *handle) release() bool {
	if h.closed {
		return false
	}
	h.closed = true
	h.out.advance()
	h.metrics.closed(h.codec)
	return true
}

// openErrorKind classifies an engine factory error.
func openErrorKind(err error) error {
	for _, kind := range []error{ErrEngineUnavailable, ErrMalformedHeaders, ErrEngineInitFailed} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrEngineInitFailed
}

// closeEngine closes an engine and logs, but never returns, its error.
func closeEngine(log logging.LeveledLogger, c interface{ Close() error }) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warnf("engine close: %v", err)
	}
}
