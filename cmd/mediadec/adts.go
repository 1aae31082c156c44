package main

import (
	"errors"
	"fmt"
)

const adtsHeaderLen = 7

var errADTSSync = errors.New("adts: lost sync")

// adtsSampleRates is indexed by the sampling_frequency_index field.
var adtsSampleRates = [...]int{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

// adtsFrame is one ADTS frame with its header stripped.
type adtsFrame struct {
	SampleRate int
	Channels   int
	Payload    []byte
}

// splitADTS splits an ADTS stream into raw AAC access units. The payloads
// alias data.
func splitADTS(data []byte) ([]adtsFrame, error) {
	var frames []adtsFrame
	for off := 0; off < len(data); {
		h := data[off:]
		if len(h) < adtsHeaderLen {
			return frames, fmt.Errorf("adts: truncated header at offset %d", off)
		}
		if h[0] != 0xFF || h[1]&0xF6 != 0xF0 {
			return frames, fmt.Errorf("%w at offset %d", errADTSSync, off)
		}

		headerLen := adtsHeaderLen
		if h[1]&0x01 == 0 {
			headerLen += 2 // CRC
		}
		frameLen := int(h[3]&0x03)<<11 | int(h[4])<<3 | int(h[5])>>5
		if frameLen < headerLen || frameLen > len(h) {
			return frames, fmt.Errorf("adts: bad frame length %d at offset %d", frameLen, off)
		}

		rateIndex := int(h[2]>>2) & 0x0F
		if rateIndex >= len(adtsSampleRates) {
			return frames, fmt.Errorf("adts: bad sample rate index %d at offset %d", rateIndex, off)
		}
		frames = append(frames, adtsFrame{
			SampleRate: adtsSampleRates[rateIndex],
			Channels:   int(h[2]&0x01)<<2 | int(h[3])>>6,
			Payload:    h[headerLen:frameLen],
		})
		off += frameLen
	}
	return frames, nil
}
