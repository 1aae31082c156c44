package mediadec

import (
	"errors"
	"fmt"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

var errVP8PacketLoss = errors.New("vp8 frame dropped after packet loss")

// VP8Unit is one complete VP8 access unit reassembled from RTP packets.
type VP8Unit struct {
	Data      []byte
	Keyframe  bool
	Timestamp uint32
}

// VP8Depacketizer reassembles VP8 access units from RTP payloads (RFC 7741).
// Packets are buffered until the marker bit. A timestamp change drops any
// partial unit; a sequence gap drops the unit being assembled.
type VP8Depacketizer struct {
	depacketizer codecs.VP8Packet
	buffer       []byte
	timestamp    uint32
	lastSeq      uint16
	started      bool
	keyframe     bool
	lost         bool
}

// NewVP8Depacketizer creates a new VP8 RTP depacketizer.
func NewVP8Depacketizer() *VP8Depacketizer {
	return &VP8Depacketizer{}
}

// Push processes an RTP packet and returns a complete unit when the marker bit
// is seen, or nil while the unit is still incomplete.
func (d *VP8Depacketizer) Push(packet *rtp.Packet) (*VP8Unit, error) {
	if _, err := d.depacketizer.Unmarshal(packet.Payload); err != nil {
		return nil, fmt.Errorf("vp8 unmarshal failed: %w", err)
	}

	if d.started {
		if d.timestamp != packet.Timestamp {
			d.buffer = d.buffer[:0]
			d.lost = false
			d.keyframe = false
		} else if packet.SequenceNumber != d.lastSeq+1 {
			d.lost = true
		}
	}
	d.started = true
	d.timestamp = packet.Timestamp
	d.lastSeq = packet.SequenceNumber

	// Start of partition 0 carries the frame tag; bit 0 clear marks a key frame.
	if d.depacketizer.S == 1 && d.depacketizer.PID == 0 {
		if len(d.buffer) > 0 {
			// Marker of the previous unit went missing.
			d.buffer = d.buffer[:0]
			d.lost = false
		}
		d.keyframe = len(d.depacketizer.Payload) > 0 && d.depacketizer.Payload[0]&0x01 == 0
	} else if len(d.buffer) == 0 {
		// Continuation without a start; the head was lost.
		d.lost = true
	}

	d.buffer = append(d.buffer, d.depacketizer.Payload...)

	if !packet.Marker {
		return nil, nil
	}

	defer func() {
		d.buffer = d.buffer[:0]
		d.keyframe = false
		d.lost = false
	}()
	if d.lost {
		return nil, errVP8PacketLoss
	}
	unit := &VP8Unit{
		Data:      make([]byte, len(d.buffer)),
		Keyframe:  d.keyframe,
		Timestamp: d.timestamp,
	}
	copy(unit.Data, d.buffer)
	return unit, nil
}

// PushBytes processes raw RTP packet bytes.
func (d *VP8Depacketizer) PushBytes(data []byte) (*VP8Unit, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return nil, err
	}
	return d.Push(&pkt)
}

// Reset clears any buffered partial unit.
func (d *VP8Depacketizer) Reset() {
	d.buffer = d.buffer[:0]
	d.timestamp = 0
	d.lastSeq = 0
	d.started = false
	d.keyframe = false
	d.lost = false
}

// DecodeRTP feeds one RTP packet carrying VP8. When the packet completes an
// access unit, the unit is decoded as by Decode.
func (d *VP8Decoder) DecodeRTP(packet *rtp.Packet) error {
	if d == nil || d.closed {
		return newDecoderError(CodecVP8, "decode", ErrUseAfterTeardown, nil)
	}
	if d.depacketizer == nil {
		d.depacketizer = NewVP8Depacketizer()
	}
	unit, err := d.depacketizer.Push(packet)
	if err != nil {
		err = newDecoderError(CodecVP8, "depacketize", ErrDecodeFailed, err)
		d.log.Debugf("%v", err)
		return err
	}
	if unit == nil {
		return nil
	}
	return d.Decode(unit.Data)
}

// DecodeRTPBytes is DecodeRTP for a raw RTP packet.
func (d *VP8Decoder) DecodeRTPBytes(data []byte) error {
	if d == nil || d.closed {
		return newDecoderError(CodecVP8, "decode", ErrUseAfterTeardown, nil)
	}
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return newDecoderError(CodecVP8, "depacketize", ErrDecodeFailed, err)
	}
	return d.DecodeRTP(&pkt)
}
