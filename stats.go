package mediadec

// DecoderStats contains decoder statistics.
type DecoderStats struct {
	UnitsDecoded  uint64 // Units accepted by Decode
	FramesDecoded uint64 // PCM frames or pictures produced
	BytesDecoded  uint64 // Compressed bytes consumed
	EmptyUnits    uint64 // Units that produced no output
	DecodeErrors  uint64 // Decode calls that returned an error
}
