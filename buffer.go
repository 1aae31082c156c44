package mediadec

// PCMBuffer is an owned sample buffer that only grows. Its capacity tracks the
// largest frame seen so far and is never reduced while the owner lives.
type PCMBuffer struct {
	data []float32
}

// EnsureCapacity makes room for at least n bytes of float32 samples.
// When the buffer grows the old contents are discarded and the new capacity is
// exactly n rounded up to a whole sample. It reports whether it reallocated.
func (b *PCMBuffer) EnsureCapacity(n int) bool {
	if n <= b.Cap() {
		return false
	}
	b.data = make([]float32, (n+3)/4)
	return true
}

// Cap returns the capacity in bytes.
func (b *PCMBuffer) Cap() int {
	return len(b.data) * 4
}

// Samples returns the first n float32 samples.
func (b *PCMBuffer) Samples(n int) []float32 {
	return b.data[:n:n]
}

// Release drops the backing storage.
func (b *PCMBuffer) Release() {
	b.data = nil
}
