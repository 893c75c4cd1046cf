// Package ring implements the single-producer/single-consumer byte queue
// that sits between the decoder and the Diretta cycle supplier. All format
// transforms (planar DSD reshaping, bit reversal, byte swap, 16→32
// widening, 24-in-32 packing) happen on the push side so the consumer path
// is a plain memcpy: bytes in the buffer are always already in wire
// format.
//
// This queue has exactly one producer and one consumer, so a lock-free
// atomic head/tail pair is both sufficient and required: the consumer must
// never block or take a lock while audio is flowing.
package ring

import "sync/atomic"

// Buffer is a fixed-capacity, byte-addressable circular buffer. One slot is
// always left empty so a single pair of indices can distinguish full from
// empty without a separate counter; this keeps available always at most
// capacity − 1.
type Buffer struct {
	buf         []byte
	capacity    int
	silenceByte byte

	head atomic.Uint64 // next write index (producer-owned)
	tail atomic.Uint64 // next read index (consumer-owned)
}

// New allocates a ring buffer of the given capacity in bytes. capacity must
// be at least 2; one byte of it is never usable (see Buffer doc comment).
func New(capacity int, silenceByte byte) *Buffer {
	if capacity < 2 {
		capacity = 2
	}

	return &Buffer{
		buf:         make([]byte, capacity),
		capacity:    capacity,
		silenceByte: silenceByte,
	}
}

// Capacity returns the usable capacity in bytes (one less than the
// allocation, see Buffer doc comment).
func (b *Buffer) Capacity() int {
	return b.capacity - 1
}

// Available returns the number of bytes currently queued.
func (b *Buffer) Available() int {
	head := b.head.Load()
	tail := b.tail.Load()

	return int((head - tail) % uint64(b.capacity))
}

// Free returns the number of bytes that can be written before the buffer is
// full.
func (b *Buffer) Free() int {
	return b.Capacity() - b.Available()
}

// SilenceByte returns the fill byte used when the consumer has nothing to
// pop.
func (b *Buffer) SilenceByte() byte {
	return b.silenceByte
}

// Reset clears all queued bytes. Only safe to call while neither the
// producer nor the consumer is concurrently active (open/close/reopen/pause
// boundaries — never from the audio hot paths).
func (b *Buffer) Reset() {
	b.head.Store(0)
	b.tail.Store(0)
}

// writeRaw copies src into the free region, wrapping as needed, and
// advances head with release ordering. Returns the number of bytes
// actually written (may be less than len(src), or zero, if there isn't
// enough free space — callers must retry with the remainder).
func (b *Buffer) writeRaw(src []byte) int {
	n := len(src)
	if free := b.Free(); n > free {
		n = free
	}

	if n == 0 {
		return 0
	}

	head := b.head.Load()
	start := int(head % uint64(b.capacity))

	first := b.capacity - start
	if first > n {
		first = n
	}

	copy(b.buf[start:start+first], src[:first])

	if rest := n - first; rest > 0 {
		copy(b.buf[0:rest], src[first:n])
	}

	b.head.Store(head + uint64(n))

	return n
}

// Push writes bytes through unchanged. Returns the number of bytes
// accepted; zero means no free space and the caller should retry later
// with the same bytes (backpressure).
func (b *Buffer) Push(src []byte) int {
	return b.writeRaw(src)
}

// PushWiden16To32 widens little-endian 16-bit PCM samples to 32-bit samples
// with the source value in the high half and zero in the low half
// (out = int32(s16) << 16), writing wire-format bytes. Returns the number
// of whole INPUT SAMPLES accepted: the widening variant's return value is
// a sample count, not a byte count.
func (b *Buffer) PushWiden16To32(src []byte) int {
	samples := len(src) / 2
	if samples == 0 {
		return 0
	}

	maxSamples := b.Free() / 4
	if samples > maxSamples {
		samples = maxSamples
	}

	if samples == 0 {
		return 0
	}

	out := make([]byte, samples*4)

	for i := 0; i < samples; i++ {
		lo := src[i*2]
		hi := src[i*2+1]
		// out = int32(s16) << 16, little-endian on the wire: the low two
		// bytes are zero, the high two bytes are the original sample.
		out[i*4+0] = 0
		out[i*4+1] = 0
		out[i*4+2] = lo
		out[i*4+3] = hi
	}

	written := b.writeRaw(out)

	return written / 4
}

// PushPack24In32 repacks 24-in-32 little-endian samples (one padding byte
// per sample, high byte dropped) into 3-byte packed little-endian wire
// samples. Returns the number of whole input bytes accepted (a multiple of
// 4, or zero).
func (b *Buffer) PushPack24In32(src []byte) int {
	samples := len(src) / 4
	if samples == 0 {
		return 0
	}

	maxSamples := b.Free() / 3
	if samples > maxSamples {
		samples = maxSamples
	}

	if samples == 0 {
		return 0
	}

	out := make([]byte, samples*3)

	for i := 0; i < samples; i++ {
		out[i*3+0] = src[i*4+0]
		out[i*3+1] = src[i*4+1]
		out[i*3+2] = src[i*4+2]
		// src[i*4+3] is the padding/alignment byte; dropped.
	}

	written := b.writeRaw(out)

	return (written / 3) * 4
}

// PushDSDPlanar accepts DSD audio already arranged as channel-interleaved
// groups of 4 bytes per channel (DSF/DFF layout) and writes the wire-planar
// layout the sink expects: within each 4-byte channel block it optionally
// reverses byte order (to flip endianness) and optionally bit-reverses
// every byte through lut. src's length must be a multiple of 4; any
// trailing partial block is not consumed. Returns the number of input
// bytes accepted.
func (b *Buffer) PushDSDPlanar(src []byte, byteSwap bool, lut *[256]byte) int {
	blocks := len(src) / 4
	if blocks == 0 {
		return 0
	}

	maxBlocks := b.Free() / 4
	if blocks > maxBlocks {
		blocks = maxBlocks
	}

	if blocks == 0 {
		return 0
	}

	out := make([]byte, blocks*4)

	for i := 0; i < blocks; i++ {
		var word [4]byte

		copy(word[:], src[i*4:i*4+4])

		if byteSwap {
			word[0], word[1], word[2], word[3] = word[3], word[2], word[1], word[0]
		}

		if lut != nil {
			for j := range word {
				word[j] = lut[word[j]]
			}
		}

		copy(out[i*4:i*4+4], word[:])
	}

	return b.writeRaw(out)
}

// Pop copies up to len(dest) queued bytes into dest, advancing tail with
// acquire ordering, and returns the number of bytes copied. It never
// allocates and never blocks: the cycle supplier calls this once per
// protocol cycle and must be able to act on a short read by filling the
// remainder with silence.
func (b *Buffer) Pop(dest []byte) int {
	n := len(dest)
	if avail := b.Available(); n > avail {
		n = avail
	}

	if n == 0 {
		return 0
	}

	tail := b.tail.Load()
	start := int(tail % uint64(b.capacity))

	first := b.capacity - start
	if first > n {
		first = n
	}

	copy(dest[:first], b.buf[start:start+first])

	if rest := n - first; rest > 0 {
		copy(dest[first:n], b.buf[0:rest])
	}

	b.tail.Store(tail + uint64(n))

	return n
}
