package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPushPassthroughPreservesBytes(t *testing.T) {
	rb := New(64, 0x00)

	in := []byte{1, 2, 3, 4, 5}
	n := rb.Push(in)
	require.Equal(t, len(in), n)

	out := make([]byte, len(in))
	got := rb.Pop(out)
	require.Equal(t, len(in), got)
	assert.Equal(t, in, out)
}

func TestAvailableNeverExceedsCapacityMinusOne(t *testing.T) {
	rb := New(16, 0x00)

	for i := 0; i < 100; i++ {
		rb.Push([]byte{byte(i)})
		assert.LessOrEqual(t, rb.Available(), rb.Capacity())
	}
}

func TestFIFOOrdering(t *testing.T) {
	rb := New(1024, 0x00)

	var sent []byte
	for i := 0; i < 200; i++ {
		sent = append(sent, byte(i))
	}

	n := rb.Push(sent)
	require.Equal(t, len(sent), n)

	got := make([]byte, len(sent))
	popped := rb.Pop(got)
	require.Equal(t, len(sent), popped)
	assert.Equal(t, sent, got)
}

func TestPartialWritesAreExpectedAndRetried(t *testing.T) {
	rb := New(8, 0x00) // capacity() == 7

	n := rb.Push([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	assert.Equal(t, 7, n, "only Capacity() bytes fit")

	// Free space exhausted, a further push is rejected until the consumer
	// makes room.
	assert.Equal(t, 0, rb.Push([]byte{11}))

	out := make([]byte, 3)
	rb.Pop(out)

	assert.Greater(t, rb.Push([]byte{11, 12, 13}), 0)
}

func Test16To32WidenRoundtrip(t *testing.T) {
	cases := []int16{-32768, -1, 0, 1, 32767}

	for _, s := range cases {
		rb := New(64, 0x00)

		src := []byte{byte(uint16(s)), byte(uint16(s) >> 8)}
		accepted := rb.PushWiden16To32(src)
		require.Equal(t, 1, accepted)

		out := make([]byte, 4)
		rb.Pop(out)

		widened := int32(out[0]) | int32(out[1])<<8 | int32(out[2])<<16 | int32(out[3])<<24
		assert.Equal(t, int32(s), widened>>16, "(widen(s) >> 16) must equal s")
	}
}

func Test24PackDropsOnlyPadByte(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b0 := rapid.Byte().Draw(t, "b0")
		b1 := rapid.Byte().Draw(t, "b1")
		b2 := rapid.Byte().Draw(t, "b2")
		pad := rapid.Byte().Draw(t, "pad")

		rb := New(64, 0x00)

		n := rb.PushPack24In32([]byte{b0, b1, b2, pad})
		require.Equal(t, 4, n)

		out := make([]byte, 3)
		rb.Pop(out)

		assert.Equal(t, []byte{b0, b1, b2}, out)
	})
}

func TestBitReversalInvolutionAndSpecPoints(t *testing.T) {
	for x := 0; x < 256; x++ {
		assert.Equal(t, byte(x), ReverseTable[ReverseTable[byte(x)]])
	}

	assert.Equal(t, byte(0x01), ReverseTable[0x80])
	assert.Equal(t, byte(0xA5), ReverseTable[0xA5])
}

func TestDSDPlanarByteSwapAndBitReverse(t *testing.T) {
	rb := New(64, 0x69)

	src := []byte{0x01, 0x02, 0x03, 0x04}
	n := rb.PushDSDPlanar(src, true, &ReverseTable)
	require.Equal(t, 4, n)

	out := make([]byte, 4)
	rb.Pop(out)

	// byte-swap reverses word order to [04 03 02 01], then each byte is
	// bit-reversed via the LUT.
	want := []byte{ReverseTable[0x04], ReverseTable[0x03], ReverseTable[0x02], ReverseTable[0x01]}
	assert.Equal(t, want, out)
}

func TestDSDPlanarTwoChannelLayoutPreservesPerChannelBlocks(t *testing.T) {
	rb := New(64, 0x69)

	// Synthetic 2-channel input: [L0..L3, R0..R3, L4..L7, R4..R7].
	src := []byte{
		0x10, 0x11, 0x12, 0x13, // L0..L3
		0x20, 0x21, 0x22, 0x23, // R0..R3
		0x14, 0x15, 0x16, 0x17, // L4..L7
		0x24, 0x25, 0x26, 0x27, // R4..R7
	}

	n := rb.PushDSDPlanar(src, false, nil)
	require.Equal(t, len(src), n)

	out := make([]byte, len(src))
	rb.Pop(out)
	assert.Equal(t, src, out, "with no transforms, wire-planar layout matches the DSF/DFF input layout block-for-block")
}

func TestSilenceByteConfigurable(t *testing.T) {
	pcm := New(16, 0x00)
	assert.Equal(t, byte(0x00), pcm.SilenceByte())

	dsd := New(16, 0x69)
	assert.Equal(t, byte(0x69), dsd.SilenceByte())
}

func TestResetClearsQueuedBytes(t *testing.T) {
	rb := New(32, 0x00)
	rb.Push([]byte{1, 2, 3})
	require.Equal(t, 3, rb.Available())

	rb.Reset()
	assert.Equal(t, 0, rb.Available())
}
