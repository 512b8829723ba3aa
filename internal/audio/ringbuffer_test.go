package audio

import "testing"

func TestRingBufferReadIsSuffixOfWrites(t *testing.T) {
	rb := NewRingBuffer(8)

	rb.Write([]int16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}) // overwrites first 2

	if got := rb.Available(); got != 8 {
		t.Fatalf("available = %d, want 8", got)
	}

	out := make([]int16, 8)
	n := rb.Read(out)
	if n != 8 {
		t.Fatalf("read n = %d, want 8", n)
	}
	want := []int16{3, 4, 5, 6, 7, 8, 9, 10}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d (full: %v)", i, out[i], want[i], out)
		}
	}
	if rb.Available() != 0 {
		t.Fatalf("available after full read = %d, want 0", rb.Available())
	}
}

func TestRingBufferReadBoundedByAvailable(t *testing.T) {
	rb := NewRingBuffer(16)
	rb.Write([]int16{1, 2, 3})

	out := make([]int16, 10)
	n := rb.Read(out)
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
}

func TestRingBufferPeekLastDoesNotAdvance(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]int16{1, 2, 3, 4})

	peek := rb.PeekLast(2)
	if len(peek) != 2 || peek[0] != 3 || peek[1] != 4 {
		t.Fatalf("peek = %v, want [3 4]", peek)
	}
	if rb.Available() != 4 {
		t.Fatalf("available after peek = %d, want 4 (unchanged)", rb.Available())
	}
}

func TestRingBufferResetReadDiscardsUnread(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]int16{1, 2, 3})
	rb.ResetRead()
	if rb.Available() != 0 {
		t.Fatalf("available after reset = %d, want 0", rb.Available())
	}
}

func TestRingBufferAvailableNeverExceedsCapacity(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := range 100 {
		rb.Write([]int16{int16(i)})
		if rb.Available() > rb.Capacity() {
			t.Fatalf("available %d exceeds capacity %d", rb.Available(), rb.Capacity())
		}
	}
}
