package checksum

import "testing"

func TestFletcher32Empty(t *testing.T) {
	got, err := Fletcher32([]byte{}, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0xFFFFFFFF {
		t.Fatalf("Fletcher32(empty) = 0x%X, want 0xFFFFFFFF", got)
	}
}

func TestFletcher32OffsetInvariant(t *testing.T) {
	a, err := Fletcher32([]byte("abcde"), 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := Fletcher32([]byte("xxabcde"), 2, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a != b {
		t.Fatalf("fletcher32 not offset-invariant: %d != %d", a, b)
	}
}

func TestFletcher32KnownVector(t *testing.T) {
	// "abcde" folded by hand: sum1 starts at 0xFFFF and accumulates the
	// big-endian words 0x6162, 0x6364, 0x6500 (odd trailing byte padded
	// with a zero), sum2 accumulates the running sum1 after each word.
	// That leaves sum1 = 0x229C5, sum2 = 0x64FEA; the final fold gives
	// sum1 = 0x29C7, sum2 = 0x4FF0.
	got, err := Fletcher32([]byte("abcde"), 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := uint32(0x4FF029C7); got != want {
		t.Fatalf("fletcher32(%q) = 0x%X, want 0x%X", "abcde", got, want)
	}
}

func TestFletcher32OutOfRangeIsFatal(t *testing.T) {
	if _, err := Fletcher32([]byte("abc"), 1, 10); err == nil {
		t.Fatal("expected error for out-of-range offset+length")
	}
}

func TestFletcher32LargeInputCrossesFoldBoundary(t *testing.T) {
	data := make([]byte, 10000)
	for i := range data {
		data[i] = byte(i)
	}
	// Just confirm it doesn't panic and is deterministic across two calls.
	a, err := Fletcher32(data, 0, len(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Fletcher32(data, 0, len(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Fatalf("fletcher32 not deterministic: %d != %d", a, b)
	}
}
