package encoding

import (
	"bytes"
	"testing"
)

func TestI2OSP(t *testing.T) {
	tests := []struct {
		value  int
		length int
		want   []byte
	}{
		{0, 1, []byte{0}},
		{1, 1, []byte{1}},
		{255, 1, []byte{255}},
		{256, 2, []byte{1, 0}},
		{65535, 2, []byte{255, 255}},
	}

	for _, tt := range tests {
		if got := I2OSP(tt.value, tt.length); !bytes.Equal(got, tt.want) {
			t.Fatalf("I2OSP(%d, %d) = %v, want %v", tt.value, tt.length, got, tt.want)
		}

		if back := OS2IP(tt.want); back != tt.value {
			t.Fatalf("OS2IP(%v) = %d, want %d", tt.want, back, tt.value)
		}
	}
}

func TestI2OSPPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-range value")
		}
	}()

	_ = I2OSP(256, 1)
}

func TestVectorRoundTrip(t *testing.T) {
	for _, in := range [][]byte{nil, {}, {1}, bytes.Repeat([]byte{0xaa}, 300)} {
		encoded := EncodeVector(in)

		out, offset, err := DecodeVector(encoded)
		if err != nil {
			t.Fatalf("DecodeVector: %v", err)
		}

		if offset != len(encoded) {
			t.Fatalf("offset = %d, want %d", offset, len(encoded))
		}

		if !bytes.Equal(out, in) {
			t.Fatalf("round trip mismatch: got %v, want %v", out, in)
		}
	}
}

func TestDecodeVectorTooShort(t *testing.T) {
	if _, _, err := DecodeVector([]byte{0}); err == nil {
		t.Fatal("expected error on truncated length prefix")
	}

	if _, _, err := DecodeVector([]byte{0, 4, 1, 2}); err == nil {
		t.Fatal("expected error on truncated payload")
	}
}

func TestConcat(t *testing.T) {
	got := Concat3([]byte{1}, []byte{2, 3}, []byte{4})
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("Concat3 = %v", got)
	}

	got = Concatenate([]byte{1}, nil, []byte{2})
	if !bytes.Equal(got, []byte{1, 2}) {
		t.Fatalf("Concatenate = %v", got)
	}
}
