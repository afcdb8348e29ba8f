package audio

import (
	"math"
	"testing"
)

func TestInt16ToFloat32_Empty(t *testing.T) {
	out := Int16ToFloat32(nil)
	if len(out) != 0 {
		t.Fatalf("expected empty slice, got length %d", len(out))
	}
}

func TestInt16ToFloat32_Range(t *testing.T) {
	out := Int16ToFloat32([]int16{0, math.MaxInt16})
	if out[0] != 0 {
		t.Fatalf("expected 0.0, got %f", out[0])
	}
	if out[1] != 1.0 {
		t.Fatalf("expected 1.0 for MaxInt16, got %f", out[1])
	}
}

func TestFloat32ToInt16_Clamps(t *testing.T) {
	out := Float32ToInt16([]float32{1.5, -1.5, 0})
	if out[0] != math.MaxInt16 {
		t.Fatalf("expected %d (clamped to 1.0), got %d", math.MaxInt16, out[0])
	}
	if out[1] != -math.MaxInt16 {
		t.Fatalf("expected %d (clamped to -1.0), got %d", -math.MaxInt16, out[1])
	}
	if out[2] != 0 {
		t.Fatalf("expected 0 for 0.0 input, got %d", out[2])
	}
}

func TestBytesInt16_LittleEndian(t *testing.T) {
	// 0x0102 in little-endian is {0x02, 0x01}
	out := BytesToInt16([]byte{0x02, 0x01})
	if len(out) != 1 || out[0] != 0x0102 {
		t.Fatalf("expected 258 (0x0102), got %v", out)
	}

	b := Int16ToBytes([]int16{0x0102})
	if len(b) != 2 || b[0] != 0x02 || b[1] != 0x01 {
		t.Fatalf("expected [0x02, 0x01], got %v", b)
	}
}

func TestBytesInt16_Roundtrip(t *testing.T) {
	samples := []int16{0, 1, -1, 1000, -1000, math.MaxInt16, math.MinInt16}
	b := Int16ToBytes(samples)
	result := BytesToInt16(b)
	if len(result) != len(samples) {
		t.Fatalf("length mismatch: expected %d, got %d", len(samples), len(result))
	}
	for i, s := range samples {
		if result[i] != s {
			t.Errorf("index %d: expected %d, got %d", i, s, result[i])
		}
	}
}

func TestBytesFloat32_Roundtrip(t *testing.T) {
	// 经过 int16 往返会有量化误差，只用能精确存活的值
	input := []float32{0, 1.0, -1.0}
	output := BytesToFloat32(Float32ToBytes(input))
	if len(output) != len(input) {
		t.Fatalf("length mismatch: expected %d, got %d", len(input), len(output))
	}
	if output[0] != 0 {
		t.Errorf("expected 0.0, got %f", output[0])
	}
	if output[1] != 1.0 {
		t.Errorf("expected 1.0, got %f", output[1])
	}
}
