package memory

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadWriteByte(t *testing.T) {
	m := New()
	m.WriteByte(0x1234, 0xAB)
	if got := m.ReadByte(0x1234); got != 0xAB {
		t.Fatalf("ReadByte = %#x, want 0xAB", got)
	}
}

func TestReadWordMatchesBytes(t *testing.T) {
	m := New()
	m.WriteByte(0x2000, 0x12)
	m.WriteByte(0x2001, 0x34)
	got, err := m.ReadWord(0x2000)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if want := uint16(0x1234); got != want {
		t.Fatalf("ReadWord = %#x, want %#x", got, want)
	}
}

func TestReadWordOddAddress(t *testing.T) {
	m := New()
	if _, err := m.ReadWord(0x2001); err == nil {
		t.Fatal("expected alignment error on odd address")
	}
}

func TestWriteLongRoundTrip(t *testing.T) {
	m := New()
	if err := m.WriteLong(0x3000, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteLong: %v", err)
	}
	got, err := m.ReadLong(0x3000)
	if err != nil {
		t.Fatalf("ReadLong: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Fatalf("ReadLong = %#x, want 0xDEADBEEF", got)
	}
}

func TestLongWraparoundAtTopOfSpace(t *testing.T) {
	m := New()
	if err := m.WriteLong(0xFFFFFE, 0x11223344); err != nil {
		t.Fatalf("WriteLong: %v", err)
	}
	if got := m.ReadByte(0xFFFFFE); got != 0x11 {
		t.Fatalf("byte at 0xFFFFFE = %#x, want 0x11", got)
	}
	if got := m.ReadByte(0xFFFFFF); got != 0x22 {
		t.Fatalf("byte at 0xFFFFFF = %#x, want 0x22", got)
	}
	if got := m.ReadByte(0x000000); got != 0x33 {
		t.Fatalf("byte at 0x000000 = %#x, want 0x33", got)
	}
	if got := m.ReadByte(0x000001); got != 0x44 {
		t.Fatalf("byte at 0x000001 = %#x, want 0x44", got)
	}
	got, err := m.ReadLong(0xFFFFFE)
	if err != nil {
		t.Fatalf("ReadLong: %v", err)
	}
	if got != 0x11223344 {
		t.Fatalf("ReadLong at wrap = %#x, want 0x11223344", got)
	}
}

func TestLoadBinary(t *testing.T) {
	m := New()
	n, err := m.LoadBinary(bytes.NewReader([]byte{1, 2, 3, 4}), 0x4000)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	if n != 4 {
		t.Fatalf("LoadBinary n = %d, want 4", n)
	}
	for i, want := range []byte{1, 2, 3, 4} {
		if got := m.ReadByte(0x4000 + uint32(i)); got != want {
			t.Fatalf("byte %d = %#x, want %#x", i, got, want)
		}
	}
}

func TestDumpShowsPrintableAndBlank(t *testing.T) {
	m := New()
	m.WriteByte(0x100, 'A')
	var buf bytes.Buffer
	m.Dump(&buf, 0x100, 0x100)
	out := buf.String()
	if !strings.Contains(out, "41 ") {
		t.Fatalf("dump missing hex byte: %q", out)
	}
	if !strings.Contains(out, "A") {
		t.Fatalf("dump missing ascii rendering: %q", out)
	}
	if strings.Contains(out, ".") {
		t.Fatalf("dump rendered out-of-range bytes instead of blanking them: %q", out)
	}
}
