package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kobolt/cpm68k-go/emu/memory"
)

func writeTempFile(t *testing.T, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadBinary(t *testing.T) {
	path := writeTempFile(t, []byte{0x11, 0x22, 0x33, 0x44})
	mem := memory.New()

	if err := LoadBinary(mem, path, 0x2000); err != nil {
		t.Fatal(err)
	}
	for i, want := range []byte{0x11, 0x22, 0x33, 0x44} {
		if got := mem.ReadByte(0x2000 + uint32(i)); got != want {
			t.Fatalf("byte %d = %#x, want %#x", i, got, want)
		}
	}
}

func TestLoadSRecordS1(t *testing.T) {
	// Address 0x1000, 3 data bytes (AA BB CC), count=2(addr)+3(data)+1(checksum)=6.
	path := writeTempFile(t, []byte("S1061000AABBCC00\n"))

	mem := memory.New()
	if err := LoadSRecord(mem, path); err != nil {
		t.Fatal(err)
	}
	for i, want := range []byte{0xAA, 0xBB, 0xCC} {
		if got := mem.ReadByte(0x1000 + uint32(i)); got != want {
			t.Fatalf("byte %d = %#x, want %#x", i, got, want)
		}
	}
}

func TestLoadSRecordS2(t *testing.T) {
	// Address 0x102030 (24-bit), 2 data bytes (DE AD), count=3(addr)+2(data)+1(checksum)=6.
	path := writeTempFile(t, []byte("S206102030DEAD00\n"))

	mem := memory.New()
	if err := LoadSRecord(mem, path); err != nil {
		t.Fatal(err)
	}
	for i, want := range []byte{0xDE, 0xAD} {
		if got := mem.ReadByte(0x102030 + uint32(i)); got != want {
			t.Fatalf("byte %d = %#x, want %#x", i, got, want)
		}
	}
}

func TestLoadSRecordSkipsUnsupportedAndMalformedLines(t *testing.T) {
	contents := "S0030000FC\n" + // header record, unsupported type, skipped
		"not an srecord\n" +
		"S1074000AABBCCDD00\n"
	path := writeTempFile(t, []byte(contents))

	mem := memory.New()
	if err := LoadSRecord(mem, path); err != nil {
		t.Fatal(err)
	}
	for i, want := range []byte{0xAA, 0xBB, 0xCC, 0xDD} {
		if got := mem.ReadByte(0x4000 + uint32(i)); got != want {
			t.Fatalf("byte %d = %#x, want %#x", i, got, want)
		}
	}
}

func TestLoadSRecordMissingFile(t *testing.T) {
	mem := memory.New()
	if err := LoadSRecord(mem, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
