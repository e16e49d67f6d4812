package hostservice

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/kobolt/cpm68k-go/emu/memory"
)

// fakeConsole is a deterministic Console double for trap tests.
type fakeConsole struct {
	ready    bool
	nextByte byte
	written  []byte
}

func (f *fakeConsole) Status() bool      { return f.ready }
func (f *fakeConsole) Read() byte        { return f.nextByte }
func (f *fakeConsole) Write(value byte)  { f.written = append(f.written, value) }

func newTestService(console Console) (*Service, *memory.Memory) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(console, log), memory.New()
}

func TestConsoleStatusAndRead(t *testing.T) {
	fc := &fakeConsole{ready: true, nextByte: 'X'}
	s, mem := newTestService(fc)

	var d [8]uint32
	d[0] = selConsoleStatus
	s.Trap15(&d, mem)
	if d[0] != 1 {
		t.Fatalf("console status = %d, want 1", d[0])
	}

	d[0] = selConsoleRead
	s.Trap15(&d, mem)
	if d[0] != uint32('X') {
		t.Fatalf("console read = %d, want 'X'", d[0])
	}
}

func TestConsoleWrite(t *testing.T) {
	fc := &fakeConsole{}
	s, mem := newTestService(fc)

	var d [8]uint32
	d[0] = selConsoleWrite
	d[1] = uint32('A')
	s.Trap15(&d, mem)

	if len(fc.written) != 1 || fc.written[0] != 'A' {
		t.Fatalf("written = %v, want ['A']", fc.written)
	}
}

func TestDiskSelectOutOfRange(t *testing.T) {
	s, mem := newTestService(&fakeConsole{})
	var d [8]uint32
	d[0] = selDiskSelect
	d[1] = 9
	s.Trap15(&d, mem)
	if d[0] != 0 {
		t.Fatalf("disk select out-of-range = %#x, want 0", d[0])
	}
}

func TestDiskSelectInRange(t *testing.T) {
	s, mem := newTestService(&fakeConsole{})
	var d [8]uint32
	d[0] = selDiskSelect
	d[1] = 1
	s.Trap15(&d, mem)
	if d[0] != 0xFFFFFFFF {
		t.Fatalf("disk select in-range = %#x, want 0xFFFFFFFF", d[0])
	}
}

func TestDiskReadWriteRoundTrip(t *testing.T) {
	s, mem := newTestService(&fakeConsole{})
	var d [8]uint32

	d[0] = selDiskSelect
	d[1] = 0
	s.Trap15(&d, mem)

	d[0] = selDiskTrack
	d[1] = 3
	s.Trap15(&d, mem)

	d[0] = selDiskSector
	d[1] = 5
	s.Trap15(&d, mem)

	d[0] = selDiskDMA
	d[1] = 0x2000
	s.Trap15(&d, mem)

	for i := 0; i < diskSectorSize; i++ {
		mem.WriteByte(0x2000+uint32(i), byte(i))
	}
	d[0] = selDiskWrite
	s.Trap15(&d, mem)

	for i := 0; i < diskSectorSize; i++ {
		mem.WriteByte(0x2000+uint32(i), 0)
	}
	d[0] = selDiskRead
	s.Trap15(&d, mem)

	for i := 0; i < diskSectorSize; i++ {
		if got := mem.ReadByte(0x2000 + uint32(i)); got != byte(i) {
			t.Fatalf("byte %d = %#x, want %#x", i, got, byte(i))
		}
	}
}

func TestRemoteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "HELLO.TXT")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	s, mem := newTestService(&fakeConsole{})
	var d [8]uint32

	fcbAddr := uint32(0x3000)
	writeFCB(mem, fcbAddr, "HELLO", "TXT")

	d[0] = selRemoteOpen
	d[1] = fcbAddr
	d[2] = uint32('w')
	s.Trap15(&d, mem)
	if d[0] != 0 {
		t.Fatalf("remote open (write) = %#x, want 0", d[0])
	}

	payload := []byte("CP/M-68K host service test payload")
	for i, b := range payload {
		mem.WriteByte(0x4000+uint32(i), b)
	}
	d[0] = selRemoteWrite
	d[1] = 0x4000
	s.Trap15(&d, mem)
	if d[0] != 0 {
		t.Fatalf("remote write = %#x, want 0", d[0])
	}

	d[0] = selRemoteClose
	s.Trap15(&d, mem)

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if !bytes.HasPrefix(got, payload) {
		t.Fatalf("file contents = %q, want prefix %q", got, payload)
	}

	s2, mem2 := newTestService(&fakeConsole{})
	writeFCB(mem2, fcbAddr, "HELLO", "TXT")

	d = [8]uint32{}
	d[0] = selRemoteOpen
	d[1] = fcbAddr
	d[2] = uint32('r')
	s2.Trap15(&d, mem2)
	if d[0] != 0 {
		t.Fatalf("remote open (read) = %#x, want 0", d[0])
	}

	d[0] = selRemoteRead
	d[1] = 0x5000
	s2.Trap15(&d, mem2)
	if d[0] != 0 {
		t.Fatalf("remote read status = %#x, want 0", d[0])
	}
	for i, want := range payload {
		if got := mem2.ReadByte(0x5000 + uint32(i)); got != want {
			t.Fatalf("byte %d = %q, want %q", i, got, want)
		}
	}
}

// writeFCB writes an 8.3 FCB name/extension pair (space-padded) at addr.
func writeFCB(mem *memory.Memory, addr uint32, name, ext string) {
	for i := 0; i < 8; i++ {
		if i < len(name) {
			mem.WriteByte(addr+uint32(i), name[i])
		} else {
			mem.WriteByte(addr+uint32(i), 0x20)
		}
	}
	for i := 0; i < 3; i++ {
		if i < len(ext) {
			mem.WriteByte(addr+8+uint32(i), ext[i])
		} else {
			mem.WriteByte(addr+8+uint32(i), 0x20)
		}
	}
}

func TestQuitClosesChannel(t *testing.T) {
	s, mem := newTestService(&fakeConsole{})
	var d [8]uint32
	d[0] = selQuit
	s.Trap15(&d, mem)
	select {
	case <-s.Quit():
	default:
		t.Fatal("quit channel not closed after selector 14")
	}
}
