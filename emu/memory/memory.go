// Package memory implements the flat 24-bit address space the CPU
// interpreter runs against: a 16 MiB big-endian byte array with
// alignment-checked word and long accesses.
package memory

import (
	"fmt"
	"io"
)

// Size is the span of the emulated address space: 2^24 bytes.
const Size = 0x1000000

// Mask confines any address to the 24-bit space.
const Mask = Size - 1

// wrapAddress is the long-access wraparound boundary: the low half of
// a long straddling the end of the address space reads/writes back
// around to address 0.
const wrapAddress = 0xFFFFFE

// AlignmentError reports a word or long access at an odd address.
type AlignmentError struct {
	Address uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("memory: misaligned access at %#06x", e.Address)
}

// Memory is the emulator's RAM. The zero value is not usable; use New.
type Memory struct {
	ram [Size]byte
}

// New returns a zeroed 16 MiB memory.
func New() *Memory {
	return &Memory{}
}

// ReadByte returns the byte at addr. It never fails: the address is
// simply masked into range.
func (m *Memory) ReadByte(addr uint32) uint8 {
	return m.ram[addr&Mask]
}

// WriteByte stores value at addr. It never fails.
func (m *Memory) WriteByte(addr uint32, value uint8) {
	m.ram[addr&Mask] = value
}

// ReadWord returns the big-endian word at addr, or an *AlignmentError
// if addr is odd.
func (m *Memory) ReadWord(addr uint32) (uint16, error) {
	addr &= Mask
	if addr%2 != 0 {
		return 0, &AlignmentError{Address: addr}
	}
	return uint16(m.ram[addr])<<8 | uint16(m.ram[addr+1]), nil
}

// WriteWord stores the big-endian word value at addr, or returns an
// *AlignmentError if addr is odd.
func (m *Memory) WriteWord(addr uint32, value uint16) error {
	addr &= Mask
	if addr%2 != 0 {
		return &AlignmentError{Address: addr}
	}
	m.ram[addr] = byte(value >> 8)
	m.ram[addr+1] = byte(value)
	return nil
}

// ReadLong returns the big-endian long at addr, or an *AlignmentError
// if addr is odd. A long access at 0xFFFFFE wraps its low half around
// to 0x000000-0x000001.
func (m *Memory) ReadLong(addr uint32) (uint32, error) {
	addr &= Mask
	if addr%2 != 0 {
		return 0, &AlignmentError{Address: addr}
	}
	if addr == wrapAddress {
		return uint32(m.ram[addr])<<24 | uint32(m.ram[addr+1])<<16 |
			uint32(m.ram[0x000000])<<8 | uint32(m.ram[0x000001]), nil
	}
	return uint32(m.ram[addr])<<24 | uint32(m.ram[addr+1])<<16 |
		uint32(m.ram[addr+2])<<8 | uint32(m.ram[addr+3]), nil
}

// WriteLong stores the big-endian long value at addr, or returns an
// *AlignmentError if addr is odd, wrapping at 0xFFFFFE as ReadLong does.
func (m *Memory) WriteLong(addr uint32, value uint32) error {
	addr &= Mask
	if addr%2 != 0 {
		return &AlignmentError{Address: addr}
	}
	if addr == wrapAddress {
		m.ram[addr] = byte(value >> 24)
		m.ram[addr+1] = byte(value >> 16)
		m.ram[0x000000] = byte(value >> 8)
		m.ram[0x000001] = byte(value)
		return nil
	}
	m.ram[addr] = byte(value >> 24)
	m.ram[addr+1] = byte(value >> 16)
	m.ram[addr+2] = byte(value >> 8)
	m.ram[addr+3] = byte(value)
	return nil
}

// LoadBinary streams r into memory starting at address, returning the
// number of bytes loaded.
func (m *Memory) LoadBinary(r io.Reader, address uint32) (int, error) {
	buf := make([]byte, 4096)
	n := 0
	for {
		k, err := r.Read(buf)
		for i := 0; i < k; i++ {
			m.WriteByte(address+uint32(n+i), buf[i])
		}
		n += k
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
}

// dumpRow prints one 16-byte row in mem_dump_16's layout: address,
// hex bytes grouped by four, then the printable-ASCII rendering.
// Bytes outside [start,end] are blanked rather than shown.
func (m *Memory) dumpRow(w io.Writer, rowStart, start, end uint32) {
	fmt.Fprintf(w, "%06x   ", rowStart)
	for i := uint32(0); i < 16; i++ {
		addr := rowStart + i
		if addr >= start && addr <= end {
			fmt.Fprintf(w, "%02x ", m.ReadByte(addr))
		} else {
			fmt.Fprint(w, "   ")
		}
		if i%4 == 3 {
			fmt.Fprint(w, " ")
		}
	}
	for i := uint32(0); i < 16; i++ {
		addr := rowStart + i
		if addr >= start && addr <= end {
			v := m.ReadByte(addr)
			if v >= 0x20 && v < 0x7F {
				fmt.Fprintf(w, "%c", v)
			} else {
				fmt.Fprint(w, ".")
			}
		} else {
			fmt.Fprint(w, " ")
		}
	}
	fmt.Fprintln(w)
}

// Dump writes a hex-and-ASCII dump of [start, end] in 16-byte rows,
// aligned to 16-byte boundaries as mem_dump does.
func (m *Memory) Dump(w io.Writer, start, end uint32) {
	rowStart := start &^ 0xF
	m.dumpRow(w, rowStart, start, end)
	for row := rowStart + 16; row <= end; row += 16 {
		m.dumpRow(w, row, start, end)
	}
}
