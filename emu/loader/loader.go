// Package loader implements the two external memory-image loaders
// named in spec.md §6: a raw binary stream and a Motorola S-record
// (S1/S2) text format, both grounded in original_source/mem.c.
package loader

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/kobolt/cpm68k-go/emu/memory"
)

// LoadBinary streams filename's bytes into mem starting at address.
func LoadBinary(mem *memory.Memory, filename string, address uint32) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = mem.LoadBinary(f, address)
	return err
}

// LoadSRecord reads filename as Motorola S-records, accepting only S1
// (16-bit address) and S2 (24-bit address) lines; every other record
// type, and any line that fails to parse, is silently skipped exactly
// as the reference loader does. The checksum byte is never verified.
func LoadSRecord(mem *memory.Memory, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		loadSRecordLine(mem, scanner.Text())
	}
	return scanner.Err()
}

func loadSRecordLine(mem *memory.Memory, line string) {
	if len(line) < 2 || line[0] != 'S' {
		return
	}

	var addrDigits int
	switch line[1] {
	case '1':
		addrDigits = 4
	case '2':
		addrDigits = 6
	default:
		return
	}

	if len(line) < 4+addrDigits {
		return
	}
	count, err := strconv.ParseUint(line[2:4], 16, 8)
	if err != nil {
		return
	}
	address, err := strconv.ParseUint(line[4:4+addrDigits], 16, 32)
	if err != nil {
		return
	}
	dataStart := 4 + addrDigits

	// count covers the address bytes, the data bytes, and the trailing
	// checksum byte; the loop bound below mirrors the reference's
	// "i < (count*2) + 2" (the "+2" accounts for the "Sx" prefix), and
	// like the reference, it never verifies the checksum it reads.
	end := int(count)*2 + 2

	addr := uint32(address)
	for i := dataStart; i+1 < len(line) && i < end; i += 2 {
		b, err := strconv.ParseUint(line[i:i+2], 16, 8)
		if err != nil {
			continue
		}
		mem.WriteByte(addr, byte(b))
		addr++
	}
}

// DumpMemory writes a hex-and-ASCII dump of mem over [start, end] to
// w, the S-record loader's counterpart for inspecting what was
// loaded; it simply delegates to the memory package's own formatter.
func DumpMemory(w io.Writer, mem *memory.Memory, start, end uint32) {
	mem.Dump(w, start, end)
}
