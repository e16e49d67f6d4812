package hostservice

import (
	"fmt"
	"os"

	"github.com/kobolt/cpm68k-go/emu/memory"
)

// Ramdisk geometry, ported from original_source/ramdisk.h.
const (
	diskMax        = 4
	diskTracks     = 512
	diskSectors    = 256
	diskSectorSize = 128
	diskSize       = diskTracks * diskSectors * diskSectorSize
)

// unformattedFill is written across a freshly initialized disk so an
// unwritten track reads back as CP/M's "no file" marker rather than
// zeros.
const unformattedFill = 0xE5

// ramdisk holds the four simulated drives' selection/addressing state
// and backing storage. Selection, track, and sector indices are
// validated against the geometry above; the DMA address is taken as
// given since it simply addresses guest memory.
type ramdisk struct {
	filename [diskMax]string
	data     [diskMax][]byte
	selected uint8
	track    uint16
	sector   uint16
	dma      uint32
}

func newRamdisk() *ramdisk {
	r := &ramdisk{}
	for i := range r.data {
		r.data[i] = make([]byte, diskSize)
		for n := range r.data[i] {
			r.data[i][n] = unformattedFill
		}
	}
	return r
}

// select chooses the active drive; an out-of-range value reports
// "disk does not exist" to the guest (0), per spec.md's protocol
// table, rather than the BIOS-signaling-OK sentinel.
func (r *ramdisk) select_(value uint8) uint32 {
	if int(value) >= diskMax {
		return 0
	}
	r.selected = value
	return 0xFFFFFFFF
}

func (r *ramdisk) setTrack(value uint16) error {
	if int(value) >= diskTracks {
		return fmt.Errorf("hostservice: ramdisk track %d out of bounds", value)
	}
	r.track = value
	return nil
}

func (r *ramdisk) setSector(value uint16) error {
	if int(value) >= diskSectors {
		return fmt.Errorf("hostservice: ramdisk sector %d out of bounds", value)
	}
	r.sector = value
	return nil
}

func (r *ramdisk) setDMA(value uint32) {
	r.dma = value
}

func (r *ramdisk) offset() int {
	return (int(r.track)*diskSectors + int(r.sector)) * diskSectorSize
}

// read copies one sector from the selected drive into guest memory at
// the DMA address.
func (r *ramdisk) read(mem *memory.Memory) {
	off := r.offset()
	disk := r.data[r.selected]
	for i := 0; i < diskSectorSize; i++ {
		mem.WriteByte(r.dma+uint32(i), disk[off+i])
	}
}

// write copies one sector from guest memory at the DMA address into
// the selected drive.
func (r *ramdisk) write(mem *memory.Memory) {
	off := r.offset()
	disk := r.data[r.selected]
	for i := 0; i < diskSectorSize; i++ {
		disk[off+i] = mem.ReadByte(r.dma + uint32(i))
	}
}

// load reads filename's contents into drive disk, truncating or
// leaving the fill pattern in any bytes beyond the file's length.
func (r *ramdisk) load(disk int, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	copy(r.data[disk], data)
	r.filename[disk] = filename
	return nil
}

// save writes drive disk's full contents back to filename, or to the
// filename it was loaded from when filename is empty.
func (r *ramdisk) save(disk int, filename string) error {
	if filename == "" {
		filename = r.filename[disk]
		if filename == "" {
			return fmt.Errorf("hostservice: ramdisk %d has no filename to save to", disk)
		}
	}
	if err := os.WriteFile(filename, r.data[disk], 0o644); err != nil {
		return err
	}
	r.filename[disk] = filename
	return nil
}
