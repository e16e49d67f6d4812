package hostservice

import (
	"log/slog"
	"os"
	"strings"

	"github.com/kobolt/cpm68k-go/emu/memory"
)

// selector values for TRAP #15, D0 on entry, per spec.md §6.
const (
	selConsoleStatus = 1
	selConsoleRead   = 2
	selConsoleWrite  = 3
	selDiskSelect    = 4
	selDiskTrack     = 5
	selDiskSector    = 6
	selDiskDMA       = 7
	selDiskRead      = 8
	selDiskWrite     = 9
	selRemoteOpen    = 10
	selRemoteWrite   = 11
	selRemoteRead    = 12
	selRemoteClose   = 13
	selQuit          = 14
)

const remoteBlockSize = 128

// Service is the concrete implementation of trap.Hook: it answers
// every TRAP #15 selector against a console, a four-drive RAM disk,
// and one pass-through host file at a time, exactly the surface
// original_source/main.c's trap_hook wires up.
type Service struct {
	console Console
	disk    *ramdisk
	remote  *os.File
	quit    chan struct{}
	log     *slog.Logger
}

// New returns a Service backed by console for TTY I/O and logging
// host-visible faults to log.
func New(console Console, log *slog.Logger) *Service {
	return &Service{
		console: console,
		disk:    newRamdisk(),
		quit:    make(chan struct{}),
		log:     log,
	}
}

// LoadDisk loads filename into the given drive (0=A, 1=B, ...) ahead
// of boot, mirroring main.go's positional drive-A image and its
// -B/-C/-D flags.
func (s *Service) LoadDisk(disk int, filename string) error {
	return s.disk.load(disk, filename)
}

// Quit returns a channel closed when the guest issues selector 14.
// main.go selects on it to know when to exit.
func (s *Service) Quit() <-chan struct{} {
	return s.quit
}

// Trap15 implements trap.Hook, dispatching on d[0].
func (s *Service) Trap15(d *[8]uint32, mem *memory.Memory) {
	switch d[0] {
	case selConsoleStatus:
		if s.console.Status() {
			d[0] = 0x01
		} else {
			d[0] = 0x00
		}

	case selConsoleRead:
		d[0] = uint32(s.console.Read())

	case selConsoleWrite:
		s.console.Write(byte(d[1]))

	case selDiskSelect:
		d[0] = s.disk.select_(uint8(d[1]))

	case selDiskTrack:
		if err := s.disk.setTrack(uint16(d[1])); err != nil {
			s.log.Error(err.Error())
		}

	case selDiskSector:
		if err := s.disk.setSector(uint16(d[1])); err != nil {
			s.log.Error(err.Error())
		}

	case selDiskDMA:
		s.disk.setDMA(d[1])

	case selDiskRead:
		s.disk.read(mem)

	case selDiskWrite:
		s.disk.write(mem)

	case selRemoteOpen:
		s.remoteOpen(d, mem)

	case selRemoteWrite:
		s.remoteWrite(d, mem)

	case selRemoteRead:
		s.remoteRead(d, mem)

	case selRemoteClose:
		if s.remote != nil {
			s.remote.Close()
			s.remote = nil
		}

	case selQuit:
		close(s.quit)
	}
}

// fcbName reads an 8.3 FCB-style filename (8 bytes name, 3 bytes
// extension, space-padded) starting at addr and returns it with a dot
// inserted, plus a lowercase fallback for case-sensitive filesystems.
func fcbName(mem *memory.Memory, addr uint32) (name, lower string) {
	var b strings.Builder
	for i := uint32(0); i < 8; i++ {
		c := mem.ReadByte(addr + i)
		if c == 0x20 {
			break
		}
		b.WriteByte(c)
	}
	for i := uint32(0); i < 3; i++ {
		c := mem.ReadByte(addr + 8 + i)
		if c == 0x20 {
			break
		}
		if i == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(c)
	}
	name = b.String()
	return name, strings.ToLower(name)
}

func (s *Service) remoteOpen(d *[8]uint32, mem *memory.Memory) {
	name, lower := fcbName(mem, d[1])

	var f *os.File
	var err error
	switch byte(d[2]) {
	case 'w':
		f, err = os.Create(name)
	case 'r':
		f, err = os.Open(name)
		if err != nil && os.IsNotExist(err) {
			f, err = os.Open(lower)
		}
	}

	if err != nil || f == nil {
		d[0] = 0xFF
		return
	}
	s.remote = f
	d[0] = 0x00
}

func (s *Service) remoteWrite(d *[8]uint32, mem *memory.Memory) {
	if s.remote == nil {
		d[0] = 0xFF
		return
	}
	buf := make([]byte, remoteBlockSize)
	for i := range buf {
		buf[i] = mem.ReadByte(d[1] + uint32(i))
	}
	if _, err := s.remote.Write(buf); err != nil {
		s.log.Error(err.Error())
		d[0] = 0xFF
		return
	}
	d[0] = 0x00
}

func (s *Service) remoteRead(d *[8]uint32, mem *memory.Memory) {
	if s.remote == nil {
		d[0] = 0xFF
		return
	}
	buf := make([]byte, remoteBlockSize)
	n, _ := s.remote.Read(buf)
	if n == 0 {
		d[0] = 0x01 // nothing left: done
		return
	}
	for i := n; i < remoteBlockSize; i++ {
		buf[i] = 0
	}
	for i := 0; i < remoteBlockSize; i++ {
		mem.WriteByte(d[1]+uint32(i), buf[i])
	}
	d[0] = 0x00 // at least one byte delivered: maybe more
}
