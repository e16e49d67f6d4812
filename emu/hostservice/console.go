// Package hostservice implements the concrete trap-15 host-service
// hook: console I/O, a four-drive in-memory RAM disk, and pass-through
// file access for the guest's remote-file calls.
package hostservice

import (
	"bufio"
	"io"
	"os"
)

// Console is the console half of the trap-15 protocol: status (is a
// byte ready?), a blocking read, and a write. The default
// implementation backs it with a background reader goroutine so
// Status never blocks, the Go-idiomatic replacement for the
// original's termios non-blocking stdin mode.
type Console interface {
	Status() bool
	Read() byte
	Write(value byte)
}

// injectMax mirrors the original console's fixed-size injection ring.
const injectMax = 65536

// injectPauseTicks throttles how often injected bytes are reported
// ready, so a fast inject burst doesn't overrun the guest's input
// buffer — the same pacing hack the original console applies.
const injectPauseTicks = 100

// StdConsole backs Console with the process's stdin/stdout, plus an
// injection queue that -i/-I feed ahead of real keyboard input.
type StdConsole struct {
	out    io.Writer
	bytes  chan byte
	inject []byte
	pause  int
}

// NewStdConsole starts a background goroutine draining in into a
// buffered channel, so Status can report readiness without blocking
// the interpreter's fetch/execute loop.
func NewStdConsole(in io.Reader, out io.Writer) *StdConsole {
	c := &StdConsole{out: out, bytes: make(chan byte, 4096)}
	go func() {
		r := bufio.NewReader(in)
		for {
			b, err := r.ReadByte()
			if err == nil {
				c.bytes <- b
				continue
			}
			close(c.bytes)
			return
		}
	}()
	return c
}

// Status reports whether a byte is ready, preferring the injection
// queue and pacing it the same way the original console does.
func (c *StdConsole) Status() bool {
	if len(c.inject) > 0 {
		if c.pause > 0 {
			c.pause--
			return false
		}
		c.pause = injectPauseTicks
		return true
	}
	return len(c.bytes) > 0
}

// Read blocks for the next byte, normalizing DEL to backspace and LF
// to CR for guest compatibility, per spec.md §6.
func (c *StdConsole) Read() byte {
	var b byte
	if len(c.inject) > 0 {
		b = c.inject[0]
		c.inject = c.inject[1:]
	} else {
		var ok bool
		b, ok = <-c.bytes
		if !ok {
			return 0
		}
	}
	switch b {
	case 0x7F:
		return 0x08
	case 0x0A:
		return 0x0D
	default:
		return b
	}
}

// Write sends value to stdout.
func (c *StdConsole) Write(value byte) {
	c.out.Write([]byte{value})
}

// Inject queues s as if typed at the console, ahead of real stdin.
func (c *StdConsole) Inject(s string) {
	for i := 0; i < len(s) && len(c.inject) < injectMax; i++ {
		c.inject = append(c.inject, s[i])
	}
}

// InjectFile reads filename whole and queues its bytes for injection.
func (c *StdConsole) InjectFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	c.Inject(string(data))
	return nil
}
