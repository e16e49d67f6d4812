// Package trap defines the contract between the CPU interpreter and
// whatever host service answers a guest's TRAP #15 call.
package trap

import "github.com/kobolt/cpm68k-go/emu/memory"

// Hook is invoked synchronously when the guest executes TRAP #15. D0
// carries the request selector on entry and the result on exit; D1
// and D2 carry parameters. The hook may read and write memory and the
// data registers; it must never touch PC, SR, or any address register
// — that contract is enforced by the CPU, which passes only the data
// register file, never the full processor state.
type Hook interface {
	Trap15(d *[8]uint32, mem *memory.Memory)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(d *[8]uint32, mem *memory.Memory)

// Trap15 calls f.
func (f HookFunc) Trap15(d *[8]uint32, mem *memory.Memory) {
	f(d, mem)
}
