// Package bytecode decodes method bodies into addressed instructions.
package bytecode

import (
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("jedy.bytecode")

// Listing is the result of a linear sweep over a code array.
type Listing struct {
	Instructions []Instruction

	// Halted is set when the sweep stopped before the end of the code.
	Halted      bool
	HaltAddress int

	byAddress map[int]int
}

// Disassemble walks code from address 0, decoding one instruction after the
// other. An opcode without a decode entry (or truncated operands) stops the
// sweep; everything decoded up to that point is kept.
func Disassemble(code []byte) *Listing {
	l := &Listing{byAddress: make(map[int]int)}
	pc := 0
	for pc < len(code) {
		ins, ok := Decode(code, pc)
		if !ok {
			l.Halted = true
			l.HaltAddress = pc
			log.Warningf("disassembly stopped at %d: unsupported opcode 0x%02x", pc, code[pc])
			break
		}
		l.byAddress[pc] = len(l.Instructions)
		l.Instructions = append(l.Instructions, ins)
		pc = ins.Next()
	}
	return l
}

// At returns the instruction that starts at pc.
func (l *Listing) At(pc int) (*Instruction, bool) {
	i, ok := l.byAddress[pc]
	if !ok {
		return nil, false
	}
	return &l.Instructions[i], true
}

func (l *Listing) Len() int {
	return len(l.Instructions)
}
