package classfile

import (
	"fmt"

	"github.com/dhamidi/jedy/bytecode"
)

type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []AttributeInfo

	// Listing is the linear disassembly of Code.
	Listing *bytecode.Listing
}

func (*CodeAttribute) AttributeName() string { return "Code" }

// ExceptionTableEntry is kept for completeness; handlers are never run.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// InstructionAt returns the instruction starting at pc, if disassembly
// reached it.
func (c *CodeAttribute) InstructionAt(pc int) (*bytecode.Instruction, bool) {
	if c.Listing == nil {
		return nil, false
	}
	return c.Listing.At(pc)
}

func (c *CodeAttribute) StackMapTable() *StackMapTableAttribute {
	if attr := findAttribute(c.Attributes, "StackMapTable"); attr != nil {
		return attr.AsStackMapTable()
	}
	return nil
}

func parseCodeAttribute(r *reader, cp ConstantPool) (*CodeAttribute, error) {
	code := &CodeAttribute{
		MaxStack:  r.readU2(),
		MaxLocals: r.readU2(),
	}
	codeLength := r.readU4()
	code.Code = r.readBytes(int(codeLength))

	exceptionTableLength := r.readU2()
	code.ExceptionTable = make([]ExceptionTableEntry, 0, exceptionTableLength)
	for i := uint16(0); i < exceptionTableLength && r.err == nil; i++ {
		code.ExceptionTable = append(code.ExceptionTable, ExceptionTableEntry{
			StartPC:   r.readU2(),
			EndPC:     r.readU2(),
			HandlerPC: r.readU2(),
			CatchType: r.readU2(),
		})
	}
	if err := r.check("Code"); err != nil {
		return nil, err
	}

	attrs, err := readAttributes(r, cp, "Code")
	if err != nil {
		return nil, fmt.Errorf("nested: %w", err)
	}
	code.Attributes = attrs

	code.Listing = bytecode.Disassemble(code.Code)
	return code, nil
}
