package bytecode

import (
	"encoding/binary"
	"fmt"
)

type operandShape uint8

const (
	noOperands operandShape = iota
	impliedLocal
	localIndex
	byteImmediate
	shortImmediate
	poolIndex1
	poolIndex2
	iincOperands
	branchOffset
	interfaceOperands
)

var operandWidth = [...]int{
	noOperands:        0,
	impliedLocal:      0,
	localIndex:        1,
	byteImmediate:     1,
	shortImmediate:    2,
	poolIndex1:        1,
	poolIndex2:        2,
	iincOperands:      2,
	branchOffset:      2,
	interfaceOperands: 4,
}

type descriptor struct {
	name  string
	shape operandShape
	local uint16
}

// descriptors is the decode half of the instruction set, indexed by opcode.
// Opcodes without an entry stop disassembly.
var descriptors = [256]descriptor{
	Nop:        {name: "nop"},
	AconstNull: {name: "aconst_null"},
	IconstM1:   {name: "iconst_m1"},
	Iconst0:    {name: "iconst_0"},
	Iconst1:    {name: "iconst_1"},
	Iconst2:    {name: "iconst_2"},
	Iconst3:    {name: "iconst_3"},
	Iconst4:    {name: "iconst_4"},
	Iconst5:    {name: "iconst_5"},
	Lconst0:    {name: "lconst_0"},
	Lconst1:    {name: "lconst_1"},
	Fconst0:    {name: "fconst_0"},
	Fconst1:    {name: "fconst_1"},
	Fconst2:    {name: "fconst_2"},
	Dconst0:    {name: "dconst_0"},
	Dconst1:    {name: "dconst_1"},
	Bipush:     {name: "bipush", shape: byteImmediate},
	Sipush:     {name: "sipush", shape: shortImmediate},
	Ldc:        {name: "ldc", shape: poolIndex1},
	LdcW:       {name: "ldc_w", shape: poolIndex2},
	Ldc2W:      {name: "ldc2_w", shape: poolIndex2},

	Iload:  {name: "iload", shape: localIndex},
	Lload:  {name: "lload", shape: localIndex},
	Fload:  {name: "fload", shape: localIndex},
	Dload:  {name: "dload", shape: localIndex},
	Aload:  {name: "aload", shape: localIndex},
	Iload0: {name: "iload_0", shape: impliedLocal, local: 0},
	Iload1: {name: "iload_1", shape: impliedLocal, local: 1},
	Iload2: {name: "iload_2", shape: impliedLocal, local: 2},
	Iload3: {name: "iload_3", shape: impliedLocal, local: 3},
	Lload0: {name: "lload_0", shape: impliedLocal, local: 0},
	Lload1: {name: "lload_1", shape: impliedLocal, local: 1},
	Lload2: {name: "lload_2", shape: impliedLocal, local: 2},
	Lload3: {name: "lload_3", shape: impliedLocal, local: 3},
	Fload0: {name: "fload_0", shape: impliedLocal, local: 0},
	Fload1: {name: "fload_1", shape: impliedLocal, local: 1},
	Fload2: {name: "fload_2", shape: impliedLocal, local: 2},
	Fload3: {name: "fload_3", shape: impliedLocal, local: 3},
	Dload0: {name: "dload_0", shape: impliedLocal, local: 0},
	Dload1: {name: "dload_1", shape: impliedLocal, local: 1},
	Dload2: {name: "dload_2", shape: impliedLocal, local: 2},
	Dload3: {name: "dload_3", shape: impliedLocal, local: 3},
	Aload0: {name: "aload_0", shape: impliedLocal, local: 0},
	Aload1: {name: "aload_1", shape: impliedLocal, local: 1},
	Aload2: {name: "aload_2", shape: impliedLocal, local: 2},
	Aload3: {name: "aload_3", shape: impliedLocal, local: 3},
	Aaload: {name: "aaload"},

	Istore:  {name: "istore", shape: localIndex},
	Lstore:  {name: "lstore", shape: localIndex},
	Fstore:  {name: "fstore", shape: localIndex},
	Dstore:  {name: "dstore", shape: localIndex},
	Astore:  {name: "astore", shape: localIndex},
	Istore0: {name: "istore_0", shape: impliedLocal, local: 0},
	Istore1: {name: "istore_1", shape: impliedLocal, local: 1},
	Istore2: {name: "istore_2", shape: impliedLocal, local: 2},
	Istore3: {name: "istore_3", shape: impliedLocal, local: 3},
	Lstore0: {name: "lstore_0", shape: impliedLocal, local: 0},
	Lstore1: {name: "lstore_1", shape: impliedLocal, local: 1},
	Lstore2: {name: "lstore_2", shape: impliedLocal, local: 2},
	Lstore3: {name: "lstore_3", shape: impliedLocal, local: 3},
	Fstore0: {name: "fstore_0", shape: impliedLocal, local: 0},
	Fstore1: {name: "fstore_1", shape: impliedLocal, local: 1},
	Fstore2: {name: "fstore_2", shape: impliedLocal, local: 2},
	Fstore3: {name: "fstore_3", shape: impliedLocal, local: 3},
	Dstore0: {name: "dstore_0", shape: impliedLocal, local: 0},
	Dstore1: {name: "dstore_1", shape: impliedLocal, local: 1},
	Dstore2: {name: "dstore_2", shape: impliedLocal, local: 2},
	Dstore3: {name: "dstore_3", shape: impliedLocal, local: 3},
	Astore0: {name: "astore_0", shape: impliedLocal, local: 0},
	Astore1: {name: "astore_1", shape: impliedLocal, local: 1},
	Astore2: {name: "astore_2", shape: impliedLocal, local: 2},
	Astore3: {name: "astore_3", shape: impliedLocal, local: 3},

	Pop:   {name: "pop"},
	Pop2:  {name: "pop2"},
	Dup:   {name: "dup"},
	DupX1: {name: "dup_x1"},
	DupX2: {name: "dup_x2"},
	Swap:  {name: "swap"},
	Iadd:  {name: "iadd"},
	Ladd:  {name: "ladd"},
	Isub:  {name: "isub"},
	Lsub:  {name: "lsub"},
	Imul:  {name: "imul"},
	Lmul:  {name: "lmul"},
	Idiv:  {name: "idiv"},
	Ldiv:  {name: "ldiv"},
	Irem:  {name: "irem"},
	Lrem:  {name: "lrem"},
	Ineg:  {name: "ineg"},
	Lneg:  {name: "lneg"},
	Ishl:  {name: "ishl"},
	Ishr:  {name: "ishr"},
	Iushr: {name: "iushr"},
	Iand:  {name: "iand"},
	Ior:   {name: "ior"},
	Ixor:  {name: "ixor"},
	Iinc:  {name: "iinc", shape: iincOperands},
	I2l:   {name: "i2l"},
	L2i:   {name: "l2i"},
	I2b:   {name: "i2b"},
	I2c:   {name: "i2c"},
	I2s:   {name: "i2s"},
	Lcmp:  {name: "lcmp"},

	Ifeq:      {name: "ifeq", shape: branchOffset},
	Ifne:      {name: "ifne", shape: branchOffset},
	Iflt:      {name: "iflt", shape: branchOffset},
	Ifge:      {name: "ifge", shape: branchOffset},
	Ifgt:      {name: "ifgt", shape: branchOffset},
	Ifle:      {name: "ifle", shape: branchOffset},
	IfIcmpeq:  {name: "if_icmpeq", shape: branchOffset},
	IfIcmpne:  {name: "if_icmpne", shape: branchOffset},
	IfIcmplt:  {name: "if_icmplt", shape: branchOffset},
	IfIcmpge:  {name: "if_icmpge", shape: branchOffset},
	IfIcmpgt:  {name: "if_icmpgt", shape: branchOffset},
	IfIcmple:  {name: "if_icmple", shape: branchOffset},
	IfAcmpeq:  {name: "if_acmpeq", shape: branchOffset},
	IfAcmpne:  {name: "if_acmpne", shape: branchOffset},
	Goto:      {name: "goto", shape: branchOffset},
	Ifnull:    {name: "ifnull", shape: branchOffset},
	Ifnonnull: {name: "ifnonnull", shape: branchOffset},

	Ireturn: {name: "ireturn"},
	Lreturn: {name: "lreturn"},
	Freturn: {name: "freturn"},
	Dreturn: {name: "dreturn"},
	Areturn: {name: "areturn"},
	Return:  {name: "return"},

	Getstatic:       {name: "getstatic", shape: poolIndex2},
	Putstatic:       {name: "putstatic", shape: poolIndex2},
	Getfield:        {name: "getfield", shape: poolIndex2},
	Putfield:        {name: "putfield", shape: poolIndex2},
	Invokevirtual:   {name: "invokevirtual", shape: poolIndex2},
	Invokespecial:   {name: "invokespecial", shape: poolIndex2},
	Invokestatic:    {name: "invokestatic", shape: poolIndex2},
	Invokeinterface: {name: "invokeinterface", shape: interfaceOperands},
	New:             {name: "new", shape: poolIndex2},
	Arraylength:     {name: "arraylength"},
	Checkcast:       {name: "checkcast", shape: poolIndex2},
}

// Instruction is one decoded instruction bound to its byte address.
type Instruction struct {
	Address int
	Opcode  Opcode

	// Index is a local slot or a constant-pool index, depending on the opcode.
	Index uint16
	// Value holds bipush/sipush immediates and the iinc increment.
	Value int32
	// Offset is a branch offset relative to Address.
	Offset int32
	// Count is the invokeinterface argument-slot count.
	Count uint8
}

// OperandLength is the number of operand bytes following the opcode.
func (ins *Instruction) OperandLength() int {
	return operandWidth[descriptors[ins.Opcode].shape]
}

// Next is the address of the instruction that follows in the byte stream.
func (ins *Instruction) Next() int {
	return ins.Address + 1 + ins.OperandLength()
}

// HasPoolIndex reports whether Index names a constant-pool entry.
func (ins *Instruction) HasPoolIndex() bool {
	switch descriptors[ins.Opcode].shape {
	case poolIndex1, poolIndex2, interfaceOperands:
		return true
	}
	return false
}

// Target is the absolute address a branch instruction jumps to.
func (ins *Instruction) Target() int {
	return ins.Address + int(ins.Offset)
}

func (ins *Instruction) String() string {
	d := descriptors[ins.Opcode]
	switch d.shape {
	case localIndex:
		return fmt.Sprintf("%d: %s %d", ins.Address, d.name, ins.Index)
	case byteImmediate, shortImmediate:
		return fmt.Sprintf("%d: %s %d", ins.Address, d.name, ins.Value)
	case poolIndex1, poolIndex2:
		return fmt.Sprintf("%d: %s #%d", ins.Address, d.name, ins.Index)
	case iincOperands:
		return fmt.Sprintf("%d: %s %d, %d", ins.Address, d.name, ins.Index, ins.Value)
	case branchOffset:
		return fmt.Sprintf("%d: %s %d", ins.Address, d.name, ins.Target())
	case interfaceOperands:
		return fmt.Sprintf("%d: %s #%d, %d", ins.Address, d.name, ins.Index, ins.Count)
	default:
		return fmt.Sprintf("%d: %s", ins.Address, d.name)
	}
}

// Decode reads the instruction at pc. ok is false when the opcode has no
// table entry or its operands run past the end of code.
func Decode(code []byte, pc int) (ins Instruction, ok bool) {
	if pc < 0 || pc >= len(code) {
		return ins, false
	}
	ins.Address = pc
	ins.Opcode = Opcode(code[pc])
	d := descriptors[ins.Opcode]
	if d.name == "" {
		return ins, false
	}
	width := operandWidth[d.shape]
	if pc+1+width > len(code) {
		return ins, false
	}
	operands := code[pc+1 : pc+1+width]

	switch d.shape {
	case impliedLocal:
		ins.Index = d.local
	case localIndex, poolIndex1:
		ins.Index = uint16(operands[0])
	case byteImmediate:
		ins.Value = int32(int8(operands[0]))
	case shortImmediate:
		ins.Value = int32(int16(binary.BigEndian.Uint16(operands)))
	case poolIndex2:
		ins.Index = binary.BigEndian.Uint16(operands)
	case iincOperands:
		ins.Index = uint16(operands[0])
		ins.Value = int32(int8(operands[1]))
	case branchOffset:
		ins.Offset = int32(int16(binary.BigEndian.Uint16(operands)))
	case interfaceOperands:
		ins.Index = binary.BigEndian.Uint16(operands)
		ins.Count = operands[2]
	}
	return ins, true
}
