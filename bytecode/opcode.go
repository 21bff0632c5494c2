package bytecode

import "fmt"

type Opcode uint8

const (
	Nop        Opcode = 0x00
	AconstNull Opcode = 0x01
	IconstM1   Opcode = 0x02
	Iconst0    Opcode = 0x03
	Iconst1    Opcode = 0x04
	Iconst2    Opcode = 0x05
	Iconst3    Opcode = 0x06
	Iconst4    Opcode = 0x07
	Iconst5    Opcode = 0x08
	Lconst0    Opcode = 0x09
	Lconst1    Opcode = 0x0a
	Fconst0    Opcode = 0x0b
	Fconst1    Opcode = 0x0c
	Fconst2    Opcode = 0x0d
	Dconst0    Opcode = 0x0e
	Dconst1    Opcode = 0x0f
	Bipush     Opcode = 0x10
	Sipush     Opcode = 0x11
	Ldc        Opcode = 0x12
	LdcW       Opcode = 0x13
	Ldc2W      Opcode = 0x14

	Iload  Opcode = 0x15
	Lload  Opcode = 0x16
	Fload  Opcode = 0x17
	Dload  Opcode = 0x18
	Aload  Opcode = 0x19
	Iload0 Opcode = 0x1a
	Iload1 Opcode = 0x1b
	Iload2 Opcode = 0x1c
	Iload3 Opcode = 0x1d
	Lload0 Opcode = 0x1e
	Lload1 Opcode = 0x1f
	Lload2 Opcode = 0x20
	Lload3 Opcode = 0x21
	Fload0 Opcode = 0x22
	Fload1 Opcode = 0x23
	Fload2 Opcode = 0x24
	Fload3 Opcode = 0x25
	Dload0 Opcode = 0x26
	Dload1 Opcode = 0x27
	Dload2 Opcode = 0x28
	Dload3 Opcode = 0x29
	Aload0 Opcode = 0x2a
	Aload1 Opcode = 0x2b
	Aload2 Opcode = 0x2c
	Aload3 Opcode = 0x2d
	Aaload Opcode = 0x32

	Istore  Opcode = 0x36
	Lstore  Opcode = 0x37
	Fstore  Opcode = 0x38
	Dstore  Opcode = 0x39
	Astore  Opcode = 0x3a
	Istore0 Opcode = 0x3b
	Istore1 Opcode = 0x3c
	Istore2 Opcode = 0x3d
	Istore3 Opcode = 0x3e
	Lstore0 Opcode = 0x3f
	Lstore1 Opcode = 0x40
	Lstore2 Opcode = 0x41
	Lstore3 Opcode = 0x42
	Fstore0 Opcode = 0x43
	Fstore1 Opcode = 0x44
	Fstore2 Opcode = 0x45
	Fstore3 Opcode = 0x46
	Dstore0 Opcode = 0x47
	Dstore1 Opcode = 0x48
	Dstore2 Opcode = 0x49
	Dstore3 Opcode = 0x4a
	Astore0 Opcode = 0x4b
	Astore1 Opcode = 0x4c
	Astore2 Opcode = 0x4d
	Astore3 Opcode = 0x4e

	Pop    Opcode = 0x57
	Pop2   Opcode = 0x58
	Dup    Opcode = 0x59
	DupX1  Opcode = 0x5a
	DupX2  Opcode = 0x5b
	Swap   Opcode = 0x5f
	Iadd   Opcode = 0x60
	Ladd   Opcode = 0x61
	Isub   Opcode = 0x64
	Lsub   Opcode = 0x65
	Imul   Opcode = 0x68
	Lmul   Opcode = 0x69
	Idiv   Opcode = 0x6c
	Ldiv   Opcode = 0x6d
	Irem   Opcode = 0x70
	Lrem   Opcode = 0x71
	Ineg   Opcode = 0x74
	Lneg   Opcode = 0x75
	Ishl   Opcode = 0x78
	Ishr   Opcode = 0x7a
	Iushr  Opcode = 0x7c
	Iand   Opcode = 0x7e
	Ior    Opcode = 0x80
	Ixor   Opcode = 0x82
	Iinc   Opcode = 0x84
	I2l    Opcode = 0x85
	L2i    Opcode = 0x88
	I2b    Opcode = 0x91
	I2c    Opcode = 0x92
	I2s    Opcode = 0x93
	Lcmp   Opcode = 0x94

	Ifeq     Opcode = 0x99
	Ifne     Opcode = 0x9a
	Iflt     Opcode = 0x9b
	Ifge     Opcode = 0x9c
	Ifgt     Opcode = 0x9d
	Ifle     Opcode = 0x9e
	IfIcmpeq Opcode = 0x9f
	IfIcmpne Opcode = 0xa0
	IfIcmplt Opcode = 0xa1
	IfIcmpge Opcode = 0xa2
	IfIcmpgt Opcode = 0xa3
	IfIcmple Opcode = 0xa4
	IfAcmpeq Opcode = 0xa5
	IfAcmpne Opcode = 0xa6
	Goto     Opcode = 0xa7

	Ireturn Opcode = 0xac
	Lreturn Opcode = 0xad
	Freturn Opcode = 0xae
	Dreturn Opcode = 0xaf
	Areturn Opcode = 0xb0
	Return  Opcode = 0xb1

	Getstatic       Opcode = 0xb2
	Putstatic       Opcode = 0xb3
	Getfield        Opcode = 0xb4
	Putfield        Opcode = 0xb5
	Invokevirtual   Opcode = 0xb6
	Invokespecial   Opcode = 0xb7
	Invokestatic    Opcode = 0xb8
	Invokeinterface Opcode = 0xb9
	New             Opcode = 0xbb
	Arraylength     Opcode = 0xbe
	Checkcast       Opcode = 0xc0
	Ifnull          Opcode = 0xc6
	Ifnonnull       Opcode = 0xc7
)

func (op Opcode) String() string {
	if d := descriptors[op]; d.name != "" {
		return d.name
	}
	return fmt.Sprintf("opcode_0x%02x", uint8(op))
}

// Known reports whether op has an entry in the decode table.
func (op Opcode) Known() bool {
	return descriptors[op].name != ""
}
