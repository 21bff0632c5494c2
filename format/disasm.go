package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/jedy/classfile"
)

// DisasmEncoder lists every method body with constant-pool operands
// resolved, in the style of javap -c.
type DisasmEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewDisasmEncoder(w io.Writer) *DisasmEncoder {
	return &DisasmEncoder{w: w}
}

func (e *DisasmEncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	return encode(e.w, e)
}

func (e *DisasmEncoder) MarshalText() ([]byte, error) {
	cf := e.class
	var sb strings.Builder

	for i := range cf.Methods {
		m := &cf.Methods[i]
		code := m.Code()
		if code == nil {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s.%s%s stack=%d locals=%d\n", cf.ClassName(), m.Name(), m.Descriptor(), code.MaxStack, code.MaxLocals)

		listing := code.Listing
		for j := range listing.Instructions {
			ins := &listing.Instructions[j]
			if !ins.HasPoolIndex() {
				fmt.Fprintf(&sb, "  %s\n", ins)
				continue
			}
			ref, err := DescribeConstant(cf.ConstantPool, ins.Index)
			if err != nil {
				return nil, fmt.Errorf("%s @%d: %w", m, ins.Address, err)
			}
			fmt.Fprintf(&sb, "  %s\t// %s\n", ins, ref)
		}
		if listing.Halted {
			fmt.Fprintf(&sb, "  %d: <unsupported opcode 0x%02x>\n", listing.HaltAddress, code.Code[listing.HaltAddress])
		}
	}

	return []byte(sb.String()), nil
}
