package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/jedy/classfile"
)

// LineEncoder writes one tab-separated record per class member, with code
// listings indented below their method.
type LineEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	return encode(e.w, e)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	c, err := NewClass(e.class)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\t%s\t%s\t%d.%d\n", c.Kind, c.Name, listStr(c.Flags), c.Version.Major, c.Version.Minor)
	if c.SuperClass != "" {
		fmt.Fprintf(&sb, "super\t%s\n", c.SuperClass)
	}
	for _, iface := range c.Interfaces {
		fmt.Fprintf(&sb, "implements\t%s\n", iface)
	}

	for _, k := range c.ConstantPool {
		fmt.Fprintf(&sb, "const\t#%d\t%s\t%s\n", k.Index, k.Tag, k.Value)
	}

	for _, f := range c.Fields {
		fmt.Fprintf(&sb, "field\t%s\t%s\t%s\n", f.Name, f.Type, listStr(f.Flags))
	}

	for _, m := range c.Methods {
		fmt.Fprintf(&sb, "method\t%s\t%s\t%s\t%s\n",
			m.Name,
			m.ReturnType,
			listStr(m.Parameters),
			listStr(m.Flags),
		)
		if m.Code == nil {
			continue
		}
		for _, ins := range m.Code.Instructions {
			fmt.Fprintf(&sb, "\t%s\n", ins)
		}
		if m.Code.HaltAddress != nil {
			fmt.Fprintf(&sb, "\t%d: <unsupported>\n", *m.Code.HaltAddress)
		}
	}

	return []byte(sb.String()), nil
}

func listStr(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}
