// Package format renders parsed class files for inspection.
package format

import (
	"encoding"
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/jedy/classfile"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(cf *classfile.ClassFile) error
}

// Formats lists the names accepted by NewEncoder.
var Formats = []string{"line", "json", "yaml", "cbor", "disasm"}

func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "line":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "yaml":
		return NewYAMLEncoder(w), nil
	case "cbor":
		return NewCBOREncoder(w)
	case "disasm":
		return NewDisasmEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format: %s (expected %s)", name, strings.Join(Formats, ", "))
	}
}

// encode writes the marshalled form of m to w.
func encode(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
