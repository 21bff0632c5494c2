package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/jedy/classfile"
)

type JSONEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	return encode(e.w, e)
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	c, err := NewClass(e.class)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
