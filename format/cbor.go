package format

import (
	"fmt"
	"io"

	"github.com/dhamidi/jedy/classfile"
	"github.com/fxamacker/cbor/v2"
)

// CBOREncoder writes the canonical CBOR encoding of a class, so equal class
// files always produce identical bytes.
type CBOREncoder struct {
	w     io.Writer
	class *classfile.ClassFile
	mode  cbor.EncMode
}

func NewCBOREncoder(w io.Writer) (*CBOREncoder, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encoder: %w", err)
	}
	return &CBOREncoder{w: w, mode: mode}, nil
}

func (e *CBOREncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	return encode(e.w, e)
}

// MarshalText returns binary CBOR despite the name; it satisfies Encoder.
func (e *CBOREncoder) MarshalText() ([]byte, error) {
	c, err := NewClass(e.class)
	if err != nil {
		return nil, err
	}
	return e.mode.Marshal(c)
}
