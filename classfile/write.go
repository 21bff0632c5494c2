package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

type writer struct {
	w   io.Writer
	err error
}

func (w *writer) writeU1(v uint8) {
	w.writeBytes([]byte{v})
}

func (w *writer) writeU2(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	w.writeBytes(buf[:])
}

func (w *writer) writeU4(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	w.writeBytes(buf[:])
}

func (w *writer) writeBytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

// Write serializes cf. Attributes are written from their raw Info bytes, so a
// parsed class file is reproduced byte for byte.
func Write(out io.Writer, cf *ClassFile) error {
	w := &writer{w: out}

	w.writeU4(Magic)
	w.writeU2(cf.MinorVersion)
	w.writeU2(cf.MajorVersion)

	if err := writeConstantPool(w, cf.ConstantPool); err != nil {
		return err
	}

	w.writeU2(uint16(cf.AccessFlags))
	w.writeU2(cf.ThisClass)
	w.writeU2(cf.SuperClass)
	w.writeU2(uint16(len(cf.Interfaces)))
	for _, idx := range cf.Interfaces {
		w.writeU2(idx)
	}

	w.writeU2(uint16(len(cf.Fields)))
	for i := range cf.Fields {
		f := &cf.Fields[i]
		w.writeU2(uint16(f.AccessFlags))
		w.writeU2(f.NameIndex)
		w.writeU2(f.DescriptorIndex)
		writeAttributes(w, f.Attributes)
	}

	w.writeU2(uint16(len(cf.Methods)))
	for i := range cf.Methods {
		m := &cf.Methods[i]
		w.writeU2(uint16(m.AccessFlags))
		w.writeU2(m.NameIndex)
		w.writeU2(m.DescriptorIndex)
		writeAttributes(w, m.Attributes)
	}

	writeAttributes(w, cf.Attributes)
	return w.err
}

func (cf *ClassFile) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, cf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeConstantPool(w *writer, cp ConstantPool) error {
	if len(cp) == 0 {
		return fmt.Errorf("constant pool has no slot 0")
	}
	w.writeU2(uint16(len(cp)))
	for i := 1; i < len(cp); i++ {
		entry := cp[i]
		if entry == nil {
			return fmt.Errorf("constant pool slot %d is empty", i)
		}
		w.writeU1(uint8(entry.Tag()))
		switch e := entry.(type) {
		case *ConstantUtf8Info:
			data := e.encoded()
			w.writeU2(uint16(len(data)))
			w.writeBytes(data)
		case *ConstantIntegerInfo:
			w.writeU4(uint32(e.Value))
		case *ConstantFloatInfo:
			w.writeU4(math.Float32bits(e.Value))
		case *ConstantLongInfo:
			w.writeU4(uint32(uint64(e.Value) >> 32))
			w.writeU4(uint32(e.Value))
			i++
		case *ConstantDoubleInfo:
			bits := math.Float64bits(e.Value)
			w.writeU4(uint32(bits >> 32))
			w.writeU4(uint32(bits))
			i++
		case *ConstantClassInfo:
			w.writeU2(e.NameIndex)
		case *ConstantStringInfo:
			w.writeU2(e.StringIndex)
		case *ConstantFieldrefInfo:
			w.writeU2(e.ClassIndex)
			w.writeU2(e.NameAndTypeIndex)
		case *ConstantMethodrefInfo:
			w.writeU2(e.ClassIndex)
			w.writeU2(e.NameAndTypeIndex)
		case *ConstantInterfaceMethodrefInfo:
			w.writeU2(e.ClassIndex)
			w.writeU2(e.NameAndTypeIndex)
		case *ConstantNameAndTypeInfo:
			w.writeU2(e.NameIndex)
			w.writeU2(e.DescriptorIndex)
		case *ConstantMethodHandleInfo:
			w.writeU1(uint8(e.ReferenceKind))
			w.writeU2(e.ReferenceIndex)
		case *ConstantMethodTypeInfo:
			w.writeU2(e.DescriptorIndex)
		case *ConstantDynamicInfo:
			w.writeU2(e.BootstrapMethodAttrIndex)
			w.writeU2(e.NameAndTypeIndex)
		case *ConstantInvokeDynamicInfo:
			w.writeU2(e.BootstrapMethodAttrIndex)
			w.writeU2(e.NameAndTypeIndex)
		case *ConstantModuleInfo:
			w.writeU2(e.NameIndex)
		case *ConstantPackageInfo:
			w.writeU2(e.NameIndex)
		default:
			return fmt.Errorf("constant pool slot %d: unsupported entry %T", i, entry)
		}
	}
	return nil
}

func writeAttributes(w *writer, attrs []AttributeInfo) {
	w.writeU2(uint16(len(attrs)))
	for i := range attrs {
		w.writeU2(attrs[i].NameIndex)
		w.writeU4(uint32(len(attrs[i].Info)))
		w.writeBytes(attrs[i].Info)
	}
}
