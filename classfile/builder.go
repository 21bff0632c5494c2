package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Builder assembles a class file in memory. Constant-pool helpers return the
// index of an existing equal entry when there is one, so code bytes can
// embed indices as they are written.
type Builder struct {
	major, minor uint16
	flags        ClassAccessFlags
	this, super  uint16

	pool       ConstantPool
	interned   map[string]uint16
	interfaces []uint16
	fields     []FieldInfo
	methods    []MethodInfo
	attributes []AttributeInfo
}

// NewBuilder starts a class named name. An empty superName produces a root
// class with super_class 0.
func NewBuilder(name, superName string, flags ClassAccessFlags) *Builder {
	b := &Builder{
		major:    52,
		flags:    flags,
		pool:     ConstantPool{nil},
		interned: make(map[string]uint16),
	}
	b.this = b.Class(name)
	if superName != "" {
		b.super = b.Class(superName)
	}
	return b
}

func (b *Builder) Version(major, minor uint16) *Builder {
	b.major, b.minor = major, minor
	return b
}

func (b *Builder) add(key string, entry ConstantPoolEntry) uint16 {
	if idx, ok := b.interned[key]; ok {
		return idx
	}
	idx := uint16(len(b.pool))
	b.pool = append(b.pool, entry)
	if tag := entry.Tag(); tag == ConstantLong || tag == ConstantDouble {
		b.pool = append(b.pool, nil)
	}
	b.interned[key] = idx
	return idx
}

func (b *Builder) Utf8(s string) uint16 {
	return b.add("utf8:"+s, &ConstantUtf8Info{Value: s})
}

func (b *Builder) Class(name string) uint16 {
	nameIndex := b.Utf8(name)
	return b.add("class:"+name, &ConstantClassInfo{NameIndex: nameIndex})
}

func (b *Builder) StringConst(s string) uint16 {
	idx := b.Utf8(s)
	return b.add("string:"+s, &ConstantStringInfo{StringIndex: idx})
}

func (b *Builder) Integer(v int32) uint16 {
	return b.add(fmt.Sprintf("int:%d", v), &ConstantIntegerInfo{Value: v})
}

func (b *Builder) Float(v float32) uint16 {
	return b.add(fmt.Sprintf("float:%x", math.Float32bits(v)), &ConstantFloatInfo{Value: v})
}

func (b *Builder) Long(v int64) uint16 {
	return b.add(fmt.Sprintf("long:%d", v), &ConstantLongInfo{Value: v})
}

func (b *Builder) Double(v float64) uint16 {
	return b.add(fmt.Sprintf("double:%x", math.Float64bits(v)), &ConstantDoubleInfo{Value: v})
}

func (b *Builder) NameAndType(name, descriptor string) uint16 {
	n := b.Utf8(name)
	d := b.Utf8(descriptor)
	return b.add("nat:"+name+":"+descriptor, &ConstantNameAndTypeInfo{NameIndex: n, DescriptorIndex: d})
}

func (b *Builder) Fieldref(class, name, descriptor string) uint16 {
	c := b.Class(class)
	nat := b.NameAndType(name, descriptor)
	return b.add("field:"+class+"."+name+":"+descriptor, &ConstantFieldrefInfo{ClassIndex: c, NameAndTypeIndex: nat})
}

func (b *Builder) Methodref(class, name, descriptor string) uint16 {
	c := b.Class(class)
	nat := b.NameAndType(name, descriptor)
	return b.add("method:"+class+"."+name+descriptor, &ConstantMethodrefInfo{ClassIndex: c, NameAndTypeIndex: nat})
}

func (b *Builder) InterfaceMethodref(class, name, descriptor string) uint16 {
	c := b.Class(class)
	nat := b.NameAndType(name, descriptor)
	return b.add("imethod:"+class+"."+name+descriptor, &ConstantInterfaceMethodrefInfo{ClassIndex: c, NameAndTypeIndex: nat})
}

func (b *Builder) Implements(names ...string) *Builder {
	for _, name := range names {
		b.interfaces = append(b.interfaces, b.Class(name))
	}
	return b
}

func (b *Builder) Field(flags FieldAccessFlags, name, descriptor string) *Builder {
	b.fields = append(b.fields, FieldInfo{
		AccessFlags:     flags,
		NameIndex:       b.Utf8(name),
		DescriptorIndex: b.Utf8(descriptor),
	})
	return b
}

// ConstantField adds a static field carrying a ConstantValue attribute that
// points at valueIndex.
func (b *Builder) ConstantField(flags FieldAccessFlags, name, descriptor string, valueIndex uint16) *Builder {
	b.Field(flags|AccStatic, name, descriptor)
	f := &b.fields[len(b.fields)-1]
	f.Attributes = []AttributeInfo{{
		NameIndex: b.Utf8("ConstantValue"),
		Info:      []byte{byte(valueIndex >> 8), byte(valueIndex)},
	}}
	return b
}

// Method adds a method. A nil code slice leaves the method without a Code
// attribute, as abstract and native methods are.
func (b *Builder) Method(flags MethodAccessFlags, name, descriptor string, maxStack, maxLocals uint16, code []byte) *Builder {
	m := MethodInfo{
		AccessFlags:     flags,
		NameIndex:       b.Utf8(name),
		DescriptorIndex: b.Utf8(descriptor),
	}
	if code != nil {
		m.Attributes = []AttributeInfo{{
			NameIndex: b.Utf8("Code"),
			Info:      encodeCode(maxStack, maxLocals, code),
		}}
	}
	b.methods = append(b.methods, m)
	return b
}

// Attribute appends a raw class-level attribute.
func (b *Builder) Attribute(name string, info []byte) *Builder {
	b.attributes = append(b.attributes, AttributeInfo{NameIndex: b.Utf8(name), Info: info})
	return b
}

// ClassFile returns the assembled structure without derived names; use
// Build for a fully parsed class.
func (b *Builder) ClassFile() *ClassFile {
	return &ClassFile{
		MinorVersion: b.minor,
		MajorVersion: b.major,
		ConstantPool: b.pool,
		AccessFlags:  b.flags,
		ThisClass:    b.this,
		SuperClass:   b.super,
		Interfaces:   b.interfaces,
		Fields:       b.fields,
		Methods:      b.methods,
		Attributes:   b.attributes,
	}
}

func (b *Builder) Bytes() ([]byte, error) {
	return b.ClassFile().MarshalBinary()
}

func (b *Builder) Build() (*ClassFile, error) {
	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return ParseBytes(data)
}

func encodeCode(maxStack, maxLocals uint16, code []byte) []byte {
	var buf bytes.Buffer
	var u2 [2]byte
	var u4 [4]byte
	binary.BigEndian.PutUint16(u2[:], maxStack)
	buf.Write(u2[:])
	binary.BigEndian.PutUint16(u2[:], maxLocals)
	buf.Write(u2[:])
	binary.BigEndian.PutUint32(u4[:], uint32(len(code)))
	buf.Write(u4[:])
	buf.Write(code)
	// Empty exception table and no nested attributes.
	buf.Write([]byte{0, 0, 0, 0})
	return buf.Bytes()
}
