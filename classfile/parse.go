package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dhamidi/jedy/fault"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("jedy.classfile")

type reader struct {
	r   io.Reader
	err error
}

func (r *reader) readU1() uint8 {
	if r.err != nil {
		return 0
	}
	var buf [1]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return buf[0]
}

func (r *reader) readU2() uint16 {
	if r.err != nil {
		return 0
	}
	var buf [2]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint16(buf[:])
}

func (r *reader) readU4() uint32 {
	if r.err != nil {
		return 0
	}
	var buf [4]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

func (r *reader) readBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n <= 4096 {
		buf := make([]byte, n)
		_, r.err = io.ReadFull(r.r, buf)
		return buf
	}
	// Lengths come from untrusted input; grow the buffer as data arrives.
	buf, err := io.ReadAll(io.LimitReader(r.r, int64(n)))
	if err == nil && len(buf) < n {
		err = io.ErrUnexpectedEOF
	}
	r.err = err
	return buf
}

// check converts the sticky read error into a classified fault.
func (r *reader) check(what string) error {
	if r.err == nil {
		return nil
	}
	if errors.Is(r.err, io.EOF) || errors.Is(r.err, io.ErrUnexpectedEOF) {
		return fault.New(fault.Format, fault.ErrTruncated, "reading %s", what)
	}
	return fmt.Errorf("reading %s: %w", what, r.err)
}

// exhausted reports whether the underlying stream has no bytes left.
func (r *reader) exhausted() (bool, error) {
	var buf [1]byte
	n, err := r.r.Read(buf[:])
	if n > 0 {
		return false, nil
	}
	if err == nil || err == io.EOF {
		return err == io.EOF, nil
	}
	return false, err
}

func ParseFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

func ParseBytes(data []byte) (*ClassFile, error) {
	return Parse(bytes.NewReader(data))
}

// Parse decodes a complete class file. The stream must end exactly where the
// class-level attributes end.
func Parse(rd io.Reader) (*ClassFile, error) {
	r := &reader{r: rd}

	magic := r.readU4()
	if err := r.check("magic"); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fault.New(fault.Format, fault.ErrBadMagic, "0x%08X", magic)
	}

	cf := &ClassFile{
		MinorVersion: r.readU2(),
		MajorVersion: r.readU2(),
	}
	if err := r.check("version"); err != nil {
		return nil, err
	}

	pool, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}
	cf.ConstantPool = pool

	cf.AccessFlags = ClassAccessFlags(r.readU2())
	cf.ThisClass = r.readU2()
	cf.SuperClass = r.readU2()
	interfacesCount := r.readU2()
	if err := r.check("class header"); err != nil {
		return nil, err
	}

	if cf.name, err = pool.GetClassName(cf.ThisClass); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	if cf.SuperClass != 0 {
		if cf.superName, err = pool.GetClassName(cf.SuperClass); err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
	}

	cf.Interfaces = make([]uint16, interfacesCount)
	cf.interfaceNames = make([]string, interfacesCount)
	for i := range cf.Interfaces {
		cf.Interfaces[i] = r.readU2()
		if err := r.check("interfaces"); err != nil {
			return nil, err
		}
		if cf.interfaceNames[i], err = pool.GetClassName(cf.Interfaces[i]); err != nil {
			return nil, fmt.Errorf("interface %d: %w", i, err)
		}
	}

	fieldsCount := r.readU2()
	if err := r.check("fields count"); err != nil {
		return nil, err
	}
	cf.Fields = make([]FieldInfo, fieldsCount)
	for i := range cf.Fields {
		if err := readFieldInfo(r, pool, &cf.Fields[i]); err != nil {
			return nil, fmt.Errorf("failed to read field %d: %w", i, err)
		}
	}

	methodsCount := r.readU2()
	if err := r.check("methods count"); err != nil {
		return nil, err
	}
	cf.Methods = make([]MethodInfo, methodsCount)
	for i := range cf.Methods {
		if err := readMethodInfo(r, pool, cf.name, &cf.Methods[i]); err != nil {
			return nil, fmt.Errorf("failed to read method %d: %w", i, err)
		}
	}

	if cf.Attributes, err = readAttributes(r, pool, "class attributes"); err != nil {
		return nil, err
	}

	done, err := r.exhausted()
	if err != nil {
		return nil, fmt.Errorf("checking for trailing data: %w", err)
	}
	if !done {
		return nil, fault.New(fault.Format, fault.ErrTrailingData, "after class %s", cf.name)
	}

	log.Debugf("parsed %s: version %d.%d, %d constants, %d fields, %d methods",
		cf.name, cf.MajorVersion, cf.MinorVersion, pool.Count(), len(cf.Fields), len(cf.Methods))
	return cf, nil
}

func readConstantPool(r *reader) (ConstantPool, error) {
	count := r.readU2()
	if err := r.check("constant pool count"); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fault.New(fault.Format, fault.ErrInvalidConstantIndex, "constant_pool_count is 0")
	}

	pool := make(ConstantPool, count)
	for i := 1; i < int(count); i++ {
		entry, wide, err := readConstantPoolEntry(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read constant pool entry %d: %w", i, err)
		}
		pool[i] = entry
		if wide {
			// The next slot stays nil.
			i++
		}
	}
	return pool, nil
}

func readConstantPoolEntry(r *reader) (ConstantPoolEntry, bool, error) {
	tag := ConstantTag(r.readU1())
	if err := r.check("constant tag"); err != nil {
		return nil, false, err
	}

	var entry ConstantPoolEntry
	wide := false

	switch tag {
	case ConstantUtf8:
		length := r.readU2()
		data := r.readBytes(int(length))
		entry = &ConstantUtf8Info{Value: decodeModifiedUtf8(data), Raw: append([]byte(nil), data...)}
	case ConstantInteger:
		entry = &ConstantIntegerInfo{Value: int32(r.readU4())}
	case ConstantFloat:
		entry = &ConstantFloatInfo{Value: math.Float32frombits(r.readU4())}
	case ConstantLong:
		high := r.readU4()
		low := r.readU4()
		entry = &ConstantLongInfo{Value: int64(uint64(high)<<32 | uint64(low))}
		wide = true
	case ConstantDouble:
		high := r.readU4()
		low := r.readU4()
		entry = &ConstantDoubleInfo{Value: math.Float64frombits(uint64(high)<<32 | uint64(low))}
		wide = true
	case ConstantClass:
		entry = &ConstantClassInfo{NameIndex: r.readU2()}
	case ConstantString:
		entry = &ConstantStringInfo{StringIndex: r.readU2()}
	case ConstantFieldref:
		entry = &ConstantFieldrefInfo{ClassIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantMethodref:
		entry = &ConstantMethodrefInfo{ClassIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantInterfaceMethodref:
		entry = &ConstantInterfaceMethodrefInfo{ClassIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantNameAndType:
		entry = &ConstantNameAndTypeInfo{NameIndex: r.readU2(), DescriptorIndex: r.readU2()}
	case ConstantMethodHandle:
		entry = &ConstantMethodHandleInfo{ReferenceKind: MethodHandleKind(r.readU1()), ReferenceIndex: r.readU2()}
	case ConstantMethodType:
		entry = &ConstantMethodTypeInfo{DescriptorIndex: r.readU2()}
	case ConstantDynamic:
		entry = &ConstantDynamicInfo{BootstrapMethodAttrIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantInvokeDynamic:
		entry = &ConstantInvokeDynamicInfo{BootstrapMethodAttrIndex: r.readU2(), NameAndTypeIndex: r.readU2()}
	case ConstantModule:
		entry = &ConstantModuleInfo{NameIndex: r.readU2()}
	case ConstantPackage:
		entry = &ConstantPackageInfo{NameIndex: r.readU2()}
	default:
		return nil, false, fault.New(fault.Format, fault.ErrInvalidConstantTag, "tag %d", uint8(tag))
	}

	if err := r.check(tag.String()); err != nil {
		return nil, false, err
	}
	return entry, wide, nil
}

func readFieldInfo(r *reader, cp ConstantPool, field *FieldInfo) error {
	field.AccessFlags = FieldAccessFlags(r.readU2())
	field.NameIndex = r.readU2()
	field.DescriptorIndex = r.readU2()
	if err := r.check("field header"); err != nil {
		return err
	}

	var err error
	if field.name, err = cp.GetUtf8(field.NameIndex); err != nil {
		return fmt.Errorf("field name: %w", err)
	}
	if field.descriptor, err = cp.GetUtf8(field.DescriptorIndex); err != nil {
		return fmt.Errorf("field descriptor: %w", err)
	}
	field.Attributes, err = readAttributes(r, cp, "field "+field.name)
	return err
}

func readMethodInfo(r *reader, cp ConstantPool, className string, method *MethodInfo) error {
	method.AccessFlags = MethodAccessFlags(r.readU2())
	method.NameIndex = r.readU2()
	method.DescriptorIndex = r.readU2()
	if err := r.check("method header"); err != nil {
		return err
	}

	var err error
	if method.name, err = cp.GetUtf8(method.NameIndex); err != nil {
		return fmt.Errorf("method name: %w", err)
	}
	if method.descriptor, err = cp.GetUtf8(method.DescriptorIndex); err != nil {
		return fmt.Errorf("method descriptor: %w", err)
	}
	if method.Attributes, err = readAttributes(r, cp, "method "+method.name); err != nil {
		return err
	}
	method.bind(className)
	return nil
}

func readAttributes(r *reader, cp ConstantPool, owner string) ([]AttributeInfo, error) {
	count := r.readU2()
	if err := r.check(owner + " attribute count"); err != nil {
		return nil, err
	}
	attrs := make([]AttributeInfo, count)
	for i := range attrs {
		if err := readAttributeInfo(r, cp, &attrs[i]); err != nil {
			return nil, fmt.Errorf("%s attribute %d: %w", owner, i, err)
		}
	}
	return attrs, nil
}

func readAttributeInfo(r *reader, cp ConstantPool, attr *AttributeInfo) error {
	attr.NameIndex = r.readU2()
	length := r.readU4()
	attr.Info = r.readBytes(int(length))
	if err := r.check("attribute"); err != nil {
		return err
	}

	var err error
	if attr.Name, err = cp.GetUtf8(attr.NameIndex); err != nil {
		return fmt.Errorf("attribute name: %w", err)
	}
	attr.Parsed, err = decodeAttribute(attr.Name, attr.Info, cp)
	return err
}
