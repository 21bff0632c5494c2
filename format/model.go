package format

import (
	"fmt"

	"github.com/dhamidi/jedy/bytecode"
	"github.com/dhamidi/jedy/classfile"
)

// Class is the structure every encoder serialises.
type Class struct {
	Name         string     `json:"name" yaml:"name"`
	SuperClass   string     `json:"superClass,omitempty" yaml:"superClass,omitempty"`
	Interfaces   []string   `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Kind         string     `json:"kind" yaml:"kind"`
	Flags        []string   `json:"flags,omitempty" yaml:"flags,omitempty"`
	Version      Version    `json:"version" yaml:"version"`
	SourceFile   string     `json:"sourceFile,omitempty" yaml:"sourceFile,omitempty"`
	ConstantPool []Constant `json:"constantPool" yaml:"constantPool"`
	Fields       []Field    `json:"fields,omitempty" yaml:"fields,omitempty"`
	Methods      []Method   `json:"methods,omitempty" yaml:"methods,omitempty"`
	Attributes   []string   `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

type Version struct {
	Major uint16 `json:"major" yaml:"major"`
	Minor uint16 `json:"minor" yaml:"minor"`
}

type Constant struct {
	Index uint16 `json:"index" yaml:"index"`
	Tag   string `json:"tag" yaml:"tag"`
	Value string `json:"value" yaml:"value"`
}

type Field struct {
	Name          string   `json:"name" yaml:"name"`
	Descriptor    string   `json:"descriptor" yaml:"descriptor"`
	Type          string   `json:"type" yaml:"type"`
	Flags         []string `json:"flags,omitempty" yaml:"flags,omitempty"`
	ConstantValue string   `json:"constantValue,omitempty" yaml:"constantValue,omitempty"`
}

type Method struct {
	Name       string   `json:"name" yaml:"name"`
	Descriptor string   `json:"descriptor" yaml:"descriptor"`
	ReturnType string   `json:"returnType" yaml:"returnType"`
	Parameters []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Flags      []string `json:"flags,omitempty" yaml:"flags,omitempty"`
	Code       *Code    `json:"code,omitempty" yaml:"code,omitempty"`
}

type Code struct {
	MaxStack     uint16   `json:"maxStack" yaml:"maxStack"`
	MaxLocals    uint16   `json:"maxLocals" yaml:"maxLocals"`
	Instructions []string `json:"instructions" yaml:"instructions"`
	// HaltAddress is set when disassembly stopped on an unsupported opcode.
	HaltAddress *int `json:"haltAddress,omitempty" yaml:"haltAddress,omitempty"`
}

// NewClass builds the serialisable view of cf.
func NewClass(cf *classfile.ClassFile) (*Class, error) {
	c := &Class{
		Name:       cf.ClassName(),
		SuperClass: cf.SuperClassName(),
		Interfaces: cf.InterfaceNames(),
		Kind:       classKind(cf.AccessFlags),
		Flags:      cf.AccessFlags.Names(),
		Version:    Version{Major: cf.MajorVersion, Minor: cf.MinorVersion},
		SourceFile: cf.SourceFile(),
	}

	for i := 1; i < cf.ConstantPool.Count(); i++ {
		index := uint16(i)
		if !cf.ConstantPool.Usable(index) {
			continue
		}
		entry, _ := cf.ConstantPool.Entry(index)
		value, err := describeConstant(cf.ConstantPool, index, entry)
		if err != nil {
			return nil, fmt.Errorf("constant #%d: %w", index, err)
		}
		c.ConstantPool = append(c.ConstantPool, Constant{Index: index, Tag: entry.Tag().String(), Value: value})
	}

	for i := range cf.Fields {
		f := &cf.Fields[i]
		ft, err := f.ParsedDescriptor()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name(), err)
		}
		field := Field{
			Name:       f.Name(),
			Descriptor: f.Descriptor(),
			Type:       ft.String(),
			Flags:      f.AccessFlags.Names(),
		}
		if cv := f.ConstantValue(); cv != 0 {
			entry, err := cf.ConstantPool.Entry(cv)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name(), err)
			}
			if field.ConstantValue, err = describeConstant(cf.ConstantPool, cv, entry); err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name(), err)
			}
		}
		c.Fields = append(c.Fields, field)
	}

	for i := range cf.Methods {
		m := &cf.Methods[i]
		md, err := m.ParsedDescriptor()
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m, err)
		}
		method := Method{
			Name:       m.Name(),
			Descriptor: m.Descriptor(),
			ReturnType: "void",
			Flags:      m.AccessFlags.Names(),
		}
		if md.ReturnType != nil {
			method.ReturnType = md.ReturnType.String()
		}
		for j := range md.Parameters {
			method.Parameters = append(method.Parameters, md.Parameters[j].String())
		}
		if code := m.Code(); code != nil {
			method.Code = newCode(code)
		}
		c.Methods = append(c.Methods, method)
	}

	for _, attr := range cf.Attributes {
		c.Attributes = append(c.Attributes, attr.Name)
	}
	return c, nil
}

func newCode(code *classfile.CodeAttribute) *Code {
	listing := code.Listing
	if listing == nil {
		listing = bytecode.Disassemble(code.Code)
	}
	out := &Code{MaxStack: code.MaxStack, MaxLocals: code.MaxLocals}
	for i := range listing.Instructions {
		out.Instructions = append(out.Instructions, listing.Instructions[i].String())
	}
	if listing.Halted {
		halt := listing.HaltAddress
		out.HaltAddress = &halt
	}
	return out
}

func classKind(flags classfile.ClassAccessFlags) string {
	switch {
	case flags.IsAnnotation():
		return "annotation"
	case flags.IsEnum():
		return "enum"
	case flags.IsInterface():
		return "interface"
	case flags.IsModule():
		return "module"
	default:
		return "class"
	}
}

// DescribeConstant renders pool entry index as its tag and value.
func DescribeConstant(cp classfile.ConstantPool, index uint16) (string, error) {
	entry, err := cp.Entry(index)
	if err != nil {
		return "", err
	}
	value, err := describeConstant(cp, index, entry)
	if err != nil {
		return "", err
	}
	return entry.Tag().String() + " " + value, nil
}

// describeConstant renders entry with its symbolic references followed.
func describeConstant(cp classfile.ConstantPool, index uint16, entry classfile.ConstantPoolEntry) (string, error) {
	switch e := entry.(type) {
	case *classfile.ConstantUtf8Info:
		return fmt.Sprintf("%q", e.Value), nil
	case *classfile.ConstantIntegerInfo:
		return fmt.Sprint(e.Value), nil
	case *classfile.ConstantFloatInfo:
		return fmt.Sprint(e.Value), nil
	case *classfile.ConstantLongInfo:
		return fmt.Sprint(e.Value), nil
	case *classfile.ConstantDoubleInfo:
		return fmt.Sprint(e.Value), nil
	case *classfile.ConstantClassInfo:
		return cp.GetClassName(index)
	case *classfile.ConstantStringInfo:
		s, err := cp.GetString(index)
		return fmt.Sprintf("%q", s), err
	case *classfile.ConstantFieldrefInfo:
		ref, err := cp.GetFieldref(index)
		return ref.String(), err
	case *classfile.ConstantMethodrefInfo, *classfile.ConstantInterfaceMethodrefInfo:
		ref, _, err := cp.GetAnyMethodref(index)
		return ref.String(), err
	case *classfile.ConstantNameAndTypeInfo:
		name, desc, err := cp.GetNameAndType(index)
		return name + ":" + desc, err
	case *classfile.ConstantMethodHandleInfo:
		return fmt.Sprintf("kind %d #%d", e.ReferenceKind, e.ReferenceIndex), nil
	case *classfile.ConstantMethodTypeInfo:
		return cp.GetMethodType(index)
	case *classfile.ConstantDynamicInfo:
		name, desc, err := cp.GetNameAndType(e.NameAndTypeIndex)
		return fmt.Sprintf("bootstrap %d %s:%s", e.BootstrapMethodAttrIndex, name, desc), err
	case *classfile.ConstantInvokeDynamicInfo:
		name, desc, err := cp.GetNameAndType(e.NameAndTypeIndex)
		return fmt.Sprintf("bootstrap %d %s:%s", e.BootstrapMethodAttrIndex, name, desc), err
	case *classfile.ConstantModuleInfo:
		return cp.GetUtf8(e.NameIndex)
	case *classfile.ConstantPackageInfo:
		return cp.GetUtf8(e.NameIndex)
	default:
		return "", fmt.Errorf("unknown constant %s", entry.Tag())
	}
}
