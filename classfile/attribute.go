package classfile

import (
	"bytes"

	"github.com/dhamidi/jedy/fault"
)

// AttributeInfo keeps the raw attribute bytes next to the decoded variant so
// the class can be written back unchanged.
type AttributeInfo struct {
	NameIndex uint16
	Name      string
	Info      []byte
	Parsed    Attribute
}

// Attribute is one of *ConstantValueAttribute, *CodeAttribute,
// *StackMapTableAttribute, *ExceptionsAttribute, *BootstrapMethodsAttribute
// or *GenericAttribute.
type Attribute interface {
	AttributeName() string
}

type ConstantValueAttribute struct {
	ConstantValueIndex uint16
}

func (*ConstantValueAttribute) AttributeName() string { return "ConstantValue" }

type ExceptionsAttribute struct {
	ExceptionIndexTable []uint16
}

func (*ExceptionsAttribute) AttributeName() string { return "Exceptions" }

type BootstrapMethodsAttribute struct {
	BootstrapMethods []BootstrapMethod
}

func (*BootstrapMethodsAttribute) AttributeName() string { return "BootstrapMethods" }

type BootstrapMethod struct {
	BootstrapMethodRef uint16
	BootstrapArguments []uint16
}

// GenericAttribute is any attribute the decoder does not interpret.
type GenericAttribute struct {
	Name   string
	Length uint32
	Info   []byte
}

func (a *GenericAttribute) AttributeName() string { return a.Name }

func (a *AttributeInfo) AsCode() *CodeAttribute {
	code, _ := a.Parsed.(*CodeAttribute)
	return code
}

func (a *AttributeInfo) AsConstantValue() *ConstantValueAttribute {
	cv, _ := a.Parsed.(*ConstantValueAttribute)
	return cv
}

func (a *AttributeInfo) AsExceptions() *ExceptionsAttribute {
	ex, _ := a.Parsed.(*ExceptionsAttribute)
	return ex
}

func (a *AttributeInfo) AsBootstrapMethods() *BootstrapMethodsAttribute {
	bm, _ := a.Parsed.(*BootstrapMethodsAttribute)
	return bm
}

func (a *AttributeInfo) AsStackMapTable() *StackMapTableAttribute {
	smt, _ := a.Parsed.(*StackMapTableAttribute)
	return smt
}

func (a *AttributeInfo) AsGeneric() *GenericAttribute {
	g, _ := a.Parsed.(*GenericAttribute)
	return g
}

func findAttribute(attrs []AttributeInfo, name string) *AttributeInfo {
	for i := range attrs {
		if attrs[i].Name == name {
			return &attrs[i]
		}
	}
	return nil
}

func decodeAttribute(name string, info []byte, cp ConstantPool) (Attribute, error) {
	r := &reader{r: bytes.NewReader(info)}

	var attr Attribute
	var err error
	switch name {
	case "ConstantValue":
		attr = &ConstantValueAttribute{ConstantValueIndex: r.readU2()}
	case "Code":
		attr, err = parseCodeAttribute(r, cp)
	case "StackMapTable":
		attr, err = parseStackMapTableAttribute(r)
	case "Exceptions":
		attr = parseExceptionsAttribute(r)
	case "BootstrapMethods":
		attr = parseBootstrapMethodsAttribute(r)
	default:
		return &GenericAttribute{Name: name, Length: uint32(len(info)), Info: info}, nil
	}
	if err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, fault.New(fault.Format, fault.ErrMalformedAttribute, "%s is truncated", name)
	}
	done, _ := r.exhausted()
	if !done {
		return nil, fault.New(fault.Format, fault.ErrMalformedAttribute, "%s has trailing bytes", name)
	}
	return attr, nil
}

func parseExceptionsAttribute(r *reader) *ExceptionsAttribute {
	count := r.readU2()
	ex := &ExceptionsAttribute{ExceptionIndexTable: make([]uint16, 0, count)}
	for i := uint16(0); i < count && r.err == nil; i++ {
		ex.ExceptionIndexTable = append(ex.ExceptionIndexTable, r.readU2())
	}
	return ex
}

func parseBootstrapMethodsAttribute(r *reader) *BootstrapMethodsAttribute {
	count := r.readU2()
	bm := &BootstrapMethodsAttribute{BootstrapMethods: make([]BootstrapMethod, 0, count)}
	for i := uint16(0); i < count && r.err == nil; i++ {
		m := BootstrapMethod{BootstrapMethodRef: r.readU2()}
		numArgs := r.readU2()
		m.BootstrapArguments = make([]uint16, 0, numArgs)
		for j := uint16(0); j < numArgs && r.err == nil; j++ {
			m.BootstrapArguments = append(m.BootstrapArguments, r.readU2())
		}
		bm.BootstrapMethods = append(bm.BootstrapMethods, m)
	}
	return bm
}
