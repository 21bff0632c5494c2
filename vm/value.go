package vm

import (
	"fmt"

	"github.com/dhamidi/jedy/fault"
)

type Kind uint8

const (
	// KindNone marks an unset local slot, the second half of a long or
	// double, and the absence of a return value.
	KindNone Kind = iota
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindRef:
		return "reference"
	default:
		return "none"
	}
}

// Value is one operand-stack or local-variable entry. Int holds int and long
// payloads, Float holds float and double payloads.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Ref   Reference
}

func IntValue(v int32) Value       { return Value{Kind: KindInt, Int: int64(v)} }
func LongValue(v int64) Value      { return Value{Kind: KindLong, Int: v} }
func FloatValue(v float32) Value   { return Value{Kind: KindFloat, Float: float64(v)} }
func DoubleValue(v float64) Value  { return Value{Kind: KindDouble, Float: v} }
func RefValue(r Reference) Value   { return Value{Kind: KindRef, Ref: r} }
func NullValue() Value             { return Value{Kind: KindRef} }

// AsInt truncates to 32 bits; for a long it keeps only the low word.
func (v Value) AsInt() int32       { return int32(v.Int) }
func (v Value) AsFloat() float32   { return float32(v.Float) }
func (v Value) IsNull() bool       { return v.Kind == KindRef && v.Ref == nil }
func (v Value) IsCategory2() bool  { return v.Kind == KindLong || v.Kind == KindDouble }
func (v Value) HasValue() bool     { return v.Kind != KindNone }

func (v Value) String() string {
	switch v.Kind {
	case KindInt, KindLong:
		return fmt.Sprintf("%s %d", v.Kind, v.Int)
	case KindFloat, KindDouble:
		return fmt.Sprintf("%s %g", v.Kind, v.Float)
	case KindRef:
		if v.Ref == nil {
			return "null"
		}
		return fmt.Sprintf("ref %s", v.Ref.ClassName())
	default:
		return "none"
	}
}

func (v Value) expect(kind Kind) error {
	if v.Kind != kind {
		return fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "have %s, want %s", v.Kind, kind)
	}
	return nil
}

// kindOf maps a field descriptor to the value kind that stores it.
func kindOf(descriptor string) Kind {
	if descriptor == "" {
		return KindNone
	}
	switch descriptor[0] {
	case 'J':
		return KindLong
	case 'F':
		return KindFloat
	case 'D':
		return KindDouble
	case 'L', '[':
		return KindRef
	default:
		return KindInt
	}
}

// zeroValue is the default value of a field with the given descriptor.
func zeroValue(descriptor string) Value {
	switch kindOf(descriptor) {
	case KindLong:
		return LongValue(0)
	case KindFloat:
		return FloatValue(0)
	case KindDouble:
		return DoubleValue(0)
	case KindRef:
		return NullValue()
	default:
		return IntValue(0)
	}
}

// Reference is anything a reference value can point at.
type Reference interface {
	ClassName() string
}

// Object is an instance whose fields are laid out by its class's field-slot
// table.
type Object struct {
	Class  *Class
	Fields []Value
	id     int32
}

func newObject(c *Class, id int32) *Object {
	fields := make([]Value, len(c.instanceDefaults))
	copy(fields, c.instanceDefaults)
	return &Object{Class: c, Fields: fields, id: id}
}

func (o *Object) ClassName() string { return o.Class.Name }

// HashCode is the identity hash.
func (o *Object) HashCode() int32 {
	return o.id
}

// GetField reads a field declared by declaringClass.
func (o *Object) GetField(declaringClass, name, descriptor string) (Value, bool) {
	slot, ok := o.Class.instanceSlots[FieldKey{Class: declaringClass, Name: name, Descriptor: descriptor}]
	if !ok {
		return Value{}, false
	}
	return o.Fields[slot], true
}

func (o *Object) SetField(declaringClass, name, descriptor string, v Value) bool {
	slot, ok := o.Class.instanceSlots[FieldKey{Class: declaringClass, Name: name, Descriptor: descriptor}]
	if !ok {
		return false
	}
	o.Fields[slot] = v
	return true
}

type String struct {
	Value string
}

func (*String) ClassName() string { return "java/lang/String" }

type Array struct {
	// Component is the element descriptor, e.g. Ljava/lang/String;.
	Component string
	Elements  []Value
}

func (a *Array) ClassName() string { return "[" + a.Component }
