package vm

import (
	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
)

// NativeMethod implements a method in Go. For instance methods args[0] is
// the receiver. A void native returns the zero Value.
type NativeMethod func(t *Thread, args []Value) (Value, error)

// NativeRegistry answers whether a method is implemented in Go.
type NativeRegistry interface {
	Lookup(class, name, descriptor string) (NativeMethod, bool)
}

// NativeTable is a NativeRegistry keyed by class, name and descriptor.
type NativeTable map[classfile.MemberRef]NativeMethod

func (nt NativeTable) Register(class, name, descriptor string, fn NativeMethod) {
	nt[classfile.MemberRef{Class: class, Name: name, Descriptor: descriptor}] = fn
}

func (nt NativeTable) Lookup(class, name, descriptor string) (NativeMethod, bool) {
	fn, ok := nt[classfile.MemberRef{Class: class, Name: name, Descriptor: descriptor}]
	return fn, ok
}

// DefaultNatives returns the intrinsics needed to bring up the core JDK
// classes without their C implementations.
func DefaultNatives() NativeTable {
	nt := NativeTable{}
	for _, ref := range []classfile.MemberRef{
		{Class: "java/lang/Object", Name: "registerNatives", Descriptor: "()V"},
		{Class: "java/lang/System", Name: "registerNatives", Descriptor: "()V"},
		{Class: "java/io/FileDescriptor", Name: "initIDs", Descriptor: "()V"},
		{Class: "java/io/FileOutputStream", Name: "initIDs", Descriptor: "()V"},
		{Class: "sun/misc/Unsafe", Name: "registerNatives", Descriptor: "()V"},
		{Class: "jdk/internal/misc/Unsafe", Name: "registerNatives", Descriptor: "()V"},
	} {
		nt[ref] = nativeNoop
	}
	nt.Register("java/lang/Object", "getClass", "()Ljava/lang/Class;", objectGetClass)
	nt.Register("java/lang/Object", "hashCode", "()I", objectHashCode)
	nt.Register("java/io/FileDescriptor", "<clinit>", "()V", fileDescriptorInit)
	return nt
}

func nativeNoop(*Thread, []Value) (Value, error) {
	return Value{}, nil
}

// objectGetClass has no java/lang/Class to hand out and answers null.
func objectGetClass(_ *Thread, args []Value) (Value, error) {
	if len(args) == 0 || args[0].IsNull() {
		return Value{}, fault.New(fault.TypeMismatch, fault.ErrNullReference, "getClass on null")
	}
	return NullValue(), nil
}

func objectHashCode(_ *Thread, args []Value) (Value, error) {
	if len(args) == 0 || args[0].IsNull() {
		return Value{}, fault.New(fault.TypeMismatch, fault.ErrNullReference, "hashCode on null")
	}
	if o, ok := args[0].Ref.(*Object); ok {
		return IntValue(o.HashCode()), nil
	}
	return IntValue(0), nil
}

// fileDescriptorInit replaces FileDescriptor.<clinit>: the in, out and err
// statics become descriptors for fd 0, 1 and 2.
func fileDescriptorInit(t *Thread, _ []Value) (Value, error) {
	const name = "java/io/FileDescriptor"
	c, ok := t.Runtime().Classes.Lookup(name)
	if !ok {
		return Value{}, fault.New(fault.Resolution, fault.ErrClassNotFound, "%s", name)
	}
	for fd, field := range []string{"in", "out", "err"} {
		if c.File.GetField(field, "L"+name+";") == nil {
			continue
		}
		o := t.Runtime().NewObject(c)
		o.SetField(name, "fd", "I", IntValue(int32(fd)))
		if err := c.SetStatic(field, "L"+name+";", RefValue(o)); err != nil {
			return Value{}, err
		}
	}
	return Value{}, nil
}
