package vm

import (
	"errors"
	"strings"

	"github.com/dhamidi/jedy/bytecode"
	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
)

// kindOfType maps a parsed descriptor type to the value kind that holds it.
func kindOfType(ft *classfile.FieldType) Kind {
	if ft.ArrayDepth > 0 || ft.Tag == 'L' {
		return KindRef
	}
	return kindOf(string(ft.Tag))
}

// popArgs pops the arguments of descriptor in reverse and checks each
// against its declared kind.
func popArgs(f *Frame, descriptor string) ([]Value, []classfile.FieldType, error) {
	md, err := classfile.ParseMethodDescriptor(descriptor)
	if err != nil {
		return nil, nil, err
	}
	args := make([]Value, len(md.Parameters))
	for i := len(args) - 1; i >= 0; i-- {
		v, err := f.popKind(kindOfType(&md.Parameters[i]))
		if err != nil {
			return nil, nil, err
		}
		args[i] = v
	}
	return args, md.Parameters, nil
}

func popReceiver(f *Frame, ref classfile.MemberRef) (*Value, error) {
	v, err := f.popKind(KindRef)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, fault.New(fault.TypeMismatch, fault.ErrNullReference, "invoking %s", ref)
	}
	return &v, nil
}

// nativeCall checks the registry for the referenced method before any class
// is loaded, so intrinsics work without the class on the class path.
// Receiver-dispatched calls take this path only when the referenced class
// cannot be loaded.
func nativeCall(t *Thread, f *Frame, ref classfile.MemberRef, hasReceiver bool) (Step, bool, error) {
	fn, ok := t.rt.lookupNative(ref.Class, ref.Name, ref.Descriptor)
	if !ok {
		return Step{}, false, nil
	}
	args, params, err := popArgs(f, ref.Descriptor)
	if err != nil {
		return Step{}, true, err
	}
	inv := &Invocation{Owner: ref.Class, Name: ref.Name, Descriptor: ref.Descriptor, Native: fn, Args: args, Params: params}
	if hasReceiver {
		if inv.Receiver, err = popReceiver(f, ref); err != nil {
			return Step{}, true, err
		}
	}
	return invoke(inv), true, nil
}

// unloadableNative runs the intrinsic registered for ref when its class is
// not on the class path. Receiver dispatch needs the class, so this is only
// a fallback for invokevirtual and invokeinterface.
func unloadableNative(t *Thread, f *Frame, ref classfile.MemberRef, loadErr error) (Step, error) {
	if errors.Is(loadErr, fault.ErrClassNotFound) {
		if step, ok, err := nativeCall(t, f, ref, true); ok || err != nil {
			return step, err
		}
	}
	return Step{}, loadErr
}

func methodNotFound(ref classfile.MemberRef) error {
	return fault.New(fault.Resolution, fault.ErrMethodNotFound, "%s", ref)
}

func invokestatic(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	ref, _, err := f.cp().GetAnyMethodref(ins.Index)
	if err != nil {
		return Step{}, err
	}
	if step, ok, err := nativeCall(t, f, ref, false); ok || err != nil {
		return step, err
	}

	c, err := t.rt.Classes.EnsureLoaded(ref.Class)
	if err != nil {
		return Step{}, err
	}
	decl, m := c.ResolveMethod(ref.Name, ref.Descriptor)
	if m == nil {
		return Step{}, methodNotFound(ref)
	}
	if !m.IsStatic() {
		return Step{}, fault.New(fault.Resolution, fault.ErrIncompatibleClassChange, "invokestatic of instance method %s", ref)
	}
	if step, ok, err := t.initStep(decl); ok || err != nil {
		return step, err
	}

	args, params, err := popArgs(f, ref.Descriptor)
	if err != nil {
		return Step{}, err
	}
	inv, err := t.bind(decl, m, nil, args, params)
	if err != nil {
		return Step{}, err
	}
	return invoke(inv), nil
}

func invokespecial(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	ref, isInterface, err := f.cp().GetAnyMethodref(ins.Index)
	if err != nil {
		return Step{}, err
	}
	if ref.Name == "<init>" {
		if step, ok, err := nativeCall(t, f, ref, true); ok || err != nil {
			return step, err
		}
	}

	c, err := t.rt.Classes.EnsureLoaded(ref.Class)
	if err != nil {
		return Step{}, err
	}
	cur := f.Class
	if ref.Name != "<init>" && ref.Name != "<clinit>" && !c.IsInterface() &&
		cur.File.AccessFlags.IsSuper() && cur.Super != nil && ref.Class == cur.Super.Name {
		c = cur.Super
	}

	decl, m := c.ResolveMethod(ref.Name, ref.Descriptor)
	if m == nil && (isInterface || c.IsInterface()) {
		if decl, m, err = t.rt.Classes.ResolveInterfaceMethod(c, ref.Name, ref.Descriptor); err != nil {
			return Step{}, err
		}
	}
	if m == nil {
		return Step{}, methodNotFound(ref)
	}
	if m.IsStatic() {
		return Step{}, fault.New(fault.Resolution, fault.ErrIncompatibleClassChange, "invokespecial of static method %s", ref)
	}
	if m.AccessFlags.IsSynchronized() {
		return Step{}, fault.New(fault.Resolution, fault.ErrUnsupportedMethodKind, "synchronized %s.%s", decl.Name, m)
	}

	args, params, err := popArgs(f, ref.Descriptor)
	if err != nil {
		return Step{}, err
	}
	receiver, err := popReceiver(f, ref)
	if err != nil {
		return Step{}, err
	}
	inv, err := t.bind(decl, m, receiver, args, params)
	if err != nil {
		return Step{}, err
	}
	return invoke(inv), nil
}

func invokevirtual(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	ref, err := f.cp().GetMethodref(ins.Index)
	if err != nil {
		return Step{}, err
	}

	c, err := t.rt.Classes.EnsureLoaded(ref.Class)
	if err != nil {
		return unloadableNative(t, f, ref, err)
	}
	decl, m, err := t.rt.Classes.ResolveInterfaceMethod(c, ref.Name, ref.Descriptor)
	if err != nil {
		return Step{}, err
	}
	if m.IsStatic() {
		return Step{}, fault.New(fault.Resolution, fault.ErrIncompatibleClassChange, "invokevirtual of static method %s", ref)
	}

	args, params, err := popArgs(f, ref.Descriptor)
	if err != nil {
		return Step{}, err
	}
	receiver, err := popReceiver(f, ref)
	if err != nil {
		return Step{}, err
	}

	if !m.IsPrivate() {
		rc, err := t.rt.classOf(receiver.Ref)
		if err != nil {
			return Step{}, err
		}
		if decl, m, err = t.rt.Classes.ResolveInterfaceMethod(rc, ref.Name, ref.Descriptor); err != nil {
			return Step{}, err
		}
	}
	inv, err := t.bind(decl, m, receiver, args, params)
	if err != nil {
		return Step{}, err
	}
	return invoke(inv), nil
}

func invokeinterface(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	ref, err := f.cp().GetInterfaceMethodref(ins.Index)
	if err != nil {
		return Step{}, err
	}

	c, err := t.rt.Classes.EnsureLoaded(ref.Class)
	if err != nil {
		return unloadableNative(t, f, ref, err)
	}
	if !c.IsInterface() {
		return Step{}, fault.New(fault.Resolution, fault.ErrIncompatibleClassChange, "invokeinterface on class %s", c.Name)
	}
	if _, _, err := t.rt.Classes.ResolveInterfaceMethod(c, ref.Name, ref.Descriptor); err != nil {
		return Step{}, err
	}

	args, params, err := popArgs(f, ref.Descriptor)
	if err != nil {
		return Step{}, err
	}
	receiver, err := popReceiver(f, ref)
	if err != nil {
		return Step{}, err
	}
	rc, err := t.rt.classOf(receiver.Ref)
	if err != nil {
		return Step{}, err
	}
	decl, m, err := t.rt.Classes.ResolveInterfaceMethod(rc, ref.Name, ref.Descriptor)
	if err != nil {
		return Step{}, err
	}
	if m.IsPrivate() || m.IsStatic() {
		return Step{}, fault.New(fault.Resolution, fault.ErrIncompatibleClassChange, "invokeinterface selected %s %s.%s", m.AccessFlags, decl.Name, m)
	}
	inv, err := t.bind(decl, m, receiver, args, params)
	if err != nil {
		return Step{}, err
	}
	return invoke(inv), nil
}

func resolveFieldref(t *Thread, f *Frame, index uint16, static bool) (*Class, classfile.MemberRef, error) {
	ref, err := f.cp().GetFieldref(index)
	if err != nil {
		return nil, ref, err
	}
	c, err := t.rt.Classes.EnsureLoaded(ref.Class)
	if err != nil {
		return nil, ref, err
	}
	decl, field, err := t.rt.Classes.ResolveField(c, ref.Name, ref.Descriptor)
	if err != nil {
		return nil, ref, err
	}
	if field.IsStatic() != static {
		return nil, ref, fault.New(fault.Resolution, fault.ErrIncompatibleClassChange, "%s static=%t", ref, field.IsStatic())
	}
	return decl, ref, nil
}

func getstatic(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	decl, ref, err := resolveFieldref(t, f, ins.Index, true)
	if err != nil {
		return Step{}, err
	}
	if step, ok, err := t.initStep(decl); ok || err != nil {
		return step, err
	}
	v, err := decl.Static(ref.Name, ref.Descriptor)
	if err != nil {
		return Step{}, err
	}
	f.Push(v)
	return next, nil
}

func putstatic(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	decl, ref, err := resolveFieldref(t, f, ins.Index, true)
	if err != nil {
		return Step{}, err
	}
	if step, ok, err := t.initStep(decl); ok || err != nil {
		return step, err
	}
	v, err := f.popKind(kindOf(ref.Descriptor))
	if err != nil {
		return Step{}, err
	}
	return next, decl.SetStatic(ref.Name, ref.Descriptor, v)
}

func popObject(f *Frame, ref classfile.MemberRef) (*Object, error) {
	r, err := f.PopRef()
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fault.New(fault.TypeMismatch, fault.ErrNullReference, "field %s", ref)
	}
	o, ok := r.(*Object)
	if !ok {
		return nil, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "field %s of %s", ref, r.ClassName())
	}
	return o, nil
}

func getfield(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	decl, ref, err := resolveFieldref(t, f, ins.Index, false)
	if err != nil {
		return Step{}, err
	}
	o, err := popObject(f, ref)
	if err != nil {
		return Step{}, err
	}
	v, ok := o.GetField(decl.Name, ref.Name, ref.Descriptor)
	if !ok {
		return Step{}, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "%s has no field %s.%s", o.Class.Name, decl.Name, ref.Name)
	}
	f.Push(v)
	return next, nil
}

func putfield(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	decl, ref, err := resolveFieldref(t, f, ins.Index, false)
	if err != nil {
		return Step{}, err
	}
	v, err := f.popKind(kindOf(ref.Descriptor))
	if err != nil {
		return Step{}, err
	}
	o, err := popObject(f, ref)
	if err != nil {
		return Step{}, err
	}
	if !o.SetField(decl.Name, ref.Name, ref.Descriptor, v) {
		return Step{}, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "%s has no field %s.%s", o.Class.Name, decl.Name, ref.Name)
	}
	return next, nil
}

func newObjectInstruction(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	name, err := f.cp().GetClassName(ins.Index)
	if err != nil {
		return Step{}, err
	}
	c, err := t.rt.Classes.EnsureLoaded(name)
	if err != nil {
		return Step{}, err
	}
	if c.IsInterface() || c.File.AccessFlags.IsAbstract() {
		return Step{}, fault.New(fault.Resolution, fault.ErrIncompatibleClassChange, "new of %s %s", c.File.AccessFlags, name)
	}
	if step, ok, err := t.initStep(c); ok || err != nil {
		return step, err
	}
	f.Push(RefValue(t.rt.NewObject(c)))
	return next, nil
}

func checkcast(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	target, err := f.cp().GetClassName(ins.Index)
	if err != nil {
		return Step{}, err
	}
	v, err := f.Peek()
	if err != nil {
		return Step{}, err
	}
	if err := v.expect(KindRef); err != nil {
		return Step{}, err
	}
	if v.Ref == nil {
		return next, nil
	}
	ok, err := t.rt.isInstance(v.Ref, target)
	if err != nil {
		return Step{}, err
	}
	if !ok {
		return Step{}, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "%s cannot be cast to %s", v.Ref.ClassName(), target)
	}
	return next, nil
}

// isInstance reports whether r can be used where target is expected.
func (rt *Runtime) isInstance(r Reference, target string) (bool, error) {
	if target == "java/lang/Object" || target == r.ClassName() {
		return true, nil
	}
	switch r := r.(type) {
	case *Object:
		return rt.Classes.IsAssignable(r.Class, target)
	case *Array:
		if target == "java/lang/Cloneable" || target == "java/io/Serializable" {
			return true, nil
		}
		return strings.HasPrefix(target, "[") && arrayAssignable(r.Component, target[1:]), nil
	default:
		return false, nil
	}
}

// arrayAssignable compares component descriptors. Reference components are
// covariant only towards Object.
func arrayAssignable(component, target string) bool {
	if component == "" {
		return false
	}
	return component == target || (target == "Ljava/lang/Object;" && (component[0] == 'L' || component[0] == '['))
}

func arraylength(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
	arr, err := popArray(f)
	if err != nil {
		return Step{}, err
	}
	f.Push(IntValue(int32(len(arr.Elements))))
	return next, nil
}

func aaload(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
	index, err := f.PopInt()
	if err != nil {
		return Step{}, err
	}
	arr, err := popArray(f)
	if err != nil {
		return Step{}, err
	}
	if arr.Component == "" || (arr.Component[0] != 'L' && arr.Component[0] != '[') {
		return Step{}, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "aaload from %s", arr.ClassName())
	}
	if index < 0 || int(index) >= len(arr.Elements) {
		return Step{}, fault.New(fault.Index, fault.ErrArrayIndexOutOfBounds, "index %d, length %d", index, len(arr.Elements))
	}
	f.Push(arr.Elements[index])
	return next, nil
}

func popArray(f *Frame) (*Array, error) {
	r, err := f.PopRef()
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fault.New(fault.TypeMismatch, fault.ErrNullReference, "array is null")
	}
	arr, ok := r.(*Array)
	if !ok {
		return nil, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "%s is not an array", r.ClassName())
	}
	return arr, nil
}
