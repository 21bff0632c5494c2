package vm

import (
	"github.com/dhamidi/jedy/bytecode"
	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
)

// executors is the execute half of the instruction set, indexed by opcode.
// A nil entry raises UnknownInstruction.
var executors = [256]executor{
	bytecode.Nop:        func(*Thread, *Frame, *bytecode.Instruction) (Step, error) { return next, nil },
	bytecode.AconstNull: pushConst(NullValue()),
	bytecode.IconstM1:   pushConst(IntValue(-1)),
	bytecode.Iconst0:    pushConst(IntValue(0)),
	bytecode.Iconst1:    pushConst(IntValue(1)),
	bytecode.Iconst2:    pushConst(IntValue(2)),
	bytecode.Iconst3:    pushConst(IntValue(3)),
	bytecode.Iconst4:    pushConst(IntValue(4)),
	bytecode.Iconst5:    pushConst(IntValue(5)),
	bytecode.Lconst0:    pushConst(LongValue(0)),
	bytecode.Lconst1:    pushConst(LongValue(1)),
	bytecode.Fconst0:    pushConst(FloatValue(0)),
	bytecode.Fconst1:    pushConst(FloatValue(1)),
	bytecode.Fconst2:    pushConst(FloatValue(2)),
	bytecode.Dconst0:    pushConst(DoubleValue(0)),
	bytecode.Dconst1:    pushConst(DoubleValue(1)),
	bytecode.Bipush:     pushImmediate,
	bytecode.Sipush:     pushImmediate,
	bytecode.Ldc:        ldc,
	bytecode.LdcW:       ldc,
	bytecode.Ldc2W:      ldc2,

	bytecode.Iload:  load(KindInt),
	bytecode.Lload:  load(KindLong),
	bytecode.Fload:  load(KindFloat),
	bytecode.Dload:  load(KindDouble),
	bytecode.Aload:  load(KindRef),
	bytecode.Iload0: load(KindInt),
	bytecode.Iload1: load(KindInt),
	bytecode.Iload2: load(KindInt),
	bytecode.Iload3: load(KindInt),
	bytecode.Lload0: load(KindLong),
	bytecode.Lload1: load(KindLong),
	bytecode.Lload2: load(KindLong),
	bytecode.Lload3: load(KindLong),
	bytecode.Fload0: load(KindFloat),
	bytecode.Fload1: load(KindFloat),
	bytecode.Fload2: load(KindFloat),
	bytecode.Fload3: load(KindFloat),
	bytecode.Dload0: load(KindDouble),
	bytecode.Dload1: load(KindDouble),
	bytecode.Dload2: load(KindDouble),
	bytecode.Dload3: load(KindDouble),
	bytecode.Aload0: load(KindRef),
	bytecode.Aload1: load(KindRef),
	bytecode.Aload2: load(KindRef),
	bytecode.Aload3: load(KindRef),
	bytecode.Aaload: aaload,

	bytecode.Istore:  store(KindInt),
	bytecode.Lstore:  store(KindLong),
	bytecode.Fstore:  store(KindFloat),
	bytecode.Dstore:  store(KindDouble),
	bytecode.Astore:  store(KindRef),
	bytecode.Istore0: store(KindInt),
	bytecode.Istore1: store(KindInt),
	bytecode.Istore2: store(KindInt),
	bytecode.Istore3: store(KindInt),
	bytecode.Lstore0: store(KindLong),
	bytecode.Lstore1: store(KindLong),
	bytecode.Lstore2: store(KindLong),
	bytecode.Lstore3: store(KindLong),
	bytecode.Fstore0: store(KindFloat),
	bytecode.Fstore1: store(KindFloat),
	bytecode.Fstore2: store(KindFloat),
	bytecode.Fstore3: store(KindFloat),
	bytecode.Dstore0: store(KindDouble),
	bytecode.Dstore1: store(KindDouble),
	bytecode.Dstore2: store(KindDouble),
	bytecode.Dstore3: store(KindDouble),
	bytecode.Astore0: store(KindRef),
	bytecode.Astore1: store(KindRef),
	bytecode.Astore2: store(KindRef),
	bytecode.Astore3: store(KindRef),

	bytecode.Pop:   pop,
	bytecode.Pop2:  pop2,
	bytecode.Dup:   dup,
	bytecode.DupX1: dupX1,
	bytecode.DupX2: dupX2,
	bytecode.Swap:  swap,

	bytecode.Iadd: intBinary(func(a, b int32) (int32, error) { return a + b, nil }),
	bytecode.Isub: intBinary(func(a, b int32) (int32, error) { return a - b, nil }),
	bytecode.Imul: intBinary(func(a, b int32) (int32, error) { return a * b, nil }),
	bytecode.Idiv: intBinary(func(a, b int32) (int32, error) {
		if b == 0 {
			return 0, fault.New(fault.Arithmetic, fault.ErrDivideByZero, "idiv %d / 0", a)
		}
		return a / b, nil
	}),
	bytecode.Irem: intBinary(func(a, b int32) (int32, error) {
		if b == 0 {
			return 0, fault.New(fault.Arithmetic, fault.ErrDivideByZero, "irem %d %% 0", a)
		}
		return a % b, nil
	}),
	bytecode.Ishl:  intBinary(func(a, b int32) (int32, error) { return a << (b & 31), nil }),
	bytecode.Ishr:  intBinary(func(a, b int32) (int32, error) { return a >> (b & 31), nil }),
	bytecode.Iushr: intBinary(func(a, b int32) (int32, error) { return int32(uint32(a) >> (b & 31)), nil }),
	bytecode.Iand:  intBinary(func(a, b int32) (int32, error) { return a & b, nil }),
	bytecode.Ior:   intBinary(func(a, b int32) (int32, error) { return a | b, nil }),
	bytecode.Ixor:  intBinary(func(a, b int32) (int32, error) { return a ^ b, nil }),
	bytecode.Ineg:  intUnary(func(a int32) Value { return IntValue(-a) }),
	bytecode.Iinc:  iinc,

	bytecode.Ladd: longBinary(func(a, b int64) (int64, error) { return a + b, nil }),
	bytecode.Lsub: longBinary(func(a, b int64) (int64, error) { return a - b, nil }),
	bytecode.Lmul: longBinary(func(a, b int64) (int64, error) { return a * b, nil }),
	bytecode.Ldiv: longBinary(func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, fault.New(fault.Arithmetic, fault.ErrDivideByZero, "ldiv %d / 0", a)
		}
		return a / b, nil
	}),
	bytecode.Lrem: longBinary(func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, fault.New(fault.Arithmetic, fault.ErrDivideByZero, "lrem %d %% 0", a)
		}
		return a % b, nil
	}),
	bytecode.Lneg: lneg,
	bytecode.Lcmp: lcmp,

	bytecode.I2l: intUnary(func(a int32) Value { return LongValue(int64(a)) }),
	bytecode.L2i: l2i,
	bytecode.I2b: intUnary(func(a int32) Value { return IntValue(int32(int8(a))) }),
	bytecode.I2c: intUnary(func(a int32) Value { return IntValue(int32(uint16(a))) }),
	bytecode.I2s: intUnary(func(a int32) Value { return IntValue(int32(int16(a))) }),

	bytecode.Ifeq:      ifInt(func(a int32) bool { return a == 0 }),
	bytecode.Ifne:      ifInt(func(a int32) bool { return a != 0 }),
	bytecode.Iflt:      ifInt(func(a int32) bool { return a < 0 }),
	bytecode.Ifge:      ifInt(func(a int32) bool { return a >= 0 }),
	bytecode.Ifgt:      ifInt(func(a int32) bool { return a > 0 }),
	bytecode.Ifle:      ifInt(func(a int32) bool { return a <= 0 }),
	bytecode.IfIcmpeq:  ifIntCompare(func(a, b int32) bool { return a == b }),
	bytecode.IfIcmpne:  ifIntCompare(func(a, b int32) bool { return a != b }),
	bytecode.IfIcmplt:  ifIntCompare(func(a, b int32) bool { return a < b }),
	bytecode.IfIcmpge:  ifIntCompare(func(a, b int32) bool { return a >= b }),
	bytecode.IfIcmpgt:  ifIntCompare(func(a, b int32) bool { return a > b }),
	bytecode.IfIcmple:  ifIntCompare(func(a, b int32) bool { return a <= b }),
	bytecode.IfAcmpeq:  ifRefCompare(true),
	bytecode.IfAcmpne:  ifRefCompare(false),
	bytecode.Ifnull:    ifNull(true),
	bytecode.Ifnonnull: ifNull(false),
	bytecode.Goto: func(_ *Thread, _ *Frame, ins *bytecode.Instruction) (Step, error) {
		return jump(ins.Target()), nil
	},

	bytecode.Ireturn: returnValue(KindInt),
	bytecode.Lreturn: returnValue(KindLong),
	bytecode.Freturn: returnValue(KindFloat),
	bytecode.Dreturn: returnValue(KindDouble),
	bytecode.Areturn: returnValue(KindRef),
	bytecode.Return: func(*Thread, *Frame, *bytecode.Instruction) (Step, error) {
		return ret(Value{}), nil
	},

	bytecode.Getstatic:       getstatic,
	bytecode.Putstatic:       putstatic,
	bytecode.Getfield:        getfield,
	bytecode.Putfield:        putfield,
	bytecode.Invokevirtual:   invokevirtual,
	bytecode.Invokespecial:   invokespecial,
	bytecode.Invokestatic:    invokestatic,
	bytecode.Invokeinterface: invokeinterface,
	bytecode.New:             newObjectInstruction,
	bytecode.Arraylength:     arraylength,
	bytecode.Checkcast:       checkcast,
}

func pushConst(v Value) executor {
	return func(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
		f.Push(v)
		return next, nil
	}
}

func pushImmediate(_ *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	f.Push(IntValue(ins.Value))
	return next, nil
}

func ldc(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	entry, err := f.cp().Entry(ins.Index)
	if err != nil {
		return Step{}, err
	}
	switch e := entry.(type) {
	case *classfile.ConstantIntegerInfo:
		f.Push(IntValue(e.Value))
	case *classfile.ConstantFloatInfo:
		f.Push(FloatValue(e.Value))
	case *classfile.ConstantStringInfo:
		s, err := f.cp().GetUtf8(e.StringIndex)
		if err != nil {
			return Step{}, err
		}
		f.Push(RefValue(t.rt.Intern(s)))
	default:
		return Step{}, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "ldc of %s #%d", entry.Tag(), ins.Index)
	}
	return next, nil
}

func ldc2(_ *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	entry, err := f.cp().Entry(ins.Index)
	if err != nil {
		return Step{}, err
	}
	switch e := entry.(type) {
	case *classfile.ConstantLongInfo:
		f.Push(LongValue(e.Value))
	case *classfile.ConstantDoubleInfo:
		f.Push(DoubleValue(e.Value))
	default:
		return Step{}, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "ldc2_w of %s #%d", entry.Tag(), ins.Index)
	}
	return next, nil
}

func load(kind Kind) executor {
	return func(_ *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
		v, err := f.loadKind(int(ins.Index), kind)
		if err != nil {
			return Step{}, err
		}
		f.Push(v)
		return next, nil
	}
}

func store(kind Kind) executor {
	return func(_ *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
		v, err := f.popKind(kind)
		if err != nil {
			return Step{}, err
		}
		return next, f.SetLocal(int(ins.Index), v)
	}
}

func iinc(_ *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
	v, err := f.loadKind(int(ins.Index), KindInt)
	if err != nil {
		return Step{}, err
	}
	return next, f.SetLocal(int(ins.Index), IntValue(v.AsInt()+ins.Value))
}

func popCategory1(f *Frame) (Value, error) {
	v, err := f.Pop()
	if err != nil {
		return Value{}, err
	}
	if v.IsCategory2() {
		return Value{}, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "have %s, want a one-word value", v.Kind)
	}
	return v, nil
}

func pop(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
	_, err := popCategory1(f)
	return next, err
}

func pop2(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
	v, err := f.Pop()
	if err != nil || v.IsCategory2() {
		return next, err
	}
	_, err = popCategory1(f)
	return next, err
}

func dup(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
	v, err := popCategory1(f)
	if err != nil {
		return Step{}, err
	}
	f.Push(v)
	f.Push(v)
	return next, nil
}

func dupX1(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
	v1, err := popCategory1(f)
	if err != nil {
		return Step{}, err
	}
	v2, err := popCategory1(f)
	if err != nil {
		return Step{}, err
	}
	f.Push(v1)
	f.Push(v2)
	f.Push(v1)
	return next, nil
}

func dupX2(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
	v1, err := popCategory1(f)
	if err != nil {
		return Step{}, err
	}
	v2, err := f.Pop()
	if err != nil {
		return Step{}, err
	}
	if v2.IsCategory2() {
		f.Push(v1)
		f.Push(v2)
		f.Push(v1)
		return next, nil
	}
	v3, err := popCategory1(f)
	if err != nil {
		return Step{}, err
	}
	f.Push(v1)
	f.Push(v3)
	f.Push(v2)
	f.Push(v1)
	return next, nil
}

func swap(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
	v1, err := popCategory1(f)
	if err != nil {
		return Step{}, err
	}
	v2, err := popCategory1(f)
	if err != nil {
		return Step{}, err
	}
	f.Push(v1)
	f.Push(v2)
	return next, nil
}

func intBinary(op func(a, b int32) (int32, error)) executor {
	return func(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
		b, err := f.PopInt()
		if err != nil {
			return Step{}, err
		}
		a, err := f.PopInt()
		if err != nil {
			return Step{}, err
		}
		r, err := op(a, b)
		if err != nil {
			return Step{}, err
		}
		f.Push(IntValue(r))
		return next, nil
	}
}

func intUnary(op func(a int32) Value) executor {
	return func(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
		a, err := f.PopInt()
		if err != nil {
			return Step{}, err
		}
		f.Push(op(a))
		return next, nil
	}
}

func longBinary(op func(a, b int64) (int64, error)) executor {
	return func(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
		b, err := f.PopLong()
		if err != nil {
			return Step{}, err
		}
		a, err := f.PopLong()
		if err != nil {
			return Step{}, err
		}
		r, err := op(a, b)
		if err != nil {
			return Step{}, err
		}
		f.Push(LongValue(r))
		return next, nil
	}
}

func lneg(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
	a, err := f.PopLong()
	if err != nil {
		return Step{}, err
	}
	f.Push(LongValue(-a))
	return next, nil
}

func l2i(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
	a, err := f.PopLong()
	if err != nil {
		return Step{}, err
	}
	f.Push(IntValue(int32(a)))
	return next, nil
}

func lcmp(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
	b, err := f.PopLong()
	if err != nil {
		return Step{}, err
	}
	a, err := f.PopLong()
	if err != nil {
		return Step{}, err
	}
	switch {
	case a > b:
		f.Push(IntValue(1))
	case a < b:
		f.Push(IntValue(-1))
	default:
		f.Push(IntValue(0))
	}
	return next, nil
}

func ifInt(cond func(a int32) bool) executor {
	return func(_ *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
		a, err := f.PopInt()
		if err != nil {
			return Step{}, err
		}
		if cond(a) {
			return jump(ins.Target()), nil
		}
		return next, nil
	}
}

func ifIntCompare(cond func(a, b int32) bool) executor {
	return func(_ *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
		b, err := f.PopInt()
		if err != nil {
			return Step{}, err
		}
		a, err := f.PopInt()
		if err != nil {
			return Step{}, err
		}
		if cond(a, b) {
			return jump(ins.Target()), nil
		}
		return next, nil
	}
}

func ifRefCompare(equal bool) executor {
	return func(_ *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
		b, err := f.PopRef()
		if err != nil {
			return Step{}, err
		}
		a, err := f.PopRef()
		if err != nil {
			return Step{}, err
		}
		if (a == b) == equal {
			return jump(ins.Target()), nil
		}
		return next, nil
	}
}

func ifNull(null bool) executor {
	return func(_ *Thread, f *Frame, ins *bytecode.Instruction) (Step, error) {
		r, err := f.PopRef()
		if err != nil {
			return Step{}, err
		}
		if (r == nil) == null {
			return jump(ins.Target()), nil
		}
		return next, nil
	}
}

func returnValue(kind Kind) executor {
	return func(_ *Thread, f *Frame, _ *bytecode.Instruction) (Step, error) {
		v, err := f.popKind(kind)
		if err != nil {
			return Step{}, err
		}
		return ret(v), nil
	}
}
