package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/dhamidi/jedy/bytecode"
	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
)

const mainDescriptor = "([Ljava/lang/String;)V"

func TestLocalStaticFunc(t *testing.T) {
	cs := newClassSet(t)
	b := publicClass("LocalStaticFunc", "java/lang/Object")
	cal := b.Methodref("LocalStaticFunc", "cal", "()I")
	b.Method(classfile.AccPublic|classfile.AccStatic, "main", mainDescriptor, 1, 2,
		asm(bytecode.Invokestatic, cal, bytecode.Istore1, bytecode.Return))
	b.Method(classfile.AccPublic|classfile.AccStatic, "cal", "()I", 2, 1,
		asm(bytecode.Iconst2, bytecode.Istore0, bytecode.Iload0, bytecode.Iconst3, bytecode.Imul,
			bytecode.Istore0, bytecode.Iload0, bytecode.Ireturn))
	cs.add(b)

	rec := newRecorder()
	rt := cs.runtime(WithObserver(rec))
	if _, err := rt.RunMain("LocalStaticFunc", nil); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if got := rec.ints(1); !equalInts(got, []int32{6}) {
		t.Errorf("main local 1 = %v, want [6]", got)
	}

	v, err := rt.NewThread().Run("LocalStaticFunc", "cal", "()I")
	if err != nil {
		t.Fatalf("Run cal: %v", err)
	}
	if v.Kind != KindInt || v.AsInt() != 6 {
		t.Errorf("cal() = %v, want int 6", v)
	}
}

func TestLoop(t *testing.T) {
	cs := newClassSet(t)
	b := publicClass("Loop", "java/lang/Object")
	b.Method(classfile.AccPublic|classfile.AccStatic, "main", mainDescriptor, 2, 3,
		asm(
			bytecode.Iconst0, bytecode.Istore1,                                // 0
			bytecode.Iconst2, bytecode.Istore2,                                // 2
			bytecode.Goto, int16(10),                                          // 4
			bytecode.Iload1, bytecode.Iload2, bytecode.Iadd, bytecode.Istore1, // 7
			bytecode.Iinc, 2, 2,                                               // 11
			bytecode.Iload2, bytecode.Bipush, 11,                              // 14
			bytecode.IfIcmplt, int16(-10),                                     // 17
			bytecode.Return,                                                   // 20
		))
	cs.add(b)

	rec := newRecorder()
	if _, err := cs.runtime(WithObserver(rec)).RunMain("Loop", nil); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	want := []int32{0, 2, 6, 12, 20, 30}
	if got := rec.ints(1); !equalInts(got, want) {
		t.Errorf("sum stores = %v, want %v", got, want)
	}
	if got := rec.ints(2); got[len(got)-1] != 12 {
		t.Errorf("last counter store = %d, want 12", got[len(got)-1])
	}
}

func TestCrossClassStatic(t *testing.T) {
	cs := newClassSet(t)
	callee := publicClass("Calculator", "java/lang/Object")
	callee.Method(classfile.AccPublic|classfile.AccStatic, "cal", "()I", 2, 0,
		asm(bytecode.Iconst2, bytecode.Iconst3, bytecode.Imul, bytecode.Ireturn))
	cs.add(callee)

	caller := publicClass("Caller", "java/lang/Object")
	cal := caller.Methodref("Calculator", "cal", "()I")
	caller.Method(classfile.AccPublic|classfile.AccStatic, "main", mainDescriptor, 1, 2,
		asm(bytecode.Invokestatic, cal, bytecode.Istore1, bytecode.Return))
	cs.add(caller)

	rec := newRecorder()
	rt := cs.runtime(WithObserver(rec))
	if _, err := rt.RunMain("Caller", nil); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if got := rec.ints(1); !equalInts(got, []int32{6}) {
		t.Errorf("local 1 = %v, want [6]", got)
	}
	if _, ok := rt.Classes.Lookup("Calculator"); !ok {
		t.Error("Calculator was not loaded on demand")
	}
}

// addRunners defines the People interface with a default speed() and a
// static factory, plus one implementation that overrides speed and one
// that inherits it.
func addRunners(cs *classSet) {
	people := publicInterface("People")
	fast := people.Class("WhoRunFaster")
	fastInit := people.Methodref("WhoRunFaster", "<init>", "()V")
	fake := people.Class("FakeRunner")
	fakeInit := people.Methodref("FakeRunner", "<init>", "()V")
	people.Method(classfile.AccPublic, "speed", "()I", 1, 1, asm(bytecode.Iconst1, bytecode.Ireturn))
	people.Method(classfile.AccPublic|classfile.AccStatic, "getPeople", "(I)LPeople;", 2, 1,
		asm(
			bytecode.Iload0,                  // 0
			bytecode.Ifeq, int16(11),         // 1
			bytecode.New, fast,               // 4
			bytecode.Dup,                     // 7
			bytecode.Invokespecial, fastInit, // 8
			bytecode.Areturn,                 // 11
			bytecode.New, fake,               // 12
			bytecode.Dup,                     // 15
			bytecode.Invokespecial, fakeInit, // 16
			bytecode.Areturn,                 // 19
		))
	cs.add(people)

	faster := publicClass("WhoRunFaster", "java/lang/Object").Implements("People")
	faster.Method(classfile.AccPublic, "speed", "()I", 1, 1, asm(bytecode.Bipush, 20, bytecode.Ireturn))
	cs.add(faster)

	cs.add(publicClass("FakeRunner", "java/lang/Object").Implements("People"))
}

func TestInterfaceDispatch(t *testing.T) {
	cs := newClassSet(t)
	addRunners(cs)

	main := publicClass("Race", "java/lang/Object")
	getPeople := main.InterfaceMethodref("People", "getPeople", "(I)LPeople;")
	speed := main.InterfaceMethodref("People", "speed", "()I")
	main.Method(classfile.AccPublic|classfile.AccStatic, "main", mainDescriptor, 2, 3,
		asm(
			bytecode.Iconst1, bytecode.Invokestatic, getPeople,
			bytecode.Invokeinterface, speed, 1, 0, bytecode.Istore2,
			bytecode.Iconst0, bytecode.Invokestatic, getPeople,
			bytecode.Invokeinterface, speed, 1, 0, bytecode.Istore2,
			bytecode.Return,
		))
	cs.add(main)

	rec := newRecorder()
	if _, err := cs.runtime(WithObserver(rec)).RunMain("Race", nil); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if got := rec.ints(2); !equalInts(got, []int32{20, 1}) {
		t.Errorf("speeds = %v, want [20 1]", got)
	}
}

func TestVirtualDispatch(t *testing.T) {
	tests := []struct {
		name  string
		class string
		want  int32
	}{
		{"override", "WhoRunFaster", 20},
		{"inherited default", "FakeRunner", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := newClassSet(t)
			addRunners(cs)

			b := publicClass("Race", "java/lang/Object")
			cls := b.Class(tt.class)
			ctor := b.Methodref(tt.class, "<init>", "()V")
			speed := b.Methodref(tt.class, "speed", "()I")
			b.Method(classfile.AccPublic|classfile.AccStatic, "run", "()I", 2, 0,
				asm(bytecode.New, cls, bytecode.Dup, bytecode.Invokespecial, ctor,
					bytecode.Invokevirtual, speed, bytecode.Ireturn))
			cs.add(b)

			v, err := cs.runtime().NewThread().Run("Race", "run", "()I")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if v.AsInt() != tt.want {
				t.Errorf("speed() = %d, want %d", v.AsInt(), tt.want)
			}
		})
	}
}

func TestVirtualDispatchReachesOverrides(t *testing.T) {
	tests := []struct {
		name      string
		owner     string
		intrinsic bool
		want      int32
	}{
		{"through Object", "java/lang/Object", false, 42},
		{"through declaring class", "People", false, 42},
		{"intrinsic for override", "java/lang/Object", true, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := newClassSet(t)
			people := publicClass("People", "java/lang/Object")
			people.Method(classfile.AccPublic, "hashCode", "()I", 1, 1, asm(bytecode.Bipush, 42, bytecode.Ireturn))
			cs.add(people)

			b := publicClass("Main", "java/lang/Object")
			cls := b.Class("People")
			ctor := b.Methodref("People", "<init>", "()V")
			hash := b.Methodref(tt.owner, "hashCode", "()I")
			b.Method(classfile.AccPublic|classfile.AccStatic, "run", "()I", 2, 0,
				asm(bytecode.New, cls, bytecode.Dup, bytecode.Invokespecial, ctor,
					bytecode.Invokevirtual, hash, bytecode.Ireturn))
			cs.add(b)

			natives := DefaultNatives()
			if tt.intrinsic {
				natives.Register("People", "hashCode", "()I", func(*Thread, []Value) (Value, error) {
					return IntValue(7), nil
				})
			}
			v, err := cs.runtime(WithNatives(natives)).NewThread().Run("Main", "run", "()I")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if v.AsInt() != tt.want {
				t.Errorf("hashCode() = %d, want %d", v.AsInt(), tt.want)
			}
		})
	}
}

func TestGetSetField(t *testing.T) {
	cs := newClassSet(t)
	pair := publicClass("Pair", "java/lang/Object")
	pair.Field(classfile.AccPublic, "a", "I").Field(classfile.AccPublic, "b", "I")
	cs.add(pair)

	b := publicClass("Swap", "java/lang/Object")
	cls := b.Class("Pair")
	ctor := b.Methodref("Pair", "<init>", "()V")
	fa := b.Fieldref("Pair", "a", "I")
	fb := b.Fieldref("Pair", "b", "I")
	b.Method(classfile.AccPublic|classfile.AccStatic, "main", mainDescriptor, 3, 4,
		asm(
			bytecode.New, cls, bytecode.Dup, bytecode.Invokespecial, ctor, bytecode.Astore1,
			bytecode.Aload1, bytecode.Bipush, 99, bytecode.Putfield, fa,
			bytecode.Aload1, bytecode.Sipush, int16(199), bytecode.Putfield, fb,
			bytecode.Aload1, bytecode.Getfield, fa, bytecode.Istore2,
			bytecode.Aload1, bytecode.Getfield, fb, bytecode.Istore3,
			bytecode.Aload1, bytecode.Iload3, bytecode.Putfield, fa,
			bytecode.Aload1, bytecode.Iload2, bytecode.Putfield, fb,
			bytecode.Aload1, bytecode.Getfield, fa, bytecode.Istore2,
			bytecode.Aload1, bytecode.Getfield, fb, bytecode.Istore3,
			bytecode.Return,
		))
	cs.add(b)

	rec := newRecorder()
	if _, err := cs.runtime(WithObserver(rec)).RunMain("Swap", nil); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if got := rec.ints(2); !equalInts(got, []int32{99, 199}) {
		t.Errorf("a reads = %v, want [99 199]", got)
	}
	if got := rec.ints(3); !equalInts(got, []int32{199, 99}) {
		t.Errorf("b reads = %v, want [199 99]", got)
	}
}

func TestFieldShadowing(t *testing.T) {
	cs := newClassSet(t)
	base := publicClass("Base", "java/lang/Object")
	base.Field(classfile.AccPublic, "x", "I")
	cs.add(base)
	derived := publicClass("Derived", "Base")
	derived.Field(classfile.AccPublic, "x", "I")
	cs.add(derived)

	b := publicClass("Shadow", "java/lang/Object")
	cls := b.Class("Derived")
	ctor := b.Methodref("Derived", "<init>", "()V")
	baseX := b.Fieldref("Base", "x", "I")
	derivedX := b.Fieldref("Derived", "x", "I")
	b.Method(classfile.AccPublic|classfile.AccStatic, "run", "()I", 3, 1,
		asm(
			bytecode.New, cls, bytecode.Dup, bytecode.Invokespecial, ctor, bytecode.Astore0,
			bytecode.Aload0, bytecode.Iconst1, bytecode.Putfield, baseX,
			bytecode.Aload0, bytecode.Iconst2, bytecode.Putfield, derivedX,
			bytecode.Aload0, bytecode.Getfield, baseX,
			bytecode.Bipush, 10, bytecode.Imul,
			bytecode.Aload0, bytecode.Getfield, derivedX,
			bytecode.Iadd, bytecode.Ireturn,
		))
	cs.add(b)

	rt := cs.runtime()
	v, err := rt.NewThread().Run("Shadow", "run", "()I")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v.AsInt() != 12 {
		t.Errorf("Base.x*10 + Derived.x = %d, want 12", v.AsInt())
	}
	d, _ := rt.Classes.Lookup("Derived")
	if d.InstanceFieldCount() != 2 {
		t.Errorf("Derived has %d field slots, want 2", d.InstanceFieldCount())
	}
}

func TestStaticInitialisation(t *testing.T) {
	cs := newClassSet(t)
	base := publicClass("Base", "java/lang/Object")
	base.Field(classfile.AccPublic|classfile.AccStatic, "x", "I")
	bx := base.Fieldref("Base", "x", "I")
	base.Method(classfile.AccStatic, "<clinit>", "()V", 1, 0,
		asm(bytecode.Bipush, 10, bytecode.Putstatic, bx, bytecode.Return))
	cs.add(base)

	derived := publicClass("Derived", "Base")
	derived.Field(classfile.AccPublic|classfile.AccStatic, "y", "I")
	dbx := derived.Fieldref("Base", "x", "I")
	dy := derived.Fieldref("Derived", "y", "I")
	derived.Method(classfile.AccStatic, "<clinit>", "()V", 2, 0,
		asm(bytecode.Getstatic, dbx, bytecode.Iconst1, bytecode.Iadd, bytecode.Putstatic, dy, bytecode.Return))
	derived.Method(classfile.AccPublic|classfile.AccStatic, "get", "()I", 1, 0,
		asm(bytecode.Getstatic, dy, bytecode.Ireturn))
	cs.add(derived)

	user := publicClass("User", "java/lang/Object")
	uy := user.Fieldref("Derived", "y", "I")
	user.Method(classfile.AccPublic|classfile.AccStatic, "get", "()I", 1, 0,
		asm(bytecode.Getstatic, uy, bytecode.Ireturn))
	cs.add(user)

	tests := []struct {
		name  string
		entry string
	}{
		{"entry class", "Derived"},
		{"getstatic", "User"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := cs.runtime().NewThread().Run(tt.entry, "get", "()I")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if v.AsInt() != 11 {
				t.Errorf("Derived.y = %d, want 11", v.AsInt())
			}
		})
	}
}

func TestConstantValueStatic(t *testing.T) {
	cs := newClassSet(t)
	b := publicClass("Constants", "java/lang/Object")
	b.ConstantField(classfile.AccPublic|classfile.AccFinal, "ANSWER", "I", b.Integer(42))
	b.ConstantField(classfile.AccPublic|classfile.AccFinal, "BIG", "J", b.Long(1<<40))
	answer := b.Fieldref("Constants", "ANSWER", "I")
	big := b.Fieldref("Constants", "BIG", "J")
	b.Method(classfile.AccPublic|classfile.AccStatic, "answer", "()I", 1, 0,
		asm(bytecode.Getstatic, answer, bytecode.Ireturn))
	b.Method(classfile.AccPublic|classfile.AccStatic, "big", "()J", 2, 0,
		asm(bytecode.Getstatic, big, bytecode.Lreturn))
	cs.add(b)

	rt := cs.runtime()
	v, err := rt.NewThread().Run("Constants", "answer", "()I")
	if err != nil || v.AsInt() != 42 {
		t.Errorf("answer() = %v, %v; want 42", v, err)
	}
	v, err = rt.NewThread().Run("Constants", "big", "()J")
	if err != nil || v.Kind != KindLong || v.Int != 1<<40 {
		t.Errorf("big() = %v, %v; want long %d", v, err, int64(1<<40))
	}
}

func TestInvokespecialCallsSuperImplementation(t *testing.T) {
	cs := newClassSet(t)
	base := publicClass("Base", "java/lang/Object")
	base.Method(classfile.AccPublic, "who", "()I", 1, 1, asm(bytecode.Iconst1, bytecode.Ireturn))
	cs.add(base)

	derived := publicClass("Derived", "Base")
	superWho := derived.Methodref("Base", "who", "()I")
	ownWho := derived.Methodref("Derived", "who", "()I")
	derived.Method(classfile.AccPublic, "who", "()I", 1, 1, asm(bytecode.Iconst2, bytecode.Ireturn))
	derived.Method(classfile.AccPublic, "both", "()I", 3, 1,
		asm(
			bytecode.Aload0, bytecode.Invokespecial, superWho, bytecode.Bipush, 10, bytecode.Imul,
			bytecode.Aload0, bytecode.Invokevirtual, ownWho, bytecode.Iadd, bytecode.Ireturn,
		))
	cls := derived.Class("Derived")
	ctor := derived.Methodref("Derived", "<init>", "()V")
	both := derived.Methodref("Derived", "both", "()I")
	derived.Method(classfile.AccPublic|classfile.AccStatic, "run", "()I", 2, 0,
		asm(bytecode.New, cls, bytecode.Dup, bytecode.Invokespecial, ctor, bytecode.Invokevirtual, both, bytecode.Ireturn))
	cs.add(derived)

	v, err := cs.runtime().NewThread().Run("Derived", "run", "()I")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v.AsInt() != 12 {
		t.Errorf("super.who()*10 + who() = %d, want 12", v.AsInt())
	}
}

func TestInterfaceResolution(t *testing.T) {
	tests := []struct {
		name       string
		interfaces []string
		wantErr    error
		want       int32
	}{
		{"single default", []string{"Left"}, nil, 1},
		{"ambiguous", []string{"Left", "Right"}, fault.ErrAmbiguousInterfaceMethod, 0},
		{"missing", []string{"Empty"}, fault.ErrMethodNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := newClassSet(t)
			left := publicInterface("Left")
			left.Method(classfile.AccPublic, "m", "()I", 1, 1, asm(bytecode.Iconst1, bytecode.Ireturn))
			cs.add(left)
			right := publicInterface("Right")
			right.Method(classfile.AccPublic, "m", "()I", 1, 1, asm(bytecode.Iconst2, bytecode.Ireturn))
			cs.add(right)
			cs.add(publicInterface("Empty"))
			cs.add(publicClass("Impl", "java/lang/Object").Implements(tt.interfaces...))

			rt := cs.runtime()
			impl, err := rt.Classes.EnsureLoaded("Impl")
			if err != nil {
				t.Fatalf("EnsureLoaded: %v", err)
			}
			decl, m, err := rt.Classes.ResolveInterfaceMethod(impl, "m", "()I")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if fault.KindOf(err) != fault.Resolution {
					t.Errorf("kind = %s, want ResolutionError", fault.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveInterfaceMethod: %v", err)
			}
			if decl.Name != "Left" || m.Name() != "m" {
				t.Errorf("resolved %s.%s, want Left.m", decl.Name, m)
			}
		})
	}
}

func TestInvokeinterfaceRejectsStaticTarget(t *testing.T) {
	cs := newClassSet(t)
	iface := publicInterface("Shape")
	iface.Method(classfile.AccPublic|classfile.AccStatic, "sides", "()I", 1, 0, asm(bytecode.Iconst3, bytecode.Ireturn))
	cs.add(iface)
	cs.add(publicClass("Triangle", "java/lang/Object").Implements("Shape"))

	b := publicClass("Draw", "java/lang/Object")
	cls := b.Class("Triangle")
	ctor := b.Methodref("Triangle", "<init>", "()V")
	sides := b.InterfaceMethodref("Shape", "sides", "()I")
	b.Method(classfile.AccPublic|classfile.AccStatic, "run", "()I", 2, 0,
		asm(bytecode.New, cls, bytecode.Dup, bytecode.Invokespecial, ctor,
			bytecode.Invokeinterface, sides, 1, 0, bytecode.Ireturn))
	cs.add(b)

	_, err := cs.runtime().NewThread().Run("Draw", "run", "()I")
	if !errors.Is(err, fault.ErrIncompatibleClassChange) {
		t.Fatalf("err = %v, want IncompatibleClassChange", err)
	}
}

func TestInstantiationRules(t *testing.T) {
	tests := []struct {
		name  string
		flags classfile.ClassAccessFlags
	}{
		{"interface", classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract},
		{"abstract class", classfile.AccPublic | classfile.AccAbstract},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := newClassSet(t)
			cs.add(classfile.NewBuilder("Shape", "java/lang/Object", tt.flags))
			b := publicClass("Make", "java/lang/Object")
			cls := b.Class("Shape")
			b.Method(classfile.AccPublic|classfile.AccStatic, "run", "()V", 1, 0,
				asm(bytecode.New, cls, bytecode.Pop, bytecode.Return))
			cs.add(b)

			_, err := cs.runtime().NewThread().Run("Make", "run", "()V")
			if !errors.Is(err, fault.ErrIncompatibleClassChange) {
				t.Fatalf("err = %v, want IncompatibleClassChange", err)
			}
		})
	}
}

func TestRuntimeFaults(t *testing.T) {
	tests := []struct {
		name      string
		desc      string
		maxLocals uint16
		code      func(b *classfile.Builder) []byte
		kind      fault.Kind
		sentinel  error
	}{
		{
			name: "idiv by zero", desc: "()I",
			code:     func(*classfile.Builder) []byte { return asm(bytecode.Iconst1, bytecode.Iconst0, bytecode.Idiv, bytecode.Ireturn) },
			kind:     fault.Arithmetic,
			sentinel: fault.ErrDivideByZero,
		},
		{
			name: "irem by zero", desc: "()I",
			code:     func(*classfile.Builder) []byte { return asm(bytecode.Iconst1, bytecode.Iconst0, bytecode.Irem, bytecode.Ireturn) },
			kind:     fault.Arithmetic,
			sentinel: fault.ErrDivideByZero,
		},
		{
			name: "ldiv by zero", desc: "()J",
			code:     func(*classfile.Builder) []byte { return asm(bytecode.Lconst1, bytecode.Lconst0, bytecode.Ldiv, bytecode.Lreturn) },
			kind:     fault.Arithmetic,
			sentinel: fault.ErrDivideByZero,
		},
		{
			name: "lrem by zero", desc: "()J",
			code:     func(*classfile.Builder) []byte { return asm(bytecode.Lconst1, bytecode.Lconst0, bytecode.Lrem, bytecode.Lreturn) },
			kind:     fault.Arithmetic,
			sentinel: fault.ErrDivideByZero,
		},
		{
			name: "unknown instruction", desc: "()V",
			code:     func(*classfile.Builder) []byte { return asm(bytecode.Nop, 0xfe, bytecode.Return) },
			kind:     fault.UnknownInstruction,
			sentinel: fault.ErrUnknownInstruction,
		},
		{
			name: "jump past end", desc: "()V",
			code:     func(*classfile.Builder) []byte { return asm(bytecode.Goto, int16(100)) },
			kind:     fault.Index,
			sentinel: fault.ErrInvalidJumpTarget,
		},
		{
			name: "jump before start", desc: "()V",
			code:     func(*classfile.Builder) []byte { return asm(bytecode.Nop, bytecode.Goto, int16(-5)) },
			kind:     fault.Index,
			sentinel: fault.ErrInvalidJumpTarget,
		},
		{
			name: "long stored as int", desc: "()V", maxLocals: 2,
			code:     func(*classfile.Builder) []byte { return asm(bytecode.Lconst1, bytecode.Istore0, bytecode.Return) },
			kind:     fault.TypeMismatch,
			sentinel: fault.ErrTypeMismatch,
		},
		{
			name: "reference added", desc: "()I",
			code: func(*classfile.Builder) []byte {
				return asm(bytecode.AconstNull, bytecode.Iconst1, bytecode.Iadd, bytecode.Ireturn)
			},
			kind:     fault.TypeMismatch,
			sentinel: fault.ErrTypeMismatch,
		},
		{
			name: "stack underflow", desc: "()I",
			code:     func(*classfile.Builder) []byte { return asm(bytecode.Iconst1, bytecode.Iadd, bytecode.Ireturn) },
			kind:     fault.Index,
			sentinel: fault.ErrStackUnderflow,
		},
		{
			name: "local out of bounds", desc: "()I", maxLocals: 1,
			code:     func(*classfile.Builder) []byte { return asm(bytecode.Iload, 5, bytecode.Ireturn) },
			kind:     fault.Index,
			sentinel: fault.ErrLocalOutOfBounds,
		},
		{
			name: "synchronized invokespecial target", desc: "()V",
			code: func(b *classfile.Builder) []byte {
				b.Method(classfile.AccPrivate|classfile.AccSynchronized, "locked", "()V", 0, 1, asm(bytecode.Return))
				return asm(bytecode.New, b.Class("Faulty"), bytecode.Invokespecial, b.Methodref("Faulty", "locked", "()V"), bytecode.Return)
			},
			kind:     fault.Resolution,
			sentinel: fault.ErrUnsupportedMethodKind,
		},
		{
			name: "missing class", desc: "()V",
			code: func(b *classfile.Builder) []byte {
				return asm(bytecode.Invokestatic, b.Methodref("Nowhere", "f", "()V"), bytecode.Return)
			},
			kind:     fault.Resolution,
			sentinel: fault.ErrClassNotFound,
		},
		{
			name: "missing method", desc: "()V",
			code: func(b *classfile.Builder) []byte {
				return asm(bytecode.Invokestatic, b.Methodref("Faulty", "nothing", "()V"), bytecode.Return)
			},
			kind:     fault.Resolution,
			sentinel: fault.ErrMethodNotFound,
		},
		{
			name: "null receiver", desc: "()I",
			code: func(b *classfile.Builder) []byte {
				return asm(bytecode.AconstNull, bytecode.Invokevirtual, b.Methodref("Faulty", "hashCode", "()I"), bytecode.Ireturn)
			},
			kind:     fault.TypeMismatch,
			sentinel: fault.ErrNullReference,
		},
		{
			name: "recursion", desc: "()V",
			code: func(b *classfile.Builder) []byte {
				return asm(bytecode.Invokestatic, b.Methodref("Faulty", "run", "()V"), bytecode.Return)
			},
			kind:     fault.StackOverflow,
			sentinel: fault.ErrStackOverflow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := newClassSet(t)
			b := publicClass("Faulty", "java/lang/Object")
			b.Method(classfile.AccPublic|classfile.AccStatic, "run", tt.desc, 4, tt.maxLocals, tt.code(b))
			cs.add(b)

			rt := cs.runtime(WithMaxDepth(32))
			th := rt.NewThread()
			_, err := th.Run("Faulty", "run", tt.desc)
			if err == nil {
				t.Fatal("Run succeeded, want a fault")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want %v", err, tt.sentinel)
			}
			if got := fault.KindOf(err); got != tt.kind {
				t.Errorf("kind = %s, want %s", got, tt.kind)
			}
			if !strings.Contains(err.Error(), "Faulty.run"+tt.desc) {
				t.Errorf("err %q lacks the failing method", err)
			}
			if th.Depth() != 0 {
				t.Errorf("%d frames left after the fault", th.Depth())
			}
		})
	}
}

func TestImplicitReturnAtEndOfCode(t *testing.T) {
	cs := newClassSet(t)
	b := publicClass("Falls", "java/lang/Object")
	b.Method(classfile.AccPublic|classfile.AccStatic, "run", "()V", 1, 1, asm(bytecode.Iconst1, bytecode.Istore0))
	cs.add(b)

	v, err := cs.runtime().NewThread().Run("Falls", "run", "()V")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v.HasValue() {
		t.Errorf("void method returned %v", v)
	}
}

func TestArithmeticResults(t *testing.T) {
	tests := []struct {
		name string
		desc string
		code func(b *classfile.Builder) []byte
		want Value
	}{
		{
			name: "long chain", desc: "()J",
			code: func(b *classfile.Builder) []byte {
				return asm(
					bytecode.Ldc2W, b.Long(5_000_000_000), bytecode.Ldc2W, b.Long(3), bytecode.Lmul,
					bytecode.Lconst1, bytecode.Lsub,
					bytecode.Ldc2W, b.Long(2), bytecode.Ldiv,
					bytecode.Lreturn,
				)
			},
			want: LongValue(7_499_999_999),
		},
		{
			name: "lcmp", desc: "()I",
			code: func(b *classfile.Builder) []byte {
				return asm(bytecode.Lconst0, bytecode.Lconst1, bytecode.Lcmp, bytecode.Ireturn)
			},
			want: IntValue(-1),
		},
		{
			name: "i2b", desc: "()I",
			code: func(*classfile.Builder) []byte {
				return asm(bytecode.Sipush, int16(200), bytecode.I2b, bytecode.Ireturn)
			},
			want: IntValue(-56),
		},
		{
			name: "i2c", desc: "()I",
			code: func(*classfile.Builder) []byte {
				return asm(bytecode.IconstM1, bytecode.I2c, bytecode.Ireturn)
			},
			want: IntValue(65535),
		},
		{
			name: "int overflow wraps", desc: "()I",
			code: func(b *classfile.Builder) []byte {
				return asm(bytecode.Ldc, int(b.Integer(2147483647)), bytecode.Iconst1, bytecode.Iadd, bytecode.Ireturn)
			},
			want: IntValue(-2147483648),
		},
		{
			name: "iushr", desc: "()I",
			code: func(*classfile.Builder) []byte {
				return asm(bytecode.IconstM1, bytecode.Bipush, 28, bytecode.Iushr, bytecode.Ireturn)
			},
			want: IntValue(15),
		},
		{
			name: "ishr keeps sign", desc: "()I",
			code: func(*classfile.Builder) []byte {
				return asm(bytecode.Bipush, -16, bytecode.Iconst2, bytecode.Ishr, bytecode.Ireturn)
			},
			want: IntValue(-4),
		},
		{
			name: "dup_x1 and swap", desc: "()I",
			code: func(*classfile.Builder) []byte {
				// 2 5 -> 5 2 5 -> 5 (2-5) -> (-3) 5 -> -3-5
				return asm(bytecode.Iconst2, bytecode.Iconst5, bytecode.DupX1, bytecode.Isub,
					bytecode.Swap, bytecode.Isub, bytecode.Ireturn)
			},
			want: IntValue(-8),
		},
		{
			name: "branch not taken", desc: "()I",
			code: func(*classfile.Builder) []byte {
				return asm(
					bytecode.Iconst1, bytecode.Ifeq, int16(5), // 0
					bytecode.Iconst4, bytecode.Ireturn,        // 4
					bytecode.Iconst5, bytecode.Ireturn,        // 6
				)
			},
			want: IntValue(4),
		},
		{
			name: "ifnull taken", desc: "()I",
			code: func(*classfile.Builder) []byte {
				return asm(
					bytecode.AconstNull, bytecode.Ifnull, int16(5), // 0
					bytecode.Iconst4, bytecode.Ireturn,             // 4
					bytecode.Iconst5, bytecode.Ireturn,             // 6
				)
			},
			want: IntValue(5),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := newClassSet(t)
			b := publicClass("Calc", "java/lang/Object")
			b.Method(classfile.AccPublic|classfile.AccStatic, "run", tt.desc, 6, 0, tt.code(b))
			cs.add(b)

			got, err := cs.runtime().NewThread().Run("Calc", "run", tt.desc)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got != tt.want {
				t.Errorf("run() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStringConstantsAreInterned(t *testing.T) {
	cs := newClassSet(t)
	b := publicClass("Strings", "java/lang/Object")
	s := int(b.StringConst("hello"))
	b.Method(classfile.AccPublic|classfile.AccStatic, "same", "()I", 2, 0,
		asm(
			bytecode.Ldc, s, bytecode.Ldc, s,   // 0
			bytecode.IfAcmpne, int16(5),        // 4
			bytecode.Iconst1, bytecode.Ireturn, // 7
			bytecode.Iconst0, bytecode.Ireturn, // 9
		))
	cs.add(b)

	rt := cs.runtime()
	v, err := rt.NewThread().Run("Strings", "same", "()I")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v.AsInt() != 1 {
		t.Error("two ldc of one string produced different references")
	}
	if rt.Intern("hello") != rt.Intern("hello") {
		t.Error("Intern is not canonical")
	}
}

func TestRunMainArguments(t *testing.T) {
	cs := newClassSet(t)
	b := publicClass("Args", "java/lang/Object")
	str := b.Class("java/lang/String")
	b.Method(classfile.AccPublic|classfile.AccStatic, "main", mainDescriptor, 2, 3,
		asm(
			bytecode.Aload0, bytecode.Arraylength, bytecode.Istore1,
			bytecode.Aload0, bytecode.Iconst1, bytecode.Aaload, bytecode.Checkcast, str, bytecode.Astore2,
			bytecode.Return,
		))
	cs.add(b)

	rec := newRecorder()
	if _, err := cs.runtime(WithObserver(rec)).RunMain("Args", []string{"first", "second"}); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if got := rec.ints(1); !equalInts(got, []int32{2}) {
		t.Errorf("args.length = %v, want [2]", got)
	}
	stored := rec.stores[2]
	if len(stored) != 1 {
		t.Fatalf("slot 2 stores = %v", stored)
	}
	if s, ok := stored[0].Ref.(*String); !ok || s.Value != "second" {
		t.Errorf("args[1] = %v, want second", stored[0])
	}

	_, err := cs.runtime().RunMain("Args", []string{"only"})
	if !errors.Is(err, fault.ErrArrayIndexOutOfBounds) {
		t.Errorf("err = %v, want ArrayIndexOutOfBounds", err)
	}
}

func TestRunEntry(t *testing.T) {
	cs := newClassSet(t)
	b := publicClass("Entry", "java/lang/Object")
	b.Method(classfile.AccPublic|classfile.AccStatic, "start", "()I", 1, 0, asm(bytecode.Bipush, 42, bytecode.Ireturn))
	b.Method(classfile.AccPublic|classfile.AccStatic, "count", "(I)V", 0, 1, asm(bytecode.Return))
	cs.add(b)
	rt := cs.runtime()

	v, err := rt.RunEntry("Entry", "start", "()I", []string{"ignored"})
	if err != nil {
		t.Fatalf("RunEntry: %v", err)
	}
	if v.AsInt() != 42 {
		t.Errorf("start() = %v, want 42", v)
	}
	if ids := rt.Threads.IDs(); len(ids) != 0 {
		t.Errorf("threads left behind: %v", ids)
	}

	if _, err := rt.RunEntry("Entry", "count", "(I)V", nil); !errors.Is(err, fault.ErrTypeMismatch) {
		t.Errorf("int parameter: err = %v, want TypeMismatch", err)
	}
}

func TestCheckcast(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{"same class", "WhoRunFaster", false},
		{"interface", "People", false},
		{"object", "java/lang/Object", false},
		{"unrelated", "FakeRunner", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := newClassSet(t)
			addRunners(cs)
			b := publicClass("Cast", "java/lang/Object")
			cls := b.Class("WhoRunFaster")
			ctor := b.Methodref("WhoRunFaster", "<init>", "()V")
			target := b.Class(tt.target)
			b.Method(classfile.AccPublic|classfile.AccStatic, "run", "()V", 2, 0,
				asm(bytecode.New, cls, bytecode.Dup, bytecode.Invokespecial, ctor,
					bytecode.Checkcast, target, bytecode.Pop, bytecode.Return))
			cs.add(b)

			_, err := cs.runtime().NewThread().Run("Cast", "run", "()V")
			if tt.wantErr {
				if !errors.Is(err, fault.ErrTypeMismatch) {
					t.Errorf("err = %v, want TypeMismatch", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		})
	}
}
