package vm

import (
	"errors"
	"testing"

	"github.com/dhamidi/jedy/bytecode"
	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
)

func frameMethod(t *testing.T, descriptor string, flags classfile.MethodAccessFlags, maxLocals uint16) (*Class, *classfile.MethodInfo, []classfile.FieldType) {
	t.Helper()
	cf, err := classfile.NewBuilder("Owner", "", classfile.AccPublic).
		Method(flags, "m", descriptor, 2, maxLocals, asm(bytecode.Return)).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	c, err := link(cf, nil)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	m := cf.GetMethod("m", descriptor)
	md, err := m.ParsedDescriptor()
	if err != nil {
		t.Fatalf("ParsedDescriptor: %v", err)
	}
	return c, m, md.Parameters
}

func TestNewFrameBindsParameters(t *testing.T) {
	c, m, params := frameMethod(t, "(JI)V", classfile.AccPublic, 4)
	receiver := NullValue()
	f, err := NewFrame(c, m, &receiver, params, []Value{LongValue(1 << 33), IntValue(5)})
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	want := []Value{NullValue(), LongValue(1 << 33), {}, IntValue(5)}
	got := f.Locals()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNewFrameErrors(t *testing.T) {
	tests := []struct {
		name      string
		desc      string
		maxLocals uint16
		args      []Value
		sentinel  error
	}{
		{"too few locals", "(J)V", 1, []Value{LongValue(1)}, fault.ErrLocalOutOfBounds},
		{"argument count", "(I)V", 1, nil, fault.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, m, params := frameMethod(t, tt.desc, classfile.AccPublic|classfile.AccStatic, tt.maxLocals)
			_, err := NewFrame(c, m, nil, params, tt.args)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestFrameStackAndLocals(t *testing.T) {
	c, m, params := frameMethod(t, "()V", classfile.AccStatic, 3)
	f, err := NewFrame(c, m, nil, params, nil)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}

	var observed []int
	f.observer = LocalObserverFunc(func(_ *Frame, index int, _ Value) { observed = append(observed, index) })

	if _, err := f.Pop(); !errors.Is(err, fault.ErrStackUnderflow) {
		t.Errorf("Pop on empty stack: err = %v", err)
	}
	f.Push(IntValue(1))
	f.Push(LongValue(2))
	if _, err := f.PopInt(); !errors.Is(err, fault.ErrTypeMismatch) {
		t.Errorf("PopInt of a long: err = %v", err)
	}
	if f.StackDepth() != 1 {
		t.Errorf("StackDepth = %d, want 1", f.StackDepth())
	}

	if err := f.SetLocal(1, DoubleValue(2.5)); err != nil {
		t.Fatalf("SetLocal double: %v", err)
	}
	if err := f.SetLocal(2, DoubleValue(1)); !errors.Is(err, fault.ErrLocalOutOfBounds) {
		t.Errorf("double in the last slot: err = %v", err)
	}
	if _, err := f.Local(3); !errors.Is(err, fault.ErrLocalOutOfBounds) {
		t.Errorf("Local(3): err = %v", err)
	}
	if len(observed) != 1 || observed[0] != 1 {
		t.Errorf("observed stores = %v, want [1]", observed)
	}
}

func TestArrayAssignable(t *testing.T) {
	tests := []struct {
		component, target string
		want              bool
	}{
		{"I", "I", true},
		{"I", "Ljava/lang/Object;", false},
		{"Ljava/lang/String;", "Ljava/lang/Object;", true},
		{"[I", "Ljava/lang/Object;", true},
		{"", "Ljava/lang/Object;", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.component+"->"+tt.target, func(t *testing.T) {
			if got := arrayAssignable(tt.component, tt.target); got != tt.want {
				t.Errorf("arrayAssignable(%q, %q) = %v, want %v", tt.component, tt.target, got, tt.want)
			}
		})
	}
}
