package vm

import (
	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
)

// LocalObserver is told about every local-variable store an instruction
// performs. Parameter binding at frame creation is not reported.
type LocalObserver interface {
	LocalStored(f *Frame, index int, v Value)
}

type LocalObserverFunc func(f *Frame, index int, v Value)

func (fn LocalObserverFunc) LocalStored(f *Frame, index int, v Value) { fn(f, index, v) }

// Frame is the activation record of one method invocation.
type Frame struct {
	Class  *Class
	Method *classfile.MethodInfo
	Code   *classfile.CodeAttribute

	// ResumePC is where execution continues once a callee returns.
	ResumePC int

	locals   []Value
	stack    []Value
	observer LocalObserver
}

// NewFrame binds receiver (when non-nil) to slot 0 and the arguments to the
// following slots; long and double parameters take two slots.
func NewFrame(class *Class, method *classfile.MethodInfo, receiver *Value, params []classfile.FieldType, args []Value) (*Frame, error) {
	code := method.Code()
	if code == nil {
		return nil, fault.New(fault.Resolution, fault.ErrUnsupportedMethodKind, "%s.%s has no code", class.Name, method)
	}
	if len(args) != len(params) {
		return nil, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "%s.%s takes %d arguments, got %d", class.Name, method, len(params), len(args))
	}

	f := &Frame{
		Class:  class,
		Method: method,
		Code:   code,
		locals: make([]Value, code.MaxLocals),
		stack:  make([]Value, 0, code.MaxStack),
	}

	slot := 0
	if receiver != nil {
		if len(f.locals) == 0 {
			return nil, fault.New(fault.Index, fault.ErrLocalOutOfBounds, "no slot for the receiver of %s.%s", class.Name, method)
		}
		f.locals[0] = *receiver
		slot = 1
	}
	for i := range params {
		width := params[i].Slots()
		if slot+width > len(f.locals) {
			return nil, fault.New(fault.Index, fault.ErrLocalOutOfBounds, "parameter %d of %s.%s needs slot %d, max_locals is %d", i, class.Name, method, slot+width-1, len(f.locals))
		}
		f.locals[slot] = args[i]
		slot += width
	}
	return f, nil
}

func (f *Frame) Push(v Value) {
	f.stack = append(f.stack, v)
}

func (f *Frame) Pop() (Value, error) {
	if len(f.stack) == 0 {
		return Value{}, fault.New(fault.Index, fault.ErrStackUnderflow, "%s.%s", f.Class.Name, f.Method)
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

func (f *Frame) popKind(kind Kind) (Value, error) {
	v, err := f.Pop()
	if err != nil {
		return Value{}, err
	}
	return v, v.expect(kind)
}

func (f *Frame) PopInt() (int32, error) {
	v, err := f.popKind(KindInt)
	return v.AsInt(), err
}

func (f *Frame) PopLong() (int64, error) {
	v, err := f.popKind(KindLong)
	return v.Int, err
}

func (f *Frame) PopRef() (Reference, error) {
	v, err := f.popKind(KindRef)
	return v.Ref, err
}

func (f *Frame) Peek() (Value, error) {
	if len(f.stack) == 0 {
		return Value{}, fault.New(fault.Index, fault.ErrStackUnderflow, "%s.%s", f.Class.Name, f.Method)
	}
	return f.stack[len(f.stack)-1], nil
}

func (f *Frame) StackDepth() int {
	return len(f.stack)
}

func (f *Frame) MaxLocals() int {
	return len(f.locals)
}

func (f *Frame) Local(index int) (Value, error) {
	if index < 0 || index >= len(f.locals) {
		return Value{}, fault.New(fault.Index, fault.ErrLocalOutOfBounds, "slot %d, max_locals %d", index, len(f.locals))
	}
	return f.locals[index], nil
}

func (f *Frame) loadKind(index int, kind Kind) (Value, error) {
	v, err := f.Local(index)
	if err != nil {
		return Value{}, err
	}
	return v, v.expect(kind)
}

// SetLocal stores v and notifies the observer. A long or double also claims
// the following slot.
func (f *Frame) SetLocal(index int, v Value) error {
	width := 1
	if v.IsCategory2() {
		width = 2
	}
	if index < 0 || index+width > len(f.locals) {
		return fault.New(fault.Index, fault.ErrLocalOutOfBounds, "slot %d, max_locals %d", index+width-1, len(f.locals))
	}
	f.locals[index] = v
	if width == 2 {
		f.locals[index+1] = Value{}
	}
	if f.observer != nil {
		f.observer.LocalStored(f, index, v)
	}
	return nil
}

// Locals returns a copy of the local-variable slots.
func (f *Frame) Locals() []Value {
	out := make([]Value, len(f.locals))
	copy(out, f.locals)
	return out
}

func (f *Frame) cp() classfile.ConstantPool {
	return f.Class.File.ConstantPool
}
