package vm

import (
	"fmt"

	"github.com/dhamidi/jedy/bytecode"
	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
)

// Thread interprets one call stack to completion.
type Thread struct {
	ID string

	rt       *Runtime
	frames   []*Frame
	observer LocalObserver
}

func (t *Thread) Runtime() *Runtime {
	return t.rt
}

// Depth is the number of active frames.
func (t *Thread) Depth() int {
	return len(t.frames)
}

func (t *Thread) CurrentFrame() *Frame {
	if len(t.frames) == 0 {
		return nil
	}
	return t.frames[len(t.frames)-1]
}

// Run loads and initialises className, then runs the static method
// name+descriptor with args and returns its result.
func (t *Thread) Run(className, name, descriptor string, args ...Value) (Value, error) {
	c, err := t.rt.Classes.EnsureLoaded(className)
	if err != nil {
		return Value{}, err
	}
	if err := t.initialize(c); err != nil {
		return Value{}, err
	}

	m := c.File.GetMethod(name, descriptor)
	if m == nil {
		return Value{}, fault.New(fault.Resolution, fault.ErrMethodNotFound, "%s.%s%s", className, name, descriptor)
	}
	if !m.IsStatic() {
		return Value{}, fault.New(fault.Resolution, fault.ErrIncompatibleClassChange, "%s.%s is not static", className, m)
	}
	md, err := m.ParsedDescriptor()
	if err != nil {
		return Value{}, err
	}
	inv, err := t.bind(c, m, nil, args, md.Parameters)
	if err != nil {
		return Value{}, err
	}
	return t.execute(inv)
}

// initialize runs every pending static initialiser of c's chain, root first.
func (t *Thread) initialize(c *Class) error {
	for {
		step, ok, err := t.initStep(c)
		if err != nil || !ok {
			return err
		}
		if _, err := t.execute(step.Invoke); err != nil {
			return err
		}
	}
}

// initStep claims the first uninitialised class in c's chain, root first,
// and returns a retrying invoke of its <clinit>. ok is false once the whole
// chain is initialised.
func (t *Thread) initStep(c *Class) (step Step, ok bool, err error) {
	chain := []*Class{}
	for cls := c; cls != nil; cls = cls.Super {
		chain = append(chain, cls)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		cls := chain[i]
		if !cls.initStarted.CompareAndSwap(false, true) {
			continue
		}
		inv := &Invocation{Class: cls, Owner: cls.Name, Name: "<clinit>", Descriptor: "()V"}
		if fn, ok := t.rt.lookupNative(cls.Name, "<clinit>", "()V"); ok {
			inv.Native = fn
		} else if m := cls.File.GetMethod("<clinit>", "()V"); m != nil {
			inv.Method = m
		} else {
			continue
		}
		log.Debugf("initialising %s", cls.Name)
		return Step{Kind: StepInvoke, Invoke: inv, Retry: true}, true, nil
	}
	return Step{}, false, nil
}

// bind turns a selected method into an invocation. An intrinsic registered
// for the declaring class replaces the method body; native methods without
// one are unsupported.
func (t *Thread) bind(decl *Class, m *classfile.MethodInfo, receiver *Value, args []Value, params []classfile.FieldType) (*Invocation, error) {
	inv := &Invocation{
		Class:      decl,
		Method:     m,
		Owner:      decl.Name,
		Name:       m.Name(),
		Descriptor: m.Descriptor(),
		Receiver:   receiver,
		Args:       args,
		Params:     params,
	}
	if m.IsAbstract() {
		return nil, fault.New(fault.Resolution, fault.ErrIncompatibleClassChange, "%s is abstract", inv)
	}
	if fn, ok := t.rt.lookupNative(decl.Name, m.Name(), m.Descriptor()); ok {
		inv.Native = fn
	} else if m.IsNative() || m.Code() == nil {
		return nil, fault.New(fault.Resolution, fault.ErrUnsupportedMethodKind, "native %s has no intrinsic", inv)
	}
	return inv, nil
}

func (t *Thread) push(inv *Invocation) (*Frame, error) {
	if len(t.frames) >= t.rt.maxDepth {
		return nil, fault.New(fault.StackOverflow, fault.ErrStackOverflow, "calling %s at depth %d", inv, len(t.frames))
	}
	f, err := NewFrame(inv.Class, inv.Method, inv.Receiver, inv.Params, inv.Args)
	if err != nil {
		return nil, err
	}
	f.observer = t.observer
	t.frames = append(t.frames, f)
	log.Debugf("[%d] enter %s", len(t.frames), inv)
	return f, nil
}

func (t *Thread) pop() {
	log.Debugf("[%d] leave %s.%s", len(t.frames), t.frames[len(t.frames)-1].Class.Name, t.frames[len(t.frames)-1].Method)
	t.frames = t.frames[:len(t.frames)-1]
}

func callNative(t *Thread, inv *Invocation) (Value, error) {
	log.Debugf("native %s", inv)
	v, err := inv.Native(t, inv.nativeArgs())
	if err != nil {
		return Value{}, fmt.Errorf("native %s: %w", inv, err)
	}
	return v, nil
}

// execute runs inv until the frame it pushes returns.
func (t *Thread) execute(inv *Invocation) (Value, error) {
	if inv.Native != nil {
		return callNative(t, inv)
	}

	base := len(t.frames)
	f, err := t.push(inv)
	if err != nil {
		return Value{}, err
	}
	pc := 0

	for {
		var step Step
		var ins *bytecode.Instruction

		if pc >= len(f.Code.Code) {
			step = ret(Value{})
		} else {
			var ok bool
			ins, ok = f.Code.InstructionAt(pc)
			if !ok {
				op := bytecode.Opcode(f.Code.Code[pc])
				return Value{}, t.fail(base, f, pc, op.String(), fault.New(fault.UnknownInstruction, fault.ErrUnknownInstruction, "%s", op))
			}
			exec := executors[ins.Opcode]
			if exec == nil {
				return Value{}, t.fail(base, f, pc, ins.Opcode.String(), fault.New(fault.UnknownInstruction, fault.ErrUnknownInstruction, "%s", ins.Opcode))
			}
			log.Debugf("[%d] %s.%s %s", len(t.frames), f.Class.Name, f.Method.Name(), ins)
			step, err = exec(t, f, ins)
			if err != nil {
				return Value{}, t.fail(base, f, pc, ins.Opcode.String(), err)
			}
		}

		switch step.Kind {
		case StepNext:
			pc = ins.Next()

		case StepJump:
			if step.Target < 0 || step.Target >= len(f.Code.Code) {
				return Value{}, t.fail(base, f, pc, ins.Opcode.String(), fault.New(fault.Index, fault.ErrInvalidJumpTarget, "%d outside code of length %d", step.Target, len(f.Code.Code)))
			}
			pc = step.Target

		case StepInvoke:
			f.ResumePC = ins.Next()
			if step.Retry {
				f.ResumePC = pc
			}
			callee := step.Invoke
			if callee.Native != nil {
				v, err := callNative(t, callee)
				if err != nil {
					return Value{}, t.fail(base, f, pc, ins.Opcode.String(), err)
				}
				if v.HasValue() {
					f.Push(v)
				}
				pc = f.ResumePC
				continue
			}
			f, err = t.push(callee)
			if err != nil {
				return Value{}, t.fail(base, t.CurrentFrame(), pc, ins.Opcode.String(), err)
			}
			pc = 0

		case StepReturn:
			t.pop()
			if len(t.frames) == base {
				return step.Value, nil
			}
			f = t.CurrentFrame()
			if step.Value.HasValue() {
				f.Push(step.Value)
			}
			pc = f.ResumePC
		}
	}
}

// fail unwinds to base and adds the failing location to err.
func (t *Thread) fail(base int, f *Frame, pc int, op string, err error) error {
	t.frames = t.frames[:base]
	return fmt.Errorf("%s.%s @%d %s: %w", f.Class.Name, f.Method, pc, op, err)
}
