package vm

import (
	"github.com/dhamidi/jedy/bytecode"
	"github.com/dhamidi/jedy/classfile"
)

type StepKind uint8

const (
	// StepNext continues with the instruction after the current one.
	StepNext StepKind = iota
	StepJump
	StepInvoke
	StepReturn
)

func (k StepKind) String() string {
	switch k {
	case StepJump:
		return "jump"
	case StepInvoke:
		return "invoke"
	case StepReturn:
		return "return"
	default:
		return "next"
	}
}

// Step tells the thread loop what to do after an instruction executes.
type Step struct {
	Kind StepKind
	// Target is the absolute jump address.
	Target int
	Invoke *Invocation
	// Value is the returned value; KindNone for void.
	Value Value
	// Retry resumes the caller at the invoking instruction instead of the
	// next one. Class initialisation uses it to re-run new, getstatic and
	// friends once <clinit> has finished.
	Retry bool
}

var next = Step{Kind: StepNext}

func jump(target int) Step {
	return Step{Kind: StepJump, Target: target}
}

func ret(v Value) Step {
	return Step{Kind: StepReturn, Value: v}
}

func invoke(inv *Invocation) Step {
	return Step{Kind: StepInvoke, Invoke: inv}
}

// Invocation is a resolved call: either a method with code or a native.
type Invocation struct {
	Class  *Class
	Method *classfile.MethodInfo
	// Owner, Name and Descriptor identify the callee even when Class and
	// Method are nil, as they are for a native with no loaded class.
	Owner      string
	Name       string
	Descriptor string
	Native     NativeMethod

	Receiver *Value
	Args     []Value
	Params   []classfile.FieldType
}

func (inv *Invocation) String() string {
	return inv.Owner + "." + inv.Name + inv.Descriptor
}

// nativeArgs is the receiver, when present, followed by the arguments.
func (inv *Invocation) nativeArgs() []Value {
	if inv.Receiver == nil {
		return inv.Args
	}
	return append([]Value{*inv.Receiver}, inv.Args...)
}

type executor func(t *Thread, f *Frame, ins *bytecode.Instruction) (Step, error)
