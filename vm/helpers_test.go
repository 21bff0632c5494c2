package vm

import (
	"testing"

	"github.com/dhamidi/jedy/bytecode"
	"github.com/dhamidi/jedy/classfile"
)

// asm encodes instructions: an Opcode or int is one byte, a uint16 is a
// big-endian pool index and an int16 a branch offset.
func asm(parts ...any) []byte {
	var code []byte
	for _, part := range parts {
		switch v := part.(type) {
		case bytecode.Opcode:
			code = append(code, byte(v))
		case int:
			code = append(code, byte(v))
		case uint16:
			code = append(code, byte(v>>8), byte(v))
		case int16:
			code = append(code, byte(uint16(v)>>8), byte(v))
		default:
			panic("asm: unsupported part")
		}
	}
	return code
}

type classSet struct {
	t      *testing.T
	loader MemoryLoader
}

func newClassSet(t *testing.T) *classSet {
	return &classSet{t: t, loader: MemoryLoader{}}
}

func (cs *classSet) add(b *classfile.Builder) {
	cs.t.Helper()
	data, err := b.Bytes()
	if err != nil {
		cs.t.Fatalf("encoding class: %v", err)
	}
	if err := cs.loader.Add(data); err != nil {
		cs.t.Fatalf("adding class: %v", err)
	}
}

func (cs *classSet) runtime(opts ...Option) *Runtime {
	return New(cs.loader, opts...)
}

// publicClass starts a class extending super with a no-arg constructor.
func publicClass(name, super string) *classfile.Builder {
	b := classfile.NewBuilder(name, super, classfile.AccPublic|classfile.AccSuper)
	ctor := b.Methodref(super, "<init>", "()V")
	return b.Method(classfile.AccPublic, "<init>", "()V", 1, 1,
		asm(bytecode.Aload0, bytecode.Invokespecial, ctor, bytecode.Return))
}

func publicInterface(name string) *classfile.Builder {
	return classfile.NewBuilder(name, "java/lang/Object", classfile.AccPublic|classfile.AccInterface|classfile.AccAbstract)
}

// recorder collects local stores per slot.
type recorder struct {
	stores map[int][]Value
}

func newRecorder() *recorder {
	return &recorder{stores: make(map[int][]Value)}
}

func (r *recorder) LocalStored(_ *Frame, index int, v Value) {
	r.stores[index] = append(r.stores[index], v)
}

func (r *recorder) ints(slot int) []int32 {
	var out []int32
	for _, v := range r.stores[slot] {
		out = append(out, v.AsInt())
	}
	return out
}

func equalInts(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
