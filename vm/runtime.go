// Package vm executes class files: it loads and links classes into a method
// area, resolves symbolic references and interprets bytecode one thread at a
// time.
package vm

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("jedy.vm")

const DefaultMaxDepth = 1024

// Runtime holds everything threads share: the method area, natives, the
// string intern table and the identity-hash counter.
type Runtime struct {
	Classes *MethodArea
	Threads *ThreadRegistry

	natives  NativeRegistry
	observer LocalObserver
	maxDepth int

	stringsMu sync.Mutex
	strings   map[string]*String

	objectIDs atomic.Int32
}

type Option func(*Runtime)

// WithNatives replaces the default native registry.
func WithNatives(natives NativeRegistry) Option {
	return func(rt *Runtime) { rt.natives = natives }
}

// WithObserver reports every local-variable store on every thread.
func WithObserver(observer LocalObserver) Option {
	return func(rt *Runtime) { rt.observer = observer }
}

// WithMaxDepth bounds the frame stack of each thread.
func WithMaxDepth(depth int) Option {
	return func(rt *Runtime) {
		if depth > 0 {
			rt.maxDepth = depth
		}
	}
}

func New(loader ClassLoader, opts ...Option) *Runtime {
	rt := &Runtime{
		Classes:  NewMethodArea(loader),
		Threads:  NewThreadRegistry(),
		natives:  DefaultNatives(),
		maxDepth: DefaultMaxDepth,
		strings:  make(map[string]*String),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Runtime) NewThread() *Thread {
	t := &Thread{
		ID:       uuid.NewString(),
		rt:       rt,
		observer: rt.observer,
	}
	rt.Threads.add(t)
	return t
}

// NewObject allocates an instance with default field values.
func (rt *Runtime) NewObject(c *Class) *Object {
	return newObject(c, rt.objectIDs.Add(1))
}

// Intern returns the canonical String for s.
func (rt *Runtime) Intern(s string) *String {
	rt.stringsMu.Lock()
	defer rt.stringsMu.Unlock()
	if str, ok := rt.strings[s]; ok {
		return str
	}
	str := &String{Value: s}
	rt.strings[s] = str
	return str
}

func (rt *Runtime) lookupNative(class, name, descriptor string) (NativeMethod, bool) {
	if rt.natives == nil {
		return nil, false
	}
	return rt.natives.Lookup(class, name, descriptor)
}

// classOf is the class that method selection starts from for r.
func (rt *Runtime) classOf(r Reference) (*Class, error) {
	if o, ok := r.(*Object); ok {
		return o.Class, nil
	}
	if _, ok := r.(*Array); ok {
		return rt.Classes.EnsureLoaded("java/lang/Object")
	}
	return rt.Classes.EnsureLoaded(r.ClassName())
}

// MainDescriptor is the descriptor of a program's entry point.
const MainDescriptor = "([Ljava/lang/String;)V"

// RunMain runs className.main(String[]) on a new thread and returns what the
// outermost frame returned.
func (rt *Runtime) RunMain(className string, args []string) (Value, error) {
	return rt.RunEntry(className, "main", MainDescriptor, args)
}

// RunEntry runs a static entry method on a new thread. The method takes
// either no parameters or a single String[], which receives args.
func (rt *Runtime) RunEntry(className, name, descriptor string, args []string) (Value, error) {
	md, err := classfile.ParseMethodDescriptor(descriptor)
	if err != nil {
		return Value{}, err
	}

	var params []Value
	switch {
	case len(md.Parameters) == 0:
	case len(md.Parameters) == 1 && md.Parameters[0].String() == "java.lang.String[]":
		elements := make([]Value, len(args))
		for i, arg := range args {
			elements[i] = RefValue(rt.Intern(arg))
		}
		params = []Value{RefValue(&Array{Component: "Ljava/lang/String;", Elements: elements})}
	default:
		return Value{}, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "entry point %s.%s%s must take no parameters or a String[]", className, name, descriptor)
	}

	t := rt.NewThread()
	defer rt.Threads.remove(t.ID)
	log.Infof("running %s.%s%s on thread %s", className, name, descriptor, t.ID)
	return t.Run(className, name, descriptor, params...)
}

// ThreadRegistry records live threads by ID.
type ThreadRegistry struct {
	mu      sync.RWMutex
	threads map[string]*Thread
}

func NewThreadRegistry() *ThreadRegistry {
	return &ThreadRegistry{threads: make(map[string]*Thread)}
}

func (r *ThreadRegistry) add(t *Thread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[t.ID] = t
}

func (r *ThreadRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, id)
}

func (r *ThreadRegistry) Get(id string) (*Thread, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.threads[id]
	return t, ok
}

// IDs lists live thread IDs in sorted order.
func (r *ThreadRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.threads))
	for id := range r.threads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
